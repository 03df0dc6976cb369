package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLoggerPassThrough(t *testing.T) {
	var sawMethod string
	handler := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawMethod = r.Method
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("missing"))
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/blog/gone/", nil))

	if sawMethod != http.MethodPost {
		t.Errorf("inner handler saw method %q", sawMethod)
	}
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
	if rr.Body.String() != "missing" {
		t.Errorf("body = %q", rr.Body.String())
	}
}

func TestStatusWriter(t *testing.T) {
	t.Run("records the first status only", func(t *testing.T) {
		sw := &statusWriter{ResponseWriter: httptest.NewRecorder()}
		sw.WriteHeader(http.StatusSeeOther)
		sw.WriteHeader(http.StatusInternalServerError)
		if sw.status != http.StatusSeeOther {
			t.Errorf("status = %d, want 303", sw.status)
		}
	})

	t.Run("bare write defaults to 200 and counts bytes", func(t *testing.T) {
		sw := &statusWriter{ResponseWriter: httptest.NewRecorder()}
		sw.Write([]byte("hello"))
		sw.Write([]byte(" world"))
		if sw.status != http.StatusOK {
			t.Errorf("status = %d, want 200", sw.status)
		}
		if sw.bytes != 11 {
			t.Errorf("bytes = %d, want 11", sw.bytes)
		}
	})

	t.Run("write keeps an explicit status", func(t *testing.T) {
		sw := &statusWriter{ResponseWriter: httptest.NewRecorder()}
		sw.WriteHeader(http.StatusCreated)
		sw.Write([]byte("made"))
		if sw.status != http.StatusCreated {
			t.Errorf("status = %d, want 201", sw.status)
		}
	})
}
