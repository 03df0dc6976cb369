package store

import (
	"testing"

	"modernblog/internal/models"
)

func TestSiteInfoUpsert(t *testing.T) {
	db := testDB(t)
	info := NewSiteInfoStore(db)

	// Snapshot whatever the seed created so the test can restore it.
	before, err := info.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	t.Cleanup(func() {
		if before != nil {
			info.Upsert(before)
		}
	})

	updated := &models.SiteInfo{
		Name:        "Test Site",
		Description: "A site under test.",
		Email:       "test@site.test",
		GitHub:      "https://github.com/test-site",
	}
	if err := info.Upsert(updated); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := info.Get()
	if err != nil {
		t.Fatalf("Get after upsert: %v", err)
	}
	if got == nil {
		t.Fatal("expected a settings row")
	}
	if got.Name != "Test Site" || got.Email != "test@site.test" {
		t.Errorf("round trip: %q / %q", got.Name, got.Email)
	}

	// Second upsert must update in place, not add a row.
	updated.Name = "Renamed Site"
	if err := info.Upsert(updated); err != nil {
		t.Fatalf("Upsert (second): %v", err)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM site_info").Scan(&count)
	if count != 1 {
		t.Errorf("site_info rows: got %d, want 1", count)
	}

	got, _ = info.Get()
	if got.Name != "Renamed Site" {
		t.Errorf("name after second upsert: %q", got.Name)
	}
}
