// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

// chain builds n comments where each one is the parent of the next.
// Returns the flat map and the ID of the deepest comment.
func chain(n int) (map[uuid.UUID]*Comment, uuid.UUID) {
	byID := make(map[uuid.UUID]*Comment, n)
	var parent *uuid.UUID
	var last uuid.UUID
	for i := 0; i < n; i++ {
		c := &Comment{ID: uuid.New(), ParentID: parent}
		byID[c.ID] = c
		id := c.ID
		parent = &id
		last = c.ID
	}
	return byID, last
}

func TestCommentDepth(t *testing.T) {
	tests := []struct {
		name   string
		length int
		want   int
	}{
		{name: "top-level comment", length: 1, want: 0},
		{name: "single reply", length: 2, want: 1},
		{name: "three levels", length: 4, want: 3},
		{name: "at the cap", length: 6, want: 5},
		{name: "ten synthetic parents capped at five", length: 11, want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			byID, deepest := chain(tt.length)
			if got := CommentDepth(deepest, byID); got != tt.want {
				t.Errorf("CommentDepth() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCommentDepthCyclicChain(t *testing.T) {
	// Two comments accidentally pointing at each other must not loop forever.
	a := &Comment{ID: uuid.New()}
	b := &Comment{ID: uuid.New()}
	a.ParentID = &b.ID
	b.ParentID = &a.ID
	byID := map[uuid.UUID]*Comment{a.ID: a, b.ID: b}

	if got := CommentDepth(a.ID, byID); got > MaxCommentDepth {
		t.Errorf("CommentDepth() on cycle = %d, exceeds cap %d", got, MaxCommentDepth)
	}
}

func TestCommentDepthMissingID(t *testing.T) {
	if got := CommentDepth(uuid.New(), map[uuid.UUID]*Comment{}); got != 0 {
		t.Errorf("CommentDepth() for unknown ID = %d, want 0", got)
	}
}

func TestCacheDisplayInfo(t *testing.T) {
	author := &User{
		Username: "jdoe",
		FullName: "Jane Doe",
		Email:    "jane@example.com",
	}

	t.Run("blank fields filled from author", func(t *testing.T) {
		c := &Comment{}
		c.CacheDisplayInfo(author)
		if c.Name != "Jane Doe" {
			t.Errorf("name: got %q, want %q", c.Name, "Jane Doe")
		}
		if c.Email != "jane@example.com" {
			t.Errorf("email: got %q, want %q", c.Email, "jane@example.com")
		}
	})

	t.Run("existing values preserved", func(t *testing.T) {
		c := &Comment{Name: "Anonymous", Email: "anon@example.com"}
		c.CacheDisplayInfo(author)
		if c.Name != "Anonymous" || c.Email != "anon@example.com" {
			t.Errorf("cached fields overwritten: %q / %q", c.Name, c.Email)
		}
	})

	t.Run("falls back to username without full name", func(t *testing.T) {
		c := &Comment{}
		c.CacheDisplayInfo(&User{Username: "jdoe", Email: "j@example.com"})
		if c.Name != "jdoe" {
			t.Errorf("name: got %q, want %q", c.Name, "jdoe")
		}
	})

	t.Run("nil author is a no-op", func(t *testing.T) {
		c := &Comment{}
		c.CacheDisplayInfo(nil)
		if c.Name != "" || c.Email != "" {
			t.Errorf("expected untouched fields, got %q / %q", c.Name, c.Email)
		}
	})
}

func TestBuildCommentTree(t *testing.T) {
	blogID := uuid.New()
	now := time.Now()

	root := &Comment{ID: uuid.New(), BlogID: blogID, CreatedAt: now}
	replyB := &Comment{ID: uuid.New(), BlogID: blogID, ParentID: &root.ID, CreatedAt: now.Add(2 * time.Minute)}
	replyA := &Comment{ID: uuid.New(), BlogID: blogID, ParentID: &root.ID, CreatedAt: now.Add(1 * time.Minute)}
	nested := &Comment{ID: uuid.New(), BlogID: blogID, ParentID: &replyA.ID, CreatedAt: now.Add(3 * time.Minute)}
	orphan := &Comment{ID: uuid.New(), BlogID: blogID, CreatedAt: now.Add(4 * time.Minute)}

	roots := BuildCommentTree([]*Comment{root, replyB, replyA, nested, orphan})

	if len(roots) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(roots))
	}
	if roots[0] != root || roots[1] != orphan {
		t.Error("roots not in input order")
	}
	if len(root.Replies) != 2 {
		t.Fatalf("expected 2 replies on root, got %d", len(root.Replies))
	}
	// Replies ordered oldest-first.
	if root.Replies[0] != replyA || root.Replies[1] != replyB {
		t.Error("replies not ordered oldest-first")
	}
	if root.Depth != 0 || replyA.Depth != 1 || nested.Depth != 2 {
		t.Errorf("depths: root=%d replyA=%d nested=%d", root.Depth, replyA.Depth, nested.Depth)
	}
}

func TestBuildCommentTreeMissingParentBecomesRoot(t *testing.T) {
	missing := uuid.New()
	c := &Comment{ID: uuid.New(), ParentID: &missing}

	roots := BuildCommentTree([]*Comment{c})
	if len(roots) != 1 || roots[0] != c {
		t.Fatal("comment with missing parent should be treated as a root")
	}
	if c.Depth != 0 {
		t.Errorf("depth: got %d, want 0", c.Depth)
	}
}
