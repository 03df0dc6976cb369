// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// CommentStatus represents the moderation state of a comment.
type CommentStatus string

const (
	CommentStatusPending  CommentStatus = "pending"
	CommentStatusApproved CommentStatus = "approved"
	CommentStatusRejected CommentStatus = "rejected"
	CommentStatusSpam     CommentStatus = "spam"
)

// MaxCommentDepth caps the depth computed for threaded comments. The walk
// up the parent chain stops here even if the chain is longer or contains
// an accidental cycle.
const MaxCommentDepth = 5

// Comment belongs to one blog post and one author. ParentID links replies
// to the comment they answer. Name and Email cache the author's display
// info at save time; they are not re-synced when the profile changes.
type Comment struct {
	ID        uuid.UUID     `json:"id"`
	BlogID    uuid.UUID     `json:"blog_id"`
	UserID    uuid.UUID     `json:"user_id"`
	ParentID  *uuid.UUID    `json:"parent_id"`
	Content   string        `json:"content"`
	Status    CommentStatus `json:"status"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Edited    bool          `json:"edited"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`

	// Virtual fields populated when building threads.
	Depth   int        `json:"depth"`
	Replies []*Comment `json:"replies,omitempty"`
}

// IsReply returns true if this comment answers another comment.
func (c *Comment) IsReply() bool {
	return c.ParentID != nil
}

// CacheDisplayInfo fills the cached name/email fields from the author when
// they are blank. It is a point-in-time cache taken at save time.
func (c *Comment) CacheDisplayInfo(author *User) {
	if author == nil {
		return
	}
	if c.Name == "" {
		c.Name = author.DisplayName()
	}
	if c.Email == "" {
		c.Email = author.Email
	}
}

// CommentDepth walks the parent chain of the comment with the given ID
// through the supplied flat set, counting the steps. The walk stops at
// MaxCommentDepth, so the result is capped even for over-deep or cyclic
// chains.
func CommentDepth(id uuid.UUID, byID map[uuid.UUID]*Comment) int {
	depth := 0
	c, ok := byID[id]
	if !ok {
		return 0
	}
	for c.ParentID != nil {
		parent, ok := byID[*c.ParentID]
		if !ok {
			break
		}
		depth++
		if depth >= MaxCommentDepth {
			break
		}
		c = parent
	}
	return depth
}

// BuildCommentTree arranges a flat slice of comments into a reply tree.
// Top-level comments keep the input's ordering; replies are sorted
// oldest-first. Depth is set on every node, capped at MaxCommentDepth.
// Comments whose parent is missing from the slice are treated as roots.
func BuildCommentTree(flat []*Comment) []*Comment {
	byID := make(map[uuid.UUID]*Comment, len(flat))
	for _, c := range flat {
		c.Replies = nil
		byID[c.ID] = c
	}

	var roots []*Comment
	for _, c := range flat {
		if c.ParentID != nil {
			if parent, ok := byID[*c.ParentID]; ok {
				parent.Replies = append(parent.Replies, c)
				continue
			}
		}
		roots = append(roots, c)
	}

	var setDepth func(nodes []*Comment, depth int)
	setDepth = func(nodes []*Comment, depth int) {
		for _, n := range nodes {
			n.Depth = depth
			sort.SliceStable(n.Replies, func(i, j int) bool {
				return n.Replies[i].CreatedAt.Before(n.Replies[j].CreatedAt)
			})
			next := depth + 1
			if next > MaxCommentDepth {
				next = MaxCommentDepth
			}
			setDepth(n.Replies, next)
		}
	}
	setDepth(roots, 0)

	return roots
}
