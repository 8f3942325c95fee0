// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"testing"
	"time"

	"inkwell/internal/store"
	"inkwell/internal/testutil"
)

func newTestPostsHandler(t *testing.T) (*PostsHandler, *store.Queries, func()) {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	h := NewPostsHandler(db, nil, testSessionManager(t))
	return h, store.New(db), cleanup
}

func seedAuthor(t *testing.T, q *store.Queries) store.User {
	t.Helper()

	now := time.Now()
	user, err := q.CreateUser(context.Background(), store.CreateUserParams{
		Email:        "author@example.com",
		PasswordHash: "hash",
		Role:         store.RoleAdmin,
		Name:         "Author",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return user
}

func seedPost(t *testing.T, q *store.Queries, authorID int64, title, slug string) store.Post {
	t.Helper()

	now := time.Now()
	post, err := q.CreatePost(context.Background(), store.CreatePostParams{
		Title:     title,
		Subtitle:  "Subtitle",
		Slug:      slug,
		Date:      now.Format(PostDateFormat),
		Body:      "<p>Body</p>",
		AuthorID:  authorID,
		ImgURL:    "https://example.com/header.jpg",
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	return post
}

func TestNewPostsHandler(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	h := NewPostsHandler(db, nil, testSessionManager(t))

	if h.db != db {
		t.Error("db not set")
	}
	if h.queries == nil {
		t.Error("queries not set")
	}
	if h.eventService == nil {
		t.Error("event service not set")
	}
}

func TestUniqueSlug(t *testing.T) {
	h, q, cleanup := newTestPostsHandler(t)
	defer cleanup()

	ctx := context.Background()

	slug, err := h.uniqueSlug(ctx, "My First Post", 0)
	if err != nil {
		t.Fatalf("uniqueSlug: %v", err)
	}
	if slug != "my-first-post" {
		t.Errorf("slug = %q, want %q", slug, "my-first-post")
	}

	author := seedAuthor(t, q)
	seedPost(t, q, author.ID, "My First Post", "my-first-post")

	// A colliding title gets a numeric suffix
	slug, err = h.uniqueSlug(ctx, "My First Post!", 0)
	if err != nil {
		t.Fatalf("uniqueSlug: %v", err)
	}
	if slug != "my-first-post-2" {
		t.Errorf("slug = %q, want %q", slug, "my-first-post-2")
	}

	seedPost(t, q, author.ID, "My First Post Again", "my-first-post-2")

	slug, err = h.uniqueSlug(ctx, "My First Post?", 0)
	if err != nil {
		t.Fatalf("uniqueSlug: %v", err)
	}
	if slug != "my-first-post-3" {
		t.Errorf("slug = %q, want %q", slug, "my-first-post-3")
	}
}

func TestUniqueSlug_ExcludesOwnPost(t *testing.T) {
	h, q, cleanup := newTestPostsHandler(t)
	defer cleanup()

	ctx := context.Background()
	author := seedAuthor(t, q)
	post := seedPost(t, q, author.ID, "Stable Title", "stable-title")

	// Editing a post keeps its own slug available
	slug, err := h.uniqueSlug(ctx, "Stable Title", post.ID)
	if err != nil {
		t.Fatalf("uniqueSlug: %v", err)
	}
	if slug != "stable-title" {
		t.Errorf("slug = %q, want %q", slug, "stable-title")
	}
}

func TestUniqueSlug_EmptyTitle(t *testing.T) {
	h, _, cleanup := newTestPostsHandler(t)
	defer cleanup()

	slug, err := h.uniqueSlug(context.Background(), "!!!", 0)
	if err != nil {
		t.Fatalf("uniqueSlug: %v", err)
	}
	if slug != "post" {
		t.Errorf("slug = %q, want %q (fallback for unsluggable titles)", slug, "post")
	}
}
