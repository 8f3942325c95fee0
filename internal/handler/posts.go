// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"

	"inkwell/internal/middleware"
	"inkwell/internal/render"
	"inkwell/internal/service"
	"inkwell/internal/store"
	"inkwell/internal/util"
)

// PostDateFormat is the display format stored with each post.
const PostDateFormat = "January 2, 2006"

// PostsHandler handles the author-only post management routes.
type PostsHandler struct {
	db             *sql.DB
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
	eventService   *service.EventService
}

// NewPostsHandler creates a new PostsHandler.
func NewPostsHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager) *PostsHandler {
	return &PostsHandler{
		db:             db,
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
		eventService:   service.NewEventService(db),
	}
}

// PostFormData holds data for the post editor template.
type PostFormData struct {
	Post   *store.Post
	Errors map[string]string
	Values PostForm
	IsEdit bool
}

// NewPostForm handles GET /new-post - displays the post editor.
func (h *PostsHandler) NewPostForm(w http.ResponseWriter, r *http.Request) {
	if err := h.renderer.Render(w, r, "admin/post_form", render.TemplateData{
		Title: "New Post",
		Data:  PostFormData{Errors: make(map[string]string)},
		User:  middleware.GetUser(r),
	}); err != nil {
		logAndInternalError(w, "failed to render post editor", "error", err)
	}
}

// CreatePost handles POST /new-post - creates a new post.
func (h *PostsHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	if !parseFormOrRedirect(w, r, h.renderer, redirectNewPost) {
		return
	}

	form := ParsePostForm(r)
	if errs := form.Validate(); len(errs) > 0 {
		h.renderPostForm(w, r, "New Post", PostFormData{Errors: errs, Values: form})
		return
	}

	exists, err := h.queries.PostTitleExists(r.Context(), form.Title, 0)
	if err != nil {
		logAndInternalError(w, "database error checking title", "error", err)
		return
	}
	if exists != 0 {
		flashError(w, r, h.renderer, redirectNewPost, "A post with that title already exists.")
		return
	}

	slug, err := h.uniqueSlug(r.Context(), form.Title, 0)
	if err != nil {
		logAndInternalError(w, "database error checking slug", "error", err)
		return
	}

	now := time.Now()
	post, err := h.queries.CreatePost(r.Context(), store.CreatePostParams{
		Title:     form.Title,
		Subtitle:  form.Subtitle,
		Slug:      slug,
		Date:      now.Format(PostDateFormat),
		Body:      form.Body,
		AuthorID:  user.ID,
		ImgURL:    form.ImgURL,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if isUniqueViolation(err) {
			flashError(w, r, h.renderer, redirectNewPost, "A post with that title already exists.")
			return
		}
		logAndInternalError(w, "failed to create post", "error", err)
		return
	}

	slog.Info("post created", "post_id", post.ID, "slug", post.Slug, "author_id", user.ID)
	_ = h.eventService.LogPostEvent(r.Context(), store.EventLevelInfo, "Post created", &user.ID,
		map[string]any{"post_id": post.ID, "title": post.Title})

	flashSuccess(w, r, h.renderer, fmt.Sprintf(redirectPostID, post.ID), "Post created successfully")
}

// EditPostForm handles GET /edit-post/{id} - displays the editor with the post loaded.
func (h *PostsHandler) EditPostForm(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		http.Error(w, "Invalid post ID", http.StatusBadRequest)
		return
	}

	post, ok := requireEntityWithError(w, "post", id, func(id int64) (store.Post, error) {
		return h.queries.GetPostByID(r.Context(), id)
	})
	if !ok {
		return
	}

	data := PostFormData{
		Post:   &post,
		Errors: make(map[string]string),
		Values: PostForm{
			Title:    post.Title,
			Subtitle: post.Subtitle,
			ImgURL:   post.ImgURL,
			Body:     post.Body,
		},
		IsEdit: true,
	}

	if err := h.renderer.Render(w, r, "admin/post_form", render.TemplateData{
		Title: "Edit Post",
		Data:  data,
		User:  middleware.GetUser(r),
	}); err != nil {
		logAndInternalError(w, "failed to render post editor", "error", err)
	}
}

// UpdatePost handles POST /edit-post/{id} - updates a post.
// The stored date is kept; editing does not republish a post.
func (h *PostsHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	id, err := ParseIDParam(r)
	if err != nil {
		http.Error(w, "Invalid post ID", http.StatusBadRequest)
		return
	}

	post, ok := requireEntityWithError(w, "post", id, func(id int64) (store.Post, error) {
		return h.queries.GetPostByID(r.Context(), id)
	})
	if !ok {
		return
	}

	editURL := fmt.Sprintf(redirectEditPost, id)

	if !parseFormOrRedirect(w, r, h.renderer, editURL) {
		return
	}

	form := ParsePostForm(r)
	if errs := form.Validate(); len(errs) > 0 {
		h.renderPostForm(w, r, "Edit Post", PostFormData{Post: &post, Errors: errs, Values: form, IsEdit: true})
		return
	}

	exists, err := h.queries.PostTitleExists(r.Context(), form.Title, id)
	if err != nil {
		logAndInternalError(w, "database error checking title", "error", err)
		return
	}
	if exists != 0 {
		flashError(w, r, h.renderer, editURL, "A post with that title already exists.")
		return
	}

	slug := post.Slug
	if form.Title != post.Title {
		slug, err = h.uniqueSlug(r.Context(), form.Title, id)
		if err != nil {
			logAndInternalError(w, "database error checking slug", "error", err)
			return
		}
	}

	updated, err := h.queries.UpdatePost(r.Context(), store.UpdatePostParams{
		ID:        id,
		Title:     form.Title,
		Subtitle:  form.Subtitle,
		Slug:      slug,
		Body:      form.Body,
		AuthorID:  user.ID,
		ImgURL:    form.ImgURL,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		if isUniqueViolation(err) {
			flashError(w, r, h.renderer, editURL, "A post with that title already exists.")
			return
		}
		logAndInternalError(w, "failed to update post", "error", err, "post_id", id)
		return
	}

	slog.Info("post updated", "post_id", id, "updated_by", user.ID)
	_ = h.eventService.LogPostEvent(r.Context(), store.EventLevelInfo, "Post updated", &user.ID,
		map[string]any{"post_id": id, "title": updated.Title})

	flashSuccess(w, r, h.renderer, fmt.Sprintf(redirectPostID, id), "Post updated successfully")
}

// DeletePost handles POST /delete/{id} - deletes a post and its comments.
func (h *PostsHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	id, err := ParseIDParam(r)
	if err != nil {
		http.Error(w, "Invalid post ID", http.StatusBadRequest)
		return
	}

	post, ok := requireEntityWithError(w, "post", id, func(id int64) (store.Post, error) {
		return h.queries.GetPostByID(r.Context(), id)
	})
	if !ok {
		return
	}

	// Comments are removed by the ON DELETE CASCADE on comments.post_id.
	if err := h.queries.DeletePost(r.Context(), id); err != nil {
		logAndInternalError(w, "failed to delete post", "error", err, "post_id", id)
		return
	}

	slog.Info("post deleted", "post_id", id, "deleted_by", user.ID)
	_ = h.eventService.LogPostEvent(r.Context(), store.EventLevelInfo, "Post deleted", &user.ID,
		map[string]any{"post_id": id, "title": post.Title})

	flashSuccess(w, r, h.renderer, redirectHome, "Post deleted successfully")
}

// renderPostForm re-renders the post editor with validation errors.
func (h *PostsHandler) renderPostForm(w http.ResponseWriter, r *http.Request, title string, data PostFormData) {
	if err := h.renderer.Render(w, r, "admin/post_form", render.TemplateData{
		Title: title,
		Data:  data,
		User:  middleware.GetUser(r),
	}); err != nil {
		logAndInternalError(w, "failed to render post editor", "error", err)
	}
}

// uniqueSlug derives a permalink slug from the title, appending a numeric
// suffix when distinct titles collapse to the same slug.
func (h *PostsHandler) uniqueSlug(ctx context.Context, title string, excludeID int64) (string, error) {
	base := util.Slugify(title)
	if base == "" {
		base = "post"
	}

	slug := base
	for i := 2; ; i++ {
		exists, err := h.queries.PostSlugExists(ctx, slug, excludeID)
		if err != nil {
			return "", err
		}
		if exists == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}
