// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"inkwell/internal/middleware"
	"inkwell/internal/render"
	"inkwell/internal/service"
	"inkwell/internal/store"
)

// BlogHandler serves the public blog pages.
type BlogHandler struct {
	db             *sql.DB
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
	eventService   *service.EventService
}

// NewBlogHandler creates a new BlogHandler.
func NewBlogHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager) *BlogHandler {
	return &BlogHandler{
		db:             db,
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
		eventService:   service.NewEventService(db),
	}
}

// HomeData holds data for the post index template.
type HomeData struct {
	Posts []store.ListPostsRow
}

// Home handles GET / - lists all posts, newest first.
func (h *BlogHandler) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != RouteRoot {
		h.NotFound(w, r)
		return
	}

	posts, err := h.queries.ListPosts(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list posts", "error", err)
		return
	}

	if err := h.renderer.Render(w, r, "blog/index", render.TemplateData{
		Title: "Home",
		Data:  HomeData{Posts: posts},
		User:  middleware.GetUser(r),
	}); err != nil {
		logAndInternalError(w, "failed to render home page", "error", err)
	}
}

// PostData holds data for the single post template. CommentErrors and
// CommentDraft carry an invalid comment submission back into the form.
type PostData struct {
	Post          store.Post
	Author        string
	Comments      []store.ListCommentsForPostRow
	CommentErrors map[string]string
	CommentDraft  string
}

// ShowPost handles GET /post/{post} - displays a post with its comments.
// The parameter accepts a numeric ID or a permalink slug.
func (h *BlogHandler) ShowPost(w http.ResponseWriter, r *http.Request) {
	post, ok := h.lookupPost(w, r)
	if !ok {
		return
	}

	h.renderPost(w, r, post, nil, "")
}

// renderPost renders the post page with its comments.
func (h *BlogHandler) renderPost(w http.ResponseWriter, r *http.Request, post store.Post, commentErrors map[string]string, commentDraft string) {
	author, err := h.queries.GetUserByID(r.Context(), post.AuthorID)
	if err != nil {
		logAndInternalError(w, "failed to get post author", "error", err, "post_id", post.ID)
		return
	}

	comments, err := h.queries.ListCommentsForPost(r.Context(), post.ID)
	if err != nil {
		logAndInternalError(w, "failed to list comments", "error", err, "post_id", post.ID)
		return
	}

	if err := h.renderer.Render(w, r, "blog/post", render.TemplateData{
		Title: post.Title,
		Data: PostData{
			Post:          post,
			Author:        author.Name,
			Comments:      comments,
			CommentErrors: commentErrors,
			CommentDraft:  commentDraft,
		},
		User: middleware.GetUser(r),
	}); err != nil {
		logAndInternalError(w, "failed to render post page", "error", err)
	}
}

// AddComment handles POST /post/{post} - adds a comment to a post.
// Anonymous visitors are redirected to the login page; the comment is not saved.
func (h *BlogHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	post, ok := h.lookupPost(w, r)
	if !ok {
		return
	}

	user := middleware.GetUser(r)
	if user == nil {
		flashError(w, r, h.renderer, redirectLogin, "You need to login to make a comment!")
		return
	}

	postURL := fmt.Sprintf(redirectPostID, post.ID)

	if !parseFormOrRedirect(w, r, h.renderer, postURL) {
		return
	}

	form := ParseCommentForm(r)
	if errs := form.Validate(); len(errs) > 0 {
		h.renderPost(w, r, post, errs, form.Body)
		return
	}

	comment, err := h.queries.CreateComment(r.Context(), store.CreateCommentParams{
		PostID:    post.ID,
		AuthorID:  user.ID,
		Body:      form.Body,
		CreatedAt: time.Now(),
	})
	if err != nil {
		logAndInternalError(w, "failed to create comment", "error", err, "post_id", post.ID)
		return
	}

	slog.Info("comment created", "comment_id", comment.ID, "post_id", post.ID, "user_id", user.ID)
	_ = h.eventService.LogCommentEvent(r.Context(), store.EventLevelInfo, "Comment added", &user.ID,
		map[string]any{"comment_id": comment.ID, "post_id": post.ID})

	http.Redirect(w, r, postURL, http.StatusSeeOther)
}

// lookupPost resolves the {post} URL parameter to a post, writing a 404 on miss.
func (h *BlogHandler) lookupPost(w http.ResponseWriter, r *http.Request) (store.Post, bool) {
	param := chi.URLParam(r, "post")

	var (
		post store.Post
		err  error
	)
	if id, convErr := strconv.ParseInt(param, 10, 64); convErr == nil {
		post, err = h.queries.GetPostByID(r.Context(), id)
	} else {
		post, err = h.queries.GetPostBySlug(r.Context(), param)
	}

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.NotFound(w, r)
		} else {
			logAndInternalError(w, "failed to get post", "error", err, "post", param)
		}
		return store.Post{}, false
	}
	return post, true
}

// About handles GET /about - the static about page.
func (h *BlogHandler) About(w http.ResponseWriter, r *http.Request) {
	if err := h.renderer.Render(w, r, "blog/about", render.TemplateData{
		Title: "About",
		User:  middleware.GetUser(r),
	}); err != nil {
		logAndInternalError(w, "failed to render about page", "error", err)
	}
}

// Contact handles GET /contact - the static contact page.
func (h *BlogHandler) Contact(w http.ResponseWriter, r *http.Request) {
	if err := h.renderer.Render(w, r, "blog/contact", render.TemplateData{
		Title: "Contact",
		User:  middleware.GetUser(r),
	}); err != nil {
		logAndInternalError(w, "failed to render contact page", "error", err)
	}
}

// NotFound renders the 404 page.
func (h *BlogHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNotFound)
	if err := h.renderer.Render(w, r, "blog/404", render.TemplateData{
		Title: "Page Not Found",
		User:  middleware.GetUser(r),
	}); err != nil {
		slog.Error("failed to render 404 page", "error", err)
		http.Error(w, "Page not found", http.StatusNotFound)
	}
}
