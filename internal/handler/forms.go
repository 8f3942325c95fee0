// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"net/mail"
	"net/url"
	"strings"
	"unicode/utf8"
)

// Field length limits shared by the form validators.
const (
	MinPasswordLength = 8
	MaxNameLength     = 100
	MaxEmailLength    = 254
	MaxTitleLength    = 200
	MaxSubtitleLength = 200
	MaxCommentLength  = 10000
)

// RegisterForm holds parsed registration input.
type RegisterForm struct {
	Name     string
	Email    string
	Password string
}

// ParseRegisterForm extracts registration fields from the request.
func ParseRegisterForm(r *http.Request) RegisterForm {
	return RegisterForm{
		Name:     strings.TrimSpace(r.FormValue("name")),
		Email:    strings.ToLower(strings.TrimSpace(r.FormValue("email"))),
		Password: r.FormValue("password"),
	}
}

// Validate returns a map of field name to error message.
// An empty map means the form is valid.
func (f RegisterForm) Validate() map[string]string {
	errs := make(map[string]string)

	if f.Name == "" {
		errs["name"] = "Name is required"
	} else if utf8.RuneCountInString(f.Name) > MaxNameLength {
		errs["name"] = "Name is too long"
	}

	if f.Email == "" {
		errs["email"] = "Email is required"
	} else if len(f.Email) > MaxEmailLength || !isValidEmail(f.Email) {
		errs["email"] = "Please enter a valid email address"
	}

	if f.Password == "" {
		errs["password"] = "Password is required"
	} else if utf8.RuneCountInString(f.Password) < MinPasswordLength {
		errs["password"] = "Password must be at least 8 characters"
	}

	return errs
}

// LoginForm holds parsed login input.
type LoginForm struct {
	Email    string
	Password string
}

// ParseLoginForm extracts login fields from the request.
func ParseLoginForm(r *http.Request) LoginForm {
	return LoginForm{
		Email:    strings.ToLower(strings.TrimSpace(r.FormValue("email"))),
		Password: r.FormValue("password"),
	}
}

// Validate returns a map of field name to error message.
func (f LoginForm) Validate() map[string]string {
	errs := make(map[string]string)

	if f.Email == "" {
		errs["email"] = "Email is required"
	}
	if f.Password == "" {
		errs["password"] = "Password is required"
	}

	return errs
}

// PostForm holds parsed post editor input.
type PostForm struct {
	Title    string
	Subtitle string
	ImgURL   string
	Body     string
}

// ParsePostForm extracts post editor fields from the request.
func ParsePostForm(r *http.Request) PostForm {
	return PostForm{
		Title:    strings.TrimSpace(r.FormValue("title")),
		Subtitle: strings.TrimSpace(r.FormValue("subtitle")),
		ImgURL:   strings.TrimSpace(r.FormValue("img_url")),
		Body:     strings.TrimSpace(r.FormValue("body")),
	}
}

// Validate returns a map of field name to error message.
func (f PostForm) Validate() map[string]string {
	errs := make(map[string]string)

	if f.Title == "" {
		errs["title"] = "Title is required"
	} else if utf8.RuneCountInString(f.Title) > MaxTitleLength {
		errs["title"] = "Title is too long"
	}

	if f.Subtitle == "" {
		errs["subtitle"] = "Subtitle is required"
	} else if utf8.RuneCountInString(f.Subtitle) > MaxSubtitleLength {
		errs["subtitle"] = "Subtitle is too long"
	}

	if f.ImgURL == "" {
		errs["img_url"] = "Image URL is required"
	} else if !isValidHTTPURL(f.ImgURL) {
		errs["img_url"] = "Image URL must be a valid http(s) URL"
	}

	if f.Body == "" {
		errs["body"] = "Body is required"
	}

	return errs
}

// CommentForm holds parsed comment input.
type CommentForm struct {
	Body string
}

// ParseCommentForm extracts comment fields from the request.
func ParseCommentForm(r *http.Request) CommentForm {
	return CommentForm{
		Body: strings.TrimSpace(r.FormValue("comment")),
	}
}

// Validate returns a map of field name to error message.
func (f CommentForm) Validate() map[string]string {
	errs := make(map[string]string)

	if f.Body == "" {
		errs["comment"] = "Comment cannot be empty"
	} else if utf8.RuneCountInString(f.Body) > MaxCommentLength {
		errs["comment"] = "Comment is too long"
	}

	return errs
}

// isValidEmail checks if the email is valid.
func isValidEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

// isValidHTTPURL checks that a string is an absolute http or https URL.
func isValidHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// firstError returns a single error message from a validation error map,
// preferring the given field order.
func firstError(errs map[string]string, order ...string) string {
	for _, field := range order {
		if msg, ok := errs[field]; ok {
			return msg
		}
	}
	for _, msg := range errs {
		return msg
	}
	return ""
}
