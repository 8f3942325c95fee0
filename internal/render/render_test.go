// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/alexedwards/scs/v2"

	"inkwell/internal/store"
	"inkwell/web"
)

func testTemplatesFS(t *testing.T) fs.FS {
	t.Helper()

	return fstest.MapFS{
		"layouts/base.html": &fstest.MapFile{Data: []byte(
			`{{define "base"}}<html><body>{{template "content" .}}</body></html>{{end}}`)},
		"blog/index.html": &fstest.MapFile{Data: []byte(
			`{{define "content"}}<h1>{{.Title}}</h1>{{if .Flash}}<p class="flash">{{.Flash}}</p>{{end}}{{end}}`)},
		"auth/login.html": &fstest.MapFile{Data: []byte(
			`{{define "content"}}<form>login</form>{{end}}`)},
	}
}

func testRenderer(t *testing.T) *Renderer {
	t.Helper()

	r, err := New(Config{TemplatesFS: testTemplatesFS(t)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestNew_ParsesPageTemplates(t *testing.T) {
	r := testRenderer(t)

	for _, name := range []string{"blog/index", "auth/login"} {
		if _, ok := r.templates[name]; !ok {
			t.Errorf("template %q not parsed", name)
		}
	}
}

func TestNew_EmbeddedTemplates(t *testing.T) {
	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		t.Fatalf("fs.Sub: %v", err)
	}

	r, err := New(Config{TemplatesFS: templatesFS})
	if err != nil {
		t.Fatalf("New with embedded templates: %v", err)
	}

	// The pages the handlers render must all exist
	for _, name := range []string{
		"blog/index", "blog/post", "blog/about", "blog/contact", "blog/404",
		"auth/register", "auth/login",
		"admin/post_form",
	} {
		if _, ok := r.templates[name]; !ok {
			t.Errorf("template %q not parsed from embedded FS", name)
		}
	}
}

func TestRender(t *testing.T) {
	r := testRenderer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	if err := r.Render(rec, req, "blog/index", TemplateData{Title: "Home"}); err != nil {
		t.Fatalf("Render: %v", err)
	}

	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<h1>Home</h1>") {
		t.Errorf("body missing title: %q", body)
	}
}

func TestRender_UnknownTemplate(t *testing.T) {
	r := testRenderer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	if err := r.Render(rec, req, "blog/missing", TemplateData{}); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestTemplateData_LoggedIn(t *testing.T) {
	anonymous := TemplateData{}
	if anonymous.LoggedIn() {
		t.Error("LoggedIn() = true for nil user")
	}
	if anonymous.IsAdmin() {
		t.Error("IsAdmin() = true for nil user")
	}

	member := TemplateData{User: &store.User{Role: store.RoleMember}}
	if !member.LoggedIn() {
		t.Error("LoggedIn() = false for member")
	}
	if member.IsAdmin() {
		t.Error("IsAdmin() = true for member")
	}

	admin := TemplateData{User: &store.User{Role: store.RoleAdmin}}
	if !admin.IsAdmin() {
		t.Error("IsAdmin() = false for admin")
	}
}

func TestCommentBody_MarkdownAndSanitization(t *testing.T) {
	r := testRenderer(t)
	commentBody := r.templateFuncs()["commentBody"].(func(string) template.HTML)

	got := string(commentBody("**bold** remark"))
	if !strings.Contains(got, "<strong>bold</strong>") {
		t.Errorf("markdown not converted: %q", got)
	}

	got = string(commentBody("hello <script>alert(1)</script>"))
	if strings.Contains(got, "<script>") {
		t.Errorf("script tag survived sanitization: %q", got)
	}
	if !strings.Contains(got, "hello") {
		t.Errorf("text content lost: %q", got)
	}

	// GFM autolinks bare URLs
	got = string(commentBody("see https://example.com"))
	if !strings.Contains(got, `<a href="https://example.com"`) {
		t.Errorf("autolink missing: %q", got)
	}
}

func TestPostBody_Sanitization(t *testing.T) {
	r := testRenderer(t)
	postBody := r.templateFuncs()["postBody"].(func(string) template.HTML)

	got := string(postBody(`<p>Text</p><img src="https://example.com/a.jpg"><script>alert(1)</script>`))
	if strings.Contains(got, "<script>") {
		t.Errorf("script tag survived sanitization: %q", got)
	}
	if !strings.Contains(got, "<img") {
		t.Errorf("images should be allowed in post bodies: %q", got)
	}
	if !strings.Contains(got, "<p>Text</p>") {
		t.Errorf("paragraph lost: %q", got)
	}
}

func TestTemplateFuncs_Formatting(t *testing.T) {
	r := testRenderer(t)
	funcs := r.templateFuncs()

	formatDate := funcs["formatDate"].(func(time.Time) string)
	ts := time.Date(2026, time.September, 1, 15, 4, 0, 0, time.UTC)
	if got := formatDate(ts); got != "September 1, 2026" {
		t.Errorf("formatDate = %q", got)
	}

	truncate := funcs["truncate"].(func(string, int) string)
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}
	if got := truncate("a longer string", 8); got != "a longer..." {
		t.Errorf("truncate = %q", got)
	}
}

func TestSetFlash_PopOnRender(t *testing.T) {
	sm := scs.New()
	sm.Lifetime = time.Hour

	r, err := New(Config{TemplatesFS: testTemplatesFS(t), SessionManager: sm})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, err := sm.Load(context.Background(), "")
	if err != nil {
		t.Fatalf("session load: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
	r.SetFlash(req, "Post created successfully", "success")

	rec := httptest.NewRecorder()
	if err := r.Render(rec, req, "blog/index", TemplateData{Title: "Home"}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(rec.Body.String(), "Post created successfully") {
		t.Error("flash message not rendered")
	}

	// Flash is consumed on first render
	rec = httptest.NewRecorder()
	if err := r.Render(rec, req, "blog/index", TemplateData{Title: "Home"}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(rec.Body.String(), "Post created successfully") {
		t.Error("flash message rendered twice")
	}
}
