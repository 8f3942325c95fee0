// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func requestWithIDParam(t *testing.T, id string) *http.Request {
	t.Helper()

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestParseIDParam(t *testing.T) {
	tests := []struct {
		name    string
		param   string
		want    int64
		wantErr bool
	}{
		{"valid", "42", 42, false},
		{"zero", "0", 0, false},
		{"negative", "-1", -1, false},
		{"not a number", "abc", 0, true},
		{"empty", "", 0, true},
		{"float", "1.5", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIDParam(requestWithIDParam(t, tt.param))
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseIDParam(%q) expected error, got %d", tt.param, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseIDParam(%q): %v", tt.param, err)
			}
			if got != tt.want {
				t.Errorf("ParseIDParam(%q) = %d, want %d", tt.param, got, tt.want)
			}
		})
	}
}

func TestRequireEntityWithError_Found(t *testing.T) {
	rec := httptest.NewRecorder()

	got, ok := requireEntityWithError(rec, "post", 7, func(id int64) (string, error) {
		if id != 7 {
			t.Errorf("query called with id = %d, want 7", id)
		}
		return "the post", nil
	})

	if !ok {
		t.Fatal("expected ok for existing entity")
	}
	if got != "the post" {
		t.Errorf("entity = %q, want %q", got, "the post")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d (no error written)", rec.Code, http.StatusOK)
	}
}

func TestRequireEntityWithError_NotFound(t *testing.T) {
	rec := httptest.NewRecorder()

	_, ok := requireEntityWithError(rec, "post", 99, func(id int64) (string, error) {
		return "", sql.ErrNoRows
	})

	if ok {
		t.Fatal("expected not ok for missing entity")
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestRequireEntityWithError_QueryError(t *testing.T) {
	rec := httptest.NewRecorder()

	_, ok := requireEntityWithError(rec, "post", 1, func(id int64) (string, error) {
		return "", errors.New("disk I/O error")
	})

	if ok {
		t.Fatal("expected not ok for query error")
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestLogAndHTTPError(t *testing.T) {
	rec := httptest.NewRecorder()

	logAndHTTPError(rec, "Teapot", http.StatusTeapot, "something failed", "key", "value")

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
	if body := rec.Body.String(); body != "Teapot\n" {
		t.Errorf("body = %q, want %q", body, "Teapot\n")
	}
}
