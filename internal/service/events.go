// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides business logic and service layer functionality
// including event logging for audit trails.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/mileusna/useragent"

	"inkwell/internal/store"
)

// EventService provides event logging functionality.
type EventService struct {
	queries *store.Queries
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{
		queries: store.New(db),
	}
}

// LogEvent creates a new event log entry.
func (s *EventService) LogEvent(ctx context.Context, level, category, message string, userID *int64, metadata map[string]any) error {
	var nullUserID sql.NullInt64
	if userID != nil {
		nullUserID = sql.NullInt64{Int64: *userID, Valid: true}
	}

	metadataJSON := "{}"
	if metadata != nil {
		jsonBytes, err := json.Marshal(metadata)
		if err == nil {
			metadataJSON = string(jsonBytes)
		}
	}

	_, err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     level,
		Category:  category,
		Message:   message,
		UserID:    nullUserID,
		Metadata:  metadataJSON,
		CreatedAt: time.Now(),
	})
	if err != nil {
		log.Printf("Failed to log event: %v", err)
		return err
	}

	return nil
}

// LogAuthEvent logs an authentication-related event. The client address and
// request path are folded into the event metadata.
func (s *EventService) LogAuthEvent(ctx context.Context, level, message string, userID *int64, ipAddress, path string, metadata map[string]any) error {
	if metadata == nil {
		metadata = make(map[string]any)
	}
	if ipAddress != "" {
		metadata["ip_address"] = ipAddress
	}
	if path != "" {
		metadata["path"] = path
	}
	return s.LogEvent(ctx, level, store.EventCategoryAuth, message, userID, metadata)
}

// LogPostEvent logs a post-related event.
func (s *EventService) LogPostEvent(ctx context.Context, level, message string, userID *int64, metadata map[string]any) error {
	return s.LogEvent(ctx, level, store.EventCategoryPost, message, userID, metadata)
}

// LogCommentEvent logs a comment-related event.
func (s *EventService) LogCommentEvent(ctx context.Context, level, message string, userID *int64, metadata map[string]any) error {
	return s.LogEvent(ctx, level, store.EventCategoryComment, message, userID, metadata)
}

// LogUserEvent logs a user-related event.
func (s *EventService) LogUserEvent(ctx context.Context, level, message string, userID *int64, metadata map[string]any) error {
	return s.LogEvent(ctx, level, store.EventCategoryUser, message, userID, metadata)
}

// LogSystemEvent logs a system-related event.
func (s *EventService) LogSystemEvent(ctx context.Context, level, message string, userID *int64, metadata map[string]any) error {
	return s.LogEvent(ctx, level, store.EventCategorySystem, message, userID, metadata)
}

// ClientMetadata extracts browser and OS details from the request for
// auth event metadata.
func ClientMetadata(r *http.Request) map[string]any {
	ua := useragent.Parse(r.UserAgent())

	metadata := map[string]any{
		"browser": ua.Name,
		"os":      ua.OS,
	}
	if ua.Version != "" {
		metadata["browser_version"] = ua.Version
	}
	if ua.Mobile {
		metadata["device"] = "mobile"
	} else if ua.Tablet {
		metadata["device"] = "tablet"
	} else if ua.Bot {
		metadata["device"] = "bot"
	}
	return metadata
}

// DeleteOldEvents removes events older than the specified duration.
// Returns the number of events removed.
func (s *EventService) DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	return s.queries.DeleteEventsBefore(ctx, cutoff)
}
