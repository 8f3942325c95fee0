// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"inkwell/internal/auth"
	"inkwell/internal/middleware"
	"inkwell/internal/render"
	"inkwell/internal/service"
	"inkwell/internal/store"
)

// msgInvalidCredentials is shown on every login failure. One message for
// unknown emails and wrong passwords, so responses never reveal whether
// an account exists.
const msgInvalidCredentials = "Invalid email or password."

// AuthHandler handles registration, login and logout.
type AuthHandler struct {
	db              *sql.DB
	queries         *store.Queries
	renderer        *render.Renderer
	sessionManager  *scs.SessionManager
	eventService    *service.EventService
	loginProtection *middleware.LoginProtection
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager, lp *middleware.LoginProtection) *AuthHandler {
	return &AuthHandler{
		db:              db,
		queries:         store.New(db),
		renderer:        renderer,
		sessionManager:  sm,
		eventService:    service.NewEventService(db),
		loginProtection: lp,
	}
}

// RegisterFormData holds data for the registration template.
type RegisterFormData struct {
	Errors map[string]string
	Values RegisterForm
}

// RegisterForm renders the registration page.
// Already-authenticated users are sent back to the homepage.
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	if h.sessionManager.GetInt64(r.Context(), middleware.SessionKeyUserID) > 0 {
		http.Redirect(w, r, redirectHome, http.StatusSeeOther)
		return
	}

	h.renderRegisterForm(w, r, RegisterFormData{Errors: make(map[string]string)})
}

// renderRegisterForm renders the registration page, with inline field
// errors after an invalid submission.
func (h *AuthHandler) renderRegisterForm(w http.ResponseWriter, r *http.Request, data RegisterFormData) {
	if err := h.renderer.Render(w, r, "auth/register", render.TemplateData{
		Title: "Register",
		Data:  data,
		User:  middleware.GetUser(r),
	}); err != nil {
		logAndInternalError(w, "failed to render register page", "error", err)
	}
}

// Register handles the registration form submission.
// The first account ever created becomes the site admin; everyone after
// that registers as a member.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectRegister) {
		return
	}

	form := ParseRegisterForm(r)
	if errs := form.Validate(); len(errs) > 0 {
		h.renderRegisterForm(w, r, RegisterFormData{Errors: errs, Values: form})
		return
	}

	clientIP := middleware.GetClientIP(r)

	// Check for an existing account before hashing; the unique index on
	// email is still the authority under concurrent registration.
	if _, err := h.queries.GetUserByEmail(r.Context(), form.Email); err == nil {
		_ = h.eventService.LogAuthEvent(r.Context(), store.EventLevelInfo,
			"Registration attempt with existing email", nil, clientIP, r.URL.Path,
			map[string]any{"email": form.Email})
		flashError(w, r, h.renderer, redirectLogin, "You've already signed up with that email, log in instead!")
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		logAndInternalError(w, "database error during registration", "error", err)
		return
	}

	passwordHash, err := auth.HashPassword(form.Password)
	if err != nil {
		logAndInternalError(w, "failed to hash password", "error", err)
		return
	}

	role := store.RoleMember
	count, err := h.queries.CountUsers(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to count users", "error", err)
		return
	}
	if count == 0 {
		role = store.RoleAdmin
	}

	now := time.Now()
	user, err := h.queries.CreateUser(r.Context(), store.CreateUserParams{
		Email:        form.Email,
		PasswordHash: passwordHash,
		Role:         role,
		Name:         form.Name,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		// Unique constraint race: another request registered the email first.
		if isUniqueViolation(err) {
			flashError(w, r, h.renderer, redirectLogin, "You've already signed up with that email, log in instead!")
			return
		}
		logAndInternalError(w, "failed to create user", "error", err)
		return
	}

	// Regenerate session ID before elevating the session to a login
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}
	h.sessionManager.Put(r.Context(), middleware.SessionKeyUserID, user.ID)

	slog.Info("user registered", "user_id", user.ID, "email", user.Email, "role", user.Role)

	metadata := service.ClientMetadata(r)
	metadata["email"] = user.Email
	metadata["role"] = user.Role
	_ = h.eventService.LogAuthEvent(r.Context(), store.EventLevelInfo, "User registered", &user.ID, clientIP, r.URL.Path, metadata)

	flashSuccess(w, r, h.renderer, redirectHome, fmt.Sprintf("Welcome, %s!", user.Name))
}

// LoginForm renders the login page.
// Already-authenticated users are sent back to the homepage.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if h.sessionManager.GetInt64(r.Context(), middleware.SessionKeyUserID) > 0 {
		http.Redirect(w, r, redirectHome, http.StatusSeeOther)
		return
	}

	if err := h.renderer.Render(w, r, "auth/login", render.TemplateData{
		Title: "Log In",
		User:  middleware.GetUser(r),
	}); err != nil {
		logAndInternalError(w, "failed to render login page", "error", err)
	}
}

// Login handles the login form submission.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectLogin) {
		return
	}

	form := ParseLoginForm(r)
	if errs := form.Validate(); len(errs) > 0 {
		flashError(w, r, h.renderer, redirectLogin, firstError(errs, "email", "password"))
		return
	}

	clientIP := middleware.GetClientIP(r)

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(form.Email); locked {
			_ = h.eventService.LogAuthEvent(r.Context(), store.EventLevelWarning,
				"Login attempt on locked account", nil, clientIP, r.URL.Path,
				map[string]any{"email": form.Email})
			flashError(w, r, h.renderer, redirectLogin,
				fmt.Sprintf("Account temporarily locked. Try again in %s.", formatDuration(remaining)))
			return
		}
	}

	user, err := h.queries.GetUserByEmail(r.Context(), form.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			slog.Debug("login attempt for non-existent user", "email", form.Email)
			_ = h.eventService.LogAuthEvent(r.Context(), store.EventLevelWarning,
				"Login failed: user not found", nil, clientIP, r.URL.Path,
				map[string]any{"email": form.Email})
		} else {
			slog.Error("database error during login", "error", err)
		}
		// Record failed attempt even for non-existent users to prevent enumeration
		h.handleFailedAttempt(w, r, form.Email, msgInvalidCredentials)
		return
	}

	valid, err := auth.CheckPassword(form.Password, user.PasswordHash)
	if err != nil {
		slog.Error("password check error", "error", err)
		flashError(w, r, h.renderer, redirectLogin, msgInvalidCredentials)
		return
	}

	if !valid {
		slog.Debug("invalid password attempt", "email", form.Email)
		_ = h.eventService.LogAuthEvent(r.Context(), store.EventLevelWarning,
			"Login failed: invalid password", &user.ID, clientIP, r.URL.Path,
			map[string]any{"email": form.Email})
		h.handleFailedAttempt(w, r, form.Email, msgInvalidCredentials)
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(form.Email)
	}

	// Re-hash password if it uses old/expensive parameters
	if auth.NeedsRehash(user.PasswordHash) {
		if newHash, err := auth.HashPassword(form.Password); err == nil {
			if err := h.queries.UpdateUserPassword(r.Context(), store.UpdateUserPasswordParams{
				PasswordHash: newHash,
				UpdatedAt:    time.Now(),
				ID:           user.ID,
			}); err != nil {
				slog.Error("failed to re-hash password", "error", err, "user_id", user.ID)
			} else {
				slog.Info("password re-hashed with updated parameters", "user_id", user.ID)
			}
		}
	}

	if err := h.queries.UpdateUserLastLogin(r.Context(), store.UpdateUserLastLoginParams{
		LastLoginAt: sql.NullTime{Time: time.Now(), Valid: true},
		ID:          user.ID,
	}); err != nil {
		// Don't block login on this error
		slog.Error("failed to update last login time", "error", err, "user_id", user.ID)
	}

	// Regenerate session ID to prevent session fixation
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}

	h.sessionManager.Put(r.Context(), middleware.SessionKeyUserID, user.ID)

	slog.Info("user logged in", "user_id", user.ID, "email", user.Email)

	metadata := service.ClientMetadata(r)
	metadata["email"] = user.Email
	_ = h.eventService.LogAuthEvent(r.Context(), store.EventLevelInfo, "User logged in", &user.ID, clientIP, r.URL.Path, metadata)

	flashSuccess(w, r, h.renderer, redirectHome, fmt.Sprintf("Welcome back, %s!", user.Name))
}

// handleFailedAttempt records a failed login and redirects with the right message.
func (h *AuthHandler) handleFailedAttempt(w http.ResponseWriter, r *http.Request, email, message string) {
	if h.loginProtection != nil {
		if locked, lockDuration := h.loginProtection.RecordFailedAttempt(email); locked {
			_ = h.eventService.LogAuthEvent(r.Context(), store.EventLevelWarning,
				"Account locked due to failed attempts", nil, middleware.GetClientIP(r), r.URL.Path,
				map[string]any{"email": email, "duration": lockDuration.String()})
			flashError(w, r, h.renderer, redirectLogin,
				fmt.Sprintf("Too many failed attempts. Account locked for %s.", formatDuration(lockDuration)))
			return
		}
		remaining := h.loginProtection.GetRemainingAttempts(email)
		if remaining <= 3 && remaining > 0 {
			flashError(w, r, h.renderer, redirectLogin,
				fmt.Sprintf("%s %d attempts remaining.", message, remaining))
			return
		}
	}
	flashError(w, r, h.renderer, redirectLogin, message)
}

// Logout handles user logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	// Get user ID for logging before destroying session
	userID := h.sessionManager.GetInt64(r.Context(), middleware.SessionKeyUserID)

	if userID > 0 {
		_ = h.eventService.LogAuthEvent(r.Context(), store.EventLevelInfo,
			"User logged out", &userID, middleware.GetClientIP(r), r.URL.Path, nil)
	}

	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		slog.Error("session destroy error", "error", err)
	}

	slog.Info("user logged out", "user_id", userID)

	flashAndRedirect(w, r, h.renderer, redirectHome, "You have been logged out.", "info")
}

// isUniqueViolation reports whether an error is a SQLite unique constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// formatDuration formats a duration into a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", mins)
	}
	hours := int(d.Hours())
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
