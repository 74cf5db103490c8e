package services

import (
	"context"
	"encoding/json"
	"errors"
	"html"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/krshsl/placeprep/backend/models"
	"github.com/microcosm-cc/bluemonday"
)

type contextKey string

const userContextKey contextKey = "user"

// Postgres error codes the handlers translate into client errors
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgUndefinedTable      = "42P01"
	pgInvalidText         = "22P02"
)

var strictPolicy = bluemonday.StrictPolicy()

func withUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the user placed on the request by the auth middleware
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userContextKey).(*models.User)
	return user, ok && user != nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string, details ...string) {
	body := map[string]interface{}{"error": message}
	if len(details) > 0 && details[0] != "" {
		body["details"] = details[0]
	}
	writeJSON(w, status, body)
}

// sanitizeText strips markup from user supplied text and trims it.
// The policy escapes entities, so they are decoded again for storage as plain text.
func sanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// dbErrorStatus maps a Postgres error to an HTTP status and client message.
// ok is false when the error is not a recognised Postgres error.
func dbErrorStatus(err error) (status int, message string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return 0, "", false
	}
	switch pgErr.Code {
	case pgForeignKeyViolation:
		return http.StatusBadRequest, "User not found in database. Please log out and log in again.", true
	case pgUniqueViolation:
		return http.StatusConflict, "Record already exists", true
	case pgInvalidText:
		return http.StatusBadRequest, "Invalid identifier", true
	case pgUndefinedTable:
		return http.StatusInternalServerError, "Database table not found. Run the migrations before serving traffic.", true
	}
	return 0, "", false
}

// writeDBError writes the translated Postgres error, or a generic 500 with fallback as the message
func writeDBError(w http.ResponseWriter, err error, fallback string) {
	if status, message, ok := dbErrorStatus(err); ok {
		writeError(w, status, message, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, fallback)
}
