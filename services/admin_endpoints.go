package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/krshsl/placeprep/backend/models"
)

type AdminStore interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	SetUserActive(ctx context.Context, userID string, active bool) (bool, error)
	DeleteAllUserTokens(ctx context.Context, userID string) error
}

type AdminEndpoints struct {
	repo      AdminStore
	questions *QuestionEndpoints
}

func NewAdminEndpoints(repo AdminStore, questions *QuestionEndpoints) *AdminEndpoints {
	return &AdminEndpoints{repo: repo, questions: questions}
}

// RegisterRoutes mounts /admin. Callers gate it with RequireRole(models.RoleAdmin).
func (e *AdminEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Get("/users", e.ListUsersHandler)
		r.Put("/users/{id}/active", e.SetUserActiveHandler)
		if e.questions != nil {
			e.questions.RegisterRoutes(r)
		}
	})
}

func (e *AdminEndpoints) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := e.repo.ListUsers(r.Context())
	if err != nil {
		writeDBError(w, err, "Failed to fetch users")
		return
	}

	views := make([]map[string]interface{}, 0, len(users))
	for i := range users {
		view := publicUser(&users[i])
		view["is_active"] = users[i].IsActive
		view["created_at"] = users[i].CreatedAt
		views = append(views, view)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"users": views,
		"stats": models.ComputeUserStats(users),
	})
}

func (e *AdminEndpoints) SetUserActiveHandler(w http.ResponseWriter, r *http.Request) {
	admin, _ := UserFromContext(r.Context())

	userID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(userID); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var req struct {
		IsActive *bool `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IsActive == nil {
		writeError(w, http.StatusBadRequest, "is_active is required")
		return
	}
	if admin != nil && admin.ID == userID && !*req.IsActive {
		writeError(w, http.StatusBadRequest, "You cannot deactivate your own account")
		return
	}

	found, err := e.repo.SetUserActive(r.Context(), userID, *req.IsActive)
	if err != nil {
		writeDBError(w, err, "Failed to update user")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	// a disabled account must not keep refreshing its session
	if !*req.IsActive {
		if err := e.repo.DeleteAllUserTokens(r.Context(), userID); err != nil {
			slog.Error("Failed to revoke tokens for disabled user", "error", err, "user_id", userID)
		}
	}

	slog.Info("User active flag changed", "user_id", userID, "is_active", *req.IsActive)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"user_id":   userID,
		"is_active": *req.IsActive,
	})
}
