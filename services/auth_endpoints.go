package services

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/krshsl/placeprep/backend/models"
)

type AuthEndpoints struct {
	authService *AuthService
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	FullName   string `json:"full_name"`
	Department string `json:"department"`
	Year       int    `json:"year"`
}

func NewAuthEndpoints(authService *AuthService) *AuthEndpoints {
	return &AuthEndpoints{
		authService: authService,
	}
}

// RegisterRoutes mounts the public auth routes
func (e *AuthEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", e.LoginHandler)
		r.Post("/signup", e.SignupHandler)
		r.Post("/refresh", e.RefreshHandler)
	})
}

// RegisterProtectedRoutes mounts auth routes that need an authenticated user
func (e *AuthEndpoints) RegisterProtectedRoutes(r chi.Router) {
	r.Post("/auth/logout", e.LogoutHandler)
	r.Get("/auth/me", e.MeHandler)
}

func publicUser(u *models.User) map[string]interface{} {
	return map[string]interface{}{
		"id":         u.ID,
		"email":      u.Email,
		"full_name":  u.FullName,
		"role":       u.Role,
		"department": u.Department,
		"year":       u.Year,
		"is_active":  u.IsActive,
	}
}

func (e *AuthEndpoints) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	authResponse, err := e.authService.Login(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		slog.Error("Login failed", "error", err, "email", req.Email)
		if errors.Is(err, ErrAccountDisabled) {
			writeError(w, http.StatusForbidden, "Account is disabled")
			return
		}
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	e.authService.SetAuthCookies(w, authResponse.AccessToken, authResponse.RefreshToken, authResponse.PermanentToken)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":    publicUser(authResponse.User),
		"message": "Login successful",
	})
}

func (e *AuthEndpoints) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "A valid email is required")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}
	fullName := sanitizeText(req.FullName)
	if fullName == "" {
		writeError(w, http.StatusBadRequest, "Full name is required")
		return
	}

	authResponse, err := e.authService.Signup(r.Context(), SignupInput{
		Email:      req.Email,
		Password:   req.Password,
		FullName:   fullName,
		Department: sanitizeText(req.Department),
		Year:       req.Year,
	})
	if err != nil {
		slog.Error("Signup failed", "error", err, "email", req.Email)
		if errors.Is(err, ErrUserExists) {
			writeError(w, http.StatusConflict, "User already exists")
			return
		}
		writeDBError(w, err, "Signup failed")
		return
	}

	e.authService.SetAuthCookies(w, authResponse.AccessToken, authResponse.RefreshToken, authResponse.PermanentToken)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"user":    publicUser(authResponse.User),
		"message": "Signup successful",
	})
}

func (e *AuthEndpoints) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	refreshToken := tokenFromCookie(r, refreshCookie)
	if refreshToken == "" {
		writeError(w, http.StatusUnauthorized, "No refresh token provided")
		return
	}

	authResponse, err := e.authService.RefreshToken(r.Context(), refreshToken)
	if err != nil {
		slog.Error("Token refresh failed", "error", err)
		writeError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	e.authService.SetAuthCookies(w, authResponse.AccessToken, "", "")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Token refreshed successfully",
	})
}

func (e *AuthEndpoints) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	if err := e.authService.Logout(r.Context(), user.ID); err != nil {
		slog.Error("Logout failed", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Logout failed")
		return
	}

	e.authService.ClearAuthCookies(w)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Logout successful",
	})
}

func (e *AuthEndpoints) MeHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user": publicUser(user),
	})
}
