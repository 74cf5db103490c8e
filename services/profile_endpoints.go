package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/krshsl/placeprep/backend/models"
	"github.com/lib/pq"
)

// ProfileStore reads and partially updates student profiles
type ProfileStore interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUserProfile(ctx context.Context, userID string, updates map[string]interface{}) (*models.User, error)
}

type ProfileEndpoints struct {
	repo  ProfileStore
	files ResumeFileStore
}

// ProfileResponse is the profile view returned to the dashboard
type ProfileResponse struct {
	ID                string   `json:"id"`
	Email             string   `json:"email"`
	FullName          string   `json:"full_name"`
	Role              string   `json:"role"`
	Department        *string  `json:"department"`
	Year              *int     `json:"year"`
	ResumeText        *string  `json:"resume_text"`
	ResumeURL         *string  `json:"resume_url"`
	Skills            []string `json:"skills"`
	CareerGoal        *string  `json:"career_goal"`
	Interests         []string `json:"interests"`
	TargetCompanyType *string  `json:"target_company_type"`
}

const maxResumeUploadBytes = 5 << 20

var (
	profileStringFields = []string{"resume_text", "resume_url", "career_goal", "target_company_type", "department", "full_name"}
	profileArrayFields  = []string{"skills", "interests"}
)

func NewProfileEndpoints(repo ProfileStore, files ResumeFileStore) *ProfileEndpoints {
	return &ProfileEndpoints{repo: repo, files: files}
}

func (e *ProfileEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/student", func(r chi.Router) {
		r.Get("/profile", e.GetProfileHandler)
		r.Put("/profile", e.UpdateProfileHandler)
		r.Post("/resume", e.UploadResumeHandler)
	})
}

func newProfileResponse(u *models.User) ProfileResponse {
	return ProfileResponse{
		ID:                u.ID,
		Email:             u.Email,
		FullName:          u.FullName,
		Role:              u.Role,
		Department:        u.Department,
		Year:              u.Year,
		ResumeText:        u.ResumeText,
		ResumeURL:         u.ResumeURL,
		Skills:            []string(u.Skills),
		CareerGoal:        u.CareerGoal,
		Interests:         []string(u.Interests),
		TargetCompanyType: u.TargetCompanyType,
	}
}

func (e *ProfileEndpoints) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	fresh, err := e.repo.GetUserByID(r.Context(), user.ID)
	if err != nil {
		writeDBError(w, err, "Failed to fetch profile")
		return
	}
	if fresh == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"profile": newProfileResponse(fresh)})
}

// cleanList trims, sanitizes and de-duplicates list items, dropping empties
func cleanList(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = sanitizeText(item)
		key := strings.ToLower(item)
		if item == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}

// buildProfileUpdates converts the provided keys of a PUT body into column updates.
// Keys that are absent are left alone. Empty values become NULL.
func buildProfileUpdates(body map[string]json.RawMessage) (map[string]interface{}, error) {
	updates := make(map[string]interface{})

	for _, field := range profileStringFields {
		raw, ok := body[field]
		if !ok {
			continue
		}
		var value *string
		if err := json.Unmarshal(raw, &value); err != nil {
			return nil, fmt.Errorf("%s must be a string", field)
		}
		if value == nil {
			updates[field] = nil
			continue
		}
		cleaned := sanitizeText(*value)
		if cleaned == "" {
			if field == "full_name" {
				return nil, fmt.Errorf("full_name cannot be empty")
			}
			updates[field] = nil
			continue
		}
		updates[field] = cleaned
	}

	for _, field := range profileArrayFields {
		raw, ok := body[field]
		if !ok {
			continue
		}
		var values []string
		if err := json.Unmarshal(raw, &values); err != nil {
			return nil, fmt.Errorf("%s must be an array of strings", field)
		}
		cleaned := cleanList(values)
		if len(cleaned) == 0 {
			updates[field] = nil
			continue
		}
		updates[field] = pq.StringArray(cleaned)
	}

	if raw, ok := body["year"]; ok {
		var year *int
		if err := json.Unmarshal(raw, &year); err != nil {
			return nil, fmt.Errorf("year must be a number")
		}
		if year != nil && (*year < 1 || *year > 6) {
			return nil, fmt.Errorf("year must be between 1 and 6")
		}
		if year == nil {
			updates["year"] = nil
		} else {
			updates["year"] = *year
		}
	}

	return updates, nil
}

func (e *ProfileEndpoints) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updates, err := buildProfileUpdates(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(updates) == 0 {
		writeError(w, http.StatusBadRequest, "No profile fields provided")
		return
	}

	updated, err := e.repo.UpdateUserProfile(r.Context(), user.ID, updates)
	if err != nil {
		slog.Error("Failed to update profile", "error", err, "user_id", user.ID)
		writeDBError(w, err, "Failed to update profile")
		return
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	slog.Info("Profile updated", "user_id", user.ID, "fields", len(updates))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"profile": newProfileResponse(updated),
		"message": "Profile updated successfully",
	})
}

// UploadResumeHandler extracts text from an uploaded resume file and stores it on the profile
func (e *ProfileEndpoints) UploadResumeHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxResumeUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(maxResumeUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Resume must be a multipart upload of at most 5 MB")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, tooLarge, err := readLimited(file, maxResumeUploadBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}
	if tooLarge {
		writeError(w, http.StatusRequestEntityTooLarge, "Resume must be at most 5 MB")
		return
	}

	mime := detectResumeMIME(header.Filename, data)
	text, err := ExtractResumeText(mime, data)
	if err != nil {
		slog.Warn("Failed to extract resume text", "error", err, "user_id", user.ID, "mime", mime)
		writeError(w, http.StatusUnsupportedMediaType, "Only PDF, DOCX and TXT resumes are supported", err.Error())
		return
	}
	text = sanitizeText(text)
	if text == "" {
		writeError(w, http.StatusUnprocessableEntity, "No text could be extracted from the resume")
		return
	}

	updates := map[string]interface{}{"resume_text": text}
	if e.files != nil {
		url, err := e.files.Upload(r.Context(), user.ID, header.Filename, mime, data)
		if err != nil {
			slog.Error("Failed to store resume file", "error", err, "user_id", user.ID)
			writeError(w, http.StatusBadGateway, "Failed to store resume file")
			return
		}
		updates["resume_url"] = url
	}

	updated, err := e.repo.UpdateUserProfile(r.Context(), user.ID, updates)
	if err != nil {
		writeDBError(w, err, "Failed to save resume")
		return
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	slog.Info("Resume uploaded", "user_id", user.ID, "mime", mime, "characters", len(text))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"profile": newProfileResponse(updated),
		"message": "Resume uploaded successfully",
	})
}
