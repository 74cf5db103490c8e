package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/krshsl/placeprep/backend/models"
)

// ResumeReviewStore persists stored resume reviews
type ResumeReviewStore interface {
	CreateResumeReview(ctx context.Context, review *models.ResumeReview) error
	GetResumeReviews(ctx context.Context, userID string, limit int) ([]models.ResumeReview, error)
	ProbeResumeReviews(ctx context.Context) error
}

type ResumeEndpoints struct {
	repo     ResumeReviewStore
	ai       TextGenerator
	analyzer *ResumeAnalyzer
	events   EventPublisher
}

type ResumeTextRequest struct {
	ResumeText     string `json:"resume_text"`
	JobDescription string `json:"job_description"`
}

const reviewHistoryLimit = 20

const healthCheckResume = `John Doe
Software Engineer
Email: john@example.com
Phone: 123-456-7890

EXPERIENCE
Software Engineer at Tech Corp (2020-2024)
- Developed web applications using React and Node.js
- Led a team of 3 developers
- Improved application performance by 40%

EDUCATION
Bachelor of Science in Computer Science
University of Technology (2016-2020)`

func NewResumeEndpoints(repo ResumeReviewStore, ai TextGenerator, events EventPublisher) *ResumeEndpoints {
	e := &ResumeEndpoints{repo: repo, ai: ai, events: events}
	if ai != nil {
		e.analyzer = NewResumeAnalyzer(ai)
	}
	return e
}

// RegisterPublicRoutes mounts routes that need no authentication
func (e *ResumeEndpoints) RegisterPublicRoutes(r chi.Router) {
	r.Get("/resume/health", e.HealthHandler)
}

func (e *ResumeEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/resume", func(r chi.Router) {
		r.Post("/review", e.CreateReviewHandler)
		r.Get("/review", e.ListReviewsHandler)
		r.Post("/analyze", e.AnalyzeHandler)
		r.Post("/match", e.MatchHandler)
		r.Post("/skills-gap", e.SkillsGapHandler)
		r.Post("/keywords", e.KeywordsHandler)
	})
}

func (e *ResumeEndpoints) decodeResume(w http.ResponseWriter, r *http.Request, needJob bool) (*ResumeTextRequest, bool) {
	if e.analyzer == nil {
		writeError(w, http.StatusServiceUnavailable, "AI service is not configured")
		return nil, false
	}

	var req ResumeTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}

	req.ResumeText = sanitizeText(req.ResumeText)
	if req.ResumeText == "" {
		writeError(w, http.StatusBadRequest, "resume_text is required")
		return nil, false
	}

	// job matching only needs both texts present
	if needJob {
		req.JobDescription = sanitizeText(req.JobDescription)
		if req.JobDescription == "" {
			writeError(w, http.StatusBadRequest, "resume_text and job_description are required")
			return nil, false
		}
		return &req, true
	}

	text, err := ValidateResumeText(req.ResumeText)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Resume text must be at least 100 characters long")
		return nil, false
	}
	req.ResumeText = text
	return &req, true
}

func (e *ResumeEndpoints) CreateReviewHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	req, ok := e.decodeResume(w, r, false)
	if !ok {
		return
	}

	analysis, err := e.analyzer.Review(r.Context(), req.ResumeText)
	if err != nil {
		slog.Error("Failed to analyze resume", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Failed to analyze resume. Please try again.", err.Error())
		return
	}

	review := &models.ResumeReview{
		UserID:        user.ID,
		ResumeText:    req.ResumeText,
		ATSScore:      analysis.ATSScore,
		OverallRating: analysis.OverallRating,
		Analysis:      analysis.ResumeAnalysisDoc,
	}
	if err := e.repo.CreateResumeReview(r.Context(), review); err != nil {
		writeDBError(w, err, "Failed to save review")
		return
	}

	publishEvent(r.Context(), e.events, EventResumeReviewed, map[string]interface{}{
		"user_id":   user.ID,
		"review_id": review.ID,
		"ats_score": review.ATSScore,
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"review":  review,
		"message": "Resume reviewed successfully",
	})
}

func (e *ResumeEndpoints) ListReviewsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	reviews, err := e.repo.GetResumeReviews(r.Context(), user.ID, reviewHistoryLimit)
	if err != nil {
		writeDBError(w, err, "Failed to fetch reviews")
		return
	}
	if reviews == nil {
		reviews = []models.ResumeReview{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reviews": reviews})
}

func (e *ResumeEndpoints) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := e.decodeResume(w, r, false)
	if !ok {
		return
	}

	analysis, err := e.analyzer.Review(r.Context(), req.ResumeText)
	if err != nil {
		slog.Error("Failed to analyze resume", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to analyze resume. Please try again.", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"analysis": analysis,
		"message":  "Resume analyzed successfully",
	})
}

func (e *ResumeEndpoints) MatchHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := e.decodeResume(w, r, true)
	if !ok {
		return
	}

	match, err := e.analyzer.Match(r.Context(), req.ResumeText, req.JobDescription)
	if err != nil {
		slog.Error("Failed to match resume", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred during analysis.", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": match})
}

func (e *ResumeEndpoints) SkillsGapHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := e.decodeResume(w, r, true)
	if !ok {
		return
	}

	missing, err := e.analyzer.SkillsGap(r.Context(), req.ResumeText, req.JobDescription)
	if err != nil {
		slog.Error("Failed to identify skills gap", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to identify skills gap", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"missingSkills": missing})
}

func (e *ResumeEndpoints) KeywordsHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := e.decodeResume(w, r, true)
	if !ok {
		return
	}

	match, err := e.analyzer.Keywords(r.Context(), req.ResumeText, req.JobDescription)
	if err != nil {
		slog.Error("Failed to match keywords", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to match keywords", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, match)
}

type healthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func checkOK(message string) healthCheck {
	return healthCheck{Status: "ok", Message: message}
}

func checkFailed(err error) healthCheck {
	return healthCheck{Status: "error", Message: err.Error()}
}

// HealthHandler exercises the database, Gemini and the resume analysis pipeline
func (e *ResumeEndpoints) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	checks := map[string]healthCheck{}
	healthy := true

	if err := e.repo.ProbeResumeReviews(ctx); err != nil {
		checks["database"] = checkFailed(err)
		healthy = false
	} else {
		checks["database"] = checkOK("Database connection successful")
	}

	if e.ai == nil {
		checks["gemini"] = checkFailed(errors.New("gemini api key is not configured"))
		checks["resume_analysis"] = checkFailed(errors.New("ai service is not configured"))
		healthy = false
	} else {
		if reply, err := e.ai.GenerateText(ctx, `Say "OK" if you can read this.`); err != nil {
			checks["gemini"] = checkFailed(err)
			healthy = false
		} else if strings.TrimSpace(reply) == "" {
			checks["gemini"] = checkFailed(errors.New("gemini api returned empty response"))
			healthy = false
		} else {
			checks["gemini"] = checkOK("Gemini API is responding correctly")
		}

		if analysis, err := e.analyzer.Review(ctx, healthCheckResume); err != nil {
			checks["resume_analysis"] = checkFailed(err)
			healthy = false
		} else {
			checks["resume_analysis"] = checkOK(fmt.Sprintf("Resume analysis working (test score: %d)", analysis.ATSScore))
		}
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
		slog.Warn("Resume health check failed", "checks", checks)
	}

	writeJSON(w, code, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
		"overall":   healthy,
	})
}
