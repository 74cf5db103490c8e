package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/krshsl/placeprep/backend/models"
	"github.com/krshsl/placeprep/backend/repository"
)

// QuestionBankStore manages the interview question bank
type QuestionBankStore interface {
	GetInterviewQuestion(ctx context.Context, questionID string) (*models.InterviewQuestion, error)
	GetInterviewQuestions(ctx context.Context, filter repository.QuestionFilter) ([]models.InterviewQuestion, error)
	CreateInterviewQuestion(ctx context.Context, question *models.InterviewQuestion) error
	UpdateInterviewQuestion(ctx context.Context, question *models.InterviewQuestion) error
}

type QuestionEndpoints struct {
	repo QuestionBankStore
}

type QuestionRequest struct {
	QuestionText string `json:"question_text"`
	RoleType     string `json:"role_type"`
	Topic        string `json:"topic"`
	Difficulty   string `json:"difficulty"`
	IsActive     *bool  `json:"is_active"`
}

func NewQuestionEndpoints(repo QuestionBankStore) *QuestionEndpoints {
	return &QuestionEndpoints{repo: repo}
}

func (e *QuestionEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/questions", func(r chi.Router) {
		r.Get("/", e.ListQuestionsHandler)
		r.Post("/", e.CreateQuestionHandler)
		r.Get("/{id}", e.GetQuestionHandler)
		r.Put("/{id}", e.UpdateQuestionHandler)
		r.Delete("/{id}", e.DeleteQuestionHandler)
	})
}

func validDifficulty(d string) bool {
	switch d {
	case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
		return true
	}
	return false
}

func (req *QuestionRequest) normalize() string {
	req.QuestionText = sanitizeText(req.QuestionText)
	req.RoleType = sanitizeText(req.RoleType)
	req.Topic = sanitizeText(req.Topic)
	req.Difficulty = strings.TrimSpace(req.Difficulty)

	if req.QuestionText == "" || req.RoleType == "" || req.Topic == "" {
		return "question_text, role_type and topic are required"
	}
	if !validDifficulty(req.Difficulty) {
		return "difficulty must be one of Easy, Medium, Hard"
	}
	return ""
}

// questionFromPath loads the {id} question, writing the error response itself when it cannot
func (e *QuestionEndpoints) questionFromPath(w http.ResponseWriter, r *http.Request) (*models.InterviewQuestion, bool) {
	questionID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(questionID); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid question ID")
		return nil, false
	}

	question, err := e.repo.GetInterviewQuestion(r.Context(), questionID)
	if err != nil {
		writeDBError(w, err, "Failed to fetch question")
		return nil, false
	}
	if question == nil {
		writeError(w, http.StatusNotFound, "Question not found")
		return nil, false
	}
	return question, true
}

func (e *QuestionEndpoints) ListQuestionsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.QuestionFilter{
		RoleType:   strings.TrimSpace(q.Get("role_type")),
		Topic:      strings.TrimSpace(q.Get("topic")),
		Difficulty: strings.TrimSpace(q.Get("difficulty")),
	}
	if raw := q.Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "active must be true or false")
			return
		}
		filter.Active = &active
	}

	questions, err := e.repo.GetInterviewQuestions(r.Context(), filter)
	if err != nil {
		writeDBError(w, err, "Failed to fetch questions")
		return
	}
	if questions == nil {
		questions = []models.InterviewQuestion{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"questions": questions,
		"count":     len(questions),
	})
}

func (e *QuestionEndpoints) CreateQuestionHandler(w http.ResponseWriter, r *http.Request) {
	var req QuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := req.normalize(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	question := models.InterviewQuestion{
		ID:           uuid.New().String(),
		QuestionText: req.QuestionText,
		RoleType:     req.RoleType,
		Topic:        req.Topic,
		Difficulty:   req.Difficulty,
		IsActive:     req.IsActive == nil || *req.IsActive,
	}
	if err := e.repo.CreateInterviewQuestion(r.Context(), &question); err != nil {
		writeDBError(w, err, "Failed to create question")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"question": question,
		"message":  "Question created successfully",
	})
}

func (e *QuestionEndpoints) GetQuestionHandler(w http.ResponseWriter, r *http.Request) {
	question, ok := e.questionFromPath(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"question": question})
}

func (e *QuestionEndpoints) UpdateQuestionHandler(w http.ResponseWriter, r *http.Request) {
	question, ok := e.questionFromPath(w, r)
	if !ok {
		return
	}

	var req QuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := req.normalize(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	question.QuestionText = req.QuestionText
	question.RoleType = req.RoleType
	question.Topic = req.Topic
	question.Difficulty = req.Difficulty
	if req.IsActive != nil {
		question.IsActive = *req.IsActive
	}

	if err := e.repo.UpdateInterviewQuestion(r.Context(), question); err != nil {
		writeDBError(w, err, "Failed to update question")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"question": question,
		"message":  "Question updated successfully",
	})
}

// DeleteQuestionHandler deactivates the question. Stored responses keep pointing at it.
func (e *QuestionEndpoints) DeleteQuestionHandler(w http.ResponseWriter, r *http.Request) {
	question, ok := e.questionFromPath(w, r)
	if !ok {
		return
	}

	question.IsActive = false
	if err := e.repo.UpdateInterviewQuestion(r.Context(), question); err != nil {
		writeDBError(w, err, "Failed to deactivate question")
		return
	}

	slog.Info("Interview question deactivated", "question_id", question.ID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Question deactivated successfully",
	})
}
