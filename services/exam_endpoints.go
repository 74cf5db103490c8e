package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/krshsl/placeprep/backend/models"
)

// ExamStore is the persistence the exam endpoints need
type ExamStore interface {
	GetActiveAptitudeQuestions(ctx context.Context, questionType string, limit int) ([]models.AptitudeQuestion, error)
	GetActiveTechnicalQuestions(ctx context.Context, topic, difficulty string, limit int) ([]models.TechnicalQuestion, error)
	CreateAptitudeResult(ctx context.Context, result *models.AptitudeTestResult) error
	CreateTechnicalResult(ctx context.Context, result *models.TechnicalTestResult) error
	GetAptitudeResults(ctx context.Context, studentID string, limit int) ([]models.AptitudeTestResult, error)
	GetTechnicalResults(ctx context.Context, studentID string, limit int) ([]models.TechnicalTestResult, error)
}

type ExamEndpoints struct {
	repo               ExamStore
	signer             *AnswerKeySigner
	events             EventPublisher
	violationThreshold int
}

type SubmitExamRequest struct {
	Answers          []SubmittedAnswer `json:"answers"`
	AnswersHash      string            `json:"answersHash"`
	TimeTakenSeconds int               `json:"timeTakenSeconds"`
	TabSwitches      int               `json:"tabSwitches"`
	Violations       int               `json:"violations"`
}

type ExamResultResponse struct {
	ID               string    `json:"id"`
	Topic            *string   `json:"topic,omitempty"`
	TotalQuestions   int       `json:"totalQuestions"`
	CorrectAnswers   int       `json:"correctAnswers"`
	IncorrectAnswers int       `json:"incorrectAnswers"`
	ScorePercentage  float64   `json:"scorePercentage"`
	TimeTaken        int       `json:"timeTaken"`
	TabSwitches      int       `json:"tabSwitches"`
	Violations       int       `json:"violations"`
	Flagged          bool      `json:"flagged"`
	TestDate         time.Time `json:"testDate"`
}

const (
	aptitudeFetchLimit  = 100
	perAptitudeType     = 5
	technicalFetchLimit = 100
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

func NewExamEndpoints(repo ExamStore, signer *AnswerKeySigner, events EventPublisher, violationThreshold int) *ExamEndpoints {
	return &ExamEndpoints{
		repo:               repo,
		signer:             signer,
		events:             events,
		violationThreshold: violationThreshold,
	}
}

func (e *ExamEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/aptitude", func(r chi.Router) {
		r.Get("/generate", e.GenerateAptitudeHandler)
		r.Post("/submit", e.SubmitAptitudeHandler)
		r.Get("/submit", e.AptitudeHistoryHandler)
	})
	r.Route("/technical-exam", func(r chi.Router) {
		r.Get("/generate", e.GenerateTechnicalHandler)
		r.Post("/submit", e.SubmitTechnicalHandler)
		r.Get("/submit", e.TechnicalHistoryHandler)
	})
}

func (e *ExamEndpoints) GenerateAptitudeHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	items, counts, err := e.drawAptitude(r.Context())
	if err != nil {
		e.writeDrawError(w, err, counts, "Failed to generate aptitude test")
		return
	}

	summary := make(map[string]int, len(aptitudeTypes))
	for _, item := range items {
		summary[item.question.Type]++
	}
	e.respondWithExam(w, ExamAptitude, user.ID, "", items, summary)
}

func (e *ExamEndpoints) GenerateTechnicalHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	topic := r.URL.Query().Get("topic")
	if topic != "" && topic != "frontend" && topic != "backend" {
		writeError(w, http.StatusBadRequest, "Topic must be frontend or backend")
		return
	}

	items, counts, err := e.drawTechnical(r.Context(), topic)
	if err != nil {
		e.writeDrawError(w, err, counts, "Failed to generate technical exam")
		return
	}

	summary := make(map[string]int, len(technicalSplit))
	for _, item := range items {
		summary[item.question.Difficulty]++
	}
	e.respondWithExam(w, ExamTechnical, user.ID, topic, items, summary)
}

// drawAptitude picks perAptitudeType random questions of every aptitude type
func (e *ExamEndpoints) drawAptitude(ctx context.Context) ([]examItem, map[string]int, error) {
	var items []examItem
	counts := make(map[string]int, len(aptitudeTypes))
	for _, questionType := range aptitudeTypes {
		questions, err := e.repo.GetActiveAptitudeQuestions(ctx, questionType, aptitudeFetchLimit)
		if err != nil {
			return nil, counts, fmt.Errorf("failed to fetch %s questions: %w", questionType, err)
		}
		counts[questionType] = len(questions)
		for _, q := range pickRandom(questions, perAptitudeType) {
			items = append(items, aptitudeItem(q))
		}
	}
	if len(items) < examSize {
		return nil, counts, ErrNotEnoughQuestions
	}
	return items, counts, nil
}

// drawTechnical picks questions per difficulty following technicalSplit
func (e *ExamEndpoints) drawTechnical(ctx context.Context, topic string) ([]examItem, map[string]int, error) {
	var items []examItem
	counts := make(map[string]int, len(technicalSplit))
	for _, split := range technicalSplit {
		questions, err := e.repo.GetActiveTechnicalQuestions(ctx, topic, split.Difficulty, technicalFetchLimit)
		if err != nil {
			return nil, counts, fmt.Errorf("failed to fetch %s questions: %w", split.Difficulty, err)
		}
		counts[split.Difficulty] = len(questions)
		for _, q := range pickRandom(questions, split.Count) {
			items = append(items, technicalItem(q))
		}
	}
	if len(items) < examSize {
		return nil, counts, ErrNotEnoughQuestions
	}
	return items, counts, nil
}

func (e *ExamEndpoints) writeDrawError(w http.ResponseWriter, err error, counts map[string]int, fallback string) {
	if errors.Is(err, ErrNotEnoughQuestions) {
		slog.Warn("Not enough exam questions", "counts", counts)
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  "Not enough questions available in database. Please add more questions.",
			"counts": counts,
		})
		return
	}
	slog.Error("Failed to draw exam questions", "error", err)
	writeDBError(w, err, fallback)
}

func (e *ExamEndpoints) respondWithExam(w http.ResponseWriter, kind ExamKind, userID, topic string, items []examItem, summary map[string]int) {
	questions, key := assembleExam(items)

	answersHash, err := e.signer.Sign(kind, userID, topic, key)
	if err != nil {
		slog.Error("Failed to sign answer key", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "Failed to generate exam")
		return
	}

	slog.Info("Exam generated", "kind", kind, "user_id", userID, "questions", len(questions))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"questions":      questions,
		"summary":        summary,
		"totalQuestions": len(questions),
		"answersHash":    answersHash,
	})
}

// gradeSubmission decodes and grades a submission. It writes the error response itself and returns ok=false on failure.
func (e *ExamEndpoints) gradeSubmission(w http.ResponseWriter, r *http.Request, kind ExamKind) (*models.User, *SubmitExamRequest, *AnswerKey, GradeResult, bool) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return nil, nil, nil, GradeResult{}, false
	}

	var req SubmitExamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return nil, nil, nil, GradeResult{}, false
	}
	if req.Answers == nil || req.AnswersHash == "" {
		writeError(w, http.StatusBadRequest, "Answers and answers hash are required")
		return nil, nil, nil, GradeResult{}, false
	}
	if req.TimeTakenSeconds < 0 || req.TabSwitches < 0 || req.Violations < 0 {
		writeError(w, http.StatusBadRequest, "Counters must not be negative")
		return nil, nil, nil, GradeResult{}, false
	}

	key, err := e.signer.Verify(req.AnswersHash, kind, user.ID)
	if err != nil {
		slog.Warn("Rejected answer key", "error", err, "user_id", user.ID, "kind", kind)
		writeError(w, http.StatusBadRequest, "Invalid answers hash")
		return nil, nil, nil, GradeResult{}, false
	}

	return user, &req, key, GradeExam(key.Answers, req.Answers), true
}

func (e *ExamEndpoints) flagged(violations int) bool {
	return violations > e.violationThreshold
}

func (e *ExamEndpoints) SubmitAptitudeHandler(w http.ResponseWriter, r *http.Request) {
	user, req, _, grade, ok := e.gradeSubmission(w, r, ExamAptitude)
	if !ok {
		return
	}

	result := &models.AptitudeTestResult{
		StudentID:        user.ID,
		TotalQuestions:   grade.Total,
		CorrectAnswers:   grade.Correct,
		IncorrectAnswers: grade.Incorrect,
		ScorePercentage:  grade.ScorePercentage,
		TimeTakenSeconds: req.TimeTakenSeconds,
		TabSwitches:      req.TabSwitches,
		Violations:       req.Violations,
		Flagged:          e.flagged(req.Violations),
		TestDate:         time.Now(),
	}
	if err := e.repo.CreateAptitudeResult(r.Context(), result); err != nil {
		writeDBError(w, err, "Failed to store test result")
		return
	}

	e.respondWithResult(w, r, ExamAptitude, ExamResultResponse{
		ID:               result.ID,
		TotalQuestions:   result.TotalQuestions,
		CorrectAnswers:   result.CorrectAnswers,
		IncorrectAnswers: result.IncorrectAnswers,
		ScorePercentage:  result.ScorePercentage,
		TimeTaken:        result.TimeTakenSeconds,
		TabSwitches:      result.TabSwitches,
		Violations:       result.Violations,
		Flagged:          result.Flagged,
		TestDate:         result.TestDate,
	}, user.ID)
}

func (e *ExamEndpoints) SubmitTechnicalHandler(w http.ResponseWriter, r *http.Request) {
	user, req, key, grade, ok := e.gradeSubmission(w, r, ExamTechnical)
	if !ok {
		return
	}

	var topic *string
	if key.Topic != "" {
		topic = &key.Topic
	}

	result := &models.TechnicalTestResult{
		StudentID:        user.ID,
		Topic:            topic,
		TotalQuestions:   grade.Total,
		CorrectAnswers:   grade.Correct,
		IncorrectAnswers: grade.Incorrect,
		ScorePercentage:  grade.ScorePercentage,
		TimeTakenSeconds: req.TimeTakenSeconds,
		TabSwitches:      req.TabSwitches,
		Violations:       req.Violations,
		Flagged:          e.flagged(req.Violations),
		TestDate:         time.Now(),
	}
	if err := e.repo.CreateTechnicalResult(r.Context(), result); err != nil {
		writeDBError(w, err, "Failed to store test result")
		return
	}

	e.respondWithResult(w, r, ExamTechnical, ExamResultResponse{
		ID:               result.ID,
		Topic:            result.Topic,
		TotalQuestions:   result.TotalQuestions,
		CorrectAnswers:   result.CorrectAnswers,
		IncorrectAnswers: result.IncorrectAnswers,
		ScorePercentage:  result.ScorePercentage,
		TimeTaken:        result.TimeTakenSeconds,
		TabSwitches:      result.TabSwitches,
		Violations:       result.Violations,
		Flagged:          result.Flagged,
		TestDate:         result.TestDate,
	}, user.ID)
}

func (e *ExamEndpoints) respondWithResult(w http.ResponseWriter, r *http.Request, kind ExamKind, result ExamResultResponse, userID string) {
	if result.Flagged {
		slog.Warn("Exam result flagged for proctoring violations", "kind", kind, "user_id", userID, "violations", result.Violations)
	}

	publishEvent(r.Context(), e.events, EventExamSubmitted, map[string]interface{}{
		"kind":       kind,
		"student_id": userID,
		"result_id":  result.ID,
		"score":      result.ScorePercentage,
		"flagged":    result.Flagged,
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"result":  result,
		"message": fmt.Sprintf("Test completed! You scored %.2f%%", result.ScorePercentage),
	})
}

func historyLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		return maxHistoryLimit
	}
	return limit
}

func (e *ExamEndpoints) AptitudeHistoryHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	history, err := e.repo.GetAptitudeResults(r.Context(), user.ID, historyLimit(r))
	if err != nil {
		writeDBError(w, err, "Failed to fetch test history")
		return
	}

	scores := make([]float64, len(history))
	for i, h := range history {
		scores[i] = h.ScorePercentage
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"history": history,
		"stats":   computeExamStats(scores),
	})
}

func (e *ExamEndpoints) TechnicalHistoryHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	history, err := e.repo.GetTechnicalResults(r.Context(), user.ID, historyLimit(r))
	if err != nil {
		writeDBError(w, err, "Failed to fetch test history")
		return
	}

	scores := make([]float64, len(history))
	for i, h := range history {
		scores[i] = h.ScorePercentage
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"history": history,
		"stats":   computeExamStats(scores),
	})
}
