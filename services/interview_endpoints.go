package services

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type InterviewEndpoints struct {
	interviews *InterviewService
}

func NewInterviewEndpoints(interviews *InterviewService) *InterviewEndpoints {
	return &InterviewEndpoints{interviews: interviews}
}

type EvaluateRequest struct {
	StudentAnswer     string  `json:"student_answer"`
	TranscribedAnswer string  `json:"transcribed_answer"`
	AudioURL          string  `json:"audio_url"`
	QuestionID        string  `json:"question_id"`
	RoleType          string  `json:"role_type"`
	Topic             string  `json:"topic"`
	Difficulty        string  `json:"difficulty"`
	DurationSeconds   float64 `json:"duration_seconds"`
}

func (e *InterviewEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/interview", func(r chi.Router) {
		r.Post("/session", e.StartSessionHandler)
		r.Get("/session", e.GetSessionHandler)
		r.Post("/session/end", e.EndSessionHandler)
		r.Get("/question", e.QuestionHandler)
		r.Post("/question/personalized", e.PersonalizedQuestionHandler)
		r.Post("/context", e.ContextHandler)
		r.Post("/evaluate", e.EvaluateHandler)
		r.Get("/performance", e.PerformanceHandler)
		r.Get("/history", e.HistoryHandler)
	})
}

func (e *InterviewEndpoints) StartSessionHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	session, err := e.interviews.GetOrCreateSession(r.Context(), user.ID)
	if err != nil {
		slog.Error("Failed to start interview session", "error", err, "user_id", user.ID)
		writeDBError(w, err, "Failed to create session")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session_id":  session.ID,
		"started_at":  session.StartedAt,
		"total_score": session.TotalScore,
	})
}

func (e *InterviewEndpoints) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	session, err := e.interviews.ActiveSession(r.Context(), user.ID)
	if err != nil {
		writeDBError(w, err, "Failed to fetch session")
		return
	}
	if session == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"session": nil})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session": map[string]interface{}{
			"session_id":  session.ID,
			"started_at":  session.StartedAt,
			"total_score": session.TotalScore,
		},
	})
}

func (e *InterviewEndpoints) EndSessionHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	session, err := e.interviews.ActiveSession(r.Context(), user.ID)
	if err != nil {
		writeDBError(w, err, "Failed to fetch session")
		return
	}
	if session == nil {
		writeError(w, http.StatusNotFound, "No active session")
		return
	}

	if err := e.interviews.EndSession(r.Context(), session, ReasonEndedByUser); err != nil {
		slog.Error("Failed to end session", "error", err, "session_id", session.ID)
		writeDBError(w, err, "Failed to end session")
		return
	}

	slog.Info("Interview session ended", "session_id", session.ID, "user_id", user.ID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"session_id":  session.ID,
		"total_score": session.TotalScore,
	})
}

func (e *InterviewEndpoints) QuestionHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	question, err := e.interviews.RandomQuestion(r.Context(),
		strings.TrimSpace(q.Get("role_type")),
		strings.TrimSpace(q.Get("topic")),
		strings.TrimSpace(q.Get("difficulty")))
	if errors.Is(err, ErrQuestionNotFound) {
		writeError(w, http.StatusNotFound, "No questions found with the specified criteria")
		return
	}
	if err != nil {
		writeDBError(w, err, "Failed to fetch question")
		return
	}
	writeJSON(w, http.StatusOK, question)
}

func (e *InterviewEndpoints) PersonalizedQuestionHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	question, err := e.interviews.PersonalizedQuestion(r.Context(), user.ID)
	switch {
	case errors.Is(err, ErrStudentNotFound):
		writeError(w, http.StatusNotFound, "Student not found")
		return
	case errors.Is(err, ErrQuestionNotFound):
		writeError(w, http.StatusNotFound, "No questions available")
		return
	case err != nil:
		slog.Error("Failed to select personalized question", "error", err, "user_id", user.ID)
		writeDBError(w, err, "Failed to select question")
		return
	}
	writeJSON(w, http.StatusOK, question)
}

func (e *InterviewEndpoints) ContextHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	result, err := e.interviews.BuildContext(r.Context(), user.ID)
	if errors.Is(err, ErrStudentNotFound) {
		writeError(w, http.StatusNotFound, "Student not found")
		return
	}
	if err != nil {
		slog.Error("Failed to build interview context", "error", err, "user_id", user.ID)
		writeDBError(w, err, "Failed to generate interview context")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (e *InterviewEndpoints) EvaluateHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.StudentAnswer = sanitizeText(req.StudentAnswer)
	req.TranscribedAnswer = sanitizeText(req.TranscribedAnswer)
	req.QuestionID = strings.TrimSpace(req.QuestionID)
	if (req.StudentAnswer == "" && req.TranscribedAnswer == "") || req.QuestionID == "" {
		writeError(w, http.StatusBadRequest, "Answer and question_id are required")
		return
	}

	result, err := e.interviews.Evaluate(r.Context(), user.ID, EvaluateInput{
		QuestionID:        req.QuestionID,
		StudentAnswer:     req.StudentAnswer,
		TranscribedAnswer: req.TranscribedAnswer,
		AudioURL:          req.AudioURL,
		RoleType:          strings.TrimSpace(req.RoleType),
		Topic:             strings.TrimSpace(req.Topic),
		Difficulty:        strings.TrimSpace(req.Difficulty),
		DurationSeconds:   req.DurationSeconds,
	})
	switch {
	case errors.Is(err, ErrQuestionNotFound):
		writeError(w, http.StatusNotFound, "Question not found or inactive")
		return
	case errors.Is(err, ErrAIUnavailable):
		writeError(w, http.StatusServiceUnavailable, "AI service is not configured")
		return
	case errors.Is(err, ErrEvaluationFailed):
		slog.Error("Failed to evaluate answer", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Failed to evaluate answer with AI", err.Error())
		return
	case err != nil:
		slog.Error("Failed to evaluate answer", "error", err, "user_id", user.ID)
		writeDBError(w, err, "Failed to evaluate answer")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"response_id": result.ResponseID,
		"evaluation":  result.Evaluation,
		"session_id":  result.SessionID,
	})
}

func (e *InterviewEndpoints) PerformanceHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	report, err := e.interviews.Performance(r.Context(), user.ID)
	if err != nil {
		writeDBError(w, err, "Failed to fetch performance data")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (e *InterviewEndpoints) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	sessions, err := e.interviews.History(r.Context(), user.ID)
	if err != nil {
		writeDBError(w, err, "Failed to fetch sessions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": sessions,
		"count":    len(sessions),
	})
}
