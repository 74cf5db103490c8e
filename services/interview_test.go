package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/krshsl/placeprep/backend/models"
	"github.com/krshsl/placeprep/backend/repository"
)

type fakeInterviewStore struct {
	mu        sync.Mutex
	nextID    int
	users     map[string]*models.User
	sessions  map[string]*models.MockInterviewSession
	questions []models.InterviewQuestion
	responses []models.InterviewResponse
	metrics   map[string]*models.UserPerformanceMetric
	contexts  map[string]*models.InterviewContextDoc
}

func newFakeInterviewStore(users ...*models.User) *fakeInterviewStore {
	f := &fakeInterviewStore{
		users:    map[string]*models.User{},
		sessions: map[string]*models.MockInterviewSession{},
		metrics:  map[string]*models.UserPerformanceMetric{},
		contexts: map[string]*models.InterviewContextDoc{},
	}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeInterviewStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeInterviewStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	return f.users[id], nil
}

func (f *fakeInterviewStore) GetActiveMockSession(_ context.Context, studentID string) (*models.MockInterviewSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.StudentID == studentID && s.IsOpen() {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeInterviewStore) GetMockSession(_ context.Context, sessionID string) (*models.MockInterviewSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions[sessionID], nil
}

func (f *fakeInterviewStore) CreateMockSession(_ context.Context, session *models.MockInterviewSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	session.ID = f.id("session")
	f.sessions[session.ID] = session
	return nil
}

func (f *fakeInterviewStore) UpdateSessionContext(_ context.Context, sessionID string, doc *models.InterviewContextDoc) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contexts[sessionID] = doc
	return nil
}

func (f *fakeInterviewStore) UpdateSessionTotalScore(_ context.Context, sessionID string, total float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[sessionID]; ok {
		s.TotalScore = total
	}
	return nil
}

func (f *fakeInterviewStore) EndMockSession(_ context.Context, sessionID string, endedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[sessionID]; ok {
		s.EndedAt = &endedAt
	}
	return nil
}

func (f *fakeInterviewStore) GetStudentSessions(_ context.Context, studentID string, limit int) ([]models.MockInterviewSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.MockInterviewSession
	for _, s := range f.sessions {
		if s.StudentID == studentID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeInterviewStore) GetInterviewQuestion(_ context.Context, questionID string) (*models.InterviewQuestion, error) {
	for i := range f.questions {
		if f.questions[i].ID == questionID {
			q := f.questions[i]
			return &q, nil
		}
	}
	return nil, nil
}

func (f *fakeInterviewStore) GetInterviewQuestions(_ context.Context, filter repository.QuestionFilter) ([]models.InterviewQuestion, error) {
	var out []models.InterviewQuestion
	for _, q := range f.questions {
		if filter.RoleType != "" && q.RoleType != filter.RoleType {
			continue
		}
		if filter.Topic != "" && q.Topic != filter.Topic {
			continue
		}
		if filter.Difficulty != "" && q.Difficulty != filter.Difficulty {
			continue
		}
		if filter.Active != nil && q.IsActive != *filter.Active {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

func (f *fakeInterviewStore) CreateInterviewResponse(_ context.Context, response *models.InterviewResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	response.ID = f.id("response")
	f.responses = append(f.responses, *response)
	return nil
}

func (f *fakeInterviewStore) GetSessionScores(_ context.Context, sessionID string) ([]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var scores []float64
	for _, r := range f.responses {
		if r.SessionID == sessionID {
			scores = append(scores, r.AIScore)
		}
	}
	return scores, nil
}

func (f *fakeInterviewStore) GetPerformanceMetrics(_ context.Context, studentID string) ([]models.UserPerformanceMetric, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.UserPerformanceMetric
	for _, m := range f.metrics {
		if m.StudentID == studentID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Topic < out[j].Topic })
	return out, nil
}

func (f *fakeInterviewStore) GetWeakestMetrics(ctx context.Context, studentID string, limit int) ([]models.UserPerformanceMetric, error) {
	metrics, _ := f.GetPerformanceMetrics(ctx, studentID)
	sort.SliceStable(metrics, func(i, j int) bool { return metrics[i].AvgScore < metrics[j].AvgScore })
	if len(metrics) > limit {
		metrics = metrics[:limit]
	}
	return metrics, nil
}

func (f *fakeInterviewStore) RecordTopicScore(_ context.Context, studentID, topic string, score float64) (*models.UserPerformanceMetric, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := studentID + "/" + topic
	m, ok := f.metrics[key]
	if !ok {
		m = &models.UserPerformanceMetric{ID: f.id("metric"), StudentID: studentID, Topic: topic}
		f.metrics[key] = m
	}
	m.AddAttempt(score, time.Now())
	return m, nil
}

type fakeAI struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeAI) GenerateText(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func (f *fakeAI) GenerateJSON(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

const evaluationReply = "```json\n" + `{
  "score": 7.5,
  "technical_accuracy": 8,
  "communication_clarity": 7,
  "interview_readiness": 6.5,
  "strengths": ["clear structure", "good examples"],
  "weaknesses": "missed edge cases",
  "ideal_answer": "Use a hash map.",
  "feedback": "Solid answer."
}` + "\n```"

func interviewQuestions() []models.InterviewQuestion {
	return []models.InterviewQuestion{
		{ID: "q-sql", QuestionText: "Explain joins", RoleType: "Data Analyst", Topic: "SQL", Difficulty: models.DifficultyEasy, IsActive: true},
		{ID: "q-go", QuestionText: "Explain goroutines", RoleType: "Backend Developer", Topic: "Go", Difficulty: models.DifficultyHard, IsActive: true},
		{ID: "q-behavioral", QuestionText: "Tell me about a conflict", RoleType: "General", Topic: "Behavioral", Difficulty: models.DifficultyMedium, IsActive: true},
		{ID: "q-retired", QuestionText: "Old question", RoleType: "General", Topic: "Legacy", Difficulty: models.DifficultyEasy, IsActive: false},
	}
}

func TestParseEvaluation(t *testing.T) {
	eval, err := parseEvaluation(evaluationReply)
	if err != nil {
		t.Fatalf("parseEvaluation() error = %v", err)
	}
	if eval.Score != 7.5 || eval.TechnicalAccuracy != 8 || eval.InterviewReadiness != 6.5 {
		t.Errorf("scores = %+v", eval)
	}
	if eval.Strengths != "clear structure, good examples" {
		t.Errorf("Strengths = %q", eval.Strengths)
	}
	if eval.Weaknesses != "missed edge cases" || eval.Feedback != "Solid answer." {
		t.Errorf("text fields = %+v", eval)
	}

	clamped, err := parseEvaluation(`Here you go: {"score": 14, "technical_accuracy": -3, "communication_clarity": 9.456}`)
	if err != nil {
		t.Fatalf("parseEvaluation() error = %v", err)
	}
	if clamped.Score != 10 || clamped.TechnicalAccuracy != 0 || clamped.CommunicationClarity != 9.46 {
		t.Errorf("clamped scores = %+v", clamped)
	}
	if clamped.Feedback != "No feedback provided" || clamped.IdealAnswer != "Ideal answer not provided" {
		t.Errorf("defaults = %+v", clamped)
	}

	if _, err := parseEvaluation("I cannot grade this."); err == nil {
		t.Error("expected an error for a reply without JSON")
	}
}

func TestSelectPersonalizedQuestion(t *testing.T) {
	goal := "Backend Development"
	profile := models.StudentProfile{Skills: []string{"go"}, CareerGoal: &goal}
	weakest := []models.UserPerformanceMetric{
		{Topic: "SQL", AvgScore: 4.5},
		{Topic: "Go", AvgScore: 8},
	}
	questions := []models.InterviewQuestion{
		{ID: "behavioral", Topic: "Behavioral", Difficulty: models.DifficultyMedium},
		{ID: "go", Topic: "Go", Difficulty: models.DifficultyHard},
		{ID: "sql", Topic: "SQL", Difficulty: models.DifficultyEasy},
		{ID: "backend", Topic: "Backend Development", Difficulty: models.DifficultyHard},
	}

	tests := []struct {
		name   string
		pick   int
		id     string
		reason string
	}{
		{"weak topic ranks first", 0, "sql", reasonWeakTopic},
		{"skill match ranks second", 1, "go", reasonPreferred},
		{"career goal match", 2, "backend", reasonBalanced},
		{"medium difficulty bonus", 3, "behavioral", reasonBalanced},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			poolSize := 0
			q, reason := selectPersonalizedQuestion(questions, profile, weakest, func(n int) int {
				poolSize = n
				return tt.pick
			})
			if poolSize != len(questions) {
				t.Errorf("pool size = %d, expected %d", poolSize, len(questions))
			}
			if q.ID != tt.id || reason != tt.reason {
				t.Errorf("got %s (%q), expected %s (%q)", q.ID, reason, tt.id, tt.reason)
			}
		})
	}

	if q, _ := selectPersonalizedQuestion(nil, profile, weakest, func(int) int { return 0 }); q != nil {
		t.Errorf("expected nil for an empty bank, got %+v", q)
	}
}

func TestSelectPersonalizedQuestionCapsPool(t *testing.T) {
	var questions []models.InterviewQuestion
	for i := 0; i < 12; i++ {
		questions = append(questions, models.InterviewQuestion{ID: fmt.Sprintf("q%d", i), Topic: "General"})
	}
	poolSize := 0
	selectPersonalizedQuestion(questions, models.StudentProfile{}, nil, func(n int) int {
		poolSize = n
		return n - 1
	})
	if poolSize != personalizedPoolSize {
		t.Errorf("pool size = %d, expected %d", poolSize, personalizedPoolSize)
	}
}

func TestComputePerformanceReport(t *testing.T) {
	report := computePerformanceReport([]models.UserPerformanceMetric{
		{Topic: "Go", AvgScore: 8, TotalAttempts: 2},
		{Topic: "SQL", AvgScore: 5, TotalAttempts: 1},
		{Topic: "DSA", AvgScore: 6.5, TotalAttempts: 1},
	})

	expected := PerformanceStats{
		TotalAttempts:     4,
		OverallAvgScore:   6.88,
		TopicsPracticed:   3,
		WeakTopicsCount:   1,
		StrongTopicsCount: 1,
	}
	if report.Statistics != expected {
		t.Errorf("statistics = %+v, expected %+v", report.Statistics, expected)
	}
	if report.WeakTopics[0].Topic != "SQL" || report.StrongTopics[0].Topic != "Go" {
		t.Errorf("weak %v strong %v", report.WeakTopics, report.StrongTopics)
	}

	empty := computePerformanceReport(nil)
	if empty.Metrics == nil || empty.WeakTopics == nil || empty.StrongTopics == nil {
		t.Error("empty report must use empty slices, not nil")
	}
	if empty.Statistics != (PerformanceStats{}) {
		t.Errorf("empty statistics = %+v", empty.Statistics)
	}
}

func TestFallbackContext(t *testing.T) {
	goal := "Data Scientist"
	tests := []struct {
		profile  models.StudentProfile
		expected string
	}{
		{models.StudentProfile{}, "Interview context for student with career goal: General, skills: Various"},
		{models.StudentProfile{CareerGoal: &goal, Skills: []string{"Python", "SQL"}}, "Interview context for student with career goal: Data Scientist, skills: Python, SQL"},
	}
	for _, tt := range tests {
		if got := fallbackContext(tt.profile); got != tt.expected {
			t.Errorf("fallbackContext() = %q, expected %q", got, tt.expected)
		}
	}
}

func TestEvaluateStoresResponseAndMetrics(t *testing.T) {
	user := studentUser()
	store := newFakeInterviewStore(user)
	store.questions = interviewQuestions()
	ai := &fakeAI{reply: evaluationReply}
	events := &recordingPublisher{}
	svc := NewInterviewService(store, ai, events)

	result, err := svc.Evaluate(context.Background(), user.ID, EvaluateInput{
		QuestionID:      "q-go",
		StudentAnswer:   "Goroutines are lightweight threads managed by the runtime.",
		DurationSeconds: 20,
	})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if result.SessionID == "" || result.ResponseID == "" {
		t.Fatalf("result = %+v", result)
	}
	if result.Evaluation.SpeechAnalysis == nil {
		t.Error("expected speech analysis when a duration is given")
	}
	if len(store.responses) != 1 || store.responses[0].QuestionID != "q-go" || store.responses[0].TranscribedAnswer != nil {
		t.Errorf("responses = %+v", store.responses)
	}
	if s := store.sessions[result.SessionID]; s.TotalScore != 7.5 {
		t.Errorf("session total score = %v, expected 7.5", s.TotalScore)
	}
	metric := store.metrics[user.ID+"/Go"]
	if metric == nil || metric.TotalAttempts != 1 || metric.AvgScore != 7.5 {
		t.Errorf("metric = %+v", metric)
	}
	if keys := events.keys(); len(keys) != 1 || keys[0] != EventInterviewEvaluated {
		t.Errorf("published events = %v", keys)
	}
	if !strings.Contains(ai.prompts[0], "Explain goroutines") || !strings.Contains(ai.prompts[0], "Backend Developer") {
		t.Errorf("prompt does not carry the question: %s", ai.prompts[0])
	}

	// a second answer in the same session averages into the total
	ai.reply = `{"score": 5.5}`
	second, err := svc.Evaluate(context.Background(), user.ID, EvaluateInput{
		QuestionID:        "q-sql",
		TranscribedAnswer: "An inner join returns matching rows.",
		Topic:             "Databases",
	})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if second.SessionID != result.SessionID {
		t.Errorf("second answer went to session %s, expected %s", second.SessionID, result.SessionID)
	}
	if s := store.sessions[result.SessionID]; s.TotalScore != 6.5 {
		t.Errorf("session total score = %v, expected 6.5", s.TotalScore)
	}
	if store.metrics[user.ID+"/Databases"] == nil {
		t.Error("expected the request topic to override the question topic")
	}
	if store.responses[1].TranscribedAnswer == nil {
		t.Error("expected the transcribed answer to be stored")
	}
}

func TestEvaluateErrors(t *testing.T) {
	user := studentUser()
	ended := time.Now()

	tests := []struct {
		name     string
		ai       TextGenerator
		input    EvaluateInput
		expected error
	}{
		{"no AI configured", nil, EvaluateInput{QuestionID: "q-go", StudentAnswer: "x"}, ErrAIUnavailable},
		{"unknown question", &fakeAI{reply: evaluationReply}, EvaluateInput{QuestionID: "missing", StudentAnswer: "x"}, ErrQuestionNotFound},
		{"inactive question", &fakeAI{reply: evaluationReply}, EvaluateInput{QuestionID: "q-retired", StudentAnswer: "x"}, ErrQuestionNotFound},
		{"model failure", &fakeAI{err: errors.New("quota exceeded")}, EvaluateInput{QuestionID: "q-go", StudentAnswer: "x"}, ErrEvaluationFailed},
		{"unparsable reply", &fakeAI{reply: "no json here"}, EvaluateInput{QuestionID: "q-go", StudentAnswer: "x"}, ErrEvaluationFailed},
		{"closed session", &fakeAI{reply: evaluationReply}, EvaluateInput{SessionID: "closed", QuestionID: "q-go", StudentAnswer: "x"}, ErrSessionClosed},
		{"someone else's session", &fakeAI{reply: evaluationReply}, EvaluateInput{SessionID: "foreign", QuestionID: "q-go", StudentAnswer: "x"}, ErrSessionNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeInterviewStore(user)
			store.questions = interviewQuestions()
			store.sessions["closed"] = &models.MockInterviewSession{ID: "closed", StudentID: user.ID, EndedAt: &ended}
			store.sessions["foreign"] = &models.MockInterviewSession{ID: "foreign", StudentID: "someone-else"}

			_, err := NewInterviewService(store, tt.ai, nil).Evaluate(context.Background(), user.ID, tt.input)
			if !errors.Is(err, tt.expected) {
				t.Errorf("Evaluate() error = %v, expected %v", err, tt.expected)
			}
			if len(store.responses) != 0 {
				t.Errorf("no response should be stored, got %d", len(store.responses))
			}
		})
	}
}

func TestPersonalizedQuestionSkipsAskedQuestions(t *testing.T) {
	user := studentUser()
	store := newFakeInterviewStore(user)
	store.questions = interviewQuestions()
	svc := NewInterviewService(store, nil, nil)

	for i := 0; i < 10; i++ {
		q, err := svc.PersonalizedQuestion(context.Background(), user.ID, "q-sql", "q-go")
		if err != nil {
			t.Fatalf("PersonalizedQuestion() error = %v", err)
		}
		if q.QuestionID != "q-behavioral" {
			t.Fatalf("got %s, expected the only unasked active question", q.QuestionID)
		}
	}

	q, err := svc.PersonalizedQuestion(context.Background(), user.ID, "q-sql", "q-go", "q-behavioral")
	if err != nil {
		t.Fatalf("PersonalizedQuestion() error = %v", err)
	}
	if q == nil || q.QuestionID == "q-retired" {
		t.Errorf("expected a fallback to an active question, got %+v", q)
	}

	if _, err := svc.PersonalizedQuestion(context.Background(), "ghost"); !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("expected ErrStudentNotFound, got %v", err)
	}
}

func TestBuildContextFallsBackWhenAIFails(t *testing.T) {
	user := studentUser()
	goal := "Frontend Developer"
	user.CareerGoal = &goal
	store := newFakeInterviewStore(user)
	svc := NewInterviewService(store, &fakeAI{err: errors.New("timeout")}, nil)

	result, err := svc.BuildContext(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("BuildContext() error = %v", err)
	}
	expected := "Interview context for student with career goal: Frontend Developer, skills: Various"
	if result.Context != expected {
		t.Errorf("Context = %q, expected %q", result.Context, expected)
	}
	if doc := store.contexts[result.SessionID]; doc == nil || doc.Context != expected {
		t.Errorf("stored context = %+v", doc)
	}
	if result.PerformanceMetrics == nil {
		t.Error("expected an empty metrics slice, got nil")
	}
}

func TestEndSessionPublishesEvent(t *testing.T) {
	user := studentUser()
	store := newFakeInterviewStore(user)
	events := &recordingPublisher{}
	svc := NewInterviewService(store, nil, events)

	session, err := svc.GetOrCreateSession(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetOrCreateSession() error = %v", err)
	}
	if again, _ := svc.GetOrCreateSession(context.Background(), user.ID); again.ID != session.ID {
		t.Errorf("expected the open session to be reused")
	}

	if err := svc.EndSession(context.Background(), session, ReasonTimeLimit); err != nil {
		t.Fatalf("EndSession() error = %v", err)
	}
	if _, err := svc.OwnedOpenSession(context.Background(), user.ID, session.ID); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}
	if keys := events.keys(); len(keys) != 1 || keys[0] != EventInterviewEnded {
		t.Errorf("published events = %v", keys)
	}
	if next, _ := svc.GetOrCreateSession(context.Background(), user.ID); next.ID == session.ID {
		t.Error("expected a new session after the previous one ended")
	}
}

func TestEvaluateHandler(t *testing.T) {
	user := studentUser()

	tests := []struct {
		name   string
		ai     TextGenerator
		body   string
		status int
	}{
		{"invalid json", &fakeAI{reply: evaluationReply}, `{`, http.StatusBadRequest},
		{"missing answer", &fakeAI{reply: evaluationReply}, `{"question_id":"q-go"}`, http.StatusBadRequest},
		{"markup only answer", &fakeAI{reply: evaluationReply}, `{"question_id":"q-go","student_answer":"<b></b>"}`, http.StatusBadRequest},
		{"missing question", &fakeAI{reply: evaluationReply}, `{"student_answer":"hello"}`, http.StatusBadRequest},
		{"unknown question", &fakeAI{reply: evaluationReply}, `{"question_id":"nope","student_answer":"hello"}`, http.StatusNotFound},
		{"ai not configured", nil, `{"question_id":"q-go","student_answer":"hello"}`, http.StatusServiceUnavailable},
		{"ai failure", &fakeAI{err: errors.New("boom")}, `{"question_id":"q-go","student_answer":"hello"}`, http.StatusInternalServerError},
		{"success", &fakeAI{reply: evaluationReply}, `{"question_id":"q-go","student_answer":"hello"}`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeInterviewStore(user)
			store.questions = interviewQuestions()
			e := NewInterviewEndpoints(NewInterviewService(store, tt.ai, nil))

			req := asUser(httptest.NewRequest(http.MethodPost, "/interview/evaluate", bytes.NewBufferString(tt.body)), user)
			rec := httptest.NewRecorder()
			e.EvaluateHandler(rec, req)

			if rec.Code != tt.status {
				t.Errorf("status = %d, expected %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestQuestionHandlerFilters(t *testing.T) {
	store := newFakeInterviewStore()
	store.questions = interviewQuestions()
	e := NewInterviewEndpoints(NewInterviewService(store, nil, nil))

	tests := []struct {
		query  string
		status int
		id     string
	}{
		{"?topic=SQL", http.StatusOK, "q-sql"},
		{"?role_type=Backend%20Developer&difficulty=Hard", http.StatusOK, "q-go"},
		{"?topic=Legacy", http.StatusNotFound, ""},
		{"?topic=Unknown", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/interview/question"+tt.query, nil)
		rec := httptest.NewRecorder()
		e.QuestionHandler(rec, req)

		if rec.Code != tt.status {
			t.Errorf("%s: status = %d, expected %d", tt.query, rec.Code, tt.status)
			continue
		}
		if tt.id != "" {
			var q QuestionView
			decodeBody(t, rec, &q)
			if q.QuestionID != tt.id {
				t.Errorf("%s: got %s, expected %s", tt.query, q.QuestionID, tt.id)
			}
		}
	}
}

func TestEndSessionHandlerWithoutSession(t *testing.T) {
	e := NewInterviewEndpoints(NewInterviewService(newFakeInterviewStore(studentUser()), nil, nil))

	req := asUser(httptest.NewRequest(http.MethodPost, "/interview/session/end", nil), studentUser())
	rec := httptest.NewRecorder()
	e.EndSessionHandler(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, expected 404", rec.Code)
	}
}
