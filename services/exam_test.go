package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/krshsl/placeprep/backend/models"
)

var optionLetters = []string{"a", "b", "c", "d"}

type fakeExamStore struct {
	aptitude  map[string][]models.AptitudeQuestion
	technical map[string][]models.TechnicalQuestion

	aptitudeResults  []models.AptitudeTestResult
	technicalResults []models.TechnicalTestResult
	savedAptitude    *models.AptitudeTestResult
	savedTechnical   *models.TechnicalTestResult
}

func (f *fakeExamStore) GetActiveAptitudeQuestions(_ context.Context, questionType string, limit int) ([]models.AptitudeQuestion, error) {
	return f.aptitude[questionType], nil
}

func (f *fakeExamStore) GetActiveTechnicalQuestions(_ context.Context, topic, difficulty string, limit int) ([]models.TechnicalQuestion, error) {
	var out []models.TechnicalQuestion
	for _, q := range f.technical[difficulty] {
		if topic == "" || q.Topic == topic {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeExamStore) CreateAptitudeResult(_ context.Context, result *models.AptitudeTestResult) error {
	result.ID = "aptitude-result"
	f.savedAptitude = result
	return nil
}

func (f *fakeExamStore) CreateTechnicalResult(_ context.Context, result *models.TechnicalTestResult) error {
	result.ID = "technical-result"
	f.savedTechnical = result
	return nil
}

func (f *fakeExamStore) GetAptitudeResults(_ context.Context, studentID string, limit int) ([]models.AptitudeTestResult, error) {
	return f.aptitudeResults, nil
}

func (f *fakeExamStore) GetTechnicalResults(_ context.Context, studentID string, limit int) ([]models.TechnicalTestResult, error) {
	return f.technicalResults, nil
}

// newExamBank builds perType aptitude questions per type and perLevel technical questions per topic and difficulty.
// It returns the correct option of every question by id.
func newExamBank(perType, perLevel int) (*fakeExamStore, map[string]string) {
	store := &fakeExamStore{
		aptitude:  map[string][]models.AptitudeQuestion{},
		technical: map[string][]models.TechnicalQuestion{},
	}
	correct := map[string]string{}
	for _, kind := range aptitudeTypes {
		for i := 0; i < perType; i++ {
			id := fmt.Sprintf("%s-%d", kind, i)
			answer := optionLetters[i%len(optionLetters)]
			correct[id] = answer
			store.aptitude[kind] = append(store.aptitude[kind], models.AptitudeQuestion{
				ID: id, Question: "Q " + id, Type: kind, CorrectAnswer: answer, Difficulty: "medium", IsActive: true,
			})
		}
	}
	for _, topic := range []string{"frontend", "backend"} {
		for _, split := range technicalSplit {
			for i := 0; i < perLevel; i++ {
				id := fmt.Sprintf("%s-%s-%d", topic, split.Difficulty, i)
				answer := optionLetters[(i+1)%len(optionLetters)]
				correct[id] = answer
				store.technical[split.Difficulty] = append(store.technical[split.Difficulty], models.TechnicalQuestion{
					ID: id, Question: "Q " + id, Topic: topic, CorrectAnswer: answer, Difficulty: split.Difficulty, IsActive: true,
				})
			}
		}
	}
	return store, correct
}

type generatedExam struct {
	Success        bool           `json:"success"`
	Questions      []ExamQuestion `json:"questions"`
	Summary        map[string]int `json:"summary"`
	TotalQuestions int            `json:"totalQuestions"`
	AnswersHash    string         `json:"answersHash"`
}

type submittedExam struct {
	Success bool               `json:"success"`
	Result  ExamResultResponse `json:"result"`
	Message string             `json:"message"`
}

func generateExam(t *testing.T, handler http.HandlerFunc, target string, user *models.User) generatedExam {
	t.Helper()
	req := asUser(httptest.NewRequest(http.MethodGet, target, nil), user)
	rec := httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("generate status = %d, body %s", rec.Code, rec.Body.String())
	}
	var exam generatedExam
	decodeBody(t, rec, &exam)
	return exam
}

func submitExam(handler http.HandlerFunc, user *models.User, body SubmitExamRequest) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := asUser(httptest.NewRequest(http.MethodPost, "/submit", bytes.NewReader(payload)), user)
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestGradeExam(t *testing.T) {
	key := []AnswerKeyEntry{
		{QuestionID: 1, CorrectAnswer: "a"},
		{QuestionID: 2, CorrectAnswer: "b"},
		{QuestionID: 3, CorrectAnswer: "c"},
		{QuestionID: 4, CorrectAnswer: "d"},
	}

	tests := []struct {
		name      string
		key       []AnswerKeyEntry
		answers   []SubmittedAnswer
		correct   int
		incorrect int
		score     float64
	}{
		{
			name:      "all correct, case and space insensitive",
			key:       key,
			answers:   []SubmittedAnswer{{1, "A"}, {2, " b "}, {3, "c"}, {4, "D"}},
			correct:   4,
			incorrect: 0,
			score:     100,
		},
		{
			name:      "unanswered counts as incorrect",
			key:       key,
			answers:   []SubmittedAnswer{{1, "a"}, {2, "b"}},
			correct:   2,
			incorrect: 2,
			score:     50,
		},
		{
			name:      "empty selection is never correct",
			key:       []AnswerKeyEntry{{QuestionID: 1, CorrectAnswer: ""}},
			answers:   []SubmittedAnswer{{1, ""}},
			correct:   0,
			incorrect: 1,
			score:     0,
		},
		{
			name:      "answers for unknown questions are ignored",
			key:       key[:3],
			answers:   []SubmittedAnswer{{1, "a"}, {9, "a"}},
			correct:   1,
			incorrect: 2,
			score:     33.33,
		},
		{
			name:    "empty key",
			key:     nil,
			answers: []SubmittedAnswer{{1, "a"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GradeExam(tt.key, tt.answers)
			if got.Total != len(tt.key) {
				t.Errorf("Total = %d, expected %d", got.Total, len(tt.key))
			}
			if got.Correct != tt.correct || got.Incorrect != tt.incorrect {
				t.Errorf("Correct/Incorrect = %d/%d, expected %d/%d", got.Correct, got.Incorrect, tt.correct, tt.incorrect)
			}
			if got.ScorePercentage != tt.score {
				t.Errorf("ScorePercentage = %v, expected %v", got.ScorePercentage, tt.score)
			}
		})
	}
}

func TestComputeExamStats(t *testing.T) {
	if stats := computeExamStats(nil); stats != nil {
		t.Fatalf("expected nil stats for empty history, got %+v", stats)
	}

	stats := computeExamStats([]float64{80, 60, 90})
	expected := ExamStats{TotalTests: 3, AverageScore: 76.67, BestScore: 90, LatestScore: 80, ImprovementTrend: 20}
	if *stats != expected {
		t.Errorf("stats = %+v, expected %+v", *stats, expected)
	}

	single := computeExamStats([]float64{55.5})
	if single.ImprovementTrend != 0 || single.LatestScore != 55.5 || single.BestScore != 55.5 {
		t.Errorf("single attempt stats = %+v", *single)
	}
}

func TestAssembleExamNumbersQuestionsAndKeepsKeyAligned(t *testing.T) {
	correct := map[string]string{}
	var items []examItem
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("q-%d", i)
		correct[id] = optionLetters[i%len(optionLetters)]
		items = append(items, examItem{question: ExamQuestion{QuestionID: id}, correct: correct[id]})
	}

	questions, key := assembleExam(items)
	if len(questions) != len(items) || len(key) != len(items) {
		t.Fatalf("got %d questions and %d key entries, expected %d", len(questions), len(key), len(items))
	}

	seen := map[string]bool{}
	for i, q := range questions {
		if q.ID != i+1 {
			t.Errorf("question %d has id %d", i, q.ID)
		}
		if key[i].QuestionID != q.ID {
			t.Errorf("key entry %d is for question %d, expected %d", i, key[i].QuestionID, q.ID)
		}
		if key[i].CorrectAnswer != correct[q.QuestionID] {
			t.Errorf("key entry for %s = %q, expected %q", q.QuestionID, key[i].CorrectAnswer, correct[q.QuestionID])
		}
		seen[q.QuestionID] = true
	}
	if len(seen) != len(items) {
		t.Errorf("expected %d distinct questions, got %d", len(items), len(seen))
	}
}

func TestPickRandom(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8}

	if got := pickRandom(items, 20); len(got) != len(items) {
		t.Errorf("pickRandom with n > len returned %d items", len(got))
	}

	got := pickRandom(items, 3)
	if len(got) != 3 {
		t.Fatalf("pickRandom returned %d items, expected 3", len(got))
	}
	seen := map[int]bool{}
	for _, v := range got {
		if seen[v] {
			t.Errorf("duplicate item %d", v)
		}
		seen[v] = true
	}

	if items[0] != 1 || items[7] != 8 {
		t.Errorf("pickRandom modified its input: %v", items)
	}
}

func TestAnswerKeySigner(t *testing.T) {
	signer := NewAnswerKeySigner("test-secret", time.Hour)
	answers := []AnswerKeyEntry{{QuestionID: 1, CorrectAnswer: "b"}}

	token, err := signer.Sign(ExamTechnical, "student-1", "backend", answers)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	key, err := signer.Verify(token, ExamTechnical, "student-1")
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if key.Topic != "backend" || len(key.Answers) != 1 || key.Answers[0] != answers[0] {
		t.Errorf("Verify() = %+v", key)
	}

	expired := &AnswerKeySigner{secret: []byte("test-secret"), ttl: -time.Minute}
	expiredToken, err := expired.Sign(ExamTechnical, "student-1", "", answers)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	emptyToken, err := signer.Sign(ExamAptitude, "student-1", "", nil)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	tests := []struct {
		name   string
		signer *AnswerKeySigner
		token  string
		kind   ExamKind
		userID string
	}{
		{"wrong exam kind", signer, token, ExamAptitude, "student-1"},
		{"another student", signer, token, ExamTechnical, "student-2"},
		{"different secret", NewAnswerKeySigner("other-secret", time.Hour), token, ExamTechnical, "student-1"},
		{"expired", signer, expiredToken, ExamTechnical, "student-1"},
		{"empty answer key", signer, emptyToken, ExamAptitude, "student-1"},
		{"garbage", signer, "not-a-token", ExamTechnical, "student-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.signer.Verify(tt.token, tt.kind, tt.userID)
			if !errors.Is(err, ErrInvalidAnswerKey) {
				t.Errorf("Verify() error = %v, expected ErrInvalidAnswerKey", err)
			}
		})
	}
}

func TestGenerateAptitudeNotEnoughQuestions(t *testing.T) {
	store, _ := newExamBank(2, 0)
	e := NewExamEndpoints(store, NewAnswerKeySigner("secret", time.Hour), nil, 3)

	req := asUser(httptest.NewRequest(http.MethodGet, "/aptitude/generate", nil), studentUser())
	rec := httptest.NewRecorder()
	e.GenerateAptitudeHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, expected 400", rec.Code)
	}
	var body struct {
		Counts map[string]int `json:"counts"`
	}
	decodeBody(t, rec, &body)
	if body.Counts["logical"] != 2 {
		t.Errorf("counts = %v", body.Counts)
	}
}

func TestAptitudeGenerateAndSubmit(t *testing.T) {
	store, correct := newExamBank(6, 0)
	events := &recordingPublisher{}
	e := NewExamEndpoints(store, NewAnswerKeySigner("secret", time.Hour), events, 3)
	user := studentUser()

	exam := generateExam(t, e.GenerateAptitudeHandler, "/aptitude/generate", user)
	if exam.TotalQuestions != examSize || len(exam.Questions) != examSize {
		t.Fatalf("got %d questions, expected %d", len(exam.Questions), examSize)
	}
	for _, kind := range aptitudeTypes {
		if exam.Summary[kind] != perAptitudeType {
			t.Errorf("summary[%s] = %d, expected %d", kind, exam.Summary[kind], perAptitudeType)
		}
	}

	answers := make([]SubmittedAnswer, 0, len(exam.Questions))
	for i, q := range exam.Questions {
		answer := correct[q.QuestionID]
		if i == 0 {
			answer = "x"
		}
		answers = append(answers, SubmittedAnswer{QuestionID: q.ID, SelectedAnswer: answer})
	}

	rec := submitExam(e.SubmitAptitudeHandler, user, SubmitExamRequest{
		Answers:          answers,
		AnswersHash:      exam.AnswersHash,
		TimeTakenSeconds: 600,
		TabSwitches:      2,
		Violations:       5,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("submit status = %d, body %s", rec.Code, rec.Body.String())
	}

	var result submittedExam
	decodeBody(t, rec, &result)
	if result.Result.CorrectAnswers != 14 || result.Result.IncorrectAnswers != 1 {
		t.Errorf("correct/incorrect = %d/%d", result.Result.CorrectAnswers, result.Result.IncorrectAnswers)
	}
	if result.Result.ScorePercentage != 93.33 {
		t.Errorf("score = %v, expected 93.33", result.Result.ScorePercentage)
	}
	if !result.Result.Flagged {
		t.Error("expected result to be flagged for 5 violations")
	}
	if store.savedAptitude == nil || store.savedAptitude.StudentID != user.ID || store.savedAptitude.TabSwitches != 2 {
		t.Errorf("saved result = %+v", store.savedAptitude)
	}
	if keys := events.keys(); len(keys) != 1 || keys[0] != EventExamSubmitted {
		t.Errorf("published events = %v", keys)
	}
}

func TestSubmitRejectsForeignAnswerKeys(t *testing.T) {
	store, _ := newExamBank(6, 8)
	e := NewExamEndpoints(store, NewAnswerKeySigner("secret", time.Hour), nil, 3)
	user := studentUser()

	aptitude := generateExam(t, e.GenerateAptitudeHandler, "/aptitude/generate", user)
	technical := generateExam(t, e.GenerateTechnicalHandler, "/technical-exam/generate", user)

	other := studentUser()
	other.ID = "student-2"

	tests := []struct {
		name    string
		handler http.HandlerFunc
		user    *models.User
		body    SubmitExamRequest
		status  int
	}{
		{
			name:    "another student's key",
			handler: e.SubmitAptitudeHandler,
			user:    other,
			body:    SubmitExamRequest{Answers: []SubmittedAnswer{}, AnswersHash: aptitude.AnswersHash},
			status:  http.StatusBadRequest,
		},
		{
			name:    "technical key on aptitude submit",
			handler: e.SubmitAptitudeHandler,
			user:    user,
			body:    SubmitExamRequest{Answers: []SubmittedAnswer{}, AnswersHash: technical.AnswersHash},
			status:  http.StatusBadRequest,
		},
		{
			name:    "missing answers",
			handler: e.SubmitTechnicalHandler,
			user:    user,
			body:    SubmitExamRequest{AnswersHash: technical.AnswersHash},
			status:  http.StatusBadRequest,
		},
		{
			name:    "negative counters",
			handler: e.SubmitTechnicalHandler,
			user:    user,
			body:    SubmitExamRequest{Answers: []SubmittedAnswer{}, AnswersHash: technical.AnswersHash, Violations: -1},
			status:  http.StatusBadRequest,
		},
		{
			name:    "valid empty submission",
			handler: e.SubmitTechnicalHandler,
			user:    user,
			body:    SubmitExamRequest{Answers: []SubmittedAnswer{}, AnswersHash: technical.AnswersHash},
			status:  http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := submitExam(tt.handler, tt.user, tt.body)
			if rec.Code != tt.status {
				t.Errorf("status = %d, expected %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestTechnicalExamKeepsTopic(t *testing.T) {
	store, _ := newExamBank(0, 8)
	e := NewExamEndpoints(store, NewAnswerKeySigner("secret", time.Hour), nil, 3)
	user := studentUser()

	exam := generateExam(t, e.GenerateTechnicalHandler, "/technical-exam/generate?topic=backend", user)
	for _, q := range exam.Questions {
		if q.Topic != "backend" {
			t.Fatalf("question %s has topic %s", q.QuestionID, q.Topic)
		}
	}
	for _, split := range technicalSplit {
		if exam.Summary[split.Difficulty] != split.Count {
			t.Errorf("summary[%s] = %d, expected %d", split.Difficulty, exam.Summary[split.Difficulty], split.Count)
		}
	}

	rec := submitExam(e.SubmitTechnicalHandler, user, SubmitExamRequest{Answers: []SubmittedAnswer{}, AnswersHash: exam.AnswersHash})
	if rec.Code != http.StatusOK {
		t.Fatalf("submit status = %d, body %s", rec.Code, rec.Body.String())
	}
	if store.savedTechnical == nil || store.savedTechnical.Topic == nil || *store.savedTechnical.Topic != "backend" {
		t.Errorf("saved technical result = %+v", store.savedTechnical)
	}
	if store.savedTechnical.ScorePercentage != 0 || store.savedTechnical.IncorrectAnswers != examSize {
		t.Errorf("unanswered exam graded as %+v", store.savedTechnical)
	}
}

func TestGenerateTechnicalRejectsUnknownTopic(t *testing.T) {
	store, _ := newExamBank(0, 8)
	e := NewExamEndpoints(store, NewAnswerKeySigner("secret", time.Hour), nil, 3)

	req := asUser(httptest.NewRequest(http.MethodGet, "/technical-exam/generate?topic=devops", nil), studentUser())
	rec := httptest.NewRecorder()
	e.GenerateTechnicalHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, expected 400", rec.Code)
	}
}

func TestExamHistory(t *testing.T) {
	store := &fakeExamStore{
		aptitudeResults: []models.AptitudeTestResult{
			{ID: "r2", ScorePercentage: 70},
			{ID: "r1", ScorePercentage: 50},
		},
	}
	e := NewExamEndpoints(store, NewAnswerKeySigner("secret", time.Hour), nil, 3)

	req := asUser(httptest.NewRequest(http.MethodGet, "/aptitude/submit?limit=5", nil), studentUser())
	rec := httptest.NewRecorder()
	e.AptitudeHistoryHandler(rec, req)

	var body struct {
		History []models.AptitudeTestResult `json:"history"`
		Stats   *ExamStats                  `json:"stats"`
	}
	decodeBody(t, rec, &body)
	if len(body.History) != 2 || body.Stats == nil || body.Stats.ImprovementTrend != 20 {
		t.Errorf("history response = %s", rec.Body.String())
	}

	req = asUser(httptest.NewRequest(http.MethodGet, "/technical-exam/submit", nil), studentUser())
	rec = httptest.NewRecorder()
	e.TechnicalHistoryHandler(rec, req)

	var empty struct {
		Stats *ExamStats `json:"stats"`
	}
	decodeBody(t, rec, &empty)
	if empty.Stats != nil {
		t.Errorf("expected null stats for empty history, got %+v", empty.Stats)
	}
}

func TestHistoryLimit(t *testing.T) {
	tests := []struct {
		query    string
		expected int
	}{
		{"", defaultHistoryLimit},
		{"limit=5", 5},
		{"limit=0", defaultHistoryLimit},
		{"limit=abc", defaultHistoryLimit},
		{"limit=1000", maxHistoryLimit},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/history?"+tt.query, nil)
		if got := historyLimit(req); got != tt.expected {
			t.Errorf("historyLimit(%q) = %d, expected %d", tt.query, got, tt.expected)
		}
	}
}
