package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/krshsl/placeprep/backend/models"
	"github.com/krshsl/placeprep/backend/repository"
	"github.com/tidwall/gjson"
)

var (
	ErrQuestionNotFound = errors.New("question not found")
	ErrStudentNotFound  = errors.New("student not found")
	ErrSessionNotFound  = errors.New("interview session not found")
	ErrSessionClosed    = errors.New("interview session has ended")
	ErrAIUnavailable    = errors.New("ai service is not configured")
	ErrEvaluationFailed = errors.New("failed to evaluate answer with AI")
)

const (
	weakTopicThreshold   = 6.0
	strongTopicThreshold = 7.0
	weakestMetricsLimit  = 5
	personalizedPoolSize = 5
	resumeSummaryLength  = 500
	sessionHistoryLimit  = 20
)

const (
	reasonWeakTopic = "Selected based on areas needing improvement"
	reasonPreferred = "Selected based on your skills and interests"
	reasonBalanced  = "Selected for balanced practice"
)

// InterviewStore is the persistence behind mock interviews
type InterviewStore interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetActiveMockSession(ctx context.Context, studentID string) (*models.MockInterviewSession, error)
	GetMockSession(ctx context.Context, sessionID string) (*models.MockInterviewSession, error)
	CreateMockSession(ctx context.Context, session *models.MockInterviewSession) error
	UpdateSessionContext(ctx context.Context, sessionID string, doc *models.InterviewContextDoc) error
	UpdateSessionTotalScore(ctx context.Context, sessionID string, total float64) error
	EndMockSession(ctx context.Context, sessionID string, endedAt time.Time) error
	GetStudentSessions(ctx context.Context, studentID string, limit int) ([]models.MockInterviewSession, error)
	GetInterviewQuestion(ctx context.Context, questionID string) (*models.InterviewQuestion, error)
	GetInterviewQuestions(ctx context.Context, filter repository.QuestionFilter) ([]models.InterviewQuestion, error)
	CreateInterviewResponse(ctx context.Context, response *models.InterviewResponse) error
	GetSessionScores(ctx context.Context, sessionID string) ([]float64, error)
	GetPerformanceMetrics(ctx context.Context, studentID string) ([]models.UserPerformanceMetric, error)
	GetWeakestMetrics(ctx context.Context, studentID string, limit int) ([]models.UserPerformanceMetric, error)
	RecordTopicScore(ctx context.Context, studentID, topic string, score float64) (*models.UserPerformanceMetric, error)
}

// InterviewService holds the mock interview logic shared by the HTTP API and the live websocket
type InterviewService struct {
	repo   InterviewStore
	ai     TextGenerator
	events EventPublisher
}

func NewInterviewService(repo InterviewStore, ai TextGenerator, events EventPublisher) *InterviewService {
	return &InterviewService{repo: repo, ai: ai, events: events}
}

// Evaluation is the scored feedback for one answer
type Evaluation struct {
	Score                float64         `json:"score"`
	TechnicalAccuracy    float64         `json:"technical_accuracy"`
	CommunicationClarity float64         `json:"communication_clarity"`
	InterviewReadiness   float64         `json:"interview_readiness"`
	Strengths            string          `json:"strengths"`
	Weaknesses           string          `json:"weaknesses"`
	IdealAnswer          string          `json:"ideal_answer"`
	Feedback             string          `json:"feedback"`
	SpeechAnalysis       *SpeechAnalysis `json:"speech_analysis,omitempty"`
}

type EvaluateInput struct {
	// SessionID pins the answer to a specific open session. Empty means the student's active session.
	SessionID         string
	QuestionID        string
	StudentAnswer     string
	TranscribedAnswer string
	AudioURL          string
	RoleType          string
	Topic             string
	Difficulty        string
	DurationSeconds   float64
}

type EvaluationResult struct {
	ResponseID string     `json:"response_id"`
	SessionID  string     `json:"session_id"`
	Evaluation Evaluation `json:"evaluation"`
}

// QuestionView is the client facing shape of an interview question
type QuestionView struct {
	QuestionID     string `json:"question_id"`
	QuestionText   string `json:"question_text"`
	RoleType       string `json:"role_type"`
	Topic          string `json:"topic"`
	Difficulty     string `json:"difficulty"`
	PriorityReason string `json:"priority_reason,omitempty"`
}

func newQuestionView(q *models.InterviewQuestion, reason string) *QuestionView {
	return &QuestionView{
		QuestionID:     q.ID,
		QuestionText:   q.QuestionText,
		RoleType:       q.RoleType,
		Topic:          q.Topic,
		Difficulty:     q.Difficulty,
		PriorityReason: reason,
	}
}

type ContextResult struct {
	SessionID          string                         `json:"session_id"`
	Context            string                         `json:"context"`
	Profile            models.StudentProfile          `json:"profile"`
	PerformanceMetrics []models.UserPerformanceMetric `json:"performance_metrics"`
}

type PerformanceStats struct {
	TotalAttempts     int     `json:"total_attempts"`
	OverallAvgScore   float64 `json:"overall_avg_score"`
	TopicsPracticed   int     `json:"topics_practiced"`
	WeakTopicsCount   int     `json:"weak_topics_count"`
	StrongTopicsCount int     `json:"strong_topics_count"`
}

type PerformanceReport struct {
	Metrics      []models.UserPerformanceMetric `json:"metrics"`
	Statistics   PerformanceStats               `json:"statistics"`
	WeakTopics   []models.UserPerformanceMetric `json:"weak_topics"`
	StrongTopics []models.UserPerformanceMetric `json:"strong_topics"`
}

// GetOrCreateSession returns the student's open session, starting one when none is open
func (s *InterviewService) GetOrCreateSession(ctx context.Context, studentID string) (*models.MockInterviewSession, error) {
	session, err := s.repo.GetActiveMockSession(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active session: %w", err)
	}
	if session != nil {
		return session, nil
	}

	session = &models.MockInterviewSession{
		StudentID: studentID,
		StartedAt: time.Now(),
	}
	if err := s.repo.CreateMockSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

func (s *InterviewService) ActiveSession(ctx context.Context, studentID string) (*models.MockInterviewSession, error) {
	session, err := s.repo.GetActiveMockSession(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch session: %w", err)
	}
	return session, nil
}

// OwnedOpenSession loads a session and checks it belongs to the student and is still open
func (s *InterviewService) OwnedOpenSession(ctx context.Context, studentID, sessionID string) (*models.MockInterviewSession, error) {
	session, err := s.repo.GetMockSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch session: %w", err)
	}
	if session == nil || session.StudentID != studentID {
		return nil, ErrSessionNotFound
	}
	if !session.IsOpen() {
		return nil, ErrSessionClosed
	}
	return session, nil
}

// EndSession closes a session and announces it
func (s *InterviewService) EndSession(ctx context.Context, session *models.MockInterviewSession, reason string) error {
	if err := s.repo.EndMockSession(ctx, session.ID, time.Now()); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	publishEvent(ctx, s.events, EventInterviewEnded, map[string]interface{}{
		"session_id":  session.ID,
		"student_id":  session.StudentID,
		"total_score": session.TotalScore,
		"reason":      reason,
	})
	return nil
}

// RandomQuestion returns a uniformly chosen active question matching the filter
func (s *InterviewService) RandomQuestion(ctx context.Context, roleType, topic, difficulty string) (*QuestionView, error) {
	active := true
	questions, err := s.repo.GetInterviewQuestions(ctx, repository.QuestionFilter{
		RoleType:   roleType,
		Topic:      topic,
		Difficulty: difficulty,
		Active:     &active,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrQuestionNotFound
	}
	return newQuestionView(&questions[rand.IntN(len(questions))], ""), nil
}

type scoredQuestion struct {
	question models.InterviewQuestion
	score    int
}

func containsFold(haystack, needle string) bool {
	needle = strings.TrimSpace(needle)
	return needle != "" && strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func matchesAny(topic string, candidates []string) bool {
	for _, c := range candidates {
		if containsFold(topic, c) {
			return true
		}
	}
	return false
}

func weakTopicSet(metrics []models.UserPerformanceMetric) map[string]bool {
	weak := make(map[string]bool)
	for _, m := range metrics {
		if m.AvgScore < weakTopicThreshold {
			weak[m.Topic] = true
		}
	}
	return weak
}

// selectPersonalizedQuestion ranks questions against the profile and weak topics,
// then picks one from the top of the ranking using pick.
func selectPersonalizedQuestion(questions []models.InterviewQuestion, profile models.StudentProfile, weakest []models.UserPerformanceMetric, pick func(n int) int) (*models.InterviewQuestion, string) {
	if len(questions) == 0 {
		return nil, ""
	}

	preferred := append(append([]string{}, profile.Skills...), profile.Interests...)
	weak := weakTopicSet(weakest)
	careerGoal := ""
	if profile.CareerGoal != nil {
		careerGoal = *profile.CareerGoal
	}

	scored := make([]scoredQuestion, len(questions))
	for i, q := range questions {
		score := 0
		if matchesAny(q.Topic, preferred) {
			score += 3
		}
		if weak[q.Topic] {
			score += 5
		}
		if containsFold(q.Topic, careerGoal) {
			score += 2
		}
		if q.Difficulty == models.DifficultyMedium {
			score++
		}
		scored[i] = scoredQuestion{question: q, score: score}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	pool := scored[:min(personalizedPoolSize, len(scored))]
	chosen := pool[pick(len(pool))].question

	reason := reasonBalanced
	switch {
	case weak[chosen.Topic]:
		reason = reasonWeakTopic
	case matchesAny(chosen.Topic, preferred):
		reason = reasonPreferred
	}
	return &chosen, reason
}

// PersonalizedQuestion picks a question for the student. Question ids in exclude are
// skipped unless nothing else is left.
func (s *InterviewService) PersonalizedQuestion(ctx context.Context, studentID string, exclude ...string) (*QuestionView, error) {
	user, err := s.repo.GetUserByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch student: %w", err)
	}
	if user == nil {
		return nil, ErrStudentNotFound
	}

	weakest, err := s.repo.GetWeakestMetrics(ctx, studentID, weakestMetricsLimit)
	if err != nil {
		slog.Error("Failed to fetch weakest metrics", "error", err, "student_id", studentID)
		weakest = nil
	}

	active := true
	questions, err := s.repo.GetInterviewQuestions(ctx, repository.QuestionFilter{Active: &active})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrQuestionNotFound
	}

	if len(exclude) > 0 {
		skip := make(map[string]bool, len(exclude))
		for _, id := range exclude {
			skip[id] = true
		}
		var fresh []models.InterviewQuestion
		for _, q := range questions {
			if !skip[q.ID] {
				fresh = append(fresh, q)
			}
		}
		if len(fresh) > 0 {
			questions = fresh
		}
	}

	chosen, reason := selectPersonalizedQuestion(questions, user.Profile(), weakest, rand.IntN)
	return newQuestionView(chosen, reason), nil
}

func formatMetrics(metrics []models.UserPerformanceMetric) string {
	parts := make([]string, 0, len(metrics))
	for _, m := range metrics {
		parts = append(parts, fmt.Sprintf("%s: %.1f/10 (%d attempts)", m.Topic, m.AvgScore, m.TotalAttempts))
	}
	return strings.Join(parts, ", ")
}

func orDefault(s *string, def string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return def
	}
	return *s
}

func joinOrDefault(items []string, def string) string {
	if len(items) == 0 {
		return def
	}
	return strings.Join(items, ", ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func buildEvaluationPrompt(question, answer, roleType, topic, difficulty string, profile models.StudentProfile, metrics []models.UserPerformanceMetric) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an experienced %s interviewer evaluating a candidate's response to a technical interview question.\n\n", roleType)
	b.WriteString("CANDIDATE PROFILE:\n")
	fmt.Fprintf(&b, "- Career Goal: %s\n", orDefault(profile.CareerGoal, "Not specified"))
	fmt.Fprintf(&b, "- Skills: %s\n", joinOrDefault(profile.Skills, "Not specified"))
	fmt.Fprintf(&b, "- Interests: %s\n", joinOrDefault(profile.Interests, "Not specified"))
	fmt.Fprintf(&b, "- Target Company Type: %s\n", orDefault(profile.TargetCompanyType, "Not specified"))
	if profile.ResumeText != nil && *profile.ResumeText != "" {
		fmt.Fprintf(&b, "Resume Summary: %s...\n", truncate(*profile.ResumeText, resumeSummaryLength))
	}
	if len(metrics) > 0 {
		fmt.Fprintf(&b, "\nPast Performance:\n%s\n", formatMetrics(metrics))
	}
	fmt.Fprintf(&b, "\nINTERVIEW QUESTION:\nTopic: %s\nDifficulty: %s\nQuestion: %s\n\n", topic, difficulty, question)
	fmt.Fprintf(&b, "CANDIDATE'S ANSWER:\n%s\n\n", answer)
	b.WriteString(evaluationInstructions)
	return b.String()
}

const evaluationInstructions = `Evaluate this answer considering:
1. The candidate's background, skills, and career goals
2. Technical accuracy and depth
3. Communication clarity (especially important for voice responses)
4. Interview readiness for their target role
5. Alignment with their career aspirations

Provide the assessment in the following JSON format:
{
  "score": <number between 0 and 10>,
  "technical_accuracy": <number between 0 and 10>,
  "communication_clarity": <number between 0 and 10>,
  "interview_readiness": <number between 0 and 10>,
  "strengths": "<comma-separated list of what the candidate did well, considering their profile>",
  "weaknesses": "<comma-separated list of areas that need improvement, personalized to their career goals>",
  "ideal_answer": "<a comprehensive ideal answer tailored to their skill level and career goals>",
  "feedback": "<detailed, personalized feedback explaining the score and actionable steps to improve for their target role>"
}

Return ONLY valid JSON, no additional text.`

func textOr(r gjson.Result, def string) string {
	if s := strings.TrimSpace(joinedStrings(r)); s != "" {
		return s
	}
	return def
}

// parseEvaluation reads the model reply leniently, clamping scores to 0-10
func parseEvaluation(reply string) (*Evaluation, error) {
	doc, err := extractJSONObject(reply)
	if err != nil {
		return nil, err
	}

	score := func(path string) float64 {
		return models.Round2(clampFloat(gjson.Get(doc, path).Float(), 0, 10))
	}
	return &Evaluation{
		Score:                score("score"),
		TechnicalAccuracy:    score("technical_accuracy"),
		CommunicationClarity: score("communication_clarity"),
		InterviewReadiness:   score("interview_readiness"),
		Strengths:            textOr(gjson.Get(doc, "strengths"), "No specific strengths identified"),
		Weaknesses:           textOr(gjson.Get(doc, "weaknesses"), "No specific weaknesses identified"),
		IdealAnswer:          textOr(gjson.Get(doc, "ideal_answer"), "Ideal answer not provided"),
		Feedback:             textOr(gjson.Get(doc, "feedback"), "No feedback provided"),
	}, nil
}

// Evaluate scores an answer, stores it, and folds the score into the session and topic metrics
func (s *InterviewService) Evaluate(ctx context.Context, studentID string, in EvaluateInput) (*EvaluationResult, error) {
	if s.ai == nil {
		return nil, ErrAIUnavailable
	}

	answer := strings.TrimSpace(in.TranscribedAnswer)
	if answer == "" {
		answer = strings.TrimSpace(in.StudentAnswer)
	}

	var session *models.MockInterviewSession
	var err error
	if in.SessionID != "" {
		session, err = s.OwnedOpenSession(ctx, studentID, in.SessionID)
	} else {
		session, err = s.GetOrCreateSession(ctx, studentID)
	}
	if err != nil {
		return nil, err
	}

	question, err := s.repo.GetInterviewQuestion(ctx, in.QuestionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch question: %w", err)
	}
	if question == nil || !question.IsActive {
		return nil, ErrQuestionNotFound
	}

	profile := models.StudentProfile{}
	user, err := s.repo.GetUserByID(ctx, studentID)
	if err != nil {
		slog.Error("Failed to fetch student profile", "error", err, "student_id", studentID)
	} else if user != nil {
		profile = user.Profile()
	}

	metrics, err := s.repo.GetPerformanceMetrics(ctx, studentID)
	if err != nil {
		slog.Error("Failed to fetch metrics", "error", err, "student_id", studentID)
		metrics = nil
	}

	roleType := firstNonEmpty(in.RoleType, question.RoleType)
	topic := firstNonEmpty(in.Topic, question.Topic)
	difficulty := firstNonEmpty(in.Difficulty, question.Difficulty)

	prompt := buildEvaluationPrompt(question.QuestionText, answer, roleType, topic, difficulty, profile, metrics)
	reply, err := s.ai.GenerateJSON(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEvaluationFailed, err)
	}
	evaluation, err := parseEvaluation(reply)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEvaluationFailed, err)
	}

	response := &models.InterviewResponse{
		SessionID:     session.ID,
		QuestionID:    question.ID,
		StudentAnswer: answer,
		AIScore:       evaluation.Score,
		AIFeedback:    evaluation.Feedback,
		IdealAnswer:   evaluation.IdealAnswer,
	}
	if t := strings.TrimSpace(in.TranscribedAnswer); t != "" {
		response.TranscribedAnswer = &t
	}
	if u := strings.TrimSpace(in.AudioURL); u != "" {
		response.AudioURL = &u
	}
	if err := s.repo.CreateInterviewResponse(ctx, response); err != nil {
		return nil, fmt.Errorf("failed to save response: %w", err)
	}

	s.refreshSessionScore(ctx, session.ID)
	if _, err := s.repo.RecordTopicScore(ctx, studentID, topic, evaluation.Score); err != nil {
		slog.Error("Failed to update performance metric", "error", err, "student_id", studentID, "topic", topic)
	}

	if in.DurationSeconds > 0 {
		analysis := AnalyzeSpeech(answer, in.DurationSeconds)
		evaluation.SpeechAnalysis = &analysis
	}

	publishEvent(ctx, s.events, EventInterviewEvaluated, map[string]interface{}{
		"student_id":  studentID,
		"session_id":  session.ID,
		"response_id": response.ID,
		"question_id": question.ID,
		"topic":       topic,
		"score":       evaluation.Score,
	})

	return &EvaluationResult{
		ResponseID: response.ID,
		SessionID:  session.ID,
		Evaluation: *evaluation,
	}, nil
}

// refreshSessionScore recomputes total_score as the mean of the session's scores
func (s *InterviewService) refreshSessionScore(ctx context.Context, sessionID string) {
	scores, err := s.repo.GetSessionScores(ctx, sessionID)
	if err != nil {
		slog.Error("Failed to fetch session scores", "error", err, "session_id", sessionID)
		return
	}
	if err := s.repo.UpdateSessionTotalScore(ctx, sessionID, averageScore(scores)); err != nil {
		slog.Error("Failed to update session score", "error", err, "session_id", sessionID)
	}
}

func averageScore(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	return models.Round2(sum / float64(len(scores)))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func fallbackContext(profile models.StudentProfile) string {
	return fmt.Sprintf("Interview context for student with career goal: %s, skills: %s",
		orDefault(profile.CareerGoal, "General"),
		joinOrDefault(profile.Skills, "Various"))
}

func buildContextPrompt(profile models.StudentProfile, metrics []models.UserPerformanceMetric) string {
	var b strings.Builder
	b.WriteString("Based on the following student profile, generate a comprehensive interview context that will help select appropriate questions and personalize the interview experience.\n\n")
	b.WriteString("STUDENT PROFILE:\n")
	fmt.Fprintf(&b, "- Career Goal: %s\n", orDefault(profile.CareerGoal, "Not specified"))
	fmt.Fprintf(&b, "- Skills: %s\n", joinOrDefault(profile.Skills, "Not specified"))
	fmt.Fprintf(&b, "- Interests: %s\n", joinOrDefault(profile.Interests, "Not specified"))
	fmt.Fprintf(&b, "- Target Company Type: %s\n", orDefault(profile.TargetCompanyType, "Not specified"))
	fmt.Fprintf(&b, "- Resume: %s\n", orDefault(profile.ResumeText, "Not provided"))

	if len(metrics) > 0 {
		stats := computePerformanceReport(metrics)
		b.WriteString("\nPerformance Analysis:\n")
		fmt.Fprintf(&b, "- Strong Topics: %s\n", joinOrDefault(metricTopics(stats.StrongTopics), "None identified"))
		fmt.Fprintf(&b, "- Areas Needing Practice: %s\n", joinOrDefault(metricTopics(stats.WeakTopics), "None identified"))
	}

	b.WriteString(`
Generate a concise interview context (2-3 sentences) that summarizes:
1. The student's technical background and career aspirations
2. Key areas to focus on during the interview
3. Appropriate difficulty level and topics

Return ONLY the context text, no additional formatting or labels.`)
	return b.String()
}

func metricTopics(metrics []models.UserPerformanceMetric) []string {
	topics := make([]string, len(metrics))
	for i, m := range metrics {
		topics[i] = m.Topic
	}
	return topics
}

// BuildContext writes an AI briefing for the student and stores it on the active session
func (s *InterviewService) BuildContext(ctx context.Context, studentID string) (*ContextResult, error) {
	user, err := s.repo.GetUserByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch student: %w", err)
	}
	if user == nil {
		return nil, ErrStudentNotFound
	}
	profile := user.Profile()

	metrics, err := s.repo.GetPerformanceMetrics(ctx, studentID)
	if err != nil {
		slog.Error("Failed to fetch metrics", "error", err, "student_id", studentID)
		metrics = nil
	}

	contextText := ""
	if s.ai != nil {
		contextText, err = s.ai.GenerateText(ctx, buildContextPrompt(profile, metrics))
		if err != nil {
			slog.Warn("Falling back to default interview context", "error", err, "student_id", studentID)
			contextText = ""
		}
	}
	if strings.TrimSpace(contextText) == "" {
		contextText = fallbackContext(profile)
	}

	session, err := s.GetOrCreateSession(ctx, studentID)
	if err != nil {
		return nil, err
	}
	doc := &models.InterviewContextDoc{Context: contextText, Profile: profile}
	if err := s.repo.UpdateSessionContext(ctx, session.ID, doc); err != nil {
		slog.Error("Failed to store interview context", "error", err, "session_id", session.ID)
	}

	if metrics == nil {
		metrics = []models.UserPerformanceMetric{}
	}
	return &ContextResult{
		SessionID:          session.ID,
		Context:            contextText,
		Profile:            profile,
		PerformanceMetrics: metrics,
	}, nil
}

// computePerformanceReport aggregates metrics. The overall average is weighted by attempts.
func computePerformanceReport(metrics []models.UserPerformanceMetric) *PerformanceReport {
	report := &PerformanceReport{
		Metrics:      metrics,
		WeakTopics:   []models.UserPerformanceMetric{},
		StrongTopics: []models.UserPerformanceMetric{},
	}
	if report.Metrics == nil {
		report.Metrics = []models.UserPerformanceMetric{}
	}

	weighted := 0.0
	for _, m := range metrics {
		report.Statistics.TotalAttempts += m.TotalAttempts
		weighted += m.AvgScore * float64(m.TotalAttempts)
		if m.AvgScore < weakTopicThreshold {
			report.WeakTopics = append(report.WeakTopics, m)
		}
		if m.AvgScore >= strongTopicThreshold {
			report.StrongTopics = append(report.StrongTopics, m)
		}
	}
	if report.Statistics.TotalAttempts > 0 {
		report.Statistics.OverallAvgScore = models.Round2(weighted / float64(report.Statistics.TotalAttempts))
	}
	report.Statistics.TopicsPracticed = len(metrics)
	report.Statistics.WeakTopicsCount = len(report.WeakTopics)
	report.Statistics.StrongTopicsCount = len(report.StrongTopics)
	return report
}

func (s *InterviewService) Performance(ctx context.Context, studentID string) (*PerformanceReport, error) {
	metrics, err := s.repo.GetPerformanceMetrics(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch performance metrics: %w", err)
	}
	return computePerformanceReport(metrics), nil
}

func (s *InterviewService) History(ctx context.Context, studentID string) ([]models.MockInterviewSession, error) {
	sessions, err := s.repo.GetStudentSessions(ctx, studentID, sessionHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sessions: %w", err)
	}
	if sessions == nil {
		sessions = []models.MockInterviewSession{}
	}
	return sessions, nil
}
