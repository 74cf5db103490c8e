package services

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/krshsl/placeprep/backend/models"
)

var (
	ErrNotEnoughQuestions = errors.New("not enough questions")
	ErrInvalidAnswerKey   = errors.New("invalid answers hash")
)

// ExamKind distinguishes the two MCQ exams
type ExamKind string

const (
	ExamAptitude  ExamKind = "aptitude"
	ExamTechnical ExamKind = "technical"
)

const examSize = 15

var (
	aptitudeTypes = []string{"quantitative", "logical", "verbal"}

	// technicalSplit is the number of questions drawn per difficulty
	technicalSplit = []struct {
		Difficulty string
		Count      int
	}{
		{"easy", 5},
		{"medium", 7},
		{"hard", 3},
	}
)

type ExamOptions struct {
	A string `json:"a"`
	B string `json:"b"`
	C string `json:"c"`
	D string `json:"d"`
}

// ExamQuestion is what the client sees. The correct answer never leaves the server unsigned.
type ExamQuestion struct {
	ID         int         `json:"id"`
	QuestionID string      `json:"questionId"`
	Question   string      `json:"question"`
	Type       string      `json:"type,omitempty"`
	Topic      string      `json:"topic,omitempty"`
	Options    ExamOptions `json:"options"`
	Difficulty string      `json:"difficulty"`
}

// AnswerKeyEntry binds a numbered exam question to its correct option
type AnswerKeyEntry struct {
	QuestionID    int    `json:"questionId"`
	CorrectAnswer string `json:"correctAnswer"`
}

type SubmittedAnswer struct {
	QuestionID     int    `json:"questionId"`
	SelectedAnswer string `json:"selectedAnswer"`
}

type examItem struct {
	question ExamQuestion
	correct  string
}

func aptitudeItem(q models.AptitudeQuestion) examItem {
	return examItem{
		question: ExamQuestion{
			QuestionID: q.ID,
			Question:   q.Question,
			Type:       q.Type,
			Options:    ExamOptions{A: q.OptionA, B: q.OptionB, C: q.OptionC, D: q.OptionD},
			Difficulty: q.Difficulty,
		},
		correct: q.CorrectAnswer,
	}
}

func technicalItem(q models.TechnicalQuestion) examItem {
	return examItem{
		question: ExamQuestion{
			QuestionID: q.ID,
			Question:   q.Question,
			Topic:      q.Topic,
			Options:    ExamOptions{A: q.OptionA, B: q.OptionB, C: q.OptionC, D: q.OptionD},
			Difficulty: q.Difficulty,
		},
		correct: q.CorrectAnswer,
	}
}

// pickRandom returns up to n items chosen uniformly without replacement
func pickRandom[T any](items []T, n int) []T {
	shuffled := make([]T, len(items))
	copy(shuffled, items)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if n < len(shuffled) {
		shuffled = shuffled[:n]
	}
	return shuffled
}

// assembleExam shuffles the items, numbers them from 1 and splits off the answer key
func assembleExam(items []examItem) ([]ExamQuestion, []AnswerKeyEntry) {
	items = pickRandom(items, len(items))

	questions := make([]ExamQuestion, len(items))
	key := make([]AnswerKeyEntry, len(items))
	for i, item := range items {
		q := item.question
		q.ID = i + 1
		questions[i] = q
		key[i] = AnswerKeyEntry{QuestionID: q.ID, CorrectAnswer: item.correct}
	}
	return questions, key
}

// AnswerKey is the verified content of an answers hash
type AnswerKey struct {
	Topic   string
	Answers []AnswerKeyEntry
}

type answerKeyClaims struct {
	Kind    ExamKind         `json:"kind"`
	UserID  string           `json:"uid"`
	Topic   string           `json:"topic,omitempty"`
	Answers []AnswerKeyEntry `json:"answers"`
	jwt.RegisteredClaims
}

// AnswerKeySigner seals an exam's answer key into a token the client hands back on submit
type AnswerKeySigner struct {
	secret []byte
	ttl    time.Duration
}

func NewAnswerKeySigner(secret string, ttl time.Duration) *AnswerKeySigner {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &AnswerKeySigner{secret: []byte(secret), ttl: ttl}
}

func (s *AnswerKeySigner) Sign(kind ExamKind, userID, topic string, answers []AnswerKeyEntry) (string, error) {
	now := time.Now()
	claims := &answerKeyClaims{
		Kind:    kind,
		UserID:  userID,
		Topic:   topic,
		Answers: answers,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign answer key: %w", err)
	}
	return token, nil
}

// Verify checks signature, expiry, exam kind and owner before returning the key
func (s *AnswerKeySigner) Verify(token string, kind ExamKind, userID string) (*AnswerKey, error) {
	claims := &answerKeyClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAnswerKey, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidAnswerKey
	}
	if claims.Kind != kind {
		return nil, fmt.Errorf("%w: issued for %s exam", ErrInvalidAnswerKey, claims.Kind)
	}
	if claims.UserID != userID {
		return nil, fmt.Errorf("%w: issued for another user", ErrInvalidAnswerKey)
	}
	if len(claims.Answers) == 0 {
		return nil, fmt.Errorf("%w: empty answer key", ErrInvalidAnswerKey)
	}
	return &AnswerKey{Topic: claims.Topic, Answers: claims.Answers}, nil
}

type GradeResult struct {
	Total           int
	Correct         int
	Incorrect       int
	ScorePercentage float64
}

func normalizeOption(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// GradeExam scores submitted answers against the key. Unanswered questions count as incorrect.
func GradeExam(key []AnswerKeyEntry, answers []SubmittedAnswer) GradeResult {
	selected := make(map[int]string, len(answers))
	for _, a := range answers {
		selected[a.QuestionID] = normalizeOption(a.SelectedAnswer)
	}

	result := GradeResult{Total: len(key)}
	for _, entry := range key {
		if answer, ok := selected[entry.QuestionID]; ok && answer != "" && answer == normalizeOption(entry.CorrectAnswer) {
			result.Correct++
		}
	}
	result.Incorrect = result.Total - result.Correct
	if result.Total > 0 {
		result.ScorePercentage = models.Round2(float64(result.Correct) / float64(result.Total) * 100)
	}
	return result
}

type ExamStats struct {
	TotalTests       int     `json:"totalTests"`
	AverageScore     float64 `json:"averageScore"`
	BestScore        float64 `json:"bestScore"`
	LatestScore      float64 `json:"latestScore"`
	ImprovementTrend float64 `json:"improvementTrend"`
}

// computeExamStats summarises scores ordered newest first. It returns nil for an empty history.
func computeExamStats(scores []float64) *ExamStats {
	if len(scores) == 0 {
		return nil
	}

	sum, best := 0.0, scores[0]
	for _, s := range scores {
		sum += s
		if s > best {
			best = s
		}
	}

	stats := &ExamStats{
		TotalTests:   len(scores),
		AverageScore: models.Round2(sum / float64(len(scores))),
		BestScore:    models.Round2(best),
		LatestScore:  models.Round2(scores[0]),
	}
	if len(scores) >= 2 {
		stats.ImprovementTrend = models.Round2(scores[0] - scores[1])
	}
	return stats
}
