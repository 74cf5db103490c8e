package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/krshsl/placeprep/backend/models"
	"github.com/tidwall/gjson"
)

var (
	ErrResumeTooShort = errors.New("resume text must be at least 100 characters long")
	ErrUnparsableAI   = errors.New("failed to parse AI response as JSON")
)

const minResumeLength = 100

var jsonObjectPattern = regexp.MustCompile(`\{[\s\S]*\}`)

// ResumeAnalysis is the ATS review of a resume
type ResumeAnalysis struct {
	ATSScore      int    `json:"ats_score"`
	OverallRating string `json:"overall_rating"`
	models.ResumeAnalysisDoc
}

type JobMatchMetrics struct {
	KeywordsInResume              int `json:"keywordsInResume"`
	TotalKeywordsInJobDescription int `json:"totalKeywordsInJobDescription"`
}

type JobMatchImprovement struct {
	Title      string `json:"title"`
	Suggestion string `json:"suggestion"`
}

// JobMatch compares a resume against one job description
type JobMatch struct {
	MatchScore      int                   `json:"matchScore"`
	Metrics         JobMatchMetrics       `json:"metrics"`
	MatchedKeywords []string              `json:"matchedKeywords"`
	MissingSkills   string                `json:"missingSkills"`
	KeyImprovements []JobMatchImprovement `json:"keyImprovements"`
	Feedback        string                `json:"feedback"`
}

type KeywordMatch struct {
	MatchScore      int      `json:"matchScore"`
	MatchedKeywords []string `json:"matchedKeywords"`
}

// ResumeAnalyzer runs the resume prompts against a TextGenerator
type ResumeAnalyzer struct {
	ai TextGenerator
}

func NewResumeAnalyzer(ai TextGenerator) *ResumeAnalyzer {
	return &ResumeAnalyzer{ai: ai}
}

// ValidateResumeText trims the resume and enforces the minimum length
func ValidateResumeText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < minResumeLength {
		return "", ErrResumeTooShort
	}
	return text, nil
}

func (a *ResumeAnalyzer) Review(ctx context.Context, resumeText string) (*ResumeAnalysis, error) {
	reply, err := a.ai.GenerateJSON(ctx, fmt.Sprintf(resumeReviewPrompt, resumeText))
	if err != nil {
		return nil, fmt.Errorf("failed to analyze resume: %w", err)
	}
	return parseResumeAnalysis(reply)
}

func (a *ResumeAnalyzer) Match(ctx context.Context, resumeText, jobDescription string) (*JobMatch, error) {
	reply, err := a.ai.GenerateJSON(ctx, fmt.Sprintf(jobMatchPrompt, resumeText, jobDescription))
	if err != nil {
		return nil, fmt.Errorf("failed to match resume: %w", err)
	}
	return parseJobMatch(reply)
}

func (a *ResumeAnalyzer) SkillsGap(ctx context.Context, resumeText, jobDescription string) (string, error) {
	reply, err := a.ai.GenerateJSON(ctx, fmt.Sprintf(skillsGapPrompt, resumeText, jobDescription))
	if err != nil {
		return "", fmt.Errorf("failed to identify skills gap: %w", err)
	}
	doc, err := extractJSONObject(reply)
	if err != nil {
		return "", err
	}
	return joinedStrings(gjson.Get(doc, "missingSkills")), nil
}

func (a *ResumeAnalyzer) Keywords(ctx context.Context, resumeText, jobDescription string) (*KeywordMatch, error) {
	reply, err := a.ai.GenerateJSON(ctx, fmt.Sprintf(keywordMatchPrompt, resumeText, jobDescription))
	if err != nil {
		return nil, fmt.Errorf("failed to match keywords: %w", err)
	}
	doc, err := extractJSONObject(reply)
	if err != nil {
		return nil, err
	}
	return &KeywordMatch{
		MatchScore:      clampInt(gjson.Get(doc, "matchScore"), 0, 100),
		MatchedKeywords: stringList(gjson.Get(doc, "matchedKeywords")),
	}, nil
}

// cleanJSON strips markdown code fences around a model reply
func cleanJSON(input string) string {
	clean := strings.TrimSpace(input)
	if strings.HasPrefix(clean, "```json") {
		clean = strings.TrimPrefix(clean, "```json")
	} else if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```")
	}
	clean = strings.TrimLeft(clean, "\r\n")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}

// extractJSONObject finds the JSON object in a reply that may carry prose around it
func extractJSONObject(reply string) (string, error) {
	clean := cleanJSON(reply)
	if gjson.Valid(clean) && gjson.Parse(clean).IsObject() {
		return clean, nil
	}
	if match := jsonObjectPattern.FindString(clean); match != "" && gjson.Valid(match) {
		return match, nil
	}
	return "", ErrUnparsableAI
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clampInt(r gjson.Result, lo, hi int) int {
	return int(math.Round(clampFloat(r.Float(), float64(lo), float64(hi))))
}

// stringList accepts either a JSON array of strings or a comma separated string
func stringList(r gjson.Result) []string {
	out := []string{}
	if r.IsArray() {
		for _, item := range r.Array() {
			if s := strings.TrimSpace(item.String()); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	for _, s := range strings.Split(r.String(), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func joinedStrings(r gjson.Result) string {
	if r.IsArray() {
		return strings.Join(stringList(r), ", ")
	}
	return strings.TrimSpace(r.String())
}

func normalizeRating(rating string, score int) string {
	for _, known := range []string{"Excellent", "Good", "Fair", "Poor"} {
		if strings.EqualFold(strings.TrimSpace(rating), known) {
			return known
		}
	}
	switch {
	case score >= 85:
		return "Excellent"
	case score >= 70:
		return "Good"
	case score >= 50:
		return "Fair"
	}
	return "Poor"
}

func normalizePriority(priority string) string {
	for _, known := range []string{"High", "Medium", "Low"} {
		if strings.EqualFold(strings.TrimSpace(priority), known) {
			return known
		}
	}
	return "Medium"
}

func parseResumeAnalysis(reply string) (*ResumeAnalysis, error) {
	doc, err := extractJSONObject(reply)
	if err != nil {
		return nil, err
	}

	score := clampInt(gjson.Get(doc, "ats_score"), 0, 100)
	analysis := &ResumeAnalysis{
		ATSScore:      score,
		OverallRating: normalizeRating(gjson.Get(doc, "overall_rating").String(), score),
		ResumeAnalysisDoc: models.ResumeAnalysisDoc{
			Strengths:       stringList(gjson.Get(doc, "strengths")),
			Weaknesses:      stringList(gjson.Get(doc, "weaknesses")),
			KeyImprovements: []models.ResumeImprovement{},
			ATSAnalysis: models.ATSBreakdown{
				KeywordsMatch:   clampInt(gjson.Get(doc, "ats_analysis.keywords_match"), 0, 100),
				FormattingScore: clampInt(gjson.Get(doc, "ats_analysis.formatting_score"), 0, 100),
				ContentQuality:  clampInt(gjson.Get(doc, "ats_analysis.content_quality"), 0, 100),
			},
			ConfidenceBoost: strings.TrimSpace(gjson.Get(doc, "confidence_boost").String()),
		},
	}

	gjson.Get(doc, "key_improvements").ForEach(func(_, item gjson.Result) bool {
		suggestion := strings.TrimSpace(item.Get("suggestion").String())
		if suggestion == "" {
			return true
		}
		analysis.KeyImprovements = append(analysis.KeyImprovements, models.ResumeImprovement{
			Category:   strings.TrimSpace(item.Get("category").String()),
			Suggestion: suggestion,
			Priority:   normalizePriority(item.Get("priority").String()),
		})
		return true
	})

	return analysis, nil
}

func parseJobMatch(reply string) (*JobMatch, error) {
	doc, err := extractJSONObject(reply)
	if err != nil {
		return nil, err
	}

	match := &JobMatch{
		MatchScore: clampInt(gjson.Get(doc, "matchScore"), 0, 100),
		Metrics: JobMatchMetrics{
			KeywordsInResume:              clampInt(gjson.Get(doc, "metrics.keywordsInResume"), 0, math.MaxInt32),
			TotalKeywordsInJobDescription: clampInt(gjson.Get(doc, "metrics.totalKeywordsInJobDescription"), 0, math.MaxInt32),
		},
		MatchedKeywords: stringList(gjson.Get(doc, "matchedKeywords")),
		MissingSkills:   joinedStrings(gjson.Get(doc, "missingSkills")),
		KeyImprovements: []JobMatchImprovement{},
		Feedback:        strings.TrimSpace(gjson.Get(doc, "feedback").String()),
	}

	gjson.Get(doc, "keyImprovements").ForEach(func(_, item gjson.Result) bool {
		if len(match.KeyImprovements) == 5 {
			return false
		}
		suggestion := strings.TrimSpace(item.Get("suggestion").String())
		if suggestion == "" {
			return true
		}
		match.KeyImprovements = append(match.KeyImprovements, JobMatchImprovement{
			Title:      strings.TrimSpace(item.Get("title").String()),
			Suggestion: suggestion,
		})
		return true
	})

	return match, nil
}

const resumeReviewPrompt = `You are an expert resume reviewer and applicant tracking system (ATS) specialist helping a college student prepare for campus placements.

Review the resume below and return ONLY a JSON object with this exact shape:
{
  "ats_score": <integer 0-100>,
  "overall_rating": "<Excellent|Good|Fair|Poor>",
  "strengths": ["<strength>", ...],
  "weaknesses": ["<weakness>", ...],
  "key_improvements": [
    {"category": "<area such as Formatting, Content, Keywords, Impact>", "suggestion": "<specific actionable change>", "priority": "<High|Medium|Low>"}
  ],
  "ats_analysis": {
    "keywords_match": <integer 0-100>,
    "formatting_score": <integer 0-100>,
    "content_quality": <integer 0-100>
  },
  "confidence_boost": "<one encouraging sentence about what the student does well>"
}

Resume:
%s`

const jobMatchPrompt = `You are a resume expert providing feedback to job seekers.

Analyze the provided resume text and job description. Return ONLY a JSON object with:
- "matchScore": a match score from 0 to 100
- "metrics": {"keywordsInResume": <number of job description keywords found in the resume>, "totalKeywordsInJobDescription": <total relevant keywords in the job description>}
- "matchedKeywords": [keywords found in both the resume and the job description]
- "missingSkills": "<comma-separated list of important skills from the job description missing in the resume>"
- "keyImprovements": [3 to 5 objects with "title" and a specific, actionable "suggestion"]
- "feedback": "<a final summary feedback paragraph>"

Resume Text:
%s

Job Description:
%s`

const skillsGapPrompt = `You are an expert career coach. Identify the skills and experiences present in the job description that are missing from the resume or not sufficiently detailed.

Resume:
%s

Job Description:
%s

Return ONLY a JSON object: {"missingSkills": "<concise list of missing skills and experiences>"}`

const keywordMatchPrompt = `You are an AI-powered resume analyzer. Compare the resume against the job description and identify matching keywords and skills.

Resume:
%s

Job Description:
%s

Return ONLY a JSON object: {"matchScore": <0-100 alignment with the job requirements>, "matchedKeywords": ["<keyword or skill found in both>", ...]}`
