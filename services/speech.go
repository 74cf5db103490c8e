package services

import (
	"math"
	"strings"
)

const (
	idealWPMLow    = 110
	idealWPMHigh   = 160
	idealWPMCenter = 135
)

var fillerWords = map[string]bool{
	"um":        true,
	"uh":        true,
	"like":      true,
	"actually":  true,
	"basically": true,
	"literally": true,
	"so":        true,
}

// SpeechAnalysis is the delivery feedback for a spoken answer
type SpeechAnalysis struct {
	DurationSec    float64  `json:"durationSec"`
	WordCount      int      `json:"wordCount"`
	WordsPerMinute float64  `json:"wordsPerMinute"`
	FillerCount    int      `json:"fillerCount"`
	ClarityScore   float64  `json:"clarityScore"`
	Notes          []string `json:"notes"`
	PaceComment    string   `json:"paceComment"`
	FillerComment  string   `json:"fillerComment"`
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// countFillers counts filler tokens, including the two word phrase "you know"
func countFillers(transcript string) int {
	tokens := strings.FieldsFunc(strings.ToLower(transcript), func(r rune) bool {
		return r < 'a' || r > 'z'
	})

	count := 0
	for i, tok := range tokens {
		if fillerWords[tok] {
			count++
			continue
		}
		if tok == "you" && i+1 < len(tokens) && tokens[i+1] == "know" {
			count++
		}
	}
	return count
}

// AnalyzeSpeech scores pacing, filler usage and length of a transcript
func AnalyzeSpeech(transcript string, durationSec float64) SpeechAnalysis {
	words := len(strings.Fields(transcript))
	wpm := 0.0
	if durationSec > 0 {
		wpm = float64(words) / durationSec * 60
	}
	fillers := countFillers(transcript)

	paceInRange := wpm >= idealWPMLow && wpm <= idealWPMHigh
	pacePenalty := math.Min(math.Abs(wpm-idealWPMCenter)/idealWPMCenter, 1)
	fillerPenalty := math.Min(float64(fillers)*0.07, 0.7)
	brevityPenalty := 0.0
	if words < 40 {
		brevityPenalty = 0.4
	}
	clarity := math.Max(10-(pacePenalty*3+fillerPenalty*4+brevityPenalty*3), 1)

	notes := []string{}
	if !paceInRange {
		if wpm < idealWPMLow {
			notes = append(notes, "Pace up a bit; aim for a steady flow.")
		} else {
			notes = append(notes, "Slow down slightly to stay clear.")
		}
	}
	if fillers > 2 {
		notes = append(notes, "Reduce filler words; add brief pauses instead.")
	}
	if words < 60 {
		notes = append(notes, "Give a bit more detail (examples, trade-offs, steps).")
	}
	if durationSec < 30 {
		notes = append(notes, "Aim for at least 30-60 seconds to cover context, approach, and outcome.")
	}

	paceComment := "Great pacing"
	if !paceInRange {
		if wpm < idealWPMLow {
			paceComment = "Too slow"
		} else {
			paceComment = "Too fast"
		}
	}

	fillerComment := "Trim fillers"
	switch {
	case fillers == 0:
		fillerComment = "Clean delivery"
	case fillers <= 2:
		fillerComment = "Light fillers"
	}

	return SpeechAnalysis{
		DurationSec:    round1(durationSec),
		WordCount:      words,
		WordsPerMinute: round1(wpm),
		FillerCount:    fillers,
		ClarityScore:   round1(clarity),
		Notes:          notes,
		PaceComment:    paceComment,
		FillerComment:  fillerComment,
	}
}
