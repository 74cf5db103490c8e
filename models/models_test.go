package models

import (
	"testing"
	"time"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		input    float64
		expected float64
	}{
		{6.875, 6.88},
		{93.3333, 93.33},
		{-3.14159, -3.14},
		{7, 7},
	}
	for _, tt := range tests {
		if got := Round2(tt.input); got != tt.expected {
			t.Errorf("Round2(%v) = %v, expected %v", tt.input, got, tt.expected)
		}
	}
}

func TestAddAttempt(t *testing.T) {
	m := &UserPerformanceMetric{StudentID: "s1", Topic: "SQL"}
	first := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	m.AddAttempt(8, first)
	if m.TotalAttempts != 1 || m.AvgScore != 8 || !m.LastUpdated.Equal(first) {
		t.Fatalf("after first attempt: %+v", m)
	}

	m.AddAttempt(5, second)
	if m.TotalAttempts != 2 || m.AvgScore != 6.5 || !m.LastUpdated.Equal(second) {
		t.Fatalf("after second attempt: %+v", m)
	}

	m.AddAttempt(7.25, second)
	if m.AvgScore != 6.75 {
		t.Errorf("AvgScore = %v, expected 6.75", m.AvgScore)
	}
}

func TestComputeUserStats(t *testing.T) {
	users := []User{
		{Role: RoleStudent, IsActive: true},
		{Role: RoleStudent, IsActive: false},
		{Role: RoleAdmin, IsActive: true},
		{Role: "GUEST", IsActive: true},
	}
	expected := UserStats{Total: 4, Students: 2, Admins: 1, Active: 3}
	if got := ComputeUserStats(users); got != expected {
		t.Errorf("ComputeUserStats() = %+v, expected %+v", got, expected)
	}
	if got := ComputeUserStats(nil); got != (UserStats{}) {
		t.Errorf("ComputeUserStats(nil) = %+v, expected zero stats", got)
	}
}

func TestUserProfile(t *testing.T) {
	goal := "Backend Developer"
	u := &User{Role: RoleAdmin, Skills: []string{"Go"}, CareerGoal: &goal}
	p := u.Profile()
	if len(p.Skills) != 1 || p.CareerGoal != &goal || p.Interests != nil {
		t.Errorf("Profile() = %+v", p)
	}
	if !u.IsAdmin() {
		t.Error("expected admin")
	}
}

func TestSessionIsOpen(t *testing.T) {
	s := &MockInterviewSession{}
	if !s.IsOpen() {
		t.Error("expected new session to be open")
	}
	now := time.Now()
	s.EndedAt = &now
	if s.IsOpen() {
		t.Error("expected ended session to be closed")
	}
}

func TestJSONColumns(t *testing.T) {
	doc := ResumeAnalysisDoc{Strengths: []string{"Clear"}, ATSAnalysis: ATSBreakdown{KeywordsMatch: 70}}
	value, err := doc.Value()
	if err != nil {
		t.Fatal(err)
	}

	var fromString ResumeAnalysisDoc
	if err := fromString.Scan(value); err != nil {
		t.Fatal(err)
	}
	var fromBytes ResumeAnalysisDoc
	if err := fromBytes.Scan([]byte(value.(string))); err != nil {
		t.Fatal(err)
	}
	if fromString.ATSAnalysis.KeywordsMatch != 70 || fromBytes.Strengths[0] != "Clear" {
		t.Errorf("scanned docs = %+v / %+v", fromString, fromBytes)
	}

	var ctx InterviewContextDoc
	if err := ctx.Scan(nil); err != nil {
		t.Errorf("Scan(nil) error = %v", err)
	}
	if err := ctx.Scan(42); err == nil {
		t.Error("expected an error for an unsupported column type")
	}
}
