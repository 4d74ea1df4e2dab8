package extractions

import (
	"strings"
	"testing"

	"cvparse-backend/internal/llm"
	"cvparse-backend/internal/records"
)

func fullCandidate() records.CandidateRecord {
	return records.CandidateRecord{
		PersonalInfo: records.PersonalInfo{
			Name:  "Marie Lefevre",
			Email: "marie.lefevre@example.com",
			Phone: "06 12 34 56 78",
		},
		CurrentPosition: "Assistante de Direction",
		Skills:          []string{"Organisation"},
		Software:        []string{"Excel"},
		Languages:       []records.Language{{Language: "Anglais", Level: "Courant"}},
		WorkExperience: []records.Experience{
			{Title: "Assistante de Direction", Company: "Groupe Horizon SA", StartDate: "03/2021", EndDate: "Present"},
			{Title: "Office Manager", Company: "Atelier Lumière SARL", StartDate: "01/2018", EndDate: "02/2021"},
		},
		Education: []records.Education{{Degree: "BTS", Institution: "Lycée Jean Moulin", Year: "2017"}},
	}
}

func TestScoreCandidateFullRecord(t *testing.T) {
	if got := ScoreCandidate(fullCandidate(), nil); got != 100 {
		t.Fatalf("expected full record to score 100, got %d", got)
	}
}

func TestScoreCandidateEmptyRecord(t *testing.T) {
	if got := ScoreCandidate(records.EmptyCandidate(), nil); got != 0 {
		t.Fatalf("expected empty record to score 0, got %d", got)
	}
}

func TestScoreCandidateIgnoresPlaceholderExperience(t *testing.T) {
	rec := records.EmptyCandidate()
	rec.WorkExperience = []records.Experience{records.PlaceholderExperience()}
	if got := ScoreCandidate(rec, nil); got != 0 {
		t.Fatalf("expected placeholder experience to contribute nothing, got %d", got)
	}
}

func TestScoreCandidateTalliesSession(t *testing.T) {
	session := NewSession()
	ScoreCandidate(fullCandidate(), session)
	if session.FieldsFound != 9 || session.FieldsPlaceholder != 0 {
		t.Fatalf("expected 9 found / 0 placeholder, got %d / %d", session.FieldsFound, session.FieldsPlaceholder)
	}
}

func TestScoreJobPostingPartial(t *testing.T) {
	rec := records.EmptyJobPosting()
	rec.Title = "Assistant de Direction"
	rec.RequiredSkills = []string{"Excel"}
	got := ScoreJobPosting(rec, nil)
	if got != 35 {
		t.Fatalf("expected title+skills to score 35, got %d", got)
	}
}

func TestLowConfidenceReasonThinExperience(t *testing.T) {
	rec := fullCandidate()
	rec.WorkExperience = []records.Experience{records.PlaceholderExperience()}
	reason := lowConfidenceReason(rec, llm.CategoryAssistant)
	if reason == "" {
		t.Fatalf("expected reason for zero real experience")
	}
	if !strings.Contains(reason, "work experience") {
		t.Fatalf("expected reason to mention work experience, got %q", reason)
	}
}

func TestLowConfidenceReasonMissingIdentity(t *testing.T) {
	rec := fullCandidate()
	rec.PersonalInfo.Name = records.Placeholder
	rec.PersonalInfo.Email = records.Placeholder
	if reason := lowConfidenceReason(rec, llm.CategoryAssistant); reason == "" {
		t.Fatalf("expected reason when name and email are both missing")
	}
}

func TestLowConfidenceReasonEmptyForSolidRecord(t *testing.T) {
	if reason := lowConfidenceReason(fullCandidate(), llm.CategoryAssistant); reason != "" {
		t.Fatalf("expected no reason for solid record, got %q", reason)
	}
}

func TestLowConfidenceThresholdVariesByCategory(t *testing.T) {
	rec := fullCandidate()
	rec.WorkExperience = rec.WorkExperience[:1]
	if reason := lowConfidenceReason(rec, llm.CategoryAssistant); reason == "" {
		t.Fatalf("expected single experience to be thin for assistant profiles")
	}
	if reason := lowConfidenceReason(rec, llm.CategoryLuxury); reason != "" {
		t.Fatalf("expected single experience to pass for luxury profiles, got %q", reason)
	}
}
