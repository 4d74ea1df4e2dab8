package extractions

import (
	"fmt"

	"cvparse-backend/internal/llm"
	"cvparse-backend/internal/records"
)

// ScoreCandidate rates extraction completeness 0-100. Each populated field
// contributes its weight; placeholder values contribute nothing. The session,
// when provided, tallies the per-field outcomes.
func ScoreCandidate(rec records.CandidateRecord, session *Session) int {
	type check struct {
		weight int
		found  bool
	}
	checks := []check{
		{15, rec.PersonalInfo.Name != records.Placeholder},
		{10, rec.PersonalInfo.Email != records.Placeholder},
		{5, rec.PersonalInfo.Phone != records.Placeholder},
		{10, rec.CurrentPosition != records.Placeholder},
		{10, len(rec.Skills) > 0},
		{5, len(rec.Software) > 0},
		{5, len(rec.Languages) > 0},
		{10, len(rec.Education) > 0},
		{30, hasRealExperience(rec.WorkExperience)},
	}

	score := 0
	for _, c := range checks {
		if c.found {
			score += c.weight
		}
		if session != nil {
			session.CountField(c.found)
		}
	}
	return score
}

// ScoreJobPosting rates posting completeness 0-100.
func ScoreJobPosting(rec records.JobPosting, session *Session) int {
	type check struct {
		weight int
		found  bool
	}
	checks := []check{
		{20, rec.Title != records.Placeholder},
		{15, rec.Company != records.Placeholder},
		{10, rec.Location != records.Placeholder},
		{10, rec.ContractType != records.Placeholder},
		{15, len(rec.RequiredSkills) > 0},
		{5, rec.Experience != records.Placeholder},
		{15, len(rec.Responsibilities) > 0},
		{5, len(rec.Requirements) > 0},
		{5, len(rec.Benefits) > 0},
	}

	score := 0
	for _, c := range checks {
		if c.found {
			score += c.weight
		}
		if session != nil {
			session.CountField(c.found)
		}
	}
	return score
}

func hasRealExperience(entries []records.Experience) bool {
	for _, e := range entries {
		if e.Title != records.Placeholder || e.Company != records.Placeholder {
			return true
		}
	}
	return false
}

// lowConfidenceReason reports why a candidate result is suspect, or "" when
// it is not. A thin result is returned as-is with its reason; it is never
// replaced with substitute data.
func lowConfidenceReason(rec records.CandidateRecord, category llm.Category) string {
	min := llm.MinExperience(category)
	real := 0
	for _, e := range rec.WorkExperience {
		if e.Title != records.Placeholder || e.Company != records.Placeholder {
			real++
		}
	}
	if real < min {
		return fmt.Sprintf("work experience count %d below expected minimum %d for category %s", real, min, category)
	}
	if rec.PersonalInfo.Name == records.Placeholder && rec.PersonalInfo.Email == records.Placeholder {
		return "no identifying personal information found"
	}
	return ""
}
