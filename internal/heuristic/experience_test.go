package heuristic

import (
	"reflect"
	"testing"

	"cvparse-backend/internal/records"
)

func TestParseExperienceNoDateRangeYieldsPlaceholder(t *testing.T) {
	text := "Jean Dupont\njean.dupont@example.com\nCompétences\nGestion de projet, Communication"

	got := ParseExperience(text)
	if len(got) != 1 {
		t.Fatalf("expected exactly one entry, got %d", len(got))
	}
	if got[0] != records.PlaceholderExperience() {
		t.Fatalf("expected placeholder entry, got %+v", got[0])
	}
}

func TestParseExperienceTitleCompanyWindow(t *testing.T) {
	text := "06/2023 - 05/2024\nExecutive Assistant\nAcme Corp"

	got := ParseExperience(text)
	if len(got) != 1 {
		t.Fatalf("expected exactly one entry, got %d: %+v", len(got), got)
	}
	want := records.Experience{
		Title:     "Executive Assistant",
		Company:   "Acme Corp",
		StartDate: "06/2023",
		EndDate:   "05/2024",
	}
	if got[0] != want {
		t.Fatalf("expected %+v, got %+v", want, got[0])
	}
}

func TestParseExperienceSortsDescendingWithPresentNormalized(t *testing.T) {
	// The older range appears first in document order; output must still be
	// most-recent-first with the ongoing entry normalized.
	text := "Expérience\n" +
		"01/2010 - 01/2012\nComptable\nDurand SARL\n" +
		"06/2020 - présent\nOffice Manager\nMartin Group"

	got := ParseExperience(text)
	if len(got) != 2 {
		t.Fatalf("expected two entries, got %d: %+v", len(got), got)
	}
	if got[0].StartDate != "06/2020" {
		t.Fatalf("expected 2020 entry first, got %+v", got[0])
	}
	if got[0].EndDate != records.PresentSentinel {
		t.Fatalf("expected normalized end date %q, got %q", records.PresentSentinel, got[0].EndDate)
	}
	if got[1].StartDate != "01/2010" || got[1].EndDate != "01/2012" {
		t.Fatalf("expected literal 2010 range second, got %+v", got[1])
	}
}

func TestParseExperienceDeduplicatesAcrossPasses(t *testing.T) {
	// The same job is discoverable by the section-scoped pass and the
	// whole-document pass; the merged result must contain it once.
	text := "Expérience professionnelle\n" +
		"03/2018 - 07/2021\nDéveloppeur Web\nWebAgence SAS"

	got := ParseExperience(text)
	if len(got) != 1 {
		t.Fatalf("expected one deduplicated entry, got %d: %+v", len(got), got)
	}
	if got[0].Company != "WebAgence SAS" {
		t.Fatalf("unexpected company %q", got[0].Company)
	}
}

func TestParseExperienceSingleSidedEntriesKeepPlaceholder(t *testing.T) {
	text := "2015 - 2017\nConsultant"

	got := ParseExperience(text)
	if len(got) != 1 {
		t.Fatalf("expected one entry, got %d: %+v", len(got), got)
	}
	if got[0].Title != "Consultant" {
		t.Fatalf("expected title kept, got %+v", got[0])
	}
	if got[0].Company != records.Placeholder {
		t.Fatalf("expected placeholder company, got %q", got[0].Company)
	}
}

func TestParseExperienceYearOnlyRanges(t *testing.T) {
	text := "2012 - 2014\nTechnicien Support\nInfogérance EURL"

	got := ParseExperience(text)
	if len(got) != 1 {
		t.Fatalf("expected one entry, got %d: %+v", len(got), got)
	}
	if got[0].StartDate != "2012" || got[0].EndDate != "2014" {
		t.Fatalf("expected literal year tokens, got %+v", got[0])
	}
}

func TestParseExperienceSameLineTitleAndCompany(t *testing.T) {
	text := "06/2019 - 12/2022 : Chef de Projet — Bouygues Construction SA"

	got := ParseExperience(text)
	if len(got) != 1 {
		t.Fatalf("expected one entry, got %d: %+v", len(got), got)
	}
	if got[0].Title != "Chef de Projet" {
		t.Fatalf("unexpected title %q", got[0].Title)
	}
	if got[0].Company != "Bouygues Construction SA" {
		t.Fatalf("unexpected company %q", got[0].Company)
	}
}

func TestParseExperienceDiscardsWindowWithNeitherSide(t *testing.T) {
	// Lines following the range are prose, not a title or company.
	text := "01/2020 - 02/2020\nperformed various duties as requested\nmore details available upon request"

	got := ParseExperience(text)
	if len(got) != 1 {
		t.Fatalf("expected placeholder fallback, got %d entries: %+v", len(got), got)
	}
	if got[0] != records.PlaceholderExperience() {
		t.Fatalf("expected placeholder entry, got %+v", got[0])
	}
}

func TestParseExperienceDeterministic(t *testing.T) {
	text := "Expérience\n06/2020 - présent\nOffice Manager\nMartin Group\n01/2010 - 01/2012\nComptable\nDurand SARL"

	first := ParseExperience(text)
	second := ParseExperience(text)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical output across runs:\n%+v\n%+v", first, second)
	}
}
