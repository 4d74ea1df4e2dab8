package heuristic

import (
	"strings"
	"testing"

	"cvparse-backend/internal/records"
)

const sampleCV = `Marie Lefevre
Assistante de Direction
marie.lefevre@example.com
06 12 34 56 78
Paris, France

Compétences
Gestion d'agenda, Organisation d'événements, Communication

Logiciels
Excel, PowerPoint, SAP

Langues
Anglais : courant
Espagnol : intermédiaire

Expérience professionnelle
06/2020 - présent
Assistante de Direction
Groupe Lumière SAS

09/2015 - 05/2020
Secrétaire
Cabinet Morel

Formation
BTS Assistant de Manager - Lycée Jean Moulin, 2015
`

func TestExtractCandidateEmptyInput(t *testing.T) {
	got := ExtractCandidate("")

	if got.PersonalInfo.Name != records.Placeholder ||
		got.PersonalInfo.Email != records.Placeholder ||
		got.PersonalInfo.Phone != records.Placeholder {
		t.Fatalf("expected placeholder personal info, got %+v", got.PersonalInfo)
	}
	if got.CurrentPosition != records.Placeholder {
		t.Fatalf("expected placeholder current position, got %q", got.CurrentPosition)
	}
	if got.Skills == nil || len(got.Skills) != 0 {
		t.Fatalf("expected empty non-nil skills, got %#v", got.Skills)
	}
	if len(got.WorkExperience) != 1 || got.WorkExperience[0] != records.PlaceholderExperience() {
		t.Fatalf("expected single placeholder experience, got %+v", got.WorkExperience)
	}
}

func TestExtractPersonalInfo(t *testing.T) {
	got := ExtractPersonalInfo(sampleCV)

	if got.Name != "Marie Lefevre" {
		t.Fatalf("expected name from top lines, got %q", got.Name)
	}
	if got.Email != "marie.lefevre@example.com" {
		t.Fatalf("unexpected email %q", got.Email)
	}
	if !strings.Contains(got.Phone, "06 12 34 56 78") {
		t.Fatalf("unexpected phone %q", got.Phone)
	}
}

func TestExtractPersonalInfoIgnoresYearRanges(t *testing.T) {
	got := ExtractPersonalInfo("Projet mené de 2015 - 2020 sans interruption")
	if got.Phone != records.Placeholder {
		t.Fatalf("year range must not be mistaken for a phone, got %q", got.Phone)
	}
}

func TestExtractSkillsFromSection(t *testing.T) {
	got := ExtractSkills(sampleCV)

	want := []string{"Gestion d'agenda", "Organisation d'événements", "Communication"}
	if len(got) != len(want) {
		t.Fatalf("expected %d skills, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected skill %q at %d, got %q", want[i], i, got[i])
		}
	}
}

func TestExtractSkillsFallbackScan(t *testing.T) {
	// No skills section: known skill words found anywhere still surface.
	got := ExtractSkills("Longue expérience en gestion de projet et en communication interne.")
	if len(got) == 0 {
		t.Fatalf("expected fallback scan to find known skills")
	}
}

func TestExtractSoftware(t *testing.T) {
	got := ExtractSoftware(sampleCV)
	if len(got) != 3 || got[0] != "Excel" || got[2] != "SAP" {
		t.Fatalf("unexpected software list %v", got)
	}
}

func TestExtractLanguages(t *testing.T) {
	got := ExtractLanguages(sampleCV)
	if len(got) != 2 {
		t.Fatalf("expected two languages, got %v", got)
	}
	// Sorted by canonical name for determinism.
	if got[0].Language != "Anglais" || got[1].Language != "Espagnol" {
		t.Fatalf("unexpected languages %v", got)
	}
	if got[0].Level == records.Placeholder {
		t.Fatalf("expected level captured for Anglais, got %+v", got[0])
	}
}

func TestExtractLanguagesWholeDocumentScan(t *testing.T) {
	got := ExtractLanguages("Maîtrise de l'anglais professionnel au quotidien.")
	if len(got) != 1 || got[0].Language != "Anglais" {
		t.Fatalf("expected Anglais from whole-document scan, got %v", got)
	}
}

func TestExtractEducation(t *testing.T) {
	got := ExtractEducation(sampleCV)
	if len(got) == 0 {
		t.Fatalf("expected at least one education entry")
	}
	first := got[0]
	if !strings.Contains(first.Degree, "BTS") {
		t.Fatalf("unexpected degree %q", first.Degree)
	}
	if first.Year != "2015" {
		t.Fatalf("unexpected year %q", first.Year)
	}
}

func TestExtractCandidateCurrentPosition(t *testing.T) {
	got := ExtractCandidate(sampleCV)
	if got.CurrentPosition != "Assistante de Direction" {
		t.Fatalf("expected current position from ongoing entry, got %q", got.CurrentPosition)
	}
}
