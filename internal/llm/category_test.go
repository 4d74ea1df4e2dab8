package llm

import (
	"strings"
	"testing"
)

func TestClassifyAssistantProfile(t *testing.T) {
	text := "Assistante de Direction. Gestion de l'agenda, organisation de réunions, accueil des visiteurs, suivi administratif."

	got := Classify(text)
	if got[0].Category != CategoryAssistant {
		t.Fatalf("expected assistant first, got %+v", got[0])
	}
	if got[0].Confidence <= 0 || got[0].Confidence > 1 {
		t.Fatalf("confidence out of range: %+v", got[0])
	}
	if len(got) != 5 {
		t.Fatalf("expected all categories ranked, got %d", len(got))
	}
}

func TestClassifyTechnicalProfile(t *testing.T) {
	text := "Développeur backend Golang, Docker, Kubernetes, API REST, CI/CD sur AWS."
	if got := TopCategory(text); got.Category != CategoryTechnical {
		t.Fatalf("expected technical, got %+v", got)
	}
}

func TestClassifyTieBreaksByPriority(t *testing.T) {
	// One assistant hit and one business hit: assistant outranks business.
	text := "agenda prospection"
	got := Classify(text)
	if got[0].Category != CategoryAssistant {
		t.Fatalf("expected priority tie-break toward assistant, got %+v", got[0])
	}
}

func TestClassifyNoSignalYieldsGeneral(t *testing.T) {
	got := TopCategory("quelques mots sans rapport")
	if got.Category != CategoryGeneral {
		t.Fatalf("expected general for keyword-free text, got %+v", got)
	}
	if got.Confidence != 0 {
		t.Fatalf("expected zero confidence, got %f", got.Confidence)
	}
}

func TestMinExperiencePerCategory(t *testing.T) {
	if MinExperience(CategoryAssistant) < MinExperience(CategoryGeneral) {
		t.Fatalf("assistant minimum should be at least the general minimum")
	}
	if MinExperience(Category("nope")) != MinExperience(CategoryGeneral) {
		t.Fatalf("unknown category should use the general minimum")
	}
}

func TestPromptTemplateCarriesSchemaBlock(t *testing.T) {
	for _, cat := range []Category{CategoryAssistant, CategoryTechnical, CategoryBusiness, CategoryLuxury, CategoryGeneral} {
		tpl, ok := PromptTemplate(KindCV, cat)
		if !ok {
			t.Fatalf("category %s not recognized", cat)
		}
		if !strings.Contains(tpl, `"workExperience"`) {
			t.Fatalf("cv template for %s missing schema block", cat)
		}
	}
	tpl, ok := PromptTemplate(KindJob, CategoryGeneral)
	if !ok || !strings.Contains(tpl, `"requiredSkills"`) {
		t.Fatalf("job template missing schema block")
	}
}
