package llm

import _ "embed"

var (
	//go:embed prompts/cv_assistant.txt
	promptCVAssistant string
	//go:embed prompts/cv_technical.txt
	promptCVTechnical string
	//go:embed prompts/cv_business.txt
	promptCVBusiness string
	//go:embed prompts/cv_luxury.txt
	promptCVLuxury string
	//go:embed prompts/cv_general.txt
	promptCVGeneral string
	//go:embed prompts/job.txt
	promptJob string
)

// PromptTemplate returns the instruction template for a document kind and
// category, and whether the pair was recognized. Unknown pairs fall back to
// the general CV template.
func PromptTemplate(kind DocumentKind, category Category) (string, bool) {
	if kind == KindJob {
		return promptJob, true
	}
	switch category {
	case CategoryAssistant:
		return promptCVAssistant, true
	case CategoryTechnical:
		return promptCVTechnical, true
	case CategoryBusiness:
		return promptCVBusiness, true
	case CategoryLuxury:
		return promptCVLuxury, true
	case CategoryGeneral:
		return promptCVGeneral, true
	default:
		return promptCVGeneral, false
	}
}
