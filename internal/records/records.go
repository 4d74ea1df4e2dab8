// Package records defines the structured output types produced by the
// extraction pipeline. Absent fields carry the Placeholder sentinel rather
// than an empty string or null; UIs built against the original platform
// depend on that contract.
package records

// Placeholder marks a field the extractors could not fill.
const Placeholder = "À compléter"

// PresentSentinel is the canonical end date for an ongoing position.
const PresentSentinel = "Present"

// PersonalInfo holds contact details for a candidate.
type PersonalInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Language pairs a spoken language with a proficiency level.
type Language struct {
	Language string `json:"language"`
	Level    string `json:"level"`
}

// Experience is one entry of a candidate's work history.
type Experience struct {
	Title     string `json:"title"`
	Company   string `json:"company"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// Education is one entry of a candidate's academic history.
type Education struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        string `json:"year"`
}

// CandidateRecord is the structured form of a parsed CV.
type CandidateRecord struct {
	PersonalInfo    PersonalInfo `json:"personalInfo"`
	CurrentPosition string       `json:"currentPosition"`
	Skills          []string     `json:"skills"`
	Software        []string     `json:"software"`
	Languages       []Language   `json:"languages"`
	WorkExperience  []Experience `json:"workExperience"`
	Education       []Education  `json:"education"`
}

// JobPosting is the structured form of a parsed job description.
type JobPosting struct {
	Title            string   `json:"title"`
	Company          string   `json:"company"`
	Location         string   `json:"location"`
	ContractType     string   `json:"contractType"`
	RequiredSkills   []string `json:"requiredSkills"`
	PreferredSkills  []string `json:"preferredSkills"`
	Experience       string   `json:"experience"`
	Responsibilities []string `json:"responsibilities"`
	Requirements     []string `json:"requirements"`
	Benefits         []string `json:"benefits"`
}

// EmptyCandidate returns a CandidateRecord with every field set to its
// placeholder value and empty (non-nil) lists.
func EmptyCandidate() CandidateRecord {
	return CandidateRecord{
		PersonalInfo: PersonalInfo{
			Name:  Placeholder,
			Email: Placeholder,
			Phone: Placeholder,
		},
		CurrentPosition: Placeholder,
		Skills:          []string{},
		Software:        []string{},
		Languages:       []Language{},
		WorkExperience:  []Experience{},
		Education:       []Education{},
	}
}

// EmptyJobPosting returns a JobPosting with placeholder scalars and empty
// (non-nil) lists.
func EmptyJobPosting() JobPosting {
	return JobPosting{
		Title:            Placeholder,
		Company:          Placeholder,
		Location:         Placeholder,
		ContractType:     Placeholder,
		RequiredSkills:   []string{},
		PreferredSkills:  []string{},
		Experience:       Placeholder,
		Responsibilities: []string{},
		Requirements:     []string{},
		Benefits:         []string{},
	}
}

// PlaceholderExperience is the single entry emitted when no date range is
// found in a document. The parser never returns an empty work history and
// never invents a company name.
func PlaceholderExperience() Experience {
	return Experience{
		Title:     Placeholder,
		Company:   Placeholder,
		StartDate: Placeholder,
		EndDate:   Placeholder,
	}
}
