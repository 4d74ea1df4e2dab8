package extractions

import "github.com/xeipuuv/gojsonschema"

// Schemas the external model's responses must satisfy. Every key is required
// so a response can never silently drop a section; absent values carry the
// placeholder sentinel instead.

const candidateSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["personalInfo", "currentPosition", "skills", "software", "languages", "workExperience", "education"],
  "additionalProperties": false,
  "properties": {
    "personalInfo": {
      "type": "object",
      "required": ["name", "email", "phone"],
      "additionalProperties": false,
      "properties": {
        "name": {"type": "string"},
        "email": {"type": "string"},
        "phone": {"type": "string"}
      }
    },
    "currentPosition": {"type": "string"},
    "skills": {"type": "array", "items": {"type": "string"}},
    "software": {"type": "array", "items": {"type": "string"}},
    "languages": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["language", "level"],
        "additionalProperties": false,
        "properties": {
          "language": {"type": "string"},
          "level": {"type": "string"}
        }
      }
    },
    "workExperience": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["title", "company", "startDate", "endDate"],
        "additionalProperties": false,
        "properties": {
          "title": {"type": "string"},
          "company": {"type": "string"},
          "startDate": {"type": "string"},
          "endDate": {"type": "string"}
        }
      }
    },
    "education": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["degree", "institution", "year"],
        "additionalProperties": false,
        "properties": {
          "degree": {"type": "string"},
          "institution": {"type": "string"},
          "year": {"type": "string"}
        }
      }
    }
  }
}`

const jobPostingSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["title", "company", "location", "contractType", "requiredSkills", "preferredSkills", "experience", "responsibilities", "requirements", "benefits"],
  "additionalProperties": false,
  "properties": {
    "title": {"type": "string"},
    "company": {"type": "string"},
    "location": {"type": "string"},
    "contractType": {"type": "string"},
    "requiredSkills": {"type": "array", "items": {"type": "string"}},
    "preferredSkills": {"type": "array", "items": {"type": "string"}},
    "experience": {"type": "string"},
    "responsibilities": {"type": "array", "items": {"type": "string"}},
    "requirements": {"type": "array", "items": {"type": "string"}},
    "benefits": {"type": "array", "items": {"type": "string"}}
  }
}`

var (
	candidateSchema  *gojsonschema.Schema
	jobPostingSchema *gojsonschema.Schema
)

func init() {
	var err error
	candidateSchema, err = gojsonschema.NewSchema(gojsonschema.NewStringLoader(candidateSchemaJSON))
	if err != nil {
		panic("extractions: candidate schema: " + err.Error())
	}
	jobPostingSchema, err = gojsonschema.NewSchema(gojsonschema.NewStringLoader(jobPostingSchemaJSON))
	if err != nil {
		panic("extractions: job posting schema: " + err.Error())
	}
}
