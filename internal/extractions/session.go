package extractions

import "time"

// Session accumulates per-run pipeline statistics. It is created by the run
// that owns it and returned with the result; nothing about it is shared
// across runs.
type Session struct {
	startedAt time.Time
	steps     []SessionStep

	FieldsFound       int
	FieldsPlaceholder int
}

// SessionStep is one recorded pipeline stage.
type SessionStep struct {
	Name       string  `json:"name"`
	Outcome    string  `json:"outcome"`
	DurationMs float64 `json:"durationMs"`
}

// SessionSummary is the serializable view stored with the extraction.
type SessionSummary struct {
	Steps             []SessionStep `json:"steps"`
	FieldsFound       int           `json:"fieldsFound"`
	FieldsPlaceholder int           `json:"fieldsPlaceholder"`
	TotalMs           float64       `json:"totalMs"`
}

// NewSession starts a session clock.
func NewSession() *Session {
	return &Session{startedAt: time.Now().UTC()}
}

// Step records a stage and returns a done func that captures its outcome.
func (s *Session) Step(name string) func(outcome string) {
	start := time.Now()
	return func(outcome string) {
		s.steps = append(s.steps, SessionStep{
			Name:       name,
			Outcome:    outcome,
			DurationMs: float64(time.Since(start).Microseconds()) / 1000.0,
		})
	}
}

// CountField tallies one extracted field as found or placeholder.
func (s *Session) CountField(found bool) {
	if found {
		s.FieldsFound++
		return
	}
	s.FieldsPlaceholder++
}

// Summary freezes the session for persistence.
func (s *Session) Summary() *SessionSummary {
	steps := make([]SessionStep, len(s.steps))
	copy(steps, s.steps)
	return &SessionSummary{
		Steps:             steps,
		FieldsFound:       s.FieldsFound,
		FieldsPlaceholder: s.FieldsPlaceholder,
		TotalMs:           float64(time.Since(s.startedAt).Microseconds()) / 1000.0,
	}
}
