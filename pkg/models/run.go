package models

import (
	"time"

	"github.com/google/uuid"
)

// Record is the human-readable summary of one run, appended to the output file.
type Record struct {
	Timestamp  time.Time `json:"timestamp"`
	SourceFile string    `json:"source_file"`
	LineCount  int       `json:"line_count"`
	Backend    string    `json:"backend"`
	Model      string    `json:"model"`
	Answer     string    `json:"answer"`
}

// Run is a completed analysis as stored in the run history table.
type Run struct {
	ID         uuid.UUID `db:"id"          json:"id"`
	SourceFile string    `db:"source_file" json:"source_file"`
	LineCount  int       `db:"line_count"  json:"line_count"`
	Backend    string    `db:"backend"     json:"backend"`
	Model      string    `db:"model"       json:"model"`
	Prompt     string    `db:"prompt"      json:"prompt"`
	Answer     string    `db:"answer"      json:"answer"`
	Cached     bool      `db:"cached"      json:"cached"`
	CreatedAt  time.Time `db:"created_at"  json:"created_at"`
}

// Record converts the run into its persisted-record form.
func (r *Run) Record() Record {
	return Record{
		Timestamp:  r.CreatedAt,
		SourceFile: r.SourceFile,
		LineCount:  r.LineCount,
		Backend:    r.Backend,
		Model:      r.Model,
		Answer:     r.Answer,
	}
}
