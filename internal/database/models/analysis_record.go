package models

import (
	"time"
)

// AnalysisRecord stores one analysis report for one Message. MessageID is
// indexed but deliberately not unique: the underlying store only guarantees
// single-row write atomicity, so concurrent upserts can leave duplicate rows
// behind. The processor's cleanup pass repairs those; "at most one record
// per message id" is its invariant, not the schema's.
type AnalysisRecord struct {
	ID               uint      `gorm:"primaryKey" json:"-"`
	MessageID        string    `gorm:"index;size:255;not null" json:"id"`
	Report           string    `gorm:"type:text" json:"report"` // JSON-encoded analysis.Report
	ProcessedAt      time.Time `json:"processed_at"`
	AnalysisProvider string    `gorm:"size:50" json:"analysis_provider"`
	AnalysisTypes    string    `gorm:"type:text" json:"analysis_types"` // JSON array of requested kinds
	MessageSubject   string    `gorm:"size:500" json:"message_subject"`
	MessageSender    string    `gorm:"size:255" json:"message_sender"`
}
