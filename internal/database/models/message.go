package models

import (
	"time"
)

// Message represents one ingested mail item. Rows are written exactly once
// per distinct message id by the fetcher and never mutated afterwards.
type Message struct {
	// ID is the stable identifier assigned by the source mailbox
	// (RFC 5322 Message-Id, or a derived fallback when absent).
	ID          string    `gorm:"primaryKey;size:255" json:"id"`
	Subject     string    `gorm:"size:500" json:"subject"`
	Sender      string    `gorm:"size:255;index" json:"sender"`
	Date        string    `gorm:"size:100" json:"date"` // as received, not normalized
	Content     string    `gorm:"type:text" json:"content"`
	ContentHash string    `gorm:"size:64" json:"content_hash"` // sha256 of Content, audit/dedup signal
	RetrievedAt time.Time `gorm:"index" json:"retrieved_at"`
}
