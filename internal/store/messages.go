package store

import (
	"errors"
	"time"

	"github.com/jjgarrid/genaigo/internal/database/models"
	"gorm.io/gorm"
)

// MessageStore persists ingested mail items keyed by their source message id
type MessageStore struct {
	db *gorm.DB
}

// NewMessageStore creates a new MessageStore instance
func NewMessageStore(db *gorm.DB) *MessageStore {
	return &MessageStore{db: db}
}

// Insert writes a new message. The id is the primary key; inserting an
// existing id fails, which is how the fetcher's dedup check stays honest.
func (s *MessageStore) Insert(msg *models.Message) error {
	return wrap(s.db.Create(msg).Error)
}

// Get retrieves a message by id, ErrNotFound when absent
func (s *MessageStore) Get(id string) (*models.Message, error) {
	var msg models.Message
	if err := s.db.First(&msg, "id = ?", id).Error; err != nil {
		return nil, wrap(err)
	}
	return &msg, nil
}

// Exists reports whether a message with the given id is stored
func (s *MessageStore) Exists(id string) (bool, error) {
	var count int64
	if err := s.db.Model(&models.Message{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, wrap(err)
	}
	return count > 0, nil
}

// All returns every stored message in store iteration order
func (s *MessageStore) All() ([]models.Message, error) {
	var msgs []models.Message
	if err := s.db.Find(&msgs).Error; err != nil {
		return nil, wrap(err)
	}
	return msgs, nil
}

// Recent returns up to limit messages, most recently retrieved first
func (s *MessageStore) Recent(limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	var msgs []models.Message
	if err := s.db.Order("retrieved_at DESC").Limit(limit).Find(&msgs).Error; err != nil {
		return nil, wrap(err)
	}
	return msgs, nil
}

// Count returns the number of stored messages
func (s *MessageStore) Count() (int64, error) {
	var count int64
	if err := s.db.Model(&models.Message{}).Count(&count).Error; err != nil {
		return 0, wrap(err)
	}
	return count, nil
}

// DateRange describes the retrieval window of the stored messages
type DateRange struct {
	Earliest time.Time `json:"earliest"`
	Latest   time.Time `json:"latest"`
}

// MessageStats summarizes the messages collection
type MessageStats struct {
	TotalMessages int64      `json:"total_messages"`
	UniqueSenders int64      `json:"unique_senders"`
	DateRange     *DateRange `json:"date_range"`
	Senders       []string   `json:"senders"`
}

// Stats computes message collection statistics
func (s *MessageStore) Stats() (*MessageStats, error) {
	stats := &MessageStats{}

	if err := s.db.Model(&models.Message{}).Count(&stats.TotalMessages).Error; err != nil {
		return nil, wrap(err)
	}
	if stats.TotalMessages == 0 {
		stats.Senders = []string{}
		return stats, nil
	}

	if err := s.db.Model(&models.Message{}).Distinct("sender").Pluck("sender", &stats.Senders).Error; err != nil {
		return nil, wrap(err)
	}
	stats.UniqueSenders = int64(len(stats.Senders))

	// Bounds are fetched through the model: sqlite stores timestamps as
	// text, and aggregate columns come back as strings that cannot scan
	// into time.Time
	var earliest, latest models.Message
	if err := s.db.Order("retrieved_at ASC").First(&earliest).Error; err != nil {
		return nil, wrap(err)
	}
	if err := s.db.Order("retrieved_at DESC").First(&latest).Error; err != nil {
		return nil, wrap(err)
	}
	stats.DateRange = &DateRange{Earliest: earliest.RetrievedAt, Latest: latest.RetrievedAt}

	return stats, nil
}

// IsNotFound reports whether err means the record was absent
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
