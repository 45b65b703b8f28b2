package store

import (
	"github.com/jjgarrid/genaigo/internal/database/models"
	"gorm.io/gorm"
)

// AnalysisStore persists analysis records keyed by message id. The physical
// table allows duplicate rows per message id; Upsert is the idempotence
// primitive and CleanupDuplicates in the processor repairs race leftovers.
type AnalysisStore struct {
	db *gorm.DB
}

// NewAnalysisStore creates a new AnalysisStore instance
func NewAnalysisStore(db *gorm.DB) *AnalysisStore {
	return &AnalysisStore{db: db}
}

// Get retrieves the analysis record for a message id, ErrNotFound when absent.
// When duplicate rows exist the most recently written one wins.
func (s *AnalysisStore) Get(messageID string) (*models.AnalysisRecord, error) {
	var rec models.AnalysisRecord
	if err := s.db.Where("message_id = ?", messageID).Order("id DESC").First(&rec).Error; err != nil {
		return nil, wrap(err)
	}
	return &rec, nil
}

// Exists reports whether any analysis record is stored for the message id
func (s *AnalysisStore) Exists(messageID string) (bool, error) {
	var count int64
	if err := s.db.Model(&models.AnalysisRecord{}).Where("message_id = ?", messageID).Count(&count).Error; err != nil {
		return false, wrap(err)
	}
	return count > 0, nil
}

// All returns every stored analysis record, duplicates included
func (s *AnalysisStore) All() ([]models.AnalysisRecord, error) {
	var recs []models.AnalysisRecord
	if err := s.db.Find(&recs).Error; err != nil {
		return nil, wrap(err)
	}
	return recs, nil
}

// AnalyzedIDs returns the set of message ids that have at least one record
func (s *AnalysisStore) AnalyzedIDs() (map[string]bool, error) {
	var ids []string
	if err := s.db.Model(&models.AnalysisRecord{}).Distinct("message_id").Pluck("message_id", &ids).Error; err != nil {
		return nil, wrap(err)
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// CountDistinct returns the number of distinct analyzed message ids
func (s *AnalysisStore) CountDistinct() (int64, error) {
	var count int64
	if err := s.db.Model(&models.AnalysisRecord{}).Distinct("message_id").Count(&count).Error; err != nil {
		return 0, wrap(err)
	}
	return count, nil
}

// Upsert replaces any existing record for the message id with rec, inserting
// when none exists. Replace-then-insert inside one transaction keeps the
// write atomic with respect to other single-row writers.
func (s *AnalysisStore) Upsert(rec *models.AnalysisRecord) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", rec.MessageID).Delete(&models.AnalysisRecord{}).Error; err != nil {
			return err
		}
		rec.ID = 0
		return tx.Create(rec).Error
	})
	return wrap(err)
}

// Remove deletes all records for the given message id
func (s *AnalysisStore) Remove(messageID string) error {
	return wrap(s.db.Where("message_id = ?", messageID).Delete(&models.AnalysisRecord{}).Error)
}

// RemoveRows deletes specific physical rows by primary key
func (s *AnalysisStore) RemoveRows(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return wrap(s.db.Delete(&models.AnalysisRecord{}, ids).Error)
}
