package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/saveligulas/pet-feeder-network/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateTag means the tag UID is already bound to a pet.
	ErrDuplicateTag = errors.New("tag already registered")
)

type SQLiteStore struct {
	DB *gorm.DB
}

// NewSQLiteStore opens (or creates) the database at path and migrates the
// schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return NewStore(db)
}

// NewStore wraps an already-open gorm DB. Tests use this with an in-memory
// sqlite driver.
func NewStore(db *gorm.DB) (*SQLiteStore, error) {
	if err := db.AutoMigrate(&models.Pet{}, &models.FeedEvent{}); err != nil {
		return nil, err
	}
	return &SQLiteStore{DB: db}, nil
}

// Transaction runs fn against a store bound to a single transaction. The
// decision engine relies on this so a daily-cap count and the event insert
// commit as one unit.
func (s *SQLiteStore) Transaction(fn func(tx *SQLiteStore) error) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		return fn(&SQLiteStore{DB: tx})
	})
}

func (s *SQLiteStore) CreatePet(p *models.Pet) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.Pet
		err := tx.Where("tag_id = ?", p.TagID).First(&existing).Error
		if err == nil {
			return fmt.Errorf("%w: %s", ErrDuplicateTag, existing.Name)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = models.TimeNow()
		}
		return tx.Create(p).Error
	})
}

func (s *SQLiteStore) GetPetByTag(tagID string) (*models.Pet, error) {
	var p models.Pet
	if err := s.DB.Where("tag_id = ?", tagID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *SQLiteStore) ListPets() ([]models.Pet, error) {
	var out []models.Pet
	if err := s.DB.Order("id asc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// DeletePet removes a pet and its entire event history in one transaction.
func (s *SQLiteStore) DeletePet(id uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Pet{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("pet_id = ?", id).Delete(&models.FeedEvent{}).Error
	})
}

func (s *SQLiteStore) InsertEvent(e *models.FeedEvent) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = models.TimeNow()
	}
	return s.DB.Create(e).Error
}

// CountDispensedSince counts authorized feeds for a pet with timestamps at
// or after since.
func (s *SQLiteStore) CountDispensedSince(petID uint, since time.Time) (int64, error) {
	var n int64
	err := s.DB.Model(&models.FeedEvent{}).
		Where("pet_id = ? AND event_type = ? AND created_at >= ?", petID, models.EventDispensed, since).
		Count(&n).Error
	if err != nil {
		return 0, err
	}
	return n, nil
}

// LastDispensed returns the most recent authorized feed for a pet, or nil
// when the pet has never been fed. Absence is not an error.
func (s *SQLiteStore) LastDispensed(petID uint) (*models.FeedEvent, error) {
	var e models.FeedEvent
	err := s.DB.Where("pet_id = ? AND event_type = ?", petID, models.EventDispensed).
		Order("created_at desc").Order("id desc").
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// RecentEvents returns up to limit events, newest first.
func (s *SQLiteStore) RecentEvents(limit int) ([]models.FeedEvent, error) {
	var out []models.FeedEvent
	err := s.DB.Order("created_at desc").Order("id desc").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ClearEvents wipes the audit log. Destructive and unconditional; the UI
// owns any confirmation step.
func (s *SQLiteStore) ClearEvents() error {
	return s.DB.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.FeedEvent{}).Error
}
