package waitlist

import (
	"context"
	"errors"
	"slices"

	"github.com/akeren/go-waitlist/internal/models"
	apperrors "github.com/akeren/go-waitlist/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WaitlistRepository interface {
	// Initialize creates the empty collection if it does not exist yet.
	Initialize(ctx context.Context) error
	// Load returns every entry ordered by position.
	Load(ctx context.Context) ([]*models.WaitlistEntry, error)
	// Save replaces the whole collection.
	Save(ctx context.Context, entries []*models.WaitlistEntry) error
	// Append assigns the next position to entry and stores it, failing with a
	// CONFLICT error when the email key is already present.
	Append(ctx context.Context, entry *models.WaitlistEntry) (*models.WaitlistEntry, error)
	// Count returns the number of stored entries.
	Count(ctx context.Context) (int64, error)
	// Ping checks that the backing store is reachable.
	Ping(ctx context.Context) error
}

var errAlreadyRegistered = errors.New("email already registered")

func newDuplicateError() error {
	return apperrors.NewConflictError("waitlist entry with this email already exists", errAlreadyRegistered)
}

type waitlistRepository struct {
	db      *gorm.DB
	counter string
}

// NewWaitlistRepository stores entries in SQL; counter names the row holding
// the last assigned position.
func NewWaitlistRepository(db *gorm.DB, counter string) WaitlistRepository {
	return &waitlistRepository{db: db, counter: counter}
}

func (wr *waitlistRepository) Initialize(ctx context.Context) error {
	err := wr.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.WaitlistCounter{Name: wr.counter}).Error
	if err != nil {
		return apperrors.NewDatabaseError("unable to initialize waitlist", err)
	}
	return nil
}

func (wr *waitlistRepository) Load(ctx context.Context) ([]*models.WaitlistEntry, error) {
	var entries []*models.WaitlistEntry

	if err := wr.db.WithContext(ctx).Order("position asc").Find(&entries).Error; err != nil {
		return nil, apperrors.NewDatabaseError("unable to load waitlist", err)
	}

	return entries, nil
}

func (wr *waitlistRepository) Save(ctx context.Context, entries []*models.WaitlistEntry) error {
	err := wr.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.WaitlistEntry{}).Error; err != nil {
			return err
		}

		var last int64
		entries = slices.DeleteFunc(slices.Clone(entries), func(e *models.WaitlistEntry) bool { return e == nil })
		for _, entry := range entries {
			entry.ID = 0
			entry.EmailKey = models.NormalizeEmail(entry.Email)
			if entry.Position > last {
				last = entry.Position
			}
		}
		if len(entries) > 0 {
			if err := tx.Create(&entries).Error; err != nil {
				return err
			}
		}

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_position"}),
		}).Create(&models.WaitlistCounter{Name: wr.counter, LastPosition: last}).Error
	})
	if err != nil {
		if isDuplicateKey(err) {
			return newDuplicateError()
		}
		return apperrors.NewDatabaseError("unable to save waitlist", err)
	}
	return nil
}

// Append serializes writers on the counter row. FOR UPDATE is a no-op on
// SQLite, where the single writer lock gives the same guarantee.
func (wr *waitlistRepository) Append(ctx context.Context, entry *models.WaitlistEntry) (*models.WaitlistEntry, error) {
	err := wr.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		counter, err := wr.lockCounter(tx)
		if err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.WaitlistEntry{}).Where("email_key = ?", entry.EmailKey).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return newDuplicateError()
		}

		entry.Position = counter.LastPosition + 1
		if err := tx.Create(entry).Error; err != nil {
			return err
		}

		return tx.Model(&models.WaitlistCounter{}).
			Where("name = ?", wr.counter).
			Update("last_position", entry.Position).Error
	})
	if err != nil {
		entry.Position = 0
		if apperrors.IsType(err, apperrors.ErrorTypeConflict) {
			return nil, err
		}
		if isDuplicateKey(err) {
			return nil, newDuplicateError()
		}
		return nil, apperrors.NewDatabaseError("unable to append waitlist entry", err)
	}

	return entry, nil
}

func (wr *waitlistRepository) lockCounter(tx *gorm.DB) (*models.WaitlistCounter, error) {
	var counter models.WaitlistCounter

	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("name = ?", wr.counter).
		First(&counter).Error
	if err == nil {
		return &counter, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Initialize was skipped; create the row and take the lock again.
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.WaitlistCounter{Name: wr.counter}).Error; err != nil {
		return nil, err
	}
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("name = ?", wr.counter).
		First(&counter).Error; err != nil {
		return nil, err
	}
	return &counter, nil
}

func (wr *waitlistRepository) Count(ctx context.Context) (int64, error) {
	var count int64

	if err := wr.db.WithContext(ctx).Model(&models.WaitlistEntry{}).Count(&count).Error; err != nil {
		return 0, apperrors.NewDatabaseError("unable to count waitlist entries", err)
	}

	return count, nil
}

func (wr *waitlistRepository) Ping(ctx context.Context) error {
	sqlDB, err := wr.db.DB()
	if err != nil {
		return apperrors.NewDatabaseError("unable to reach database", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return apperrors.NewDatabaseError("unable to reach database", err)
	}
	return nil
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || apperrors.IsDuplicateKeyError(err)
}
