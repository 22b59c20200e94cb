package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Sandeep241003/home-rent-ease/internal/ledger/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindRentEntryForPeriod(ctx context.Context, db *gorm.DB, roomID snowflake.ID, month, year int) (*domain.RentEntry, error) {
	var entry domain.RentEntry
	err := db.WithContext(ctx).
		Where("room_id = ? AND month = ? AND year = ? AND is_reversed = ?", roomID, month, year, false).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *repo) InsertRentEntry(ctx context.Context, db *gorm.DB, entry *domain.RentEntry) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (r *repo) FindRentEntry(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.RentEntry, error) {
	var entry domain.RentEntry
	err := db.WithContext(ctx).First(&entry, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRentEntryNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (r *repo) ListRentEntries(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.RentEntry, error) {
	var entries []domain.RentEntry
	if err := applyListFilter(db.WithContext(ctx).Model(&domain.RentEntry{}), filter).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repo) InsertReading(ctx context.Context, db *gorm.DB, reading *domain.ElectricityReading) error {
	return db.WithContext(ctx).Create(reading).Error
}

func (r *repo) FindReading(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.ElectricityReading, error) {
	var reading domain.ElectricityReading
	err := db.WithContext(ctx).First(&reading, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrReadingNotFound
		}
		return nil, err
	}
	return &reading, nil
}

func (r *repo) ListReadings(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.ElectricityReading, error) {
	var readings []domain.ElectricityReading
	if err := applyListFilter(db.WithContext(ctx).Model(&domain.ElectricityReading{}), filter).Find(&readings).Error; err != nil {
		return nil, err
	}
	return readings, nil
}

func (r *repo) InsertPayment(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Create(payment).Error
}

func (r *repo) FindPayment(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Payment, error) {
	var payment domain.Payment
	err := db.WithContext(ctx).First(&payment, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *repo) ListPayments(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Payment, error) {
	var payments []domain.Payment
	if err := applyListFilter(db.WithContext(ctx).Model(&domain.Payment{}), filter).Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

func applyListFilter(stmt *gorm.DB, filter domain.ListFilter) *gorm.DB {
	if filter.RoomID != nil {
		stmt = stmt.Where("room_id = ?", *filter.RoomID)
	}
	if filter.ExcludeReversed {
		stmt = stmt.Where("is_reversed = ?", false)
	}
	stmt = stmt.Order("created_at desc, id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}
	return stmt
}

func (r *repo) MarkRentEntryReversed(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time, reason string) error {
	return markReversed(ctx, db, &domain.RentEntry{}, id, at, reason)
}

func (r *repo) MarkReadingReversed(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time, reason string) error {
	return markReversed(ctx, db, &domain.ElectricityReading{}, id, at, reason)
}

func (r *repo) MarkPaymentReversed(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time, reason string) error {
	return markReversed(ctx, db, &domain.Payment{}, id, at, reason)
}

// markReversed guards the one-way ACTIVE to REVERSED transition at the SQL
// level: a row already reversed is not matched, so double reversals surface
// as ErrAlreadyReversed even under concurrent requests.
func markReversed(ctx context.Context, db *gorm.DB, model any, id snowflake.ID, at time.Time, reason string) error {
	result := db.WithContext(ctx).Model(model).
		Where("id = ? AND is_reversed = ?", id, false).
		Updates(map[string]any{
			"is_reversed":     true,
			"reversed_at":     at,
			"reversal_reason": reason,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrAlreadyReversed
	}
	return nil
}
