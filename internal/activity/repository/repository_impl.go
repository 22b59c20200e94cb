package repository

import (
	"context"
	"errors"

	"github.com/Sandeep241003/home-rent-ease/internal/activity/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.ActivityLog) error {
	if entry == nil {
		return nil
	}
	return db.WithContext(ctx).Exec(
		`INSERT INTO activity_logs (
			id, room_id, room_number, event_type, amount, description,
			source_log_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.RoomID,
		entry.RoomNumber,
		entry.EventType,
		entry.Amount,
		entry.Description,
		entry.SourceLogID,
		entry.CreatedAt,
	).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.ActivityLog, error) {
	var entries []*domain.ActivityLog
	stmt := db.WithContext(ctx).Model(&domain.ActivityLog{})

	if filter.RoomID != nil {
		stmt = stmt.Where("room_id = ?", *filter.RoomID)
	}
	if len(filter.EventTypes) > 0 {
		stmt = stmt.Where("event_type IN ?", filter.EventTypes)
	} else if !filter.IncludeReversals {
		stmt = stmt.Where("event_type NOT IN ?", reversalEventTypes())
	}
	if filter.StartAt != nil {
		stmt = stmt.Where("created_at >= ?", filter.StartAt.UTC())
	}
	if filter.EndAt != nil {
		stmt = stmt.Where("created_at <= ?", filter.EndAt.UTC())
	}
	if filter.Cursor != nil {
		stmt = stmt.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			filter.Cursor.CreatedAt,
			filter.Cursor.CreatedAt,
			filter.Cursor.ID,
		)
	}

	stmt = stmt.Order("created_at desc, id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	if err := stmt.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.ActivityLog, error) {
	var entry domain.ActivityLog
	err := db.WithContext(ctx).First(&entry, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (r *repo) FindReversalOf(ctx context.Context, db *gorm.DB, sourceLogID snowflake.ID) (*domain.ActivityLog, error) {
	var entry domain.ActivityLog
	err := db.WithContext(ctx).
		Where("source_log_id = ?", sourceLogID).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *repo) ListUnreversedConcessions(ctx context.Context, db *gorm.DB, roomID *snowflake.ID, limit int) ([]*domain.ActivityLog, error) {
	var entries []*domain.ActivityLog
	stmt := db.WithContext(ctx).Model(&domain.ActivityLog{}).
		Where("event_type = ?", domain.EventConcessionApplied).
		Where(`NOT EXISTS (
			SELECT 1 FROM activity_logs r
			WHERE r.event_type = ? AND r.source_log_id = activity_logs.id
		)`, domain.EventConcessionReversed)

	if roomID != nil {
		stmt = stmt.Where("room_id = ?", *roomID)
	}

	stmt = stmt.Order("created_at desc, id desc")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}

	if err := stmt.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func reversalEventTypes() []domain.EventType {
	return []domain.EventType{
		domain.EventPaymentReversed,
		domain.EventRentReversed,
		domain.EventElectricityReversed,
		domain.EventConcessionReversed,
		domain.EventTransactionUndone,
	}
}
