package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/Sandeep241003/home-rent-ease/internal/room/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, room *domain.Room) error {
	return db.WithContext(ctx).Create(room).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, room *domain.Room) error {
	return db.WithContext(ctx).Save(room).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Room, error) {
	var room domain.Room
	err := db.WithContext(ctx).First(&room, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Room, error) {
	stmt := db.WithContext(ctx)
	// sqlite has no row locks; writes serialize on the database lock instead
	if db.Dialector.Name() != "sqlite" {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var room domain.Room
	err := stmt.First(&room, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}

func (r *repo) FindByRoomNumber(ctx context.Context, db *gorm.DB, roomNumber string) (*domain.Room, error) {
	var room domain.Room
	err := db.WithContext(ctx).
		First(&room, "room_number = ?", strings.TrimSpace(roomNumber)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, activeOnly bool) ([]domain.Room, error) {
	var rooms []domain.Room
	stmt := db.WithContext(ctx).Model(&domain.Room{})
	if activeOnly {
		stmt = stmt.Where("is_active = ?", true)
	}
	if err := stmt.Order("room_number asc").Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *repo) ListActiveBatch(ctx context.Context, db *gorm.DB, afterID snowflake.ID, limit int) ([]domain.Room, error) {
	var rooms []domain.Room
	stmt := db.WithContext(ctx).Model(&domain.Room{}).
		Where("is_active = ?", true).
		Where("id > ?", afterID).
		Order("id asc")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}
	if err := stmt.Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *repo) Summary(ctx context.Context, db *gorm.DB) (domain.Summary, error) {
	var row struct {
		ActiveRooms  int
		TotalRooms   int
		TotalPending decimal.Decimal
		TotalExtra   decimal.Decimal
		TotalPaid    decimal.Decimal
	}
	err := db.WithContext(ctx).Model(&domain.Room{}).
		Select(`SUM(CASE WHEN is_active THEN 1 ELSE 0 END) AS active_rooms,
			COUNT(*) AS total_rooms,
			COALESCE(SUM(CASE WHEN is_active THEN pending_amount ELSE 0 END), 0) AS total_pending,
			COALESCE(SUM(CASE WHEN is_active THEN extra_balance ELSE 0 END), 0) AS total_extra,
			COALESCE(SUM(total_paid), 0) AS total_paid`).
		Scan(&row).Error
	if err != nil {
		return domain.Summary{}, err
	}

	return domain.Summary{
		ActiveRooms:  row.ActiveRooms,
		TotalRooms:   row.TotalRooms,
		TotalPending: row.TotalPending,
		TotalExtra:   row.TotalExtra,
		TotalPaid:    row.TotalPaid,
	}, nil
}
