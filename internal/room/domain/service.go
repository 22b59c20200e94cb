package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateRoomRequest struct {
	RoomNumber          string
	Name                string
	MonthlyRent         decimal.Decimal
	ElectricityRate     decimal.Decimal
	InitialMeterReading decimal.Decimal
	JoiningDate         time.Time
	Members             []Member
}

type UpdateRoomRequest struct {
	Name            *string
	MonthlyRent     *decimal.Decimal
	ElectricityRate *decimal.Decimal
}

type MemberChange struct {
	// Index targets an existing member; nil means add a new one.
	Index       *int
	Name        string
	Phone       string
	JoinedAt    *time.Time
	Discontinue bool
}

type ListRoomsRequest struct {
	ActiveOnly bool
}

type Service interface {
	Create(ctx context.Context, req CreateRoomRequest) (*Room, error)
	Update(ctx context.Context, id snowflake.ID, req UpdateRoomRequest) (*Room, error)
	Get(ctx context.Context, id snowflake.ID) (*Room, error)
	List(ctx context.Context, req ListRoomsRequest) ([]Room, error)
	Deactivate(ctx context.Context, id snowflake.ID, reason string) (*Room, error)
	Reactivate(ctx context.Context, id snowflake.ID) (*Room, error)
	ApplyMemberChange(ctx context.Context, id snowflake.ID, change MemberChange) (*Room, error)
	Summary(ctx context.Context) (Summary, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, room *Room) error
	Update(ctx context.Context, db *gorm.DB, room *Room) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Room, error)
	// FindByIDForUpdate takes a row lock; call inside a transaction.
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Room, error)
	FindByRoomNumber(ctx context.Context, db *gorm.DB, roomNumber string) (*Room, error)
	List(ctx context.Context, db *gorm.DB, activeOnly bool) ([]Room, error)
	ListActiveBatch(ctx context.Context, db *gorm.DB, afterID snowflake.ID, limit int) ([]Room, error)
	Summary(ctx context.Context, db *gorm.DB) (Summary, error)
}

var (
	ErrRoomNotFound        = errors.New("room_not_found")
	ErrRoomNumberTaken     = errors.New("room_number_taken")
	ErrRoomAlreadyInactive = errors.New("room_already_inactive")
	ErrRoomAlreadyActive   = errors.New("room_already_active")
	ErrInvalidRoomNumber   = errors.New("invalid_room_number")
	ErrInvalidRent         = errors.New("invalid_rent")
	ErrInvalidRate         = errors.New("invalid_rate")
	ErrInvalidReading      = errors.New("invalid_reading")
	ErrInvalidJoiningDate  = errors.New("invalid_joining_date")
	ErrInvalidMember       = errors.New("invalid_member")
	ErrMissingReason       = errors.New("missing_reason")
)
