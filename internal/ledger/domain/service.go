package domain

import (
	"context"
	"errors"
	"time"

	activitydomain "github.com/Sandeep241003/home-rent-ease/internal/activity/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BillElectricityRequest struct {
	RoomID         snowflake.ID
	CurrentReading decimal.Decimal
}

type ReceivePaymentRequest struct {
	RoomID        snowflake.ID
	Amount        decimal.Decimal
	PaymentMode   PaymentMode
	PaymentReason string
	ReasonNotes   string
	PaidBy        string
	PaymentDate   time.Time
}

type ApplyConcessionRequest struct {
	RoomID snowflake.ID
	Amount decimal.Decimal
	Reason string
}

type UndoRequest struct {
	Type   TransactionType
	ID     snowflake.ID
	Reason string
}

// LedgerView is everything recorded against one room, newest first.
type LedgerView struct {
	RentEntries []RentEntry          `json:"rent_entries"`
	Readings    []ElectricityReading `json:"electricity_readings"`
	Payments    []Payment            `json:"payments"`
}

type Service interface {
	// AccrueRent posts one month's rent. It returns nil without error when a
	// non-reversed entry for that period already exists.
	AccrueRent(ctx context.Context, roomID snowflake.ID, month, year int) (*RentEntry, error)
	BillElectricity(ctx context.Context, req BillElectricityRequest) (*ElectricityReading, error)
	ReceivePayment(ctx context.Context, req ReceivePaymentRequest) (*Payment, error)
	ApplyConcession(ctx context.Context, req ApplyConcessionRequest) (*activitydomain.ActivityLog, error)

	Ledger(ctx context.Context, roomID snowflake.ID) (LedgerView, error)
	ListPayments(ctx context.Context, roomID *snowflake.ID, limit int) ([]Payment, error)
	GetPayment(ctx context.Context, id snowflake.ID) (*Payment, error)

	ReversePayment(ctx context.Context, id snowflake.ID, reason string) (*Payment, error)
	ReverseRent(ctx context.Context, id snowflake.ID, reason string) (*RentEntry, error)
	ReverseElectricity(ctx context.Context, id snowflake.ID, reason string) (*ElectricityReading, error)
	ReverseConcession(ctx context.Context, logID snowflake.ID, reason string) error
	UndoTransaction(ctx context.Context, req UndoRequest) error
	ListUndoable(ctx context.Context, roomID *snowflake.ID, limit int) ([]UndoableTransaction, error)
}

// ListFilter scopes ledger record scans. Records come back newest first.
type ListFilter struct {
	RoomID          *snowflake.ID
	ExcludeReversed bool
	Limit           int
}

type Repository interface {
	FindRentEntryForPeriod(ctx context.Context, db *gorm.DB, roomID snowflake.ID, month, year int) (*RentEntry, error)
	InsertRentEntry(ctx context.Context, db *gorm.DB, entry *RentEntry) error
	FindRentEntry(ctx context.Context, db *gorm.DB, id snowflake.ID) (*RentEntry, error)
	ListRentEntries(ctx context.Context, db *gorm.DB, filter ListFilter) ([]RentEntry, error)

	InsertReading(ctx context.Context, db *gorm.DB, reading *ElectricityReading) error
	FindReading(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ElectricityReading, error)
	ListReadings(ctx context.Context, db *gorm.DB, filter ListFilter) ([]ElectricityReading, error)

	InsertPayment(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindPayment(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Payment, error)
	ListPayments(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Payment, error)

	// MarkReversed flips the reversal triple on the given record table.
	MarkRentEntryReversed(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time, reason string) error
	MarkReadingReversed(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time, reason string) error
	MarkPaymentReversed(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time, reason string) error
}

var (
	ErrInvalidAmount            = errors.New("invalid_amount")
	ErrInvalidPaymentMode       = errors.New("invalid_payment_mode")
	ErrInvalidPeriod            = errors.New("invalid_period")
	ErrMissingReason            = errors.New("missing_reason")
	ErrRoomInactive             = errors.New("room_inactive")
	ErrReadingBelowCurrent      = errors.New("reading_below_current")
	ErrConcessionExceedsPending = errors.New("concession_exceeds_pending")
	ErrAlreadyReversed          = errors.New("already_reversed")
	ErrPaymentNotFound          = errors.New("payment_not_found")
	ErrRentEntryNotFound        = errors.New("rent_entry_not_found")
	ErrReadingNotFound          = errors.New("reading_not_found")
	ErrConcessionNotFound       = errors.New("concession_not_found")
	ErrUnknownTransaction       = errors.New("unknown_transaction_type")
	ErrConflict                 = errors.New("concurrent_update_conflict")
)
