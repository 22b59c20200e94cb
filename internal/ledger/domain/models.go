package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// TransactionType tags the record kind an undo request refers to.
type TransactionType string

const (
	TransactionPayment     TransactionType = "PAYMENT"
	TransactionRent        TransactionType = "RENT"
	TransactionElectricity TransactionType = "ELECTRICITY"
	TransactionConcession  TransactionType = "CONCESSION"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionPayment, TransactionRent, TransactionElectricity, TransactionConcession:
		return true
	default:
		return false
	}
}

// PaymentMode is how the tenant handed over the money.
type PaymentMode string

const (
	PaymentModeCash PaymentMode = "Cash"
	PaymentModeUPI  PaymentMode = "UPI"
	PaymentModeBank PaymentMode = "Bank"
)

func (m PaymentMode) Valid() bool {
	switch m {
	case PaymentModeCash, PaymentModeUPI, PaymentModeBank:
		return true
	default:
		return false
	}
}

// RentEntry is one month's rent charge for a room. At most one non-reversed
// entry exists per (room, month, year).
type RentEntry struct {
	ID             snowflake.ID    `gorm:"primaryKey" json:"id"`
	RoomID         snowflake.ID    `gorm:"index" json:"room_id"`
	Month          int             `json:"month"`
	Year           int             `json:"year"`
	Amount         decimal.Decimal `gorm:"type:numeric(12,2)" json:"amount"`
	IsReversed     bool            `json:"is_reversed"`
	ReversedAt     *time.Time      `json:"reversed_at,omitempty"`
	ReversalReason *string         `json:"reversal_reason,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (RentEntry) TableName() string {
	return "rent_entries"
}

// ElectricityReading is one billed meter reading. PreviousReading is the
// room's meter position when the bill was cut; reversing the reading rolls
// the room back to it.
type ElectricityReading struct {
	ID              snowflake.ID    `gorm:"primaryKey" json:"id"`
	RoomID          snowflake.ID    `gorm:"index" json:"room_id"`
	PreviousReading decimal.Decimal `gorm:"type:numeric(12,2)" json:"previous_reading"`
	CurrentReading  decimal.Decimal `gorm:"type:numeric(12,2)" json:"current_reading"`
	UnitsConsumed   decimal.Decimal `gorm:"type:numeric(12,2)" json:"units_consumed"`
	Rate            decimal.Decimal `gorm:"type:numeric(12,4)" json:"rate"`
	Amount          decimal.Decimal `gorm:"type:numeric(12,2)" json:"amount"`
	Month           int             `json:"month"`
	Year            int             `json:"year"`
	IsReversed      bool            `json:"is_reversed"`
	ReversedAt      *time.Time      `json:"reversed_at,omitempty"`
	ReversalReason  *string         `json:"reversal_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

func (ElectricityReading) TableName() string {
	return "electricity_readings"
}

// Payment is money received from a tenant.
type Payment struct {
	ID             snowflake.ID    `gorm:"primaryKey" json:"id"`
	RoomID         snowflake.ID    `gorm:"index" json:"room_id"`
	Amount         decimal.Decimal `gorm:"type:numeric(12,2)" json:"amount"`
	PaymentMode    PaymentMode     `json:"payment_mode"`
	PaymentReason  *string         `json:"payment_reason,omitempty"`
	ReasonNotes    *string         `json:"reason_notes,omitempty"`
	PaidBy         *string         `json:"paid_by,omitempty"`
	PaymentDate    time.Time       `gorm:"type:date" json:"payment_date"`
	IsReversed     bool            `json:"is_reversed"`
	ReversedAt     *time.Time      `json:"reversed_at,omitempty"`
	ReversalReason *string         `json:"reversal_reason,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (Payment) TableName() string {
	return "payments"
}

// UndoableTransaction is a row in the "what can still be undone" view that
// merges payments, charges and concessions.
type UndoableTransaction struct {
	Type        TransactionType `json:"type"`
	ID          snowflake.ID    `json:"id"`
	RoomID      snowflake.ID    `json:"room_id"`
	RoomNumber  string          `json:"room_number"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}
