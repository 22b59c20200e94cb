package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// EventType is the closed set of activity log events. Reversal outcomes are
// recorded as their own events so the log reads as an append-only history.
type EventType string

const (
	EventRoomCreated         EventType = "ROOM_CREATED"
	EventRentAdded           EventType = "RENT_ADDED"
	EventElectricityAdded    EventType = "ELECTRICITY_ADDED"
	EventPaymentReceived     EventType = "PAYMENT_RECEIVED"
	EventExtraAdded          EventType = "EXTRA_ADDED"
	EventExtraAdjusted       EventType = "EXTRA_ADJUSTED"
	EventRoomDeactivated     EventType = "ROOM_DEACTIVATED"
	EventRoomReactivated     EventType = "ROOM_REACTIVATED"
	EventMemberAdded         EventType = "MEMBER_ADDED"
	EventMemberDiscontinued  EventType = "MEMBER_DISCONTINUED"
	EventMemberUpdated       EventType = "MEMBER_UPDATED"
	EventConcessionApplied   EventType = "CONCESSION_APPLIED"
	EventPaymentReversed     EventType = "PAYMENT_REVERSED"
	EventRentReversed        EventType = "RENT_REVERSED"
	EventElectricityReversed EventType = "ELECTRICITY_REVERSED"
	EventConcessionReversed  EventType = "CONCESSION_REVERSED"
	EventTransactionUndone   EventType = "TRANSACTION_UNDONE"
)

var knownEventTypes = map[EventType]struct{}{
	EventRoomCreated:         {},
	EventRentAdded:           {},
	EventElectricityAdded:    {},
	EventPaymentReceived:     {},
	EventExtraAdded:          {},
	EventExtraAdjusted:       {},
	EventRoomDeactivated:     {},
	EventRoomReactivated:     {},
	EventMemberAdded:         {},
	EventMemberDiscontinued:  {},
	EventMemberUpdated:       {},
	EventConcessionApplied:   {},
	EventPaymentReversed:     {},
	EventRentReversed:        {},
	EventElectricityReversed: {},
	EventConcessionReversed:  {},
	EventTransactionUndone:   {},
}

func (e EventType) Valid() bool {
	_, ok := knownEventTypes[e]
	return ok
}

// IsReversalEvent reports events hidden from the default activity feed.
func (e EventType) IsReversalEvent() bool {
	switch e {
	case EventPaymentReversed, EventRentReversed, EventElectricityReversed,
		EventConcessionReversed, EventTransactionUndone:
		return true
	default:
		return false
	}
}

// ActivityLog is one immutable entry in the per-property activity history.
// SourceLogID links a reversal entry to the log entry it undoes; today only
// concession reversals use it, since concessions have no ledger row of their
// own.
type ActivityLog struct {
	ID          snowflake.ID     `gorm:"primaryKey" json:"id"`
	RoomID      *snowflake.ID    `gorm:"index" json:"room_id,omitempty"`
	RoomNumber  string           `json:"room_number"`
	EventType   EventType        `gorm:"index" json:"event_type"`
	Amount      *decimal.Decimal `gorm:"type:numeric(12,2)" json:"amount,omitempty"`
	Description string           `json:"description"`
	SourceLogID *snowflake.ID    `gorm:"index" json:"source_log_id,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}

// Cursor positions a paginated scan over the log.
type Cursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}
