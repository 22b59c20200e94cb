package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Member is one occupant of a room. Members live inside the room row as a
// JSON array; they have no identity outside their room.
type Member struct {
	Name           string     `json:"name"`
	Phone          string     `json:"phone,omitempty"`
	JoinedAt       time.Time  `json:"joined_at"`
	IsActive       bool       `json:"is_active"`
	DiscontinuedAt *time.Time `json:"discontinued_at,omitempty"`
}

// Room is a rentable unit together with its running balances. PendingAmount
// and ExtraBalance are maintained exclusively by the ledger engine and are
// never both positive reasons for the same rupee: money owed sits in pending,
// money paid ahead sits in extra.
type Room struct {
	ID                  snowflake.ID                  `gorm:"primaryKey" json:"id"`
	RoomNumber          string                        `gorm:"uniqueIndex" json:"room_number"`
	Name                string                        `json:"name"`
	MonthlyRent         decimal.Decimal               `gorm:"type:numeric(12,2)" json:"monthly_rent"`
	ElectricityRate     decimal.Decimal               `gorm:"type:numeric(12,4)" json:"electricity_rate"`
	InitialMeterReading decimal.Decimal               `gorm:"type:numeric(12,2)" json:"initial_meter_reading"`
	CurrentMeterReading decimal.Decimal               `gorm:"type:numeric(12,2)" json:"current_meter_reading"`
	JoiningDate         time.Time                     `gorm:"type:date" json:"joining_date"`
	IsActive            bool                          `json:"is_active"`
	PendingAmount       decimal.Decimal               `gorm:"type:numeric(12,2)" json:"pending_amount"`
	TotalPaid           decimal.Decimal               `gorm:"type:numeric(12,2)" json:"total_paid"`
	ExtraBalance        decimal.Decimal               `gorm:"type:numeric(12,2)" json:"extra_balance"`
	Members             datatypes.JSONSlice[Member]   `json:"members"`
	DiscontinuedReason  *string                       `json:"discontinued_reason,omitempty"`
	DiscontinuedAt      *time.Time                    `json:"discontinued_at,omitempty"`
	CreatedAt           time.Time                     `json:"created_at"`
	UpdatedAt           time.Time                     `json:"updated_at"`
}

func (Room) TableName() string {
	return "rooms"
}

// DisplayName joins active member names with " & ", falling back to the
// stored name when no member is active.
func (r Room) DisplayName() string {
	names := make([]string, 0, len(r.Members))
	for _, m := range r.Members {
		if m.IsActive && strings.TrimSpace(m.Name) != "" {
			names = append(names, strings.TrimSpace(m.Name))
		}
	}
	if len(names) == 0 {
		return r.Name
	}
	return strings.Join(names, " & ")
}

// Summary aggregates the dashboard numbers across rooms.
type Summary struct {
	ActiveRooms  int             `json:"active_rooms"`
	TotalRooms   int             `json:"total_rooms"`
	TotalPending decimal.Decimal `json:"total_pending"`
	TotalExtra   decimal.Decimal `json:"total_extra"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
}
