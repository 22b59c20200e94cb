package domain

import (
	"context"
	"errors"
	"time"

	"github.com/Sandeep241003/home-rent-ease/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AppendRequest describes one event to record.
type AppendRequest struct {
	RoomID      *snowflake.ID
	RoomNumber  string
	EventType   EventType
	Amount      *decimal.Decimal
	Description string
	SourceLogID *snowflake.ID
}

type ListRequest struct {
	pagination.Pagination
	RoomID           *snowflake.ID
	EventTypes       []EventType
	IncludeReversals bool
	StartAt          *time.Time
	EndAt            *time.Time
}

type ListResponse struct {
	pagination.PageInfo
	Entries []ActivityLog `json:"entries"`
}

type Service interface {
	// AppendTx records an event inside the caller's transaction so the
	// entry commits or rolls back with the mutation it describes.
	AppendTx(ctx context.Context, tx *gorm.DB, req AppendRequest) (*ActivityLog, error)
	// Append records an event on its own connection.
	Append(ctx context.Context, req AppendRequest) (*ActivityLog, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	Get(ctx context.Context, id snowflake.ID) (*ActivityLog, error)
}

type ListFilter struct {
	RoomID           *snowflake.ID
	EventTypes       []EventType
	IncludeReversals bool
	StartAt          *time.Time
	EndAt            *time.Time
	Cursor           *Cursor
	Limit            int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *ActivityLog) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*ActivityLog, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ActivityLog, error)
	// FindReversalOf returns the reversal entry referencing sourceLogID, if any.
	FindReversalOf(ctx context.Context, db *gorm.DB, sourceLogID snowflake.ID) (*ActivityLog, error)
	// ListUnreversedConcessions returns recent CONCESSION_APPLIED entries
	// that no CONCESSION_REVERSED entry references.
	ListUnreversedConcessions(ctx context.Context, db *gorm.DB, roomID *snowflake.ID, limit int) ([]*ActivityLog, error)
}

var (
	ErrInvalidEventType = errors.New("invalid_event_type")
	ErrInvalidPageToken = errors.New("invalid_page_token")
	ErrInvalidTimeRange = errors.New("invalid_time_range")
	ErrEntryNotFound    = errors.New("activity_entry_not_found")
)
