package service

import (
	"context"
	"strings"
	"time"

	"github.com/Sandeep241003/home-rent-ease/internal/activity/domain"
	"github.com/Sandeep241003/home-rent-ease/internal/clock"
	"github.com/Sandeep241003/home-rent-ease/internal/observability/metrics"
	"github.com/Sandeep241003/home-rent-ease/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("activity.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (s *Service) AppendTx(ctx context.Context, tx *gorm.DB, req domain.AppendRequest) (*domain.ActivityLog, error) {
	if !req.EventType.Valid() {
		return nil, domain.ErrInvalidEventType
	}

	entry := domain.ActivityLog{
		ID:          s.genID.Generate(),
		RoomID:      req.RoomID,
		RoomNumber:  strings.TrimSpace(req.RoomNumber),
		EventType:   req.EventType,
		Amount:      req.Amount,
		Description: strings.TrimSpace(req.Description),
		SourceLogID: req.SourceLogID,
		CreatedAt:   s.clock.Now(),
	}

	if err := s.repo.Insert(ctx, tx, &entry); err != nil {
		s.log.Warn("failed to append activity entry",
			zap.String("event_type", string(req.EventType)),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.RecordActivityAppend(ctx, string(entry.EventType))
	return &entry, nil
}

func (s *Service) Append(ctx context.Context, req domain.AppendRequest) (*domain.ActivityLog, error) {
	return s.AppendTx(ctx, s.db, req)
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	if req.StartAt != nil && req.EndAt != nil && req.StartAt.After(*req.EndAt) {
		return domain.ListResponse{}, domain.ErrInvalidTimeRange
	}
	for _, eventType := range req.EventTypes {
		if !eventType.Valid() {
			return domain.ListResponse{}, domain.ErrInvalidEventType
		}
	}

	var cursor *domain.Cursor
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return domain.ListResponse{}, domain.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339, decoded.CreatedAt)
		if err != nil {
			return domain.ListResponse{}, domain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
		if err != nil || id == 0 {
			return domain.ListResponse{}, domain.ErrInvalidPageToken
		}
		cursor = &domain.Cursor{ID: id, CreatedAt: createdAt}
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 250 {
		pageSize = 250
	}

	items, err := s.repo.List(ctx, s.db, domain.ListFilter{
		RoomID:           req.RoomID,
		EventTypes:       req.EventTypes,
		IncludeReversals: req.IncludeReversals,
		StartAt:          req.StartAt,
		EndAt:            req.EndAt,
		Cursor:           cursor,
		Limit:            pageSize,
	})
	if err != nil {
		return domain.ListResponse{}, err
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(item *domain.ActivityLog) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})

	entries := make([]domain.ActivityLog, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		entries = append(entries, *item)
	}

	resp := domain.ListResponse{Entries: entries}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.ActivityLog, error) {
	return s.repo.FindByID(ctx, s.db, id)
}
