package service

import (
	"context"
	"fmt"
	"strings"

	activitydomain "github.com/Sandeep241003/home-rent-ease/internal/activity/domain"
	"github.com/Sandeep241003/home-rent-ease/internal/clock"
	ledgerdomain "github.com/Sandeep241003/home-rent-ease/internal/ledger/domain"
	"github.com/Sandeep241003/home-rent-ease/internal/room/domain"
	"github.com/Sandeep241003/home-rent-ease/pkg/db"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	Activity activitydomain.Service
	Ledger   ledgerdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	activity activitydomain.Service
	ledger   ledgerdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("room.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		activity: p.Activity,
		ledger:   p.Ledger,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRoomRequest) (*domain.Room, error) {
	roomNumber := strings.TrimSpace(req.RoomNumber)
	if roomNumber == "" {
		return nil, domain.ErrInvalidRoomNumber
	}
	if !req.MonthlyRent.IsPositive() {
		return nil, domain.ErrInvalidRent
	}
	if req.ElectricityRate.IsNegative() {
		return nil, domain.ErrInvalidRate
	}
	if req.InitialMeterReading.IsNegative() {
		return nil, domain.ErrInvalidReading
	}
	if req.JoiningDate.IsZero() {
		return nil, domain.ErrInvalidJoiningDate
	}

	now := s.clock.Now()
	members := make([]domain.Member, 0, len(req.Members))
	for _, m := range req.Members {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			return nil, domain.ErrInvalidMember
		}
		joinedAt := m.JoinedAt
		if joinedAt.IsZero() {
			joinedAt = req.JoiningDate
		}
		members = append(members, domain.Member{
			Name:     name,
			Phone:    strings.TrimSpace(m.Phone),
			JoinedAt: joinedAt,
			IsActive: true,
		})
	}

	room := domain.Room{
		ID:                  s.genID.Generate(),
		RoomNumber:          roomNumber,
		Name:                strings.TrimSpace(req.Name),
		MonthlyRent:         req.MonthlyRent,
		ElectricityRate:     req.ElectricityRate,
		InitialMeterReading: req.InitialMeterReading,
		CurrentMeterReading: req.InitialMeterReading,
		JoiningDate:         req.JoiningDate,
		IsActive:            true,
		PendingAmount:       decimal.Zero,
		TotalPaid:           decimal.Zero,
		ExtraBalance:        decimal.Zero,
		Members:             members,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if room.Name == "" {
		room.Name = room.DisplayName()
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &room); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrRoomNumberTaken
			}
			return err
		}

		_, err := s.activity.AppendTx(ctx, tx, activitydomain.AppendRequest{
			RoomID:      &room.ID,
			RoomNumber:  room.RoomNumber,
			EventType:   activitydomain.EventRoomCreated,
			Description: fmt.Sprintf("Room %s created with monthly rent %s", room.RoomNumber, room.MonthlyRent.StringFixed(2)),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	// The joining month's rent is due immediately when the tenant joined in
	// or before the current month. Later months belong to the sync sweep.
	joinYear, joinMonth, _ := req.JoiningDate.UTC().Date()
	if beforeOrSamePeriod(joinYear, int(joinMonth), now.Year(), int(now.Month())) {
		if _, err := s.ledger.AccrueRent(ctx, room.ID, int(joinMonth), joinYear); err != nil {
			s.log.Error("first month rent accrual failed",
				zap.String("room_id", room.ID.String()),
				zap.Error(err),
			)
			return nil, err
		}
	}

	return s.repo.FindByID(ctx, s.db, room.ID)
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req domain.UpdateRoomRequest) (*domain.Room, error) {
	var updated *domain.Room
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		if req.Name != nil {
			room.Name = strings.TrimSpace(*req.Name)
		}
		if req.MonthlyRent != nil {
			if !req.MonthlyRent.IsPositive() {
				return domain.ErrInvalidRent
			}
			room.MonthlyRent = *req.MonthlyRent
		}
		if req.ElectricityRate != nil {
			if req.ElectricityRate.IsNegative() {
				return domain.ErrInvalidRate
			}
			room.ElectricityRate = *req.ElectricityRate
		}
		room.UpdatedAt = s.clock.Now()

		if err := s.repo.Update(ctx, tx, room); err != nil {
			return err
		}
		updated = room
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.Room, error) {
	return s.repo.FindByID(ctx, s.db, id)
}

func (s *Service) List(ctx context.Context, req domain.ListRoomsRequest) ([]domain.Room, error) {
	return s.repo.List(ctx, s.db, req.ActiveOnly)
}

func (s *Service) Deactivate(ctx context.Context, id snowflake.ID, reason string) (*domain.Room, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.ErrMissingReason
	}

	var updated *domain.Room
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !room.IsActive {
			return domain.ErrRoomAlreadyInactive
		}

		now := s.clock.Now()
		room.IsActive = false
		room.DiscontinuedReason = &reason
		room.DiscontinuedAt = &now
		room.UpdatedAt = now

		if err := s.repo.Update(ctx, tx, room); err != nil {
			return err
		}

		if _, err := s.activity.AppendTx(ctx, tx, activitydomain.AppendRequest{
			RoomID:      &room.ID,
			RoomNumber:  room.RoomNumber,
			EventType:   activitydomain.EventRoomDeactivated,
			Description: fmt.Sprintf("Room %s deactivated: %s", room.RoomNumber, reason),
		}); err != nil {
			return err
		}
		updated = room
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) Reactivate(ctx context.Context, id snowflake.ID) (*domain.Room, error) {
	var updated *domain.Room
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if room.IsActive {
			return domain.ErrRoomAlreadyActive
		}

		room.IsActive = true
		room.DiscontinuedReason = nil
		room.DiscontinuedAt = nil
		room.UpdatedAt = s.clock.Now()

		if err := s.repo.Update(ctx, tx, room); err != nil {
			return err
		}

		if _, err := s.activity.AppendTx(ctx, tx, activitydomain.AppendRequest{
			RoomID:      &room.ID,
			RoomNumber:  room.RoomNumber,
			EventType:   activitydomain.EventRoomReactivated,
			Description: fmt.Sprintf("Room %s reactivated", room.RoomNumber),
		}); err != nil {
			return err
		}
		updated = room
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) ApplyMemberChange(ctx context.Context, id snowflake.ID, change domain.MemberChange) (*domain.Room, error) {
	var updated *domain.Room
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		var event activitydomain.EventType
		var description string

		switch {
		case change.Index == nil:
			name := strings.TrimSpace(change.Name)
			if name == "" {
				return domain.ErrInvalidMember
			}
			joinedAt := now
			if change.JoinedAt != nil {
				joinedAt = *change.JoinedAt
			}
			room.Members = append(room.Members, domain.Member{
				Name:     name,
				Phone:    strings.TrimSpace(change.Phone),
				JoinedAt: joinedAt,
				IsActive: true,
			})
			event = activitydomain.EventMemberAdded
			description = fmt.Sprintf("%s joined room %s", name, room.RoomNumber)

		case *change.Index < 0 || *change.Index >= len(room.Members):
			return domain.ErrInvalidMember

		case change.Discontinue:
			member := &room.Members[*change.Index]
			if !member.IsActive {
				return domain.ErrInvalidMember
			}
			member.IsActive = false
			member.DiscontinuedAt = &now
			event = activitydomain.EventMemberDiscontinued
			description = fmt.Sprintf("%s left room %s", member.Name, room.RoomNumber)

		default:
			member := &room.Members[*change.Index]
			if name := strings.TrimSpace(change.Name); name != "" {
				member.Name = name
			}
			if phone := strings.TrimSpace(change.Phone); phone != "" {
				member.Phone = phone
			}
			event = activitydomain.EventMemberUpdated
			description = fmt.Sprintf("Member details updated for room %s", room.RoomNumber)
		}

		room.Name = room.DisplayName()
		room.UpdatedAt = now

		if err := s.repo.Update(ctx, tx, room); err != nil {
			return err
		}

		if _, err := s.activity.AppendTx(ctx, tx, activitydomain.AppendRequest{
			RoomID:      &room.ID,
			RoomNumber:  room.RoomNumber,
			EventType:   event,
			Description: description,
		}); err != nil {
			return err
		}
		updated = room
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) Summary(ctx context.Context) (domain.Summary, error) {
	return s.repo.Summary(ctx, s.db)
}

func beforeOrSamePeriod(year, month, nowYear, nowMonth int) bool {
	if year != nowYear {
		return year < nowYear
	}
	return month <= nowMonth
}
