package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	activitydomain "github.com/Sandeep241003/home-rent-ease/internal/activity/domain"
	"github.com/Sandeep241003/home-rent-ease/internal/clock"
	"github.com/Sandeep241003/home-rent-ease/internal/ledger/domain"
	"github.com/Sandeep241003/home-rent-ease/internal/lock"
	"github.com/Sandeep241003/home-rent-ease/internal/observability/metrics"
	roomdomain "github.com/Sandeep241003/home-rent-ease/internal/room/domain"
	pkgdb "github.com/Sandeep241003/home-rent-ease/pkg/db"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const roomLockTTL = 10 * time.Second

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         domain.Repository
	Rooms        roomdomain.Repository
	Activity     activitydomain.Service
	ActivityRepo activitydomain.Repository
	Metrics      *metrics.Metrics `optional:"true"`
	Locker       *lock.Locker     `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         domain.Repository
	rooms        roomdomain.Repository
	activity     activitydomain.Service
	activityRepo activitydomain.Repository
	metrics      *metrics.Metrics
	locker       *lock.Locker
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("ledger.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		rooms:        p.Rooms,
		activity:     p.Activity,
		activityRepo: p.ActivityRepo,
		metrics:      p.Metrics,
		locker:       p.Locker,
	}
}

// withRoomTx serializes an operation on one room: optional cross-process
// lock, then a transaction that re-reads the room row FOR UPDATE. A
// serialization failure or deadlock comes back as ErrConflict so callers
// can retry instead of failing hard.
func (s *Service) withRoomTx(ctx context.Context, roomID snowflake.ID, fn func(tx *gorm.DB, room *roomdomain.Room) error) error {
	err := s.locker.WithRoomLock(ctx, roomID, roomLockTTL, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			room, err := s.rooms.FindByIDForUpdate(ctx, tx, roomID)
			if err != nil {
				return err
			}
			return fn(tx, room)
		})
	})
	if pkgdb.IsSerializationErr(err) {
		return domain.ErrConflict
	}
	return err
}

func (s *Service) AccrueRent(ctx context.Context, roomID snowflake.ID, month, year int) (*domain.RentEntry, error) {
	if month < 1 || month > 12 || year < 2000 || year > 2200 {
		return nil, domain.ErrInvalidPeriod
	}

	var created *domain.RentEntry
	err := s.withRoomTx(ctx, roomID, func(tx *gorm.DB, room *roomdomain.Room) error {
		if !room.IsActive {
			return domain.ErrRoomInactive
		}

		existing, err := s.repo.FindRentEntryForPeriod(ctx, tx, roomID, month, year)
		if err != nil {
			return err
		}
		if existing != nil {
			return nil
		}

		now := s.clock.Now()
		balance, drawn := domain.ApplyCharge(
			domain.Balance{Pending: room.PendingAmount, Extra: room.ExtraBalance},
			room.MonthlyRent,
		)

		entry := domain.RentEntry{
			ID:        s.genID.Generate(),
			RoomID:    roomID,
			Month:     month,
			Year:      year,
			Amount:    room.MonthlyRent,
			CreatedAt: now,
		}
		if err := s.repo.InsertRentEntry(ctx, tx, &entry); err != nil {
			if pkgdb.IsDuplicateKeyErr(err) {
				// lost the race to another writer; the month is covered
				return nil
			}
			return err
		}

		room.PendingAmount = balance.Pending
		room.ExtraBalance = balance.Extra
		room.UpdatedAt = now
		if err := s.rooms.Update(ctx, tx, room); err != nil {
			return err
		}

		if _, err := s.activity.AppendTx(ctx, tx, activitydomain.AppendRequest{
			RoomID:      &roomID,
			RoomNumber:  room.RoomNumber,
			EventType:   activitydomain.EventRentAdded,
			Amount:      &entry.Amount,
			Description: fmt.Sprintf("Rent added for %s %d", time.Month(month), year),
		}); err != nil {
			return err
		}
		if drawn.IsPositive() {
			if err := s.appendExtraAdjusted(ctx, tx, room, drawn,
				fmt.Sprintf("Extra balance used for %s %d rent", time.Month(month), year)); err != nil {
				return err
			}
		}

		created = &entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created != nil {
		s.metrics.RecordCharge(ctx, "rent")
		s.log.Info("rent accrued",
			zap.String("room_id", roomID.String()),
			zap.Int("month", month),
			zap.Int("year", year),
		)
	}
	return created, nil
}

func (s *Service) BillElectricity(ctx context.Context, req domain.BillElectricityRequest) (*domain.ElectricityReading, error) {
	if req.CurrentReading.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	var created *domain.ElectricityReading
	err := s.withRoomTx(ctx, req.RoomID, func(tx *gorm.DB, room *roomdomain.Room) error {
		if !room.IsActive {
			return domain.ErrRoomInactive
		}
		if req.CurrentReading.LessThan(room.CurrentMeterReading) {
			return domain.ErrReadingBelowCurrent
		}

		now := s.clock.Now()
		units := req.CurrentReading.Sub(room.CurrentMeterReading)
		amount := units.Mul(room.ElectricityRate).Round(2)
		balance, drawn := domain.ApplyCharge(
			domain.Balance{Pending: room.PendingAmount, Extra: room.ExtraBalance},
			amount,
		)

		reading := domain.ElectricityReading{
			ID:              s.genID.Generate(),
			RoomID:          req.RoomID,
			PreviousReading: room.CurrentMeterReading,
			CurrentReading:  req.CurrentReading,
			UnitsConsumed:   units,
			Rate:            room.ElectricityRate,
			Amount:          amount,
			Month:           int(now.Month()),
			Year:            now.Year(),
			CreatedAt:       now,
		}
		if err := s.repo.InsertReading(ctx, tx, &reading); err != nil {
			return err
		}

		room.CurrentMeterReading = req.CurrentReading
		room.PendingAmount = balance.Pending
		room.ExtraBalance = balance.Extra
		room.UpdatedAt = now
		if err := s.rooms.Update(ctx, tx, room); err != nil {
			return err
		}

		if _, err := s.activity.AppendTx(ctx, tx, activitydomain.AppendRequest{
			RoomID:      &req.RoomID,
			RoomNumber:  room.RoomNumber,
			EventType:   activitydomain.EventElectricityAdded,
			Amount:      &reading.Amount,
			Description: fmt.Sprintf("Electricity bill added: %s units at %s", units.String(), room.ElectricityRate.String()),
		}); err != nil {
			return err
		}
		if drawn.IsPositive() {
			if err := s.appendExtraAdjusted(ctx, tx, room, drawn, "Extra balance used for electricity bill"); err != nil {
				return err
			}
		}

		created = &reading
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordCharge(ctx, "electricity")
	return created, nil
}

func (s *Service) ReceivePayment(ctx context.Context, req domain.ReceivePaymentRequest) (*domain.Payment, error) {
	if !req.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if !req.PaymentMode.Valid() {
		return nil, domain.ErrInvalidPaymentMode
	}

	var created *domain.Payment
	err := s.withRoomTx(ctx, req.RoomID, func(tx *gorm.DB, room *roomdomain.Room) error {
		now := s.clock.Now()
		paymentDate := req.PaymentDate
		if paymentDate.IsZero() {
			paymentDate = now
		}

		balance, overflow := domain.ApplyPayment(
			domain.Balance{Pending: room.PendingAmount, Extra: room.ExtraBalance},
			req.Amount,
		)

		payment := domain.Payment{
			ID:            s.genID.Generate(),
			RoomID:        req.RoomID,
			Amount:        req.Amount,
			PaymentMode:   req.PaymentMode,
			PaymentReason: optional(req.PaymentReason),
			ReasonNotes:   optional(req.ReasonNotes),
			PaidBy:        optional(req.PaidBy),
			PaymentDate:   paymentDate,
			CreatedAt:     now,
		}
		if err := s.repo.InsertPayment(ctx, tx, &payment); err != nil {
			return err
		}

		room.PendingAmount = balance.Pending
		room.ExtraBalance = balance.Extra
		room.TotalPaid = room.TotalPaid.Add(req.Amount)
		room.UpdatedAt = now
		if err := s.rooms.Update(ctx, tx, room); err != nil {
			return err
		}

		description := fmt.Sprintf("Payment of %s received via %s", req.Amount.StringFixed(2), req.PaymentMode)
		if payment.PaidBy != nil {
			description = fmt.Sprintf("%s from %s", description, *payment.PaidBy)
		}
		if _, err := s.activity.AppendTx(ctx, tx, activitydomain.AppendRequest{
			RoomID:      &req.RoomID,
			RoomNumber:  room.RoomNumber,
			EventType:   activitydomain.EventPaymentReceived,
			Amount:      &payment.Amount,
			Description: description,
		}); err != nil {
			return err
		}
		if overflow.IsPositive() {
			if _, err := s.activity.AppendTx(ctx, tx, activitydomain.AppendRequest{
				RoomID:      &req.RoomID,
				RoomNumber:  room.RoomNumber,
				EventType:   activitydomain.EventExtraAdded,
				Amount:      &overflow,
				Description: fmt.Sprintf("Extra balance increased by %s", overflow.StringFixed(2)),
			}); err != nil {
				return err
			}
		}

		created = &payment
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordPayment(ctx, string(req.PaymentMode))
	return created, nil
}

func (s *Service) ApplyConcession(ctx context.Context, req domain.ApplyConcessionRequest) (*activitydomain.ActivityLog, error) {
	if !req.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, domain.ErrMissingReason
	}

	var entry *activitydomain.ActivityLog
	err := s.withRoomTx(ctx, req.RoomID, func(tx *gorm.DB, room *roomdomain.Room) error {
		if req.Amount.GreaterThan(room.PendingAmount) {
			return domain.ErrConcessionExceedsPending
		}

		now := s.clock.Now()
		room.PendingAmount = room.PendingAmount.Sub(req.Amount)
		room.UpdatedAt = now
		if err := s.rooms.Update(ctx, tx, room); err != nil {
			return err
		}

		// concessions reduce the balance, so the log amount is negative
		negated := req.Amount.Neg()
		logged, err := s.activity.AppendTx(ctx, tx, activitydomain.AppendRequest{
			RoomID:      &req.RoomID,
			RoomNumber:  room.RoomNumber,
			EventType:   activitydomain.EventConcessionApplied,
			Amount:      &negated,
			Description: fmt.Sprintf("Concession of %s applied: %s", req.Amount.StringFixed(2), reason),
		})
		if err != nil {
			return err
		}
		entry = logged
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) Ledger(ctx context.Context, roomID snowflake.ID) (domain.LedgerView, error) {
	if _, err := s.rooms.FindByID(ctx, s.db, roomID); err != nil {
		return domain.LedgerView{}, err
	}

	filter := domain.ListFilter{RoomID: &roomID}
	entries, err := s.repo.ListRentEntries(ctx, s.db, filter)
	if err != nil {
		return domain.LedgerView{}, err
	}
	readings, err := s.repo.ListReadings(ctx, s.db, filter)
	if err != nil {
		return domain.LedgerView{}, err
	}
	payments, err := s.repo.ListPayments(ctx, s.db, filter)
	if err != nil {
		return domain.LedgerView{}, err
	}

	return domain.LedgerView{
		RentEntries: entries,
		Readings:    readings,
		Payments:    payments,
	}, nil
}

func (s *Service) ListPayments(ctx context.Context, roomID *snowflake.ID, limit int) ([]domain.Payment, error) {
	return s.repo.ListPayments(ctx, s.db, domain.ListFilter{RoomID: roomID, Limit: limit})
}

func (s *Service) GetPayment(ctx context.Context, id snowflake.ID) (*domain.Payment, error) {
	return s.repo.FindPayment(ctx, s.db, id)
}

func (s *Service) appendExtraAdjusted(ctx context.Context, tx *gorm.DB, room *roomdomain.Room, drawn decimal.Decimal, description string) error {
	// logged negative: the feed shows extra going down
	adjustment := drawn.Neg()
	_, err := s.activity.AppendTx(ctx, tx, activitydomain.AppendRequest{
		RoomID:      &room.ID,
		RoomNumber:  room.RoomNumber,
		EventType:   activitydomain.EventExtraAdjusted,
		Amount:      &adjustment,
		Description: description,
	})
	return err
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
