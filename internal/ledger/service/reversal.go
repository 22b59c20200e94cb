package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	activitydomain "github.com/Sandeep241003/home-rent-ease/internal/activity/domain"
	"github.com/Sandeep241003/home-rent-ease/internal/ledger/domain"
	roomdomain "github.com/Sandeep241003/home-rent-ease/internal/room/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Reversals are one-way: a record moves from active to reversed exactly once
// and never back. The balance effect of reversing differs by kind. A payment
// reversal is the exact inverse of receiving it. A charge reversal only
// lowers pending (floored at zero); any extra balance the charge consumed
// when it was applied stays consumed.

func (s *Service) ReversePayment(ctx context.Context, id snowflake.ID, reason string) (*domain.Payment, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.ErrMissingReason
	}

	payment, err := s.repo.FindPayment(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	var reversed *domain.Payment
	err = s.withRoomTx(ctx, payment.RoomID, func(tx *gorm.DB, room *roomdomain.Room) error {
		current, err := s.repo.FindPayment(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.IsReversed {
			return domain.ErrAlreadyReversed
		}

		now := s.clock.Now()
		if err := s.repo.MarkPaymentReversed(ctx, tx, id, now, reason); err != nil {
			return err
		}

		balance, _ := domain.ReversePayment(
			domain.Balance{Pending: room.PendingAmount, Extra: room.ExtraBalance},
			current.Amount,
		)
		room.PendingAmount = balance.Pending
		room.ExtraBalance = balance.Extra
		room.TotalPaid = room.TotalPaid.Sub(current.Amount)
		room.UpdatedAt = now
		if err := s.rooms.Update(ctx, tx, room); err != nil {
			return err
		}

		negated := current.Amount.Neg()
		if _, err := s.activity.AppendTx(ctx, tx, activitydomain.AppendRequest{
			RoomID:      &current.RoomID,
			RoomNumber:  room.RoomNumber,
			EventType:   activitydomain.EventPaymentReversed,
			Amount:      &negated,
			Description: fmt.Sprintf("Payment of %s reversed: %s", current.Amount.StringFixed(2), reason),
		}); err != nil {
			return err
		}

		current.IsReversed = true
		current.ReversedAt = &now
		current.ReversalReason = &reason
		reversed = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordReversal(ctx, string(domain.TransactionPayment))
	s.log.Info("payment reversed", zap.String("payment_id", id.String()))
	return reversed, nil
}

func (s *Service) ReverseRent(ctx context.Context, id snowflake.ID, reason string) (*domain.RentEntry, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.ErrMissingReason
	}

	entry, err := s.repo.FindRentEntry(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	var reversed *domain.RentEntry
	err = s.withRoomTx(ctx, entry.RoomID, func(tx *gorm.DB, room *roomdomain.Room) error {
		current, err := s.repo.FindRentEntry(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.IsReversed {
			return domain.ErrAlreadyReversed
		}

		now := s.clock.Now()
		if err := s.repo.MarkRentEntryReversed(ctx, tx, id, now, reason); err != nil {
			return err
		}

		balance := domain.ReverseCharge(
			domain.Balance{Pending: room.PendingAmount, Extra: room.ExtraBalance},
			current.Amount,
		)
		room.PendingAmount = balance.Pending
		room.UpdatedAt = now
		if err := s.rooms.Update(ctx, tx, room); err != nil {
			return err
		}

		negated := current.Amount.Neg()
		if _, err := s.activity.AppendTx(ctx, tx, activitydomain.AppendRequest{
			RoomID:      &current.RoomID,
			RoomNumber:  room.RoomNumber,
			EventType:   activitydomain.EventRentReversed,
			Amount:      &negated,
			Description: fmt.Sprintf("Rent for %s %d reversed: %s", time.Month(current.Month), current.Year, reason),
		}); err != nil {
			return err
		}

		current.IsReversed = true
		current.ReversedAt = &now
		current.ReversalReason = &reason
		reversed = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordReversal(ctx, string(domain.TransactionRent))
	return reversed, nil
}

func (s *Service) ReverseElectricity(ctx context.Context, id snowflake.ID, reason string) (*domain.ElectricityReading, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.ErrMissingReason
	}

	reading, err := s.repo.FindReading(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	var reversed *domain.ElectricityReading
	err = s.withRoomTx(ctx, reading.RoomID, func(tx *gorm.DB, room *roomdomain.Room) error {
		current, err := s.repo.FindReading(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.IsReversed {
			return domain.ErrAlreadyReversed
		}

		now := s.clock.Now()
		if err := s.repo.MarkReadingReversed(ctx, tx, id, now, reason); err != nil {
			return err
		}

		balance := domain.ReverseCharge(
			domain.Balance{Pending: room.PendingAmount, Extra: room.ExtraBalance},
			current.Amount,
		)
		room.PendingAmount = balance.Pending
		// roll the meter back so the next bill re-covers these units
		room.CurrentMeterReading = current.PreviousReading
		room.UpdatedAt = now
		if err := s.rooms.Update(ctx, tx, room); err != nil {
			return err
		}

		negated := current.Amount.Neg()
		if _, err := s.activity.AppendTx(ctx, tx, activitydomain.AppendRequest{
			RoomID:      &current.RoomID,
			RoomNumber:  room.RoomNumber,
			EventType:   activitydomain.EventElectricityReversed,
			Amount:      &negated,
			Description: fmt.Sprintf("Electricity bill of %s reversed: %s", current.Amount.StringFixed(2), reason),
		}); err != nil {
			return err
		}

		current.IsReversed = true
		current.ReversedAt = &now
		current.ReversalReason = &reason
		reversed = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordReversal(ctx, string(domain.TransactionElectricity))
	return reversed, nil
}

// ReverseConcession undoes a concession by its activity log entry, since
// concessions have no ledger row of their own. The reversal entry records
// the original entry's id, which is also how double reversals are rejected.
func (s *Service) ReverseConcession(ctx context.Context, logID snowflake.ID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return domain.ErrMissingReason
	}

	entry, err := s.activityRepo.FindByID(ctx, s.db, logID)
	if err != nil {
		if err == activitydomain.ErrEntryNotFound {
			return domain.ErrConcessionNotFound
		}
		return err
	}
	if entry.EventType != activitydomain.EventConcessionApplied || entry.RoomID == nil || entry.Amount == nil {
		return domain.ErrConcessionNotFound
	}

	// the applied entry stores the amount negated; work with its magnitude
	amount := entry.Amount.Abs()

	err = s.withRoomTx(ctx, *entry.RoomID, func(tx *gorm.DB, room *roomdomain.Room) error {
		existing, err := s.activityRepo.FindReversalOf(ctx, tx, logID)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrAlreadyReversed
		}

		now := s.clock.Now()
		room.PendingAmount = room.PendingAmount.Add(amount)
		room.UpdatedAt = now
		if err := s.rooms.Update(ctx, tx, room); err != nil {
			return err
		}

		negated := amount.Neg()
		_, err = s.activity.AppendTx(ctx, tx, activitydomain.AppendRequest{
			RoomID:      entry.RoomID,
			RoomNumber:  room.RoomNumber,
			EventType:   activitydomain.EventConcessionReversed,
			Amount:      &negated,
			Description: fmt.Sprintf("Concession of %s reversed: %s", amount.StringFixed(2), reason),
			SourceLogID: &logID,
		})
		return err
	})
	if err != nil {
		return err
	}

	s.metrics.RecordReversal(ctx, string(domain.TransactionConcession))
	return nil
}

func (s *Service) UndoTransaction(ctx context.Context, req domain.UndoRequest) error {
	if !req.Type.Valid() {
		return domain.ErrUnknownTransaction
	}

	switch req.Type {
	case domain.TransactionPayment:
		_, err := s.ReversePayment(ctx, req.ID, req.Reason)
		return err
	case domain.TransactionRent:
		_, err := s.ReverseRent(ctx, req.ID, req.Reason)
		return err
	case domain.TransactionElectricity:
		_, err := s.ReverseElectricity(ctx, req.ID, req.Reason)
		return err
	case domain.TransactionConcession:
		return s.ReverseConcession(ctx, req.ID, req.Reason)
	default:
		return domain.ErrUnknownTransaction
	}
}

func (s *Service) ListUndoable(ctx context.Context, roomID *snowflake.ID, limit int) ([]domain.UndoableTransaction, error) {
	if limit <= 0 {
		limit = 50
	}

	rooms, err := s.rooms.List(ctx, s.db, false)
	if err != nil {
		return nil, err
	}
	roomNumbers := make(map[snowflake.ID]string, len(rooms))
	for _, r := range rooms {
		roomNumbers[r.ID] = r.RoomNumber
	}

	filter := domain.ListFilter{RoomID: roomID, ExcludeReversed: true, Limit: limit}
	out := make([]domain.UndoableTransaction, 0, limit*4)

	payments, err := s.repo.ListPayments(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}
	for _, p := range payments {
		out = append(out, domain.UndoableTransaction{
			Type:        domain.TransactionPayment,
			ID:          p.ID,
			RoomID:      p.RoomID,
			RoomNumber:  roomNumbers[p.RoomID],
			Amount:      p.Amount,
			Description: fmt.Sprintf("Payment via %s", p.PaymentMode),
			CreatedAt:   p.CreatedAt,
		})
	}

	entries, err := s.repo.ListRentEntries(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		out = append(out, domain.UndoableTransaction{
			Type:        domain.TransactionRent,
			ID:          e.ID,
			RoomID:      e.RoomID,
			RoomNumber:  roomNumbers[e.RoomID],
			Amount:      e.Amount,
			Description: fmt.Sprintf("Rent for %s %d", time.Month(e.Month), e.Year),
			CreatedAt:   e.CreatedAt,
		})
	}

	readings, err := s.repo.ListReadings(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}
	for _, r := range readings {
		out = append(out, domain.UndoableTransaction{
			Type:        domain.TransactionElectricity,
			ID:          r.ID,
			RoomID:      r.RoomID,
			RoomNumber:  roomNumbers[r.RoomID],
			Amount:      r.Amount,
			Description: fmt.Sprintf("Electricity bill (%s units)", r.UnitsConsumed.String()),
			CreatedAt:   r.CreatedAt,
		})
	}

	concessions, err := s.activityRepo.ListUnreversedConcessions(ctx, s.db, roomID, limit)
	if err != nil {
		return nil, err
	}
	for _, c := range concessions {
		if c.RoomID == nil {
			continue
		}
		amount := decimal.Zero
		if c.Amount != nil {
			amount = c.Amount.Abs()
		}
		out = append(out, domain.UndoableTransaction{
			Type:        domain.TransactionConcession,
			ID:          c.ID,
			RoomID:      *c.RoomID,
			RoomNumber:  c.RoomNumber,
			Amount:      amount,
			Description: c.Description,
			CreatedAt:   c.CreatedAt,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
