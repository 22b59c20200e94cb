package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	activitydomain "github.com/Sandeep241003/home-rent-ease/internal/activity/domain"
	activityrepository "github.com/Sandeep241003/home-rent-ease/internal/activity/repository"
	activityservice "github.com/Sandeep241003/home-rent-ease/internal/activity/service"
	"github.com/Sandeep241003/home-rent-ease/internal/clock"
	"github.com/Sandeep241003/home-rent-ease/internal/ledger/domain"
	"github.com/Sandeep241003/home-rent-ease/internal/ledger/repository"
	roomdomain "github.com/Sandeep241003/home-rent-ease/internal/room/domain"
	roomrepository "github.com/Sandeep241003/home-rent-ease/internal/room/repository"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ledgerFixture struct {
	svc      domain.Service
	rooms    roomdomain.Repository
	activity activitydomain.Repository
	db       *gorm.DB
	node     *snowflake.Node
	clock    *clock.FakeClock
}

func setupLedger(t *testing.T) *ledgerFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&roomdomain.Room{},
		&domain.RentEntry{},
		&domain.ElectricityReading{},
		&domain.Payment{},
		&activitydomain.ActivityLog{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC))

	activityRepo := activityrepository.Provide()
	activitySvc := activityservice.New(activityservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Repo:  activityRepo,
	})

	rooms := roomrepository.Provide()
	svc := New(Params{
		DB:           db,
		Log:          zap.NewNop(),
		GenID:        node,
		Clock:        clk,
		Repo:         repository.Provide(),
		Rooms:        rooms,
		Activity:     activitySvc,
		ActivityRepo: activityRepo,
	})

	return &ledgerFixture{
		svc:      svc,
		rooms:    rooms,
		activity: activityRepo,
		db:       db,
		node:     node,
		clock:    clk,
	}
}

func (f *ledgerFixture) createRoom(t *testing.T, rent string) *roomdomain.Room {
	t.Helper()
	room := &roomdomain.Room{
		ID:                  f.node.Generate(),
		RoomNumber:          fmt.Sprintf("R-%d", f.node.Generate()%1000),
		Name:                "Asha",
		MonthlyRent:         decimal.RequireFromString(rent),
		ElectricityRate:     decimal.RequireFromString("8"),
		InitialMeterReading: decimal.RequireFromString("1000"),
		CurrentMeterReading: decimal.RequireFromString("1000"),
		JoiningDate:         time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC),
		IsActive:            true,
		CreatedAt:           f.clock.Now(),
		UpdatedAt:           f.clock.Now(),
	}
	require.NoError(t, f.rooms.Insert(context.Background(), f.db, room))
	return room
}

func (f *ledgerFixture) reload(t *testing.T, id snowflake.ID) *roomdomain.Room {
	t.Helper()
	room, err := f.rooms.FindByID(context.Background(), f.db, id)
	require.NoError(t, err)
	return room
}

func TestAccrueRentIdempotent(t *testing.T) {
	f := setupLedger(t)
	room := f.createRoom(t, "4000")
	ctx := context.Background()

	first, err := f.svc.AccrueRent(ctx, room.ID, 3, 2025)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.True(t, decimal.RequireFromString("4000").Equal(first.Amount))

	second, err := f.svc.AccrueRent(ctx, room.ID, 3, 2025)
	require.NoError(t, err)
	assert.Nil(t, second)

	got := f.reload(t, room.ID)
	assert.True(t, decimal.RequireFromString("4000").Equal(got.PendingAmount),
		"pending should reflect exactly one accrual, got %s", got.PendingAmount)
}

func TestAccrueRentValidatesPeriodAndRoomState(t *testing.T) {
	f := setupLedger(t)
	room := f.createRoom(t, "4000")
	ctx := context.Background()

	_, err := f.svc.AccrueRent(ctx, room.ID, 13, 2025)
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)

	room.IsActive = false
	require.NoError(t, f.rooms.Update(ctx, f.db, room))
	_, err = f.svc.AccrueRent(ctx, room.ID, 3, 2025)
	assert.ErrorIs(t, err, domain.ErrRoomInactive)
}

func TestAccrueRentDrawsExtraFirst(t *testing.T) {
	f := setupLedger(t)
	room := f.createRoom(t, "4000")
	ctx := context.Background()

	room.ExtraBalance = decimal.RequireFromString("1500")
	require.NoError(t, f.rooms.Update(ctx, f.db, room))

	_, err := f.svc.AccrueRent(ctx, room.ID, 3, 2025)
	require.NoError(t, err)

	got := f.reload(t, room.ID)
	assert.True(t, decimal.RequireFromString("2500").Equal(got.PendingAmount))
	assert.True(t, decimal.Zero.Equal(got.ExtraBalance))

	entries, err := f.activity.List(ctx, f.db, activitydomain.ListFilter{
		RoomID:     &room.ID,
		EventTypes: []activitydomain.EventType{activitydomain.EventExtraAdjusted},
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, decimal.RequireFromString("-1500").Equal(*entries[0].Amount))
}

func TestReceivePayment(t *testing.T) {
	f := setupLedger(t)
	room := f.createRoom(t, "4000")
	ctx := context.Background()

	_, err := f.svc.AccrueRent(ctx, room.ID, 3, 2025)
	require.NoError(t, err)

	payment, err := f.svc.ReceivePayment(ctx, domain.ReceivePaymentRequest{
		RoomID:      room.ID,
		Amount:      decimal.RequireFromString("2500"),
		PaymentMode: domain.PaymentModeUPI,
		PaidBy:      "Asha",
	})
	require.NoError(t, err)
	require.NotNil(t, payment)

	got := f.reload(t, room.ID)
	assert.True(t, decimal.RequireFromString("1500").Equal(got.PendingAmount))
	assert.True(t, decimal.Zero.Equal(got.ExtraBalance))
	assert.True(t, decimal.RequireFromString("2500").Equal(got.TotalPaid))
}

func TestReceivePaymentOverflowBecomesExtra(t *testing.T) {
	f := setupLedger(t)
	room := f.createRoom(t, "4000")
	ctx := context.Background()

	_, err := f.svc.AccrueRent(ctx, room.ID, 3, 2025)
	require.NoError(t, err)

	_, err = f.svc.ReceivePayment(ctx, domain.ReceivePaymentRequest{
		RoomID:      room.ID,
		Amount:      decimal.RequireFromString("5000"),
		PaymentMode: domain.PaymentModeCash,
	})
	require.NoError(t, err)

	got := f.reload(t, room.ID)
	assert.True(t, decimal.Zero.Equal(got.PendingAmount))
	assert.True(t, decimal.RequireFromString("1000").Equal(got.ExtraBalance))

	entries, err := f.activity.List(ctx, f.db, activitydomain.ListFilter{
		RoomID:     &room.ID,
		EventTypes: []activitydomain.EventType{activitydomain.EventExtraAdded},
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, decimal.RequireFromString("1000").Equal(*entries[0].Amount))
}

func TestReceivePaymentRejectsInvalidInput(t *testing.T) {
	f := setupLedger(t)
	room := f.createRoom(t, "4000")
	ctx := context.Background()

	_, err := f.svc.ReceivePayment(ctx, domain.ReceivePaymentRequest{
		RoomID:      room.ID,
		Amount:      decimal.Zero,
		PaymentMode: domain.PaymentModeCash,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = f.svc.ReceivePayment(ctx, domain.ReceivePaymentRequest{
		RoomID:      room.ID,
		Amount:      decimal.RequireFromString("100"),
		PaymentMode: domain.PaymentMode("Barter"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPaymentMode)
}

func TestBillElectricity(t *testing.T) {
	f := setupLedger(t)
	room := f.createRoom(t, "4000")
	ctx := context.Background()

	reading, err := f.svc.BillElectricity(ctx, domain.BillElectricityRequest{
		RoomID:         room.ID,
		CurrentReading: decimal.RequireFromString("1050"),
	})
	require.NoError(t, err)
	require.NotNil(t, reading)
	assert.True(t, decimal.RequireFromString("50").Equal(reading.UnitsConsumed))
	assert.True(t, decimal.RequireFromString("400").Equal(reading.Amount), "50 units at rate 8")

	got := f.reload(t, room.ID)
	assert.True(t, decimal.RequireFromString("400").Equal(got.PendingAmount))
	assert.True(t, decimal.RequireFromString("1050").Equal(got.CurrentMeterReading))

	_, err = f.svc.BillElectricity(ctx, domain.BillElectricityRequest{
		RoomID:         room.ID,
		CurrentReading: decimal.RequireFromString("1040"),
	})
	assert.ErrorIs(t, err, domain.ErrReadingBelowCurrent)
}

func TestApplyConcession(t *testing.T) {
	f := setupLedger(t)
	room := f.createRoom(t, "4000")
	ctx := context.Background()

	_, err := f.svc.AccrueRent(ctx, room.ID, 3, 2025)
	require.NoError(t, err)

	_, err = f.svc.ApplyConcession(ctx, domain.ApplyConcessionRequest{
		RoomID: room.ID,
		Amount: decimal.RequireFromString("5000"),
		Reason: "festival discount",
	})
	assert.ErrorIs(t, err, domain.ErrConcessionExceedsPending)

	entry, err := f.svc.ApplyConcession(ctx, domain.ApplyConcessionRequest{
		RoomID: room.ID,
		Amount: decimal.RequireFromString("500"),
		Reason: "festival discount",
	})
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.NotNil(t, entry.Amount)
	assert.True(t, decimal.RequireFromString("-500").Equal(*entry.Amount),
		"concession log amount is negative")

	got := f.reload(t, room.ID)
	assert.True(t, decimal.RequireFromString("3500").Equal(got.PendingAmount))
}

func TestReversePaymentRestoresBalances(t *testing.T) {
	f := setupLedger(t)
	room := f.createRoom(t, "4000")
	ctx := context.Background()

	_, err := f.svc.AccrueRent(ctx, room.ID, 3, 2025)
	require.NoError(t, err)

	payment, err := f.svc.ReceivePayment(ctx, domain.ReceivePaymentRequest{
		RoomID:      room.ID,
		Amount:      decimal.RequireFromString("5000"),
		PaymentMode: domain.PaymentModeBank,
	})
	require.NoError(t, err)

	reversed, err := f.svc.ReversePayment(ctx, payment.ID, "bounced transfer")
	require.NoError(t, err)
	assert.True(t, reversed.IsReversed)

	got := f.reload(t, room.ID)
	assert.True(t, decimal.RequireFromString("4000").Equal(got.PendingAmount))
	assert.True(t, decimal.Zero.Equal(got.ExtraBalance))
	assert.True(t, decimal.Zero.Equal(got.TotalPaid))

	entries, err := f.activity.List(ctx, f.db, activitydomain.ListFilter{
		RoomID:     &room.ID,
		EventTypes: []activitydomain.EventType{activitydomain.EventPaymentReversed},
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, decimal.RequireFromString("-5000").Equal(*entries[0].Amount),
		"reversal log amount is negative")

	_, err = f.svc.ReversePayment(ctx, payment.ID, "again")
	assert.ErrorIs(t, err, domain.ErrAlreadyReversed)
}

func TestReverseRentFloorsPendingKeepsExtra(t *testing.T) {
	f := setupLedger(t)
	room := f.createRoom(t, "4000")
	ctx := context.Background()

	entry, err := f.svc.AccrueRent(ctx, room.ID, 3, 2025)
	require.NoError(t, err)

	_, err = f.svc.ReceivePayment(ctx, domain.ReceivePaymentRequest{
		RoomID:      room.ID,
		Amount:      decimal.RequireFromString("4500"),
		PaymentMode: domain.PaymentModeCash,
	})
	require.NoError(t, err)

	// pending 0, extra 500; reversing the rent must not refund the extra
	_, err = f.svc.ReverseRent(ctx, entry.ID, "posted to wrong room")
	require.NoError(t, err)

	got := f.reload(t, room.ID)
	assert.True(t, decimal.Zero.Equal(got.PendingAmount))
	assert.True(t, decimal.RequireFromString("500").Equal(got.ExtraBalance))
}

func TestReverseElectricityRollsBackMeter(t *testing.T) {
	f := setupLedger(t)
	room := f.createRoom(t, "4000")
	ctx := context.Background()

	reading, err := f.svc.BillElectricity(ctx, domain.BillElectricityRequest{
		RoomID:         room.ID,
		CurrentReading: decimal.RequireFromString("1100"),
	})
	require.NoError(t, err)

	_, err = f.svc.ReverseElectricity(ctx, reading.ID, "misread meter")
	require.NoError(t, err)

	got := f.reload(t, room.ID)
	assert.True(t, decimal.Zero.Equal(got.PendingAmount))
	assert.True(t, decimal.RequireFromString("1000").Equal(got.CurrentMeterReading))
}

func TestReverseConcession(t *testing.T) {
	f := setupLedger(t)
	room := f.createRoom(t, "4000")
	ctx := context.Background()

	_, err := f.svc.AccrueRent(ctx, room.ID, 3, 2025)
	require.NoError(t, err)

	entry, err := f.svc.ApplyConcession(ctx, domain.ApplyConcessionRequest{
		RoomID: room.ID,
		Amount: decimal.RequireFromString("500"),
		Reason: "festival discount",
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.ReverseConcession(ctx, entry.ID, "applied twice"))

	got := f.reload(t, room.ID)
	assert.True(t, decimal.RequireFromString("4000").Equal(got.PendingAmount))

	reversals, err := f.activity.List(ctx, f.db, activitydomain.ListFilter{
		RoomID:     &room.ID,
		EventTypes: []activitydomain.EventType{activitydomain.EventConcessionReversed},
	})
	require.NoError(t, err)
	require.Len(t, reversals, 1)
	assert.True(t, decimal.RequireFromString("-500").Equal(*reversals[0].Amount))

	err = f.svc.ReverseConcession(ctx, entry.ID, "and again")
	assert.ErrorIs(t, err, domain.ErrAlreadyReversed)
}

func TestReversalsRequireReason(t *testing.T) {
	f := setupLedger(t)
	room := f.createRoom(t, "4000")
	ctx := context.Background()

	entry, err := f.svc.AccrueRent(ctx, room.ID, 3, 2025)
	require.NoError(t, err)

	_, err = f.svc.ReverseRent(ctx, entry.ID, "  ")
	assert.ErrorIs(t, err, domain.ErrMissingReason)
}

func TestUndoTransactionDispatch(t *testing.T) {
	f := setupLedger(t)
	room := f.createRoom(t, "4000")
	ctx := context.Background()

	entry, err := f.svc.AccrueRent(ctx, room.ID, 3, 2025)
	require.NoError(t, err)

	err = f.svc.UndoTransaction(ctx, domain.UndoRequest{
		Type:   domain.TransactionType("REFUND"),
		ID:     entry.ID,
		Reason: "x",
	})
	assert.ErrorIs(t, err, domain.ErrUnknownTransaction)

	err = f.svc.UndoTransaction(ctx, domain.UndoRequest{
		Type:   domain.TransactionRent,
		ID:     entry.ID,
		Reason: "wrong month",
	})
	require.NoError(t, err)

	got := f.reload(t, room.ID)
	assert.True(t, decimal.Zero.Equal(got.PendingAmount))
}

func TestListUndoableExcludesReversed(t *testing.T) {
	f := setupLedger(t)
	room := f.createRoom(t, "4000")
	ctx := context.Background()

	entry, err := f.svc.AccrueRent(ctx, room.ID, 3, 2025)
	require.NoError(t, err)
	f.clock.Advance(time.Minute)

	payment, err := f.svc.ReceivePayment(ctx, domain.ReceivePaymentRequest{
		RoomID:      room.ID,
		Amount:      decimal.RequireFromString("1000"),
		PaymentMode: domain.PaymentModeCash,
	})
	require.NoError(t, err)
	f.clock.Advance(time.Minute)

	concession, err := f.svc.ApplyConcession(ctx, domain.ApplyConcessionRequest{
		RoomID: room.ID,
		Amount: decimal.RequireFromString("200"),
		Reason: "goodwill",
	})
	require.NoError(t, err)

	undoable, err := f.svc.ListUndoable(ctx, &room.ID, 10)
	require.NoError(t, err)
	require.Len(t, undoable, 3)
	// newest first
	assert.Equal(t, domain.TransactionConcession, undoable[0].Type)
	assert.Equal(t, concession.ID, undoable[0].ID)
	assert.True(t, decimal.RequireFromString("200").Equal(undoable[0].Amount),
		"undoable list shows the concession magnitude")
	assert.Equal(t, domain.TransactionPayment, undoable[1].Type)
	assert.Equal(t, domain.TransactionRent, undoable[2].Type)
	assert.Equal(t, room.RoomNumber, undoable[2].RoomNumber)

	_, err = f.svc.ReversePayment(ctx, payment.ID, "bounced")
	require.NoError(t, err)
	require.NoError(t, f.svc.ReverseConcession(ctx, concession.ID, "retracted"))

	undoable, err = f.svc.ListUndoable(ctx, &room.ID, 10)
	require.NoError(t, err)
	require.Len(t, undoable, 1)
	assert.Equal(t, entry.ID, undoable[0].ID)
}
