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
	ledgerdomain "github.com/Sandeep241003/home-rent-ease/internal/ledger/domain"
	ledgerrepository "github.com/Sandeep241003/home-rent-ease/internal/ledger/repository"
	ledgerservice "github.com/Sandeep241003/home-rent-ease/internal/ledger/service"
	"github.com/Sandeep241003/home-rent-ease/internal/room/domain"
	"github.com/Sandeep241003/home-rent-ease/internal/room/repository"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type roomFixture struct {
	svc      domain.Service
	activity activitydomain.Repository
	db       *gorm.DB
	clock    *clock.FakeClock
}

func setupRooms(t *testing.T) *roomFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&domain.Room{},
		&ledgerdomain.RentEntry{},
		&ledgerdomain.ElectricityReading{},
		&ledgerdomain.Payment{},
		&activitydomain.ActivityLog{},
	))

	node, err := snowflake.NewNode(3)
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

	rooms := repository.Provide()
	ledgerSvc := ledgerservice.New(ledgerservice.Params{
		DB:           db,
		Log:          zap.NewNop(),
		GenID:        node,
		Clock:        clk,
		Repo:         ledgerrepository.Provide(),
		Rooms:        rooms,
		Activity:     activitySvc,
		ActivityRepo: activityRepo,
	})

	svc := New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    clk,
		Repo:     rooms,
		Activity: activitySvc,
		Ledger:   ledgerSvc,
	})

	return &roomFixture{svc: svc, activity: activityRepo, db: db, clock: clk}
}

func createReq(number string) domain.CreateRoomRequest {
	return domain.CreateRoomRequest{
		RoomNumber:          number,
		MonthlyRent:         decimal.RequireFromString("4000"),
		ElectricityRate:     decimal.RequireFromString("8"),
		InitialMeterReading: decimal.RequireFromString("1000"),
		JoiningDate:         time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
		Members:             []domain.Member{{Name: "Asha", Phone: "9876500001"}},
	}
}

func TestCreateRoomAccruesJoiningMonth(t *testing.T) {
	f := setupRooms(t)

	room, err := f.svc.Create(context.Background(), createReq("101"))
	require.NoError(t, err)

	assert.Equal(t, "101", room.RoomNumber)
	assert.Equal(t, "Asha", room.Name, "display name comes from members")
	assert.True(t, room.IsActive)
	assert.True(t, decimal.RequireFromString("4000").Equal(room.PendingAmount), "march rent due on creation")
	require.Len(t, room.Members, 1)
	assert.Equal(t, room.JoiningDate, room.Members[0].JoinedAt, "member joined date defaults to joining date")

	var entries []ledgerdomain.RentEntry
	require.NoError(t, f.db.Where("room_id = ?", room.ID).Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, 3, entries[0].Month)
	assert.Equal(t, 2025, entries[0].Year)

	created, err := f.activity.List(context.Background(), f.db, activitydomain.ListFilter{
		RoomID:     &room.ID,
		EventTypes: []activitydomain.EventType{activitydomain.EventRoomCreated},
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Nil(t, created[0].Amount, "room creation carries no amount")
}

func TestCreateRoomFutureJoiningDateDefersRent(t *testing.T) {
	f := setupRooms(t)

	req := createReq("101")
	req.JoiningDate = time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)
	room, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, room.PendingAmount.IsZero(), "no rent before the joining month arrives")
}

func TestCreateRoomValidation(t *testing.T) {
	f := setupRooms(t)
	ctx := context.Background()

	req := createReq("  ")
	_, err := f.svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidRoomNumber)

	req = createReq("101")
	req.MonthlyRent = decimal.Zero
	_, err = f.svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidRent)

	req = createReq("101")
	req.ElectricityRate = decimal.RequireFromString("-1")
	_, err = f.svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidRate)

	req = createReq("101")
	req.JoiningDate = time.Time{}
	_, err = f.svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidJoiningDate)

	req = createReq("101")
	req.Members = []domain.Member{{Name: "   "}}
	_, err = f.svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidMember)
}

func TestCreateRoomDuplicateNumber(t *testing.T) {
	f := setupRooms(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, createReq("101"))
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, createReq("101"))
	assert.ErrorIs(t, err, domain.ErrRoomNumberTaken)
}

func TestUpdateRoom(t *testing.T) {
	f := setupRooms(t)
	ctx := context.Background()

	room, err := f.svc.Create(ctx, createReq("101"))
	require.NoError(t, err)

	rent := decimal.RequireFromString("4500")
	updated, err := f.svc.Update(ctx, room.ID, domain.UpdateRoomRequest{MonthlyRent: &rent})
	require.NoError(t, err)
	assert.True(t, rent.Equal(updated.MonthlyRent))

	bad := decimal.Zero
	_, err = f.svc.Update(ctx, room.ID, domain.UpdateRoomRequest{MonthlyRent: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidRent)
}

func TestDeactivateReactivate(t *testing.T) {
	f := setupRooms(t)
	ctx := context.Background()

	room, err := f.svc.Create(ctx, createReq("101"))
	require.NoError(t, err)

	_, err = f.svc.Deactivate(ctx, room.ID, "  ")
	assert.ErrorIs(t, err, domain.ErrMissingReason)

	updated, err := f.svc.Deactivate(ctx, room.ID, "tenant moved out")
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	require.NotNil(t, updated.DiscontinuedReason)
	assert.Equal(t, "tenant moved out", *updated.DiscontinuedReason)
	assert.NotNil(t, updated.DiscontinuedAt)

	_, err = f.svc.Deactivate(ctx, room.ID, "again")
	assert.ErrorIs(t, err, domain.ErrRoomAlreadyInactive)

	updated, err = f.svc.Reactivate(ctx, room.ID)
	require.NoError(t, err)
	assert.True(t, updated.IsActive)
	assert.Nil(t, updated.DiscontinuedReason)
	assert.Nil(t, updated.DiscontinuedAt)

	_, err = f.svc.Reactivate(ctx, room.ID)
	assert.ErrorIs(t, err, domain.ErrRoomAlreadyActive)
}

func TestApplyMemberChange(t *testing.T) {
	f := setupRooms(t)
	ctx := context.Background()

	room, err := f.svc.Create(ctx, createReq("101"))
	require.NoError(t, err)

	updated, err := f.svc.ApplyMemberChange(ctx, room.ID, domain.MemberChange{Name: "Ravi"})
	require.NoError(t, err)
	require.Len(t, updated.Members, 2)
	assert.Equal(t, "Asha & Ravi", updated.Name)

	idx := 0
	updated, err = f.svc.ApplyMemberChange(ctx, room.ID, domain.MemberChange{Index: &idx, Discontinue: true})
	require.NoError(t, err)
	assert.False(t, updated.Members[0].IsActive)
	assert.NotNil(t, updated.Members[0].DiscontinuedAt)
	assert.Equal(t, "Ravi", updated.Name, "display name drops discontinued members")

	_, err = f.svc.ApplyMemberChange(ctx, room.ID, domain.MemberChange{Index: &idx, Discontinue: true})
	assert.ErrorIs(t, err, domain.ErrInvalidMember, "cannot discontinue twice")

	bad := 9
	_, err = f.svc.ApplyMemberChange(ctx, room.ID, domain.MemberChange{Index: &bad, Name: "X"})
	assert.ErrorIs(t, err, domain.ErrInvalidMember)
}

func TestSummary(t *testing.T) {
	f := setupRooms(t)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, createReq("101"))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, createReq("102"))
	require.NoError(t, err)
	_, err = f.svc.Deactivate(ctx, a.ID, "vacated")
	require.NoError(t, err)

	summary, err := f.svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalRooms)
	assert.Equal(t, 1, summary.ActiveRooms)
	assert.True(t, decimal.RequireFromString("4000").Equal(summary.TotalPending), "only active rooms count toward pending")
}
