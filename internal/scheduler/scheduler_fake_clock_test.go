package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	activitydomain "github.com/Sandeep241003/home-rent-ease/internal/activity/domain"
	activityrepository "github.com/Sandeep241003/home-rent-ease/internal/activity/repository"
	activityservice "github.com/Sandeep241003/home-rent-ease/internal/activity/service"
	"github.com/Sandeep241003/home-rent-ease/internal/clock"
	"github.com/Sandeep241003/home-rent-ease/internal/config"
	ledgerdomain "github.com/Sandeep241003/home-rent-ease/internal/ledger/domain"
	ledgerrepository "github.com/Sandeep241003/home-rent-ease/internal/ledger/repository"
	ledgerservice "github.com/Sandeep241003/home-rent-ease/internal/ledger/service"
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

type sweepFixture struct {
	scheduler *Scheduler
	rooms     roomdomain.Repository
	db        *gorm.DB
	node      *snowflake.Node
	clock     *clock.FakeClock
}

func setupSweep(t *testing.T, now time.Time) *sweepFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&roomdomain.Room{},
		&ledgerdomain.RentEntry{},
		&ledgerdomain.ElectricityReading{},
		&ledgerdomain.Payment{},
		&activitydomain.ActivityLog{},
	))

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	clk := clock.NewFakeClock(now)

	activityRepo := activityrepository.Provide()
	activitySvc := activityservice.New(activityservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Repo:  activityRepo,
	})

	rooms := roomrepository.Provide()
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

	sched, err := New(Params{
		DB:     db,
		Log:    zap.NewNop(),
		Clock:  clk,
		Rooms:  rooms,
		Ledger: ledgerSvc,
		Policy: config.NewStaticPolicyConfigHolder(config.DefaultPolicyConfig()),
	})
	require.NoError(t, err)

	return &sweepFixture{scheduler: sched, rooms: rooms, db: db, node: node, clock: clk}
}

func (f *sweepFixture) createRoom(t *testing.T, number string, joined time.Time, active bool) *roomdomain.Room {
	t.Helper()
	room := &roomdomain.Room{
		ID:          f.node.Generate(),
		RoomNumber:  number,
		Name:        "Ravi",
		MonthlyRent: decimal.RequireFromString("3000"),
		JoiningDate: joined,
		IsActive:    active,
		CreatedAt:   joined,
		UpdatedAt:   joined,
	}
	require.NoError(t, f.rooms.Insert(context.Background(), f.db, room))
	return room
}

func countRentEntries(t *testing.T, db *gorm.DB, roomID snowflake.ID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&ledgerdomain.RentEntry{}).Where("room_id = ?", roomID).Count(&n).Error)
	return n
}

func TestSyncRentBackfillsMissedMonths(t *testing.T) {
	f := setupSweep(t, time.Date(2025, time.March, 15, 3, 0, 0, 0, time.UTC))
	room := f.createRoom(t, "101", time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC), true)

	result, err := f.scheduler.SyncRent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.RoomsProcessed)
	assert.Equal(t, 3, result.EntriesCreated, "january, february, march")
	assert.Equal(t, 0, result.RoomErrors)

	got, err := f.rooms.FindByID(context.Background(), f.db, room.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("9000").Equal(got.PendingAmount))
}

func TestSyncRentIsIdempotent(t *testing.T) {
	f := setupSweep(t, time.Date(2025, time.March, 15, 3, 0, 0, 0, time.UTC))
	room := f.createRoom(t, "101", time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC), true)

	_, err := f.scheduler.SyncRent(context.Background())
	require.NoError(t, err)

	result, err := f.scheduler.SyncRent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.EntriesCreated)
	assert.EqualValues(t, 3, countRentEntries(t, f.db, room.ID))
}

func TestSyncRentClampsRentDayToShortMonth(t *testing.T) {
	// joined Jan 31; February's rent day is the 28th
	f := setupSweep(t, time.Date(2025, time.February, 27, 3, 0, 0, 0, time.UTC))
	room := f.createRoom(t, "101", time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC), true)

	result, err := f.scheduler.SyncRent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.EntriesCreated, "only january before the clamped rent day")

	f.clock.Set(time.Date(2025, time.February, 28, 3, 0, 0, 0, time.UTC))
	result, err = f.scheduler.SyncRent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.EntriesCreated, "february falls due on the 28th")
	assert.EqualValues(t, 2, countRentEntries(t, f.db, room.ID))
}

func TestSyncRentSkipsInactiveRooms(t *testing.T) {
	f := setupSweep(t, time.Date(2025, time.March, 15, 3, 0, 0, 0, time.UTC))
	f.createRoom(t, "101", time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC), false)

	result, err := f.scheduler.SyncRent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.RoomsProcessed)
	assert.Equal(t, 0, result.EntriesCreated)
}
