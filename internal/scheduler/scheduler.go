package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/Sandeep241003/home-rent-ease/internal/clock"
	"github.com/Sandeep241003/home-rent-ease/internal/config"
	ledgerdomain "github.com/Sandeep241003/home-rent-ease/internal/ledger/domain"
	obsmetrics "github.com/Sandeep241003/home-rent-ease/internal/observability/metrics"
	roomdomain "github.com/Sandeep241003/home-rent-ease/internal/room/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// The rent sweep walks every active room and posts any month of rent that
// has come due but has no entry yet. Accrual itself is idempotent, so the
// sweep can be re-run at any time without double-charging; its job is only
// to decide WHICH periods are due for each room.
//
// A month's rent falls due on the room's rent day: the day-of-month of the
// joining date, clamped to the last day of shorter months. A room joined on
// the 31st is billed on Feb 28 (29 in leap years).

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Rooms   roomdomain.Repository
	Ledger  ledgerdomain.Service
	Policy  *config.PolicyConfigHolder
	Metrics *obsmetrics.SyncMetrics `optional:"true"`
}

type Scheduler struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	rooms   roomdomain.Repository
	ledger  ledgerdomain.Service
	policy  *config.PolicyConfigHolder
	metrics *obsmetrics.SyncMetrics
}

var ErrInvalidConfig = errors.New("scheduler: missing dependency")

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.Clock == nil || p.Rooms == nil || p.Ledger == nil || p.Policy == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		db:      p.DB,
		log:     p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		clock:   p.Clock,
		rooms:   p.Rooms,
		ledger:  p.Ledger,
		policy:  p.Policy,
		metrics: p.Metrics,
	}, nil
}

type SyncResult struct {
	RoomsProcessed int `json:"rooms_processed"`
	EntriesCreated int `json:"entries_created"`
	RoomErrors     int `json:"room_errors"`
}

// SyncRent runs one full sweep. Rooms are processed in id-ordered batches so
// a large property set does not load into memory at once. A failing room is
// logged and counted but does not stop the sweep.
func (s *Scheduler) SyncRent(ctx context.Context) (SyncResult, error) {
	start := s.clock.Now()
	policy := s.policy.Get().Sync

	var (
		result SyncResult
		jobErr error
		after  snowflake.ID
	)

	for {
		if err := ctx.Err(); err != nil {
			jobErr = errors.Join(jobErr, err)
			break
		}

		rooms, err := s.rooms.ListActiveBatch(ctx, s.db, after, policy.BatchSize)
		if err != nil {
			jobErr = errors.Join(jobErr, err)
			break
		}
		if len(rooms) == 0 {
			break
		}
		after = rooms[len(rooms)-1].ID

		for i := range rooms {
			room := &rooms[i]
			created, err := s.syncRoom(ctx, room, start, policy.BackfillMonths)
			result.RoomsProcessed++
			result.EntriesCreated += created
			if err != nil {
				result.RoomErrors++
				jobErr = errors.Join(jobErr, err)
				s.log.Warn("rent sweep failed for room",
					zap.String("room_id", room.ID.String()),
					zap.String("room_number", room.RoomNumber),
					zap.Error(err),
				)
			}
		}
	}

	elapsed := time.Since(start)
	outcome := "ok"
	if jobErr != nil {
		outcome = "error"
	}
	s.metrics.ObserveRun(outcome, elapsed)
	s.metrics.AddRoomsProcessed(result.RoomsProcessed)
	s.metrics.AddEntriesCreated(result.EntriesCreated)
	s.metrics.AddRoomErrors(result.RoomErrors)

	s.log.Info("rent sweep finished",
		zap.Int("rooms_processed", result.RoomsProcessed),
		zap.Int("entries_created", result.EntriesCreated),
		zap.Int("room_errors", result.RoomErrors),
		zap.Duration("elapsed", elapsed),
	)
	return result, jobErr
}

func (s *Scheduler) syncRoom(ctx context.Context, room *roomdomain.Room, now time.Time, backfillMonths int) (int, error) {
	created := 0
	for _, p := range duePeriods(room.JoiningDate, now, backfillMonths) {
		entry, err := s.ledger.AccrueRent(ctx, room.ID, p.month, p.year)
		if err != nil {
			return created, err
		}
		if entry != nil {
			created++
		}
	}
	return created, nil
}

type period struct {
	month int
	year  int
}

// duePeriods enumerates the months between the joining date and now whose
// rent day has passed, oldest first. A positive backfillMonths keeps only
// the most recent months; zero enumerates everything since joining.
func duePeriods(joined, now time.Time, backfillMonths int) []period {
	joined = joined.UTC()
	now = now.UTC()
	if now.Before(joined) && !samePeriod(joined, now) {
		return nil
	}

	var due []period
	y, m := joined.Year(), int(joined.Month())
	for {
		if y > now.Year() || (y == now.Year() && m > int(now.Month())) {
			break
		}
		if y == now.Year() && m == int(now.Month()) {
			if now.Day() >= rentDay(joined.Day(), m, y) {
				due = append(due, period{month: m, year: y})
			}
			break
		}
		due = append(due, period{month: m, year: y})
		m++
		if m > 12 {
			m = 1
			y++
		}
	}

	if backfillMonths > 0 && len(due) > backfillMonths {
		due = due[len(due)-backfillMonths:]
	}
	return due
}

// rentDay clamps the joining day-of-month to the length of the given month.
func rentDay(joinDay, month, year int) int {
	last := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if joinDay > last {
		return last
	}
	return joinDay
}

func samePeriod(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
