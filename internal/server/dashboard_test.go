package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	activitydomain "github.com/Sandeep241003/home-rent-ease/internal/activity/domain"
	activityrepository "github.com/Sandeep241003/home-rent-ease/internal/activity/repository"
	activityservice "github.com/Sandeep241003/home-rent-ease/internal/activity/service"
	"github.com/Sandeep241003/home-rent-ease/internal/cache"
	"github.com/Sandeep241003/home-rent-ease/internal/clock"
	ledgerdomain "github.com/Sandeep241003/home-rent-ease/internal/ledger/domain"
	ledgerrepository "github.com/Sandeep241003/home-rent-ease/internal/ledger/repository"
	ledgerservice "github.com/Sandeep241003/home-rent-ease/internal/ledger/service"
	roomdomain "github.com/Sandeep241003/home-rent-ease/internal/room/domain"
	roomrepository "github.com/Sandeep241003/home-rent-ease/internal/room/repository"
	roomservice "github.com/Sandeep241003/home-rent-ease/internal/room/service"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupDashboardServer(t *testing.T) (*Server, roomdomain.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

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

	node, err := snowflake.NewNode(6)
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
	roomSvc := roomservice.New(roomservice.Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    clk,
		Repo:     rooms,
		Activity: activitySvc,
		Ledger:   ledgerSvc,
	})

	return &Server{
		roomSvc:   roomSvc,
		summaries: cache.NewSummaryCache(),
	}, roomSvc
}

func getDashboardSummary(t *testing.T, s *Server) map[string]any {
	t.Helper()
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)

	s.GetDashboard(c)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			Summary map[string]any `json:"summary"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Data.Summary
}

func TestDashboardCacheInvalidatedByMutations(t *testing.T) {
	s, roomSvc := setupDashboardServer(t)

	room, err := roomSvc.Create(context.Background(), roomdomain.CreateRoomRequest{
		RoomNumber:          "101",
		Name:                "Asha",
		MonthlyRent:         decimal.RequireFromString("4000"),
		ElectricityRate:     decimal.RequireFromString("8"),
		InitialMeterReading: decimal.RequireFromString("1000"),
		JoiningDate:         time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	summary := getDashboardSummary(t, s)
	assert.EqualValues(t, 1, summary["active_rooms"])

	// deactivating through the handler must drop the cached totals
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	body := bytes.NewBufferString(`{"reason":"tenant moved out"}`)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/rooms/"+room.ID.String()+"/deactivate", body)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: room.ID.String()}}

	s.DeactivateRoom(c)
	require.Equal(t, http.StatusOK, rec.Code)

	summary = getDashboardSummary(t, s)
	assert.EqualValues(t, 0, summary["active_rooms"])
}
