package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/Sandeep241003/home-rent-ease/internal/activity"
	activitydomain "github.com/Sandeep241003/home-rent-ease/internal/activity/domain"
	"github.com/Sandeep241003/home-rent-ease/internal/cache"
	"github.com/Sandeep241003/home-rent-ease/internal/config"
	"github.com/Sandeep241003/home-rent-ease/internal/ledger"
	ledgerdomain "github.com/Sandeep241003/home-rent-ease/internal/ledger/domain"
	"github.com/Sandeep241003/home-rent-ease/internal/observability"
	obsmiddleware "github.com/Sandeep241003/home-rent-ease/internal/observability/logger"
	obstracing "github.com/Sandeep241003/home-rent-ease/internal/observability/tracing"
	"github.com/Sandeep241003/home-rent-ease/internal/pdf"
	"github.com/Sandeep241003/home-rent-ease/internal/room"
	roomdomain "github.com/Sandeep241003/home-rent-ease/internal/room/domain"
	"github.com/Sandeep241003/home-rent-ease/internal/scheduler"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	room.Module,
	ledger.Module,
	activity.Module,
	pdf.Module,
	fx.Provide(cache.NewSummaryCache),
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config) *gin.Engine {
	return NewEngine(obsCfg)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	roomSvc     roomdomain.Service
	ledgerSvc   ledgerdomain.Service
	activitySvc activitydomain.Service
	receipts    pdf.Provider
	summaries   cache.SummaryCache
	scheduler   *scheduler.Scheduler
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	RoomSvc     roomdomain.Service
	LedgerSvc   ledgerdomain.Service
	ActivitySvc activitydomain.Service
	Receipts    pdf.Provider
	Summaries   cache.SummaryCache
	Scheduler   *scheduler.Scheduler `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		roomSvc:     p.RoomSvc,
		ledgerSvc:   p.LedgerSvc,
		activitySvc: p.ActivitySvc,
		receipts:    p.Receipts,
		summaries:   p.Summaries,
		scheduler:   p.Scheduler,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Rooms --------
	api.GET("/rooms", s.ListRooms)
	api.POST("/rooms", s.CreateRoom)
	api.GET("/rooms/:id", s.GetRoomByID)
	api.PATCH("/rooms/:id", s.UpdateRoom)
	api.POST("/rooms/:id/deactivate", s.DeactivateRoom)
	api.POST("/rooms/:id/reactivate", s.ReactivateRoom)
	api.POST("/rooms/:id/members", s.ApplyMemberChange)
	api.GET("/rooms/:id/ledger", s.GetRoomLedger)

	// -------- Charges --------
	api.POST("/rooms/:id/rent", s.AccrueRent)
	api.POST("/rooms/:id/electricity", s.BillElectricity)
	api.POST("/rooms/:id/concessions", s.ApplyConcession)

	// -------- Payments --------
	api.GET("/payments", s.ListPayments)
	api.POST("/payments", s.ReceivePayment)
	api.GET("/payments/:id", s.GetPaymentByID)
	api.GET("/payments/:id/receipt", s.GetPaymentReceipt)

	// -------- Reversals --------
	api.POST("/payments/:id/reverse", s.ReversePayment)
	api.POST("/rent/:id/reverse", s.ReverseRent)
	api.POST("/electricity/:id/reverse", s.ReverseElectricity)
	api.POST("/concessions/:id/reverse", s.ReverseConcession)
	api.GET("/transactions/undoable", s.ListUndoable)
	api.POST("/transactions/undo", s.UndoTransaction)

	// -------- Activity / Dashboard --------
	api.GET("/activity", s.ListActivity)
	api.GET("/dashboard", s.GetDashboard)

	// -------- Rent sweep --------
	api.POST("/rent/sync", s.TriggerRentSync)
}
