package server

import (
	"net/http"
	"strings"

	ledgerdomain "github.com/Sandeep241003/home-rent-ease/internal/ledger/domain"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type accrueRentRequest struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

type billElectricityRequest struct {
	CurrentReading decimal.Decimal `json:"current_reading"`
}

type applyConcessionRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
}

func (s *Server) AccrueRent(c *gin.Context) {
	roomID, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	var req accrueRentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	entry, err := s.ledgerSvc.AccrueRent(c.Request.Context(), roomID, req.Month, req.Year)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if entry == nil {
		// period already billed; report it rather than silently succeeding
		c.JSON(http.StatusOK, gin.H{"data": nil, "already_billed": true})
		return
	}

	s.summaries.Invalidate()
	c.JSON(http.StatusOK, gin.H{"data": entry})
}

func (s *Server) BillElectricity(c *gin.Context) {
	roomID, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	var req billElectricityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	reading, err := s.ledgerSvc.BillElectricity(c.Request.Context(), ledgerdomain.BillElectricityRequest{
		RoomID:         roomID,
		CurrentReading: req.CurrentReading,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.summaries.Invalidate()
	c.JSON(http.StatusOK, gin.H{"data": reading})
}

func (s *Server) ApplyConcession(c *gin.Context) {
	roomID, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	var req applyConcessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	entry, err := s.ledgerSvc.ApplyConcession(c.Request.Context(), ledgerdomain.ApplyConcessionRequest{
		RoomID: roomID,
		Amount: req.Amount,
		Reason: strings.TrimSpace(req.Reason),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.summaries.Invalidate()
	c.JSON(http.StatusOK, gin.H{"data": entry})
}

func (s *Server) GetRoomLedger(c *gin.Context) {
	roomID, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	view, err := s.ledgerSvc.Ledger(c.Request.Context(), roomID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": view})
}

func (s *Server) TriggerRentSync(c *gin.Context) {
	if s.scheduler == nil {
		AbortWithError(c, ErrInternal)
		return
	}

	result, err := s.scheduler.SyncRent(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if result.EntriesCreated > 0 {
		s.summaries.Invalidate()
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}
