package server

import (
	"net/http"
	"strings"

	ledgerdomain "github.com/Sandeep241003/home-rent-ease/internal/ledger/domain"
	"github.com/gin-gonic/gin"
)

type undoTransactionRequest struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

func (s *Server) ReversePayment(c *gin.Context) {
	id, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	var req reasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	payment, err := s.ledgerSvc.ReversePayment(c.Request.Context(), id, strings.TrimSpace(req.Reason))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.summaries.Invalidate()
	c.JSON(http.StatusOK, gin.H{"data": payment})
}

func (s *Server) ReverseRent(c *gin.Context) {
	id, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	var req reasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	entry, err := s.ledgerSvc.ReverseRent(c.Request.Context(), id, strings.TrimSpace(req.Reason))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.summaries.Invalidate()
	c.JSON(http.StatusOK, gin.H{"data": entry})
}

func (s *Server) ReverseElectricity(c *gin.Context) {
	id, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	var req reasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	reading, err := s.ledgerSvc.ReverseElectricity(c.Request.Context(), id, strings.TrimSpace(req.Reason))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.summaries.Invalidate()
	c.JSON(http.StatusOK, gin.H{"data": reading})
}

func (s *Server) ReverseConcession(c *gin.Context) {
	id, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	var req reasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.ledgerSvc.ReverseConcession(c.Request.Context(), id, strings.TrimSpace(req.Reason)); err != nil {
		AbortWithError(c, err)
		return
	}

	s.summaries.Invalidate()
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"reversed": true}})
}

func (s *Server) ListUndoable(c *gin.Context) {
	var query struct {
		RoomID string `form:"room_id"`
		Limit  string `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	roomID, err := parseOptionalSnowflakeID(query.RoomID)
	if err != nil {
		AbortWithError(c, newValidationError("room_id", "invalid_room_id", "invalid room id"))
		return
	}
	limit, err := parseOptionalInt(query.Limit)
	if err != nil {
		AbortWithError(c, newValidationError("limit", "invalid_limit", "invalid limit"))
		return
	}

	effectiveLimit := 0
	if limit != nil {
		effectiveLimit = *limit
	}

	transactions, err := s.ledgerSvc.ListUndoable(c.Request.Context(), roomID, effectiveLimit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": transactions})
}

func (s *Server) UndoTransaction(c *gin.Context) {
	var req undoTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	id, err := parseSnowflakeID(req.ID)
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	if err := s.ledgerSvc.UndoTransaction(c.Request.Context(), ledgerdomain.UndoRequest{
		Type:   ledgerdomain.TransactionType(strings.ToUpper(strings.TrimSpace(req.Type))),
		ID:     id,
		Reason: strings.TrimSpace(req.Reason),
	}); err != nil {
		AbortWithError(c, err)
		return
	}

	s.summaries.Invalidate()
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"undone": true}})
}
