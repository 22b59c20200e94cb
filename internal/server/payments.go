package server

import (
	"net/http"
	"strings"
	"time"

	ledgerdomain "github.com/Sandeep241003/home-rent-ease/internal/ledger/domain"
	"github.com/Sandeep241003/home-rent-ease/internal/pdf"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type receivePaymentRequest struct {
	RoomID        string          `json:"room_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMode   string          `json:"payment_mode"`
	PaymentReason string          `json:"payment_reason"`
	ReasonNotes   string          `json:"reason_notes"`
	PaidBy        string          `json:"paid_by"`
	PaymentDate   string          `json:"payment_date"`
}

func (s *Server) ReceivePayment(c *gin.Context) {
	var req receivePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	roomID, err := parseSnowflakeID(req.RoomID)
	if err != nil {
		AbortWithError(c, newValidationError("room_id", "invalid_room_id", "invalid room id"))
		return
	}

	var paymentDate time.Time
	if parsed, err := parseOptionalTime(req.PaymentDate, false); err != nil {
		AbortWithError(c, newValidationError("payment_date", "invalid_payment_date", "invalid payment date"))
		return
	} else if parsed != nil {
		paymentDate = *parsed
	}

	payment, err := s.ledgerSvc.ReceivePayment(c.Request.Context(), ledgerdomain.ReceivePaymentRequest{
		RoomID:        roomID,
		Amount:        req.Amount,
		PaymentMode:   ledgerdomain.PaymentMode(strings.TrimSpace(req.PaymentMode)),
		PaymentReason: strings.TrimSpace(req.PaymentReason),
		ReasonNotes:   strings.TrimSpace(req.ReasonNotes),
		PaidBy:        strings.TrimSpace(req.PaidBy),
		PaymentDate:   paymentDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.summaries.Invalidate()
	c.JSON(http.StatusOK, gin.H{"data": payment})
}

func (s *Server) ListPayments(c *gin.Context) {
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

	payments, err := s.ledgerSvc.ListPayments(c.Request.Context(), roomID, effectiveLimit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": payments})
}

func (s *Server) GetPaymentByID(c *gin.Context) {
	id, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	payment, err := s.ledgerSvc.GetPayment(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": payment})
}

func (s *Server) GetPaymentReceipt(c *gin.Context) {
	id, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	payment, err := s.ledgerSvc.GetPayment(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	room, err := s.roomSvc.Get(c.Request.Context(), payment.RoomID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	notes := ""
	if payment.ReasonNotes != nil {
		notes = *payment.ReasonNotes
	}
	reader, err := s.receipts.GenerateReceipt(c.Request.Context(), pdf.ReceiptData{
		ReceiptNumber: payment.ID.String(),
		RoomNumber:    room.RoomNumber,
		TenantName:    room.DisplayName(),
		Amount:        payment.Amount.StringFixed(2),
		PaymentMode:   string(payment.PaymentMode),
		PaymentDate:   payment.PaymentDate.Format(dateOnlyLayout),
		PendingAfter:  room.PendingAmount.StringFixed(2),
		ExtraAfter:    room.ExtraBalance.StringFixed(2),
		Notes:         notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="receipt-`+payment.ID.String()+`.pdf"`)
	c.DataFromReader(http.StatusOK, -1, "application/pdf", reader, nil)
}
