package server

import (
	"net/http"
	"strings"
	"time"

	roomdomain "github.com/Sandeep241003/home-rent-ease/internal/room/domain"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type memberRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	JoinedAt string `json:"joined_at"`
}

type createRoomRequest struct {
	RoomNumber          string          `json:"room_number"`
	Name                string          `json:"name"`
	MonthlyRent         decimal.Decimal `json:"monthly_rent"`
	ElectricityRate     decimal.Decimal `json:"electricity_rate"`
	InitialMeterReading decimal.Decimal `json:"initial_meter_reading"`
	JoiningDate         string          `json:"joining_date"`
	Members             []memberRequest `json:"members"`
}

type updateRoomRequest struct {
	Name            *string          `json:"name,omitempty"`
	MonthlyRent     *decimal.Decimal `json:"monthly_rent,omitempty"`
	ElectricityRate *decimal.Decimal `json:"electricity_rate,omitempty"`
}

type memberChangeRequest struct {
	Index       *int   `json:"index,omitempty"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	JoinedAt    string `json:"joined_at"`
	Discontinue bool   `json:"discontinue"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	joiningDate, err := parseOptionalTime(req.JoiningDate, false)
	if err != nil || joiningDate == nil {
		AbortWithError(c, newValidationError("joining_date", "invalid_joining_date", "invalid joining date"))
		return
	}

	members := make([]roomdomain.Member, 0, len(req.Members))
	for _, m := range req.Members {
		joined := *joiningDate
		if parsed, err := parseOptionalTime(m.JoinedAt, false); err == nil && parsed != nil {
			joined = *parsed
		}
		members = append(members, roomdomain.Member{
			Name:     strings.TrimSpace(m.Name),
			Phone:    strings.TrimSpace(m.Phone),
			JoinedAt: joined,
			IsActive: true,
		})
	}

	resp, err := s.roomSvc.Create(c.Request.Context(), roomdomain.CreateRoomRequest{
		RoomNumber:          strings.TrimSpace(req.RoomNumber),
		Name:                strings.TrimSpace(req.Name),
		MonthlyRent:         req.MonthlyRent,
		ElectricityRate:     req.ElectricityRate,
		InitialMeterReading: req.InitialMeterReading,
		JoiningDate:         *joiningDate,
		Members:             members,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.summaries.Invalidate()
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListRooms(c *gin.Context) {
	var query struct {
		ActiveOnly string `form:"active_only"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	activeOnly, err := parseOptionalBool(query.ActiveOnly)
	if err != nil {
		AbortWithError(c, newValidationError("active_only", "invalid_active_only", "invalid active_only"))
		return
	}

	resp, err := s.roomSvc.List(c.Request.Context(), roomdomain.ListRoomsRequest{
		ActiveOnly: activeOnly != nil && *activeOnly,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetRoomByID(c *gin.Context) {
	id, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	resp, err := s.roomSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateRoom(c *gin.Context) {
	id, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	var req updateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.roomSvc.Update(c.Request.Context(), id, roomdomain.UpdateRoomRequest{
		Name:            trimStringPtr(req.Name),
		MonthlyRent:     req.MonthlyRent,
		ElectricityRate: req.ElectricityRate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeactivateRoom(c *gin.Context) {
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

	resp, err := s.roomSvc.Deactivate(c.Request.Context(), id, strings.TrimSpace(req.Reason))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.summaries.Invalidate()
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ReactivateRoom(c *gin.Context) {
	id, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	resp, err := s.roomSvc.Reactivate(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.summaries.Invalidate()
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ApplyMemberChange(c *gin.Context) {
	id, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	var req memberChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var joinedAt *time.Time
	if parsed, err := parseOptionalTime(req.JoinedAt, false); err == nil {
		joinedAt = parsed
	}

	resp, err := s.roomSvc.ApplyMemberChange(c.Request.Context(), id, roomdomain.MemberChange{
		Index:       req.Index,
		Name:        strings.TrimSpace(req.Name),
		Phone:       strings.TrimSpace(req.Phone),
		JoinedAt:    joinedAt,
		Discontinue: req.Discontinue,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
