package server

import (
	"net/http"
	"strings"

	activitydomain "github.com/Sandeep241003/home-rent-ease/internal/activity/domain"
	"github.com/Sandeep241003/home-rent-ease/pkg/db/pagination"
	"github.com/gin-gonic/gin"
)

func (s *Server) ListActivity(c *gin.Context) {
	var query struct {
		RoomID           string `form:"room_id"`
		EventTypes       string `form:"event_types"`
		IncludeReversals string `form:"include_reversals"`
		StartAt          string `form:"start_at"`
		EndAt            string `form:"end_at"`
		PageToken        string `form:"page_token"`
		PageSize         int    `form:"page_size"`
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
	includeReversals, err := parseOptionalBool(query.IncludeReversals)
	if err != nil {
		AbortWithError(c, newValidationError("include_reversals", "invalid_include_reversals", "invalid include_reversals"))
		return
	}
	startAt, err := parseOptionalTime(query.StartAt, false)
	if err != nil {
		AbortWithError(c, newValidationError("start_at", "invalid_start_at", "invalid start_at"))
		return
	}
	endAt, err := parseOptionalTime(query.EndAt, true)
	if err != nil {
		AbortWithError(c, newValidationError("end_at", "invalid_end_at", "invalid end_at"))
		return
	}

	var eventTypes []activitydomain.EventType
	for _, raw := range strings.Split(query.EventTypes, ",") {
		trimmed := strings.ToUpper(strings.TrimSpace(raw))
		if trimmed == "" {
			continue
		}
		eventTypes = append(eventTypes, activitydomain.EventType(trimmed))
	}

	resp, err := s.activitySvc.List(c.Request.Context(), activitydomain.ListRequest{
		Pagination: pagination.Pagination{
			PageToken: strings.TrimSpace(query.PageToken),
			PageSize:  query.PageSize,
		},
		RoomID:     roomID,
		EventTypes: eventTypes,
		// the main feed hides reversal events unless asked for
		IncludeReversals: includeReversals != nil && *includeReversals,
		StartAt:          startAt,
		EndAt:            endAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
