package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetDashboard(c *gin.Context) {
	summary, ok := s.summaries.Get()
	if !ok {
		fresh, err := s.roomSvc.Summary(c.Request.Context())
		if err != nil {
			AbortWithError(c, err)
			return
		}
		s.summaries.Set(fresh)
		summary = fresh
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"property_name": s.cfg.PropertyName,
			"currency_code": s.cfg.CurrencyCode,
			"summary":       summary,
		},
	})
}
