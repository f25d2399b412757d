package api

import (
	"github.com/gin-gonic/gin"
	"github.com/yourname/healthday/internal"
	"github.com/yourname/healthday/internal/service"
)

type DayResponse struct {
	SelectedDate internal.Date          `json:"selected_date"`
	MetricsDate  *internal.Date         `json:"metrics_date,omitempty"`
	Loading      bool                   `json:"loading"`
	Token        uint64                 `json:"token"`
	Metrics      internal.DayMetrics    `json:"metrics"`
	Display      service.DisplayMetrics `json:"display"`
	Error        string                 `json:"error,omitempty"`
}

func newDayResponse(s service.DayState) DayResponse {
	resp := DayResponse{
		SelectedDate: s.SelectedDate,
		Loading:      s.Loading,
		Token:        s.Token,
		Metrics:      s.Metrics,
		Display:      service.Display(s.Metrics),
	}
	if !s.MetricsDate.IsZero() {
		d := s.MetricsDate
		resp.MetricsDate = &d
	}
	if s.Err != nil {
		resp.Error = s.Err.Error()
	}
	return resp
}

type SelectDateRequest struct {
	Date internal.Date `json:"date"`
}

func GetDay(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		HandleSuccess(c, app.Logger(), newDayResponse(app.View().State()), nil)
	}
}

func PutDay(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SelectDateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid request: date required")
			return
		}
		token, err := app.View().SelectDate(req.Date)
		if err != nil {
			HandleError(c, app.Logger(), err, StatusFor(err), "Failed to select date")
			return
		}
		HandleSuccess(c, app.Logger(), newDayResponse(app.View().State()), map[string]any{"token": token})
	}
}

// PageDay moves the selection by delta days.
func PageDay(app App, delta int) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := app.View().PageBy(delta)
		if err != nil {
			HandleError(c, app.Logger(), err, StatusFor(err), "Failed to change day")
			return
		}
		HandleSuccess(c, app.Logger(), newDayResponse(app.View().State()), map[string]any{"token": token})
	}
}

func ReloadDay(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := app.View().Reload()
		if err != nil {
			HandleError(c, app.Logger(), err, StatusFor(err), "Failed to reload day")
			return
		}
		HandleSuccess(c, app.Logger(), newDayResponse(app.View().State()), map[string]any{"token": token})
	}
}
