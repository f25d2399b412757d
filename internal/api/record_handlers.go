package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yourname/healthday/internal"
)

type StepsRequest struct {
	Count  *int64    `json:"count" binding:"required,gte=0"`
	Start  time.Time `json:"start" binding:"required"`
	End    time.Time `json:"end" binding:"required"`
	Manual bool      `json:"manual"`
	Device string    `json:"device"`
}

type HeartRateRequest struct {
	Start   time.Time                  `json:"start" binding:"required"`
	End     time.Time                  `json:"end" binding:"required"`
	Samples []internal.HeartRateSample `json:"samples" binding:"required,min=1"`
	Manual  bool                       `json:"manual"`
	Device  string                     `json:"device"`
}

type SleepRequest struct {
	Start  time.Time `json:"start" binding:"required"`
	End    time.Time `json:"end" binding:"required"`
	Manual bool      `json:"manual"`
	Device string    `json:"device"`
}

func provenance(manual bool, device string) internal.Provenance {
	if manual {
		return internal.ManualEntry()
	}
	return internal.AutoRecorded(device)
}

func PostSteps(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req StepsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		insertRecord(c, app, internal.StepsSample{
			ID:         uuid.NewString(),
			Count:      *req.Count,
			Interval:   internal.Interval{Start: req.Start, End: req.End},
			Provenance: provenance(req.Manual, req.Device),
		})
	}
}

func PostHeartRate(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req HeartRateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		insertRecord(c, app, internal.HeartRateRecord{
			ID:         uuid.NewString(),
			Interval:   internal.Interval{Start: req.Start, End: req.End},
			Samples:    req.Samples,
			Provenance: provenance(req.Manual, req.Device),
		})
	}
}

func PostSleep(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SleepRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		insertRecord(c, app, internal.SleepSession{
			ID:         uuid.NewString(),
			Interval:   internal.Interval{Start: req.Start, End: req.End},
			Provenance: provenance(req.Manual, req.Device),
		})
	}
}

func insertRecord(c *gin.Context, app App, rec internal.Record) {
	if err := rec.Validate(); err != nil {
		HandleError(c, app.Logger(), err, 400, "Validation failed")
		return
	}
	if err := app.Gateway().Insert(c.Request.Context(), rec); err != nil {
		HandleError(c, app.Logger(), err, StatusFor(err), "Failed to save record")
		return
	}
	HandleCreated(c, app.Logger(), rec)
}
