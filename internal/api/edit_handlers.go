package api

import (
	"github.com/gin-gonic/gin"
	"github.com/yourname/healthday/internal"
	"github.com/yourname/healthday/internal/service"
)

type OpenEditRequest struct {
	Date *internal.Date `json:"date"`
}

type PatchEditRequest struct {
	Steps     *string `json:"steps"`
	HeartRate *string `json:"heart_rate"`
	Sleep     *string `json:"sleep"`
}

type EditResponse struct {
	ID    string             `json:"id"`
	Draft internal.EditDraft `json:"draft"`
}

func newEditResponse(s *service.EditSession) EditResponse {
	return EditResponse{ID: s.ID(), Draft: s.Draft()}
}

// PostEdit opens an edit session. The draft is seeded from the day view only
// when the view holds metrics for the requested date.
func PostEdit(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req OpenEditRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				HandleError(c, app.Logger(), err, 400, "Invalid request")
				return
			}
		}
		state := app.View().State()
		date := state.SelectedDate
		if req.Date != nil {
			date = *req.Date
		}
		if err := date.Validate(); err != nil {
			HandleError(c, app.Logger(), err, StatusFor(err), "Invalid date")
			return
		}

		var seed internal.DayMetrics
		if state.MetricsDate == date {
			seed = state.Metrics
		}
		logger := app.Logger()
		onDone := func() {
			if _, err := app.View().Reload(); err != nil {
				logger.Warnf("edit: reloading day view: %v", err)
			}
		}
		opts := append([]service.EditOption{service.WithEditLogger(logger)}, app.EditOptions()...)
		session := service.NewEditSession(app.Gateway(), date, seed, app.Location(), onDone, opts...)

		if n := app.Sessions().Prune(); n > 0 {
			logger.Infof("edit: pruned %d stale sessions", n)
		}
		app.Sessions().Add(session)
		HandleCreated(c, logger, newEditResponse(session))
	}
}

func GetEdit(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := app.Sessions().Get(c.Param("id"))
		if err != nil {
			HandleError(c, app.Logger(), err, StatusFor(err), "Edit session lookup failed")
			return
		}
		HandleSuccess(c, app.Logger(), newEditResponse(session), nil)
	}
}

func PatchEdit(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := app.Sessions().Get(c.Param("id"))
		if err != nil {
			HandleError(c, app.Logger(), err, StatusFor(err), "Edit session lookup failed")
			return
		}
		var req PatchEditRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if req.Steps != nil {
			session.SetSteps(*req.Steps)
		}
		if req.HeartRate != nil {
			session.SetHeartRate(*req.HeartRate)
		}
		if req.Sleep != nil {
			session.SetSleep(*req.Sleep)
		}
		HandleSuccess(c, app.Logger(), newEditResponse(session), nil)
	}
}

// SaveEdit saves the draft and closes the session whatever the outcome.
func SaveEdit(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		session, err := app.Sessions().Get(id)
		if err != nil {
			HandleError(c, app.Logger(), err, StatusFor(err), "Edit session lookup failed")
			return
		}
		resp := newEditResponse(session)
		err = session.Save(c.Request.Context())
		_ = app.Sessions().Remove(id)
		if err != nil {
			HandleError(c, app.Logger(), err, StatusFor(err), "Failed to save steps")
			return
		}
		HandleSuccess(c, app.Logger(), resp, nil)
	}
}

func DeleteEditSteps(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := app.Sessions().Get(c.Param("id"))
		if err != nil {
			HandleError(c, app.Logger(), err, StatusFor(err), "Edit session lookup failed")
			return
		}
		if err := session.DeleteSteps(c.Request.Context()); err != nil {
			HandleError(c, app.Logger(), err, StatusFor(err), "Failed to delete steps")
			return
		}
		HandleSuccess(c, app.Logger(), newEditResponse(session), nil)
	}
}

func DeleteEdit(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := app.Sessions().Remove(c.Param("id")); err != nil {
			HandleError(c, app.Logger(), err, StatusFor(err), "Edit session lookup failed")
			return
		}
		HandleSuccess(c, app.Logger(), nil, map[string]any{"closed": true})
	}
}
