package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourname/healthday/internal"
	"github.com/yourname/healthday/internal/response"
	"github.com/yourname/healthday/internal/service"
)

// StatusFor maps a domain error to the HTTP status reported for it.
func StatusFor(err error) int {
	var (
		ide *internal.InvalidDateError
		pe  *internal.ParseError
		re  *internal.ReadError
		we  *internal.WriteError
	)
	switch {
	case errors.As(err, &ide), errors.As(err, &pe):
		return http.StatusBadRequest
	case errors.Is(err, internal.ErrNoSession):
		return http.StatusNotFound
	case errors.Is(err, internal.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, service.ErrViewClosed):
		return http.StatusServiceUnavailable
	case errors.As(err, &re), errors.As(err, &we):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func HandleError(c *gin.Context, logger internal.Logger, err error, status int, msg string) {
	requestID := c.GetString("request_id")
	logger.Errorf("[request_id=%s] %s: %v", requestID, msg, err)
	var resp response.APIResponse
	switch status {
	case http.StatusBadRequest:
		resp = response.BadRequest(msg + ": " + err.Error())
	case http.StatusForbidden:
		resp = response.Forbidden(msg + ": " + err.Error())
	case http.StatusNotFound:
		resp = response.NotFound(msg + ": " + err.Error())
	case http.StatusInternalServerError:
		resp = response.InternalError(msg + ": " + err.Error())
	default:
		resp = response.NewAppError(status, msg+": "+err.Error())
	}
	c.JSON(status, resp)
}

func HandleSuccess(c *gin.Context, logger internal.Logger, data interface{}, meta map[string]any) {
	requestID := c.GetString("request_id")
	logger.Debugf("[request_id=%s] Success", requestID)
	c.JSON(http.StatusOK, response.Success(data, meta))
}

func HandleCreated(c *gin.Context, logger internal.Logger, data interface{}) {
	logger.Debugf("[request_id=%s] Created", c.GetString("request_id"))
	c.JSON(http.StatusCreated, response.Success(data, nil))
}
