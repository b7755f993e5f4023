package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/remo/pkg/api/types"
	"github.com/urmzd/remo/pkg/device"
	"github.com/urmzd/remo/pkg/remo"
)

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

// writeError maps controller and cloud errors to a status code.
func writeError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "controller_error"
	switch {
	case errors.Is(err, device.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, device.ErrValidation):
		status, code = http.StatusBadRequest, "validation_error"
	case errors.Is(err, device.ErrUnsupported):
		status, code = http.StatusBadRequest, "unsupported"
	case errors.Is(err, device.ErrNotConnected):
		status, code = http.StatusServiceUnavailable, "controller_disconnected"
	case errors.Is(err, device.ErrTimeout):
		status, code = http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, remo.ErrAuth):
		status, code = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, remo.ErrNetwork):
		status, code = http.StatusBadGateway, "upstream_error"
	}
	c.JSON(status, types.ErrorResponse{
		Error:     code,
		Message:   err.Error(),
		RequestID: c.GetString(RequestIDKey),
	})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, types.ErrorResponse{
		Error:     "invalid_request",
		Message:   message,
		RequestID: c.GetString(RequestIDKey),
	})
}

func withState(d device.Device, state device.DeviceState) types.DeviceWithState {
	return types.DeviceWithState{
		ID:          d.ID,
		Name:        d.Name,
		Type:        d.Type,
		Protocol:    d.Protocol,
		Hub:         d.Hub,
		HubMAC:      d.HubMAC,
		StateSchema: d.StateSchema,
		Exposes:     d.Exposes,
		State:       state,
	}
}
