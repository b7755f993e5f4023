package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/urmzd/remo/pkg/api/types"
	"github.com/urmzd/remo/pkg/device"
)

// ShortcutsHandler offers typed endpoints for common state changes. Each
// one is a SetDeviceState call with a single key.
type ShortcutsHandler struct {
	*ControlHandler
}

// NewShortcutsHandler creates a new shortcuts handler
func NewShortcutsHandler(controller device.Controller) *ShortcutsHandler {
	return &ShortcutsHandler{ControlHandler: NewControlHandler(controller)}
}

// SetHVACMode handles POST /climates/:id/mode
// @Summary      Set HVAC mode
// @Tags         climates
// @Accept       json
// @Produce      json
// @Param        id       path      string                 true  "Climate id or display name"
// @Param        request  body      types.HVACModeRequest  true  "Mode"
// @Success      200      {object}  types.StateResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      404      {object}  types.ErrorResponse
// @Router       /climates/{id}/mode [post]
func (h *ShortcutsHandler) SetHVACMode(c *gin.Context) {
	var req types.HVACModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "hvac_mode is required")
		return
	}
	h.apply(c, c.Param("id"), map[string]any{"hvac_mode": req.HVACMode})
}

// SetTemperature handles POST /climates/:id/temperature
// @Summary      Set target temperature
// @Description  The value is clamped to the mode's range and snapped to the nearest supported step
// @Tags         climates
// @Accept       json
// @Produce      json
// @Param        id       path      string                    true  "Climate id or display name"
// @Param        request  body      types.TemperatureRequest  true  "Temperature in °C"
// @Success      200      {object}  types.StateResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      404      {object}  types.ErrorResponse
// @Router       /climates/{id}/temperature [post]
func (h *ShortcutsHandler) SetTemperature(c *gin.Context) {
	var req types.TemperatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "temperature is required")
		return
	}
	h.apply(c, c.Param("id"), map[string]any{"temperature": *req.Temperature})
}

// SetFanMode handles POST /climates/:id/fan
// @Summary      Set fan speed
// @Tags         climates
// @Accept       json
// @Produce      json
// @Param        id       path      string                true  "Climate id or display name"
// @Param        request  body      types.FanModeRequest  true  "Fan speed"
// @Success      200      {object}  types.StateResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      404      {object}  types.ErrorResponse
// @Router       /climates/{id}/fan [post]
func (h *ShortcutsHandler) SetFanMode(c *gin.Context) {
	var req types.FanModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "fan_mode is required")
		return
	}
	h.apply(c, c.Param("id"), map[string]any{"fan_mode": req.FanMode})
}

// SetSwingMode handles POST /climates/:id/swing
// @Summary      Set swing mode
// @Description  swing_mode is a label from swing_modes; it may be empty when the unit has no air direction
// @Tags         climates
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "Climate id or display name"
// @Param        request  body      types.SwingModeRequest  true  "Swing label"
// @Success      200      {object}  types.StateResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      404      {object}  types.ErrorResponse
// @Router       /climates/{id}/swing [post]
func (h *ShortcutsHandler) SetSwingMode(c *gin.Context) {
	var req types.SwingModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	h.apply(c, c.Param("id"), map[string]any{"swing_mode": req.SwingMode})
}

// Power returns a handler for POST /climates/:id/{on,off} and
// POST /lights/:id/{on,off,toggle}.
// @Summary      Switch power
// @Tags         climates,lights
// @Produce      json
// @Param        id  path      string  true  "Device id or display name"
// @Success      200 {object}  types.StateResponse
// @Failure      400 {object}  types.ErrorResponse
// @Failure      404 {object}  types.ErrorResponse
// @Router       /lights/{id}/toggle [post]
func (h *ShortcutsHandler) Power(value string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.apply(c, c.Param("id"), map[string]any{"power": value})
	}
}

// SelectSignal handles POST /signals/:id/select
// @Summary      Select a signal
// @Description  Selects an option such as "2. Mute" and sends it when send is true
// @Tags         signals
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Selector id or display name"
// @Param        request  body      types.SelectSignalRequest  true  "Option"
// @Success      200      {object}  types.StateResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      404      {object}  types.ErrorResponse
// @Router       /signals/{id}/select [post]
func (h *ShortcutsHandler) SelectSignal(c *gin.Context) {
	var req types.SelectSignalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "option is required")
		return
	}
	state := map[string]any{"option": req.Option}
	if req.Send {
		state["press"] = true
	}
	h.apply(c, c.Param("id"), state)
}

// SendSignal handles POST /signals/:id/send
// @Summary      Send the selected signal
// @Tags         signals
// @Produce      json
// @Param        id  path      string  true  "Selector id or display name"
// @Success      200 {object}  types.StateResponse
// @Failure      404 {object}  types.ErrorResponse
// @Failure      502 {object}  types.ErrorResponse
// @Router       /signals/{id}/send [post]
func (h *ShortcutsHandler) SendSignal(c *gin.Context) {
	h.apply(c, c.Param("id"), map[string]any{"press": true})
}
