package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/remo/pkg/api/types"
	"github.com/urmzd/remo/pkg/device"
)

// ControlHandler handles device state endpoints
type ControlHandler struct {
	controller device.Controller
}

// NewControlHandler creates a new control handler
func NewControlHandler(controller device.Controller) *ControlHandler {
	return &ControlHandler{controller: controller}
}

// GetState handles GET /devices/:id/state
// @Summary      Get device state
// @Description  Returns the current state of a device
// @Tags         devices
// @Produce      json
// @Param        id   path      string  true  "Device id or display name"
// @Success      200  {object}  types.StateResponse
// @Failure      404  {object}  types.ErrorResponse  "Device not found"
// @Failure      500  {object}  types.ErrorResponse  "Controller error"
// @Router       /devices/{id}/state [get]
func (h *ControlHandler) GetState(c *gin.Context) {
	id := c.Param("id")

	state, err := h.controller.GetDeviceState(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.StateResponse{
		Device:    id,
		State:     state,
		Timestamp: time.Now(),
	})
}

// SetState handles POST /devices/:id/state
// @Summary      Set device state
// @Description  Applies a JSON object validated against the device's state_schema
// @Tags         devices
// @Accept       json
// @Produce      json
// @Param        id       path      string  true  "Device id or display name"
// @Param        request  body      object  true  "State to set"
// @Success      200      {object}  types.StateResponse
// @Failure      400      {object}  types.ErrorResponse  "Invalid request"
// @Failure      401      {object}  types.ErrorResponse  "Token rejected by the cloud API"
// @Failure      404      {object}  types.ErrorResponse  "Device not found"
// @Failure      502      {object}  types.ErrorResponse  "Cloud API unreachable"
// @Failure      500      {object}  types.ErrorResponse  "Controller error"
// @Router       /devices/{id}/state [post]
func (h *ControlHandler) SetState(c *gin.Context) {
	var req map[string]any
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	h.apply(c, c.Param("id"), req)
}

func (h *ControlHandler) apply(c *gin.Context, id string, req map[string]any) {
	state, err := h.controller.SetDeviceState(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.StateResponse{
		Device:    id,
		State:     state,
		Timestamp: time.Now(),
	})
}

// Refresh handles POST /refresh
// @Summary      Poll now
// @Description  Fetches appliances and sensors from the cloud API immediately
// @Tags         devices
// @Produce      json
// @Success      200  {object}  types.RefreshResponse
// @Failure      502  {object}  types.ErrorResponse  "Cloud API unreachable"
// @Failure      503  {object}  types.ErrorResponse  "No controller"
// @Router       /refresh [post]
func (h *ControlHandler) Refresh(c *gin.Context) {
	if err := h.controller.Refresh(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.RefreshResponse{
		Status:    "refreshed",
		Timestamp: time.Now(),
	})
}
