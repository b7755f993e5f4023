package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/remo/pkg/api/types"
	"github.com/urmzd/remo/pkg/device"
)

// DevicesHandler handles device listing and naming endpoints
type DevicesHandler struct {
	controller device.Controller
}

// NewDevicesHandler creates a new devices handler
func NewDevicesHandler(controller device.Controller) *DevicesHandler {
	return &DevicesHandler{controller: controller}
}

// ListDevices handles GET /devices
// @Summary      List all devices
// @Description  Returns every appliance and sensor with its current state
// @Tags         devices
// @Produce      json
// @Param        type  query     string  false  "Only devices of this type (climate, light, remote, sensor, meter)"
// @Success      200   {object}  types.ListDevicesResponse
// @Failure      503   {object}  types.ErrorResponse  "Cloud API not reached yet"
// @Failure      500   {object}  types.ErrorResponse  "Controller error"
// @Router       /devices [get]
func (h *DevicesHandler) ListDevices(c *gin.Context) {
	h.list(c, c.Query("type"))
}

// ListOfType returns a handler listing only devices of the given types.
func (h *DevicesHandler) ListOfType(kinds ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.list(c, kinds...)
	}
}

func (h *DevicesHandler) list(c *gin.Context, kinds ...string) {
	ctx := c.Request.Context()

	devices, err := h.controller.ListDevices(ctx)
	if err != nil {
		writeError(c, err)
		return
	}

	result := make([]types.DeviceWithState, 0, len(devices))
	for _, d := range devices {
		if !matchesType(d.Type, kinds) {
			continue
		}
		// State is best effort; a device without one is still listed.
		state, _ := h.controller.GetDeviceState(ctx, d.ID)
		result = append(result, withState(d, state))
	}

	c.JSON(http.StatusOK, types.ListDevicesResponse{
		Devices: result,
		Count:   len(result),
	})
}

func matchesType(t string, kinds []string) bool {
	if len(kinds) == 0 || (len(kinds) == 1 && kinds[0] == "") {
		return true
	}
	for _, k := range kinds {
		if k == t {
			return true
		}
	}
	return false
}

// GetDevice handles GET /devices/:id
// @Summary      Get device details
// @Description  Returns a device by id or display name
// @Tags         devices
// @Produce      json
// @Param        id   path      string  true  "Device id or display name"
// @Success      200  {object}  types.DeviceResponse
// @Failure      404  {object}  types.ErrorResponse  "Device not found"
// @Failure      500  {object}  types.ErrorResponse  "Controller error"
// @Router       /devices/{id} [get]
func (h *DevicesHandler) GetDevice(c *gin.Context) {
	ctx := c.Request.Context()

	d, err := h.controller.GetDevice(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	state, _ := h.controller.GetDeviceState(ctx, d.ID)

	c.JSON(http.StatusOK, types.DeviceResponse{
		Device: withState(*d, state),
	})
}

// RenameDevice handles PATCH /devices/:id
// @Summary      Rename a device
// @Description  Sets a local display name; the name in the vendor app is unchanged
// @Tags         devices
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Device id or display name"
// @Param        request  body      types.RenameDeviceRequest  true  "New display name"
// @Success      200      {object}  types.DeviceResponse
// @Failure      400      {object}  types.ErrorResponse  "Invalid request"
// @Failure      404      {object}  types.ErrorResponse  "Device not found"
// @Failure      500      {object}  types.ErrorResponse  "Controller error"
// @Router       /devices/{id} [patch]
func (h *DevicesHandler) RenameDevice(c *gin.Context) {
	ctx := c.Request.Context()

	var req types.RenameDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name is required")
		return
	}

	d, err := h.controller.GetDevice(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.controller.RenameDevice(ctx, d.ID, req.Name); err != nil {
		writeError(c, err)
		return
	}

	d.Name = req.Name
	c.JSON(http.StatusOK, types.DeviceResponse{
		Device: withState(*d, nil),
	})
}

// RemoveDevice handles DELETE /devices/:id
// @Summary      Remove a device
// @Description  Appliances are managed in the vendor app, so this always fails for known devices
// @Tags         devices
// @Produce      json
// @Param        id  path  string  true  "Device id or display name"
// @Success      204 "Device removed"
// @Failure      400 {object}  types.ErrorResponse  "Not supported"
// @Failure      404 {object}  types.ErrorResponse  "Device not found"
// @Router       /devices/{id} [delete]
func (h *DevicesHandler) RemoveDevice(c *gin.Context) {
	force := c.Query("force") == "true"
	if err := h.controller.RemoveDevice(c.Request.Context(), c.Param("id"), force); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
