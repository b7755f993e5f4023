package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) handleGetHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out := GetHealthOutput{
		Status:     "healthy",
		Controller: "connected",
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	if !s.controller.IsConnected() {
		out.Status = "unhealthy"
		out.Controller = "disconnected"
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleListDevices(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	devices, err := s.controller.ListDevices(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list devices: %s", err)), nil
	}
	kind, _ := request.GetArguments()["type"].(string)

	infos := make([]DeviceInfo, 0, len(devices))
	for i := range devices {
		if kind != "" && devices[i].Type != kind {
			continue
		}
		info := DeviceToInfo(&devices[i])
		// The schema is left out of the listing; get_device returns it.
		info.StateSchema = nil
		if state, err := s.controller.GetDeviceState(ctx, devices[i].ID); err == nil {
			info.State = state
		}
		infos = append(infos, info)
	}

	return mcp.NewToolResultText(formatJSON(ListDevicesOutput{Devices: infos, Count: len(infos)})), nil
}

func (s *Server) handleGetDevice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	d, err := s.controller.GetDevice(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("device not found: %s", err)), nil
	}

	info := DeviceToInfo(d)
	if state, err := s.controller.GetDeviceState(ctx, d.ID); err == nil {
		info.State = state
	}
	return mcp.NewToolResultText(formatJSON(GetDeviceOutput{Device: info})), nil
}

func (s *Server) handleRenameDevice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	newName, err := requiredString(request, "new_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.controller.RenameDevice(ctx, id, newName); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to rename device: %s", err)), nil
	}

	return mcp.NewToolResultText(formatJSON(MessageOutput{
		Success: true,
		Message: fmt.Sprintf("Device %q renamed to %q", id, newName),
	})), nil
}

func (s *Server) handleGetDeviceState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	state, err := s.controller.GetDeviceState(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get device state: %s", err)), nil
	}
	return mcp.NewToolResultText(formatJSON(StateOutput{DeviceID: id, State: state})), nil
}

func (s *Server) handleSetDeviceState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()

	// State may come as a nested "state" object or as flat arguments.
	stateMap := map[string]any{}
	if stateRaw, ok := args["state"]; ok {
		sm, ok := stateRaw.(map[string]any)
		if !ok {
			return mcp.NewToolResultError(`parameter "state" must be an object`), nil
		}
		stateMap = sm
	} else {
		for k, v := range args {
			if k != "id" {
				stateMap[k] = v
			}
		}
	}

	return s.setState(ctx, id, stateMap)
}

func (s *Server) handleRefresh(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.controller.Refresh(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to refresh: %s", err)), nil
	}
	return mcp.NewToolResultText(formatJSON(MessageOutput{Success: true, Message: "Refreshed"})), nil
}

func (s *Server) handleSetHVACMode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.setOne(ctx, request, "hvac_mode")
}

func (s *Server) handleSetTemperature(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t, ok := request.GetArguments()["temperature"].(float64)
	if !ok {
		return mcp.NewToolResultError(`parameter "temperature" must be a number`), nil
	}
	return s.setState(ctx, id, map[string]any{"temperature": t})
}

func (s *Server) handleSetFanMode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.setOne(ctx, request, "fan_mode")
}

func (s *Server) handleSetSwingMode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	// An empty label is valid for units without air direction.
	swing, ok := request.GetArguments()["swing_mode"].(string)
	if !ok {
		return mcp.NewToolResultError(`parameter "swing_mode" must be a string`), nil
	}
	return s.setState(ctx, id, map[string]any{"swing_mode": swing})
}

func (s *Server) handlePower(value string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := requiredString(request, "id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return s.setState(ctx, id, map[string]any{"power": value})
	}
}

func (s *Server) handleSelectSignal(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	option, err := requiredString(request, "option")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	state := map[string]any{"option": option}
	if send, _ := request.GetArguments()["send"].(bool); send {
		state["press"] = true
	}
	return s.setState(ctx, id, state)
}

func (s *Server) handleSendSignal(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.setState(ctx, id, map[string]any{"press": true})
}

// setOne sets the single string property key taken from the argument of
// the same name.
func (s *Server) setOne(ctx context.Context, request mcp.CallToolRequest, key string) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := requiredString(request, key)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.setState(ctx, id, map[string]any{key: value})
}

func (s *Server) setState(ctx context.Context, id string, state map[string]any) (*mcp.CallToolResult, error) {
	result, err := s.controller.SetDeviceState(ctx, id, state)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to set device state: %s", err)), nil
	}
	return mcp.NewToolResultText(formatJSON(StateOutput{DeviceID: id, State: result})), nil
}

// --- helpers ---

func requiredString(request mcp.CallToolRequest, key string) (string, error) {
	args := request.GetArguments()
	v, ok := args[key]
	if !ok || v == nil {
		return "", fmt.Errorf("required parameter %q is missing", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("parameter %q must be a non-empty string", key)
	}
	return s, nil
}

func formatJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal response: %s"}`, err)
	}
	return string(b)
}
