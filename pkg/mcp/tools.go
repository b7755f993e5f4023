package mcp

import "github.com/mark3labs/mcp-go/mcp"

const idDescription = "Device id or display name (see list_devices)"

// registerTools registers all MCP tools with the server
func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("get_health",
			mcp.WithDescription("Check whether the last poll of the Nature Remo cloud API succeeded"),
		),
		s.handleGetHealth,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_devices",
			mcp.WithDescription("List air conditioners, lights, IR signal selectors, sensors and smart meters with their current state"),
			mcp.WithString("type",
				mcp.Description("Only list devices of this type"),
				mcp.Enum("climate", "light", "remote", "sensor", "meter"),
			),
		),
		s.handleListDevices,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("get_device",
			mcp.WithDescription("Get a device with its state schema, capabilities and current state"),
			mcp.WithString("id", mcp.Required(), mcp.Description(idDescription)),
		),
		s.handleGetDevice,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("rename_device",
			mcp.WithDescription("Set a local display name for a device"),
			mcp.WithString("id", mcp.Required(), mcp.Description(idDescription)),
			mcp.WithString("new_name", mcp.Required(), mcp.Description("New display name")),
		),
		s.handleRenameDevice,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("get_device_state",
			mcp.WithDescription("Get the current state of a device"),
			mcp.WithString("id", mcp.Required(), mcp.Description(idDescription)),
		),
		s.handleGetDeviceState,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("set_device_state",
			mcp.WithDescription("Set the state of a device. Properties are validated against the device's state_schema."),
			mcp.WithString("id", mcp.Required(), mcp.Description(idDescription)),
			mcp.WithObject("state",
				mcp.Required(),
				mcp.Description(`State properties to set (e.g. {"hvac_mode": "cool", "temperature": 26})`),
			),
		),
		s.handleSetDeviceState,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("refresh",
			mcp.WithDescription("Poll the cloud API now instead of waiting for the next interval"),
		),
		s.handleRefresh,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("set_hvac_mode",
			mcp.WithDescription("Switch an air conditioner to an HVAC mode; off turns it off"),
			mcp.WithString("id", mcp.Required(), mcp.Description(idDescription)),
			mcp.WithString("hvac_mode",
				mcp.Required(),
				mcp.Enum("off", "cool", "heat", "dry", "auto", "fan_only"),
			),
		),
		s.handleSetHVACMode,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("set_temperature",
			mcp.WithDescription("Set the target temperature of an air conditioner in °C. The value snaps to the nearest supported step."),
			mcp.WithString("id", mcp.Required(), mcp.Description(idDescription)),
			mcp.WithNumber("temperature", mcp.Required()),
		),
		s.handleSetTemperature,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("set_fan_mode",
			mcp.WithDescription("Set the fan speed of an air conditioner to one of its fan_modes"),
			mcp.WithString("id", mcp.Required(), mcp.Description(idDescription)),
			mcp.WithString("fan_mode", mcp.Required()),
		),
		s.handleSetFanMode,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("set_swing_mode",
			mcp.WithDescription("Set the air direction of an air conditioner to one of its swing_modes"),
			mcp.WithString("id", mcp.Required(), mcp.Description(idDescription)),
			mcp.WithString("swing_mode", mcp.Required()),
		),
		s.handleSetSwingMode,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("turn_on",
			mcp.WithDescription("Turn on an air conditioner in its last mode, or a light"),
			mcp.WithString("id", mcp.Required(), mcp.Description(idDescription)),
		),
		s.handlePower("on"),
	)

	s.mcpServer.AddTool(
		mcp.NewTool("turn_off",
			mcp.WithDescription("Turn off an air conditioner or a light"),
			mcp.WithString("id", mcp.Required(), mcp.Description(idDescription)),
		),
		s.handlePower("off"),
	)

	s.mcpServer.AddTool(
		mcp.NewTool("select_signal",
			mcp.WithDescription("Select an IR signal or light button by its option label, optionally sending it"),
			mcp.WithString("id", mcp.Required(), mcp.Description(idDescription)),
			mcp.WithString("option", mcp.Required(), mcp.Description(`Option label such as "2. Mute"`)),
			mcp.WithBoolean("send", mcp.Description("Send the signal after selecting it (default false)")),
		),
		s.handleSelectSignal,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("send_signal",
			mcp.WithDescription("Send the currently selected IR signal or light button"),
			mcp.WithString("id", mcp.Required(), mcp.Description(idDescription)),
		),
		s.handleSendSignal,
	)
}
