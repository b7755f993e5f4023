// Package docs registers the OpenAPI description served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "description": "Healthy when the last poll of the cloud API succeeded",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "Service is healthy", "schema": {"$ref": "#/definitions/types.HealthResponse"}},
                    "503": {"description": "Service is degraded", "schema": {"$ref": "#/definitions/types.HealthResponse"}}
                }
            }
        },
        "/devices": {
            "get": {
                "description": "Returns every appliance and sensor with its current state",
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "List all devices",
                "parameters": [
                    {"type": "string", "description": "Only devices of this type (climate, light, remote, sensor, meter)", "name": "type", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ListDevicesResponse"}},
                    "500": {"description": "Controller error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/devices/{id}": {
            "get": {
                "description": "Returns a device by id or display name",
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "Get device details",
                "parameters": [
                    {"type": "string", "description": "Device id or display name", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.DeviceResponse"}},
                    "404": {"description": "Device not found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            },
            "patch": {
                "description": "Sets a local display name; the name in the vendor app is unchanged",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "Rename a device",
                "parameters": [
                    {"type": "string", "description": "Device id or display name", "name": "id", "in": "path", "required": true},
                    {"description": "New display name", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.RenameDeviceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.DeviceResponse"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "404": {"description": "Device not found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/devices/{id}/state": {
            "get": {
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "Get device state",
                "parameters": [
                    {"type": "string", "description": "Device id or display name", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StateResponse"}},
                    "404": {"description": "Device not found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            },
            "post": {
                "description": "Applies a JSON object validated against the device's state_schema",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "Set device state",
                "parameters": [
                    {"type": "string", "description": "Device id or display name", "name": "id", "in": "path", "required": true},
                    {"description": "State to set", "name": "request", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StateResponse"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "401": {"description": "Token rejected by the cloud API", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "404": {"description": "Device not found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "502": {"description": "Cloud API unreachable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/refresh": {
            "post": {
                "description": "Fetches appliances and sensors from the cloud API immediately",
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "Poll now",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.RefreshResponse"}},
                    "502": {"description": "Cloud API unreachable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/events": {
            "get": {
                "description": "Server-Sent Events stream of state_changed and refreshed events",
                "produces": ["text/event-stream"],
                "tags": ["events"],
                "summary": "Subscribe to state changes",
                "responses": {
                    "200": {"description": "SSE event stream", "schema": {"type": "string"}}
                }
            }
        }
    },
    "definitions": {
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "message": {"type": "string"},
                "request_id": {"type": "string"}
            }
        },
        "types.HealthResponse": {
            "type": "object",
            "properties": {
                "controller": {"type": "string"},
                "devices": {"type": "integer"},
                "status": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "types.DeviceWithState": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "type": {"type": "string"},
                "protocol": {"type": "string"},
                "hub": {"type": "string"},
                "hub_mac": {"type": "string"},
                "state_schema": {"type": "object"},
                "exposes": {"type": "object"},
                "state": {"type": "object", "additionalProperties": true}
            }
        },
        "types.ListDevicesResponse": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "devices": {"type": "array", "items": {"$ref": "#/definitions/types.DeviceWithState"}}
            }
        },
        "types.DeviceResponse": {
            "type": "object",
            "properties": {
                "device": {"$ref": "#/definitions/types.DeviceWithState"}
            }
        },
        "types.RenameDeviceRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string"}
            }
        },
        "types.StateResponse": {
            "type": "object",
            "properties": {
                "device": {"type": "string"},
                "state": {"type": "object", "additionalProperties": true},
                "timestamp": {"type": "string"}
            }
        },
        "types.RefreshResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Remo API",
	Description:      "REST API for Nature Remo air conditioners, lights, IR signals and sensors",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
