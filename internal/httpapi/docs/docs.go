// Package docs registers the OpenAPI description of the HTTP API with swag.
// Regenerate with `swag init -g cmd/unitconverter/docs.go -o internal/httpapi/docs`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "unitconverter maintainers"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/convert": {
            "post": {
                "description": "Converts value between two units of one category, locally or on a worker.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["conversion"],
                "summary": "Convert a value",
                "parameters": [
                    {
                        "description": "Conversion request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/types.ConvertRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ConvertResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "415": {"description": "Unsupported Media Type", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "504": {"description": "Gateway Timeout", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/history": {
            "get": {
                "description": "Returns the most recent conversions, newest first.",
                "produces": ["application/json"],
                "tags": ["conversion"],
                "summary": "Recent conversions",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Maximum entries (default 20, max 100)",
                        "name": "limit",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/types.HistoryEntry"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/units": {
            "get": {
                "produces": ["application/json"],
                "tags": ["conversion"],
                "summary": "Supported units and modes",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.UnitsResponse"}}
                }
            }
        },
        "/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["ops"],
                "summary": "Worker and service status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.ConvertRequest": {
            "type": "object",
            "properties": {
                "value": {"type": "number", "example": 1},
                "from": {"type": "string", "example": "meter"},
                "to": {"type": "string", "example": "feet"},
                "mode": {"type": "string", "example": "local"}
            }
        },
        "types.ConvertResponse": {
            "type": "object",
            "properties": {
                "result": {"type": "number", "example": 3.28084},
                "time_taken_ms": {"type": "number", "example": 0.42}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "Python worker is not available"},
                "code": {"type": "integer", "example": 503}
            }
        },
        "types.HistoryEntry": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "input_value": {"type": "number"},
                "from_unit": {"type": "string"},
                "to_unit": {"type": "string"},
                "converted_value": {"type": "number"},
                "mode": {"type": "string"},
                "time_taken_ms": {"type": "number"},
                "timestamp": {"type": "string"}
            }
        },
        "types.UnitsResponse": {
            "type": "object",
            "properties": {
                "categories": {"type": "object", "additionalProperties": {"type": "array", "items": {"type": "string"}}},
                "modes": {"type": "array", "items": {"type": "string"}}
            }
        },
        "types.WorkerStatus": {
            "type": "object",
            "properties": {
                "kind": {"type": "string"},
                "state": {"type": "string"},
                "ready": {"type": "boolean"},
                "pid": {"type": "integer"},
                "generation": {"type": "integer"},
                "restarts": {"type": "integer"},
                "pending_requests": {"type": "integer"},
                "last_exit": {"type": "string"}
            }
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "workers": {"type": "array", "items": {"$ref": "#/definitions/types.WorkerStatus"}},
                "uptime_seconds": {"type": "integer"},
                "server_time_unix": {"type": "integer"},
                "conversions_total": {"type": "integer"},
                "failures_total": {"type": "integer"},
                "last_error": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "unitconverter API",
	Description:      "Unit conversion service with supervised C++/Python/Java workers.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
