// Package docs registers the OpenAPI description served at /docs.
// Regenerate with: swag init -g cmd/pricing/main.go
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
        "/": {
            "get": {
                "description": "Returns random rows of the pricing dataset as a JSON-encoded string holding an array of records.",
                "produces": ["application/json"],
                "tags": ["Dataset"],
                "summary": "Preview the pricing dataset",
                "parameters": [
                    {"type": "integer", "description": "Number of rows (default 5)", "name": "rows", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "JSON array of records", "schema": {"type": "string"}},
                    "400": {"description": "Invalid rows parameter", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Dataset unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/predict": {
            "post": {
                "description": "Returns the estimated rental price per day in dollars. Any pipeline failure yields the usage hint with status 200.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Prediction"],
                "summary": "Predict a daily rental price",
                "parameters": [
                    {"description": "Car features", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.PredictionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.PredictionResponse"}},
                    "422": {"description": "Missing field or wrong type", "schema": {"$ref": "#/definitions/handlers.BindingErrorResponse"}}
                }
            }
        },
        "/model": {
            "get": {
                "description": "Artifact versions, regressor kind, feature count, the category exclusion sets and the known categories.",
                "produces": ["application/json"],
                "tags": ["Prediction"],
                "summary": "Describe the loaded pricing pipeline",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ModelResponse"}},
                    "503": {"description": "Artifacts not loaded", "schema": {"$ref": "#/definitions/handlers.ModelResponse"}}
                }
            }
        },
        "/predictions/recent": {
            "get": {
                "description": "Latest audited predictions, newest first.",
                "produces": ["application/json"],
                "tags": ["Prediction"],
                "summary": "Recent predictions",
                "parameters": [
                    {"type": "integer", "description": "Maximum records (default 50)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Recent predictions", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Invalid limit", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Audit store disabled", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal server error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/predictions/stats": {
            "get": {
                "description": "Predictions per outcome over a time window (\"ok\" or an error kind).",
                "produces": ["application/json"],
                "tags": ["Prediction"],
                "summary": "Prediction outcomes",
                "parameters": [
                    {"type": "string", "description": "Window as a Go duration (default 24h)", "name": "window", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Counts by outcome", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Invalid window", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Audit store disabled", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal server error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/report/delays": {
            "get": {
                "description": "Delay buckets per state and checkin type, late driver statistics, revenue loss and threshold simulation.",
                "produces": ["application/json"],
                "tags": ["Reports"],
                "summary": "Checkout delay report",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/delay.Report"}},
                    "500": {"description": "Dataset could not be analyzed", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "502": {"description": "Dataset could not be fetched", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Dataset source unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Service health",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.HealthResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handlers.HealthResponse"}}
                }
            }
        }
    },
    "definitions": {
        "models.PredictionRequest": {
            "type": "object",
            "required": ["automatic_car", "car_type", "engine_power", "fuel", "has_air_conditioning", "has_getaround_connect", "has_gps", "has_speed_regulator", "mileage", "model_key", "paint_color", "private_parking_available", "winter_tires"],
            "properties": {
                "model_key": {"type": "string", "example": "Volkswagen"},
                "mileage": {"type": "number", "example": 17500},
                "engine_power": {"type": "number", "example": 190},
                "fuel": {"type": "string", "example": "diesel"},
                "paint_color": {"type": "string", "example": "black"},
                "car_type": {"type": "string", "example": "convertible"},
                "private_parking_available": {"type": "boolean", "example": true},
                "has_gps": {"type": "boolean", "example": true},
                "has_air_conditioning": {"type": "boolean", "example": true},
                "automatic_car": {"type": "boolean", "example": true},
                "has_getaround_connect": {"type": "boolean", "example": true},
                "has_speed_regulator": {"type": "boolean", "example": true},
                "winter_tires": {"type": "boolean", "example": true}
            }
        },
        "models.PredictionResponse": {
            "type": "object",
            "properties": {
                "Predicted rental price per day in dollars": {"type": "number"},
                "message": {"type": "string"}
            }
        },
        "handlers.BindingErrorResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "handlers.ModelResponse": {
            "type": "object",
            "properties": {
                "pipeline": {"type": "object", "additionalProperties": true},
                "error": {"type": "string"},
                "exclusion_sets": {"type": "object", "additionalProperties": {"type": "array", "items": {"type": "string"}}},
                "categories": {"type": "object", "additionalProperties": {"type": "array", "items": {"type": "string"}}}
            }
        },
        "handlers.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "timestamp": {"type": "string"},
                "checks": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "delay.Report": {
            "type": "object",
            "properties": {
                "generated_at": {"type": "string"},
                "total_rentals": {"type": "integer"},
                "buckets": {"type": "array", "items": {"type": "string"}},
                "by_state": {"type": "object", "additionalProperties": true},
                "by_checkin_type": {"type": "object", "additionalProperties": true},
                "bucket_totals": {"type": "object", "additionalProperties": true},
                "trim": {"type": "object", "additionalProperties": true},
                "late": {"type": "object", "additionalProperties": true},
                "avg_daily_price": {"type": "number"},
                "avg_price_per_minute": {"type": "number"},
                "thresholds": {"type": "array", "items": {"type": "object", "additionalProperties": true}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Getaround Pricing API",
	Description:      "Daily rental price predictions and checkout delay reports.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
