// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with `swag init -g cmd/main.go` after changing handler annotations.
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
            "get": {"tags": ["system"], "summary": "Health check", "responses": {"200": {"description": "OK"}}}
        },
        "/auth/sign-up": {
            "post": {"tags": ["auth"], "summary": "Sign up", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/auth/sign-in": {
            "post": {"tags": ["auth"], "summary": "Sign in", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}
        },
        "/api/v1/plants": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["plants"], "summary": "List plants", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["plants"], "summary": "Create plant", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/api/v1/plants/{id}": {
            "delete": {"security": [{"BearerAuth": []}], "tags": ["plants"], "summary": "Delete plant", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/api/v1/plants/{id}/view": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["plants"], "summary": "Plant view", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/api/v1/plants/{id}/health": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["plants"], "summary": "Plant health", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/api/v1/plants/{id}/history": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["plants"], "summary": "Plant sensor history", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/plants/{id}/predictions": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["plants"], "summary": "Plant prediction history", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/plants/{id}/ranges": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["plants"], "summary": "Plant display ranges", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/sensor-data": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["telemetry"], "summary": "Upload sensor reading", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}}
        },
        "/api/v1/weather": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["weather"], "summary": "Shared weather snapshot", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/user/location": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["user"], "summary": "Get weather location", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["user"], "summary": "Set weather location", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}}
        },
        "/api/v1/logs": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["logs"], "summary": "List logs", "parameters": [{"type": "string", "name": "from", "in": "query"}, {"type": "string", "name": "to", "in": "query"}, {"type": "string", "name": "type", "in": "query"}, {"type": "integer", "name": "plant_id", "in": "query"}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/ws": {
            "get": {"tags": ["stream"], "summary": "Live plant view", "parameters": [{"type": "integer", "name": "plant_id", "in": "query", "required": true}, {"type": "string", "name": "token", "in": "query"}], "responses": {"101": {"description": "Switching Protocols"}, "401": {"description": "Unauthorized"}}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Plant Telemetry API",
	Description:      "Reconciled plant sensor, weather and watering-prediction views.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
