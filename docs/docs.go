// Package docs registers the OpenAPI description served under /swagger.
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
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Service health and loaded corpus years",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/main.healthResponse"}}}
            }
        },
        "/predict": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["prediction"],
                "summary": "Estimate the acceptance probability of a paper",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/main.predictRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/predictor.Result"}},
                    "400": {"description": "No scores given"},
                    "429": {"description": "Rate limit exceeded"}
                }
            }
        },
        "/data-status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["prediction"],
                "summary": "Per-year corpus counts",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/settings": {
            "get": {
                "produces": ["application/json"],
                "tags": ["settings"],
                "summary": "Current public settings",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/settings.Settings"}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Update settings",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/settings.Update"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad option list"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/create-payment": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["payment"],
                "summary": "Create a pending payment order",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/main.createPaymentRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/database.PaymentOrder"}}, "400": {"description": "Invalid amount"}}
            }
        },
        "/check-payment/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["payment"],
                "summary": "Status of a payment order",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Unknown order"}}
            }
        },
        "/admin/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Exchange the admin password for a bearer token",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/main.loginRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/auth.Token"}}, "401": {"description": "Wrong password"}}
            }
        },
        "/admin/reload": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Re-read the corpus files",
                "responses": {"200": {"description": "OK"}, "503": {"description": "No corpus file loaded"}}
            }
        },
        "/stats": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Payment and prediction statistics",
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "main.healthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "timestamp": {"type": "string"},
                "version": {"type": "string"},
                "data_loaded": {"type": "boolean"},
                "historical_years": {"type": "array", "items": {"type": "string"}}
            }
        },
        "main.predictRequest": {
            "type": "object",
            "required": ["scores"],
            "properties": {
                "scores": {"type": "array", "items": {"type": "number"}},
                "confidences": {"type": "array", "items": {"type": "number"}},
                "conference": {"type": "string"}
            }
        },
        "main.createPaymentRequest": {
            "type": "object",
            "properties": {
                "amount": {"type": "number"},
                "description": {"type": "string"}
            }
        },
        "main.loginRequest": {
            "type": "object",
            "properties": {"password": {"type": "string"}}
        },
        "predictor.Result": {
            "type": "object",
            "properties": {
                "probability": {"type": "number"},
                "rank_in_all": {"type": "integer"},
                "rank_in_accepted": {"type": "integer"},
                "total_papers": {"type": "integer"},
                "accepted_papers": {"type": "integer"},
                "avg_score": {"type": "number"},
                "min_score": {"type": "number"},
                "prediction_method": {"type": "string"},
                "rule": {"type": "string"},
                "reference_year": {"type": "string"},
                "prediction_time_ms": {"type": "number"}
            }
        },
        "settings.Settings": {
            "type": "object",
            "properties": {
                "price": {"type": "number"},
                "qr_code_url": {"type": "string"},
                "contact_phone": {"type": "string"},
                "score_options": {"type": "array", "items": {"type": "number"}},
                "confidence_options": {"type": "array", "items": {"type": "number"}},
                "conference": {"type": "string"},
                "year": {"type": "string"},
                "payment_wait_time": {"type": "integer"}
            }
        },
        "settings.Update": {
            "type": "object",
            "properties": {
                "price": {"type": "number"},
                "contact_phone": {"type": "string"},
                "score_options": {"type": "string"},
                "confidence_options": {"type": "string"},
                "conference": {"type": "string"},
                "year": {"type": "string"},
                "payment_wait_time": {"type": "integer"}
            }
        },
        "database.PaymentOrder": {
            "type": "object",
            "properties": {
                "order_id": {"type": "string"},
                "amount": {"type": "number"},
                "description": {"type": "string"},
                "status": {"type": "string"},
                "created_at": {"type": "string"},
                "expires_at": {"type": "string"},
                "paid_at": {"type": "string"}
            }
        },
        "auth.Token": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "token_type": {"type": "string"},
                "expires_at": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "2.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Paper Odds API",
	Description:      "Estimates the acceptance probability of a conference paper from its review scores.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
