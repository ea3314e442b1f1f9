// Package docs holds the OpenAPI description of the portal API served at
// /swagger/*. Regenerate with: swag init -g cmd/portal/main.go
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
        "/v1/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login by email",
                "parameters": [
                    {"description": "Email to sign in with", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.loginResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/v1/auth/logout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["auth"],
                "summary": "Logout",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/v1/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current identity",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.User"}}}
            }
        },
        "/v1/dashboard": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Trader dashboard",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/licenses": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["licenses"],
                "summary": "My licenses",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["licenses"],
                "summary": "Request a new license",
                "parameters": [
                    {"type": "string", "description": "Client-generated key to make retries safe", "name": "Idempotency-Key", "in": "header"},
                    {"description": "MT5 account to bind", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.createLicenseRequest"}}
                ],
                "responses": {
                    "200": {"description": "Replayed request"},
                    "201": {"description": "Created"},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/v1/payments": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "My payments",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/tickets": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["tickets"],
                "summary": "My support tickets",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/investor-requests": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["investors"],
                "summary": "Request investor access",
                "parameters": [
                    {"description": "Contact email", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.investorSubmitRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.InvestorRequest"}}}
            }
        },
        "/v1/admin/overview": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Admin overview",
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}
            }
        },
        "/v1/admin/users": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "All users",
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}
            }
        },
        "/v1/admin/licenses": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "All licenses",
                "parameters": [
                    {"type": "string", "description": "pending, active, suspended, expired or all", "name": "status", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}
            }
        },
        "/v1/admin/licenses/{id}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["admin"],
                "summary": "Delete a license",
                "parameters": [{"type": "string", "description": "License ID", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found"}}
            }
        },
        "/v1/admin/licenses/{id}/approve": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Approve a pending license",
                "parameters": [
                    {"type": "string", "description": "License ID", "name": "id", "in": "path", "required": true},
                    {"description": "Key to issue", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.approveLicenseRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.License"}}, "409": {"description": "Conflict"}}
            }
        },
        "/v1/admin/licenses/{id}/reject": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["admin"],
                "summary": "Reject a pending license",
                "parameters": [{"type": "string", "description": "License ID", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}, "409": {"description": "Conflict"}}
            }
        },
        "/v1/admin/licenses/{id}/suspend": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Suspend an active license",
                "parameters": [{"type": "string", "description": "License ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.License"}}, "409": {"description": "Conflict"}}
            }
        },
        "/v1/admin/licenses/{id}/reinstate": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Reinstate a suspended license",
                "parameters": [{"type": "string", "description": "License ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.License"}}, "409": {"description": "Conflict"}}
            }
        },
        "/v1/admin/payments": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "All payments",
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}
            }
        },
        "/v1/admin/investor-requests": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Investor requests",
                "parameters": [{"type": "string", "description": "pending (default) or sent", "name": "status", "in": "query"}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}
            }
        },
        "/v1/admin/investor-requests/{id}/resolve": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Resolve an investor request",
                "parameters": [
                    {"type": "string", "description": "Request ID", "name": "id", "in": "path", "required": true},
                    {"description": "Credentials to send", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.investorResolveRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.InvestorRequest"}}, "409": {"description": "Conflict"}}
            }
        },
        "/v1/admin/tickets": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "All support tickets",
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}
            }
        }
    },
    "definitions": {
        "api.errorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "domain.User": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "role": {"type": "string", "enum": ["user", "admin"]}
            }
        },
        "domain.License": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "user_id": {"type": "string"},
                "key": {"type": "string"},
                "mt5_account_id": {"type": "string"},
                "broker_server": {"type": "string"},
                "status": {"type": "string", "enum": ["pending", "active", "suspended", "expired"]},
                "created_date": {"type": "string"},
                "expiry_date": {"type": "string"}
            }
        },
        "domain.InvestorRequest": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "email": {"type": "string"},
                "status": {"type": "string", "enum": ["pending", "sent"]},
                "date": {"type": "string"}
            }
        },
        "handler.loginRequest": {
            "type": "object",
            "required": ["email"],
            "properties": {"email": {"type": "string"}}
        },
        "handler.loginResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "expires_at": {"type": "string"},
                "user": {"$ref": "#/definitions/domain.User"}
            }
        },
        "handler.createLicenseRequest": {
            "type": "object",
            "required": ["mt5_account_id", "broker_server"],
            "properties": {
                "mt5_account_id": {"type": "string"},
                "broker_server": {"type": "string"}
            }
        },
        "handler.approveLicenseRequest": {
            "type": "object",
            "required": ["key"],
            "properties": {"key": {"type": "string"}}
        },
        "handler.investorSubmitRequest": {
            "type": "object",
            "required": ["email"],
            "properties": {"email": {"type": "string"}}
        },
        "handler.investorResolveRequest": {
            "type": "object",
            "required": ["investor_login", "investor_password"],
            "properties": {
                "investor_login": {"type": "string"},
                "investor_password": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and the session token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "TradeLoom Portal API",
	Description:      "License purchase and approval, payment history and investor access for AlgoPilot traders.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
