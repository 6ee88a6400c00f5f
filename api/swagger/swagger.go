package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Campus Q&A API",
        "description": "Campus question and answer forum REST API",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Sign-in, tokens and profile"},
        {"name": "Questions", "description": "Question board"},
        {"name": "Answers", "description": "Answers, acceptance and verification"},
        {"name": "Comments", "description": "Answer comments"},
        {"name": "Notifications", "description": "Per-user notification inbox"},
        {"name": "Admin", "description": "Moderation dashboard"}
    ],
    "paths": {
        "/auth/provider": {
            "post": {
                "tags": ["Auth"],
                "summary": "Sign in with a verified provider profile",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ProviderSignInRequest"}}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Sign in with local credentials",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid credentials"}}
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Exchange a refresh token",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/questions": {
            "get": {
                "tags": ["Questions"],
                "summary": "List questions",
                "parameters": [
                    {"name": "category", "in": "query", "type": "string"},
                    {"name": "priority", "in": "query", "type": "string"},
                    {"name": "isResolved", "in": "query", "type": "boolean"},
                    {"name": "tags", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Questions"],
                "summary": "Post a question",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/questions/{id}": {
            "get": {
                "tags": ["Questions"],
                "summary": "Get a question",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            }
        },
        "/answers": {
            "post": {
                "tags": ["Answers"],
                "summary": "Post an answer",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List the caller's notifications",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/admin/stats": {
            "get": {
                "tags": ["Admin"],
                "summary": "Moderation dashboard aggregates",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Insufficient role"}}
            }
        }
    },
    "definitions": {
        "ProviderSignInRequest": {
            "type": "object",
            "required": ["providerId", "email", "name"],
            "properties": {
                "providerId": {"type": "string"},
                "email": {"type": "string"},
                "name": {"type": "string"},
                "avatar": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "current": {"type": "integer"},
                "pages": {"type": "integer"},
                "total": {"type": "integer"},
                "limit": {"type": "integer"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
