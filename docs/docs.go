// Package docs содержит swagger-спецификацию API, которую отдаёт /docs.
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
        "/auth/signup": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Регистрация",
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/signup.Request"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/signup.Response"}},
                    "400": {"description": "Пустые поля, слабый пароль или email занят", "schema": {"$ref": "#/definitions/response.MessageResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.MessageResponse"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Вход",
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/login.Request"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/login.Response"}},
                    "400": {"description": "Пустые поля или неверные учётные данные", "schema": {"$ref": "#/definitions/response.MessageResponse"}},
                    "403": {"description": "Учётная запись деактивирована", "schema": {"$ref": "#/definitions/response.MessageResponse"}}
                }
            }
        },
        "/users/profile": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Профиль",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Projection"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.MessageResponse"}},
                    "403": {"description": "Учётная запись деактивирована", "schema": {"$ref": "#/definitions/response.MessageResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.MessageResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Изменение профиля",
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/update.Request"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Projection"}},
                    "400": {"description": "Email занят или слабый пароль", "schema": {"$ref": "#/definitions/response.MessageResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.MessageResponse"}}
                }
            }
        },
        "/admin/users": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Список учётных записей",
                "parameters": [
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/list.Response"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.MessageResponse"}}
                }
            }
        },
        "/admin/users/{id}/status": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Смена статуса",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/status.Request"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.MessageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.MessageResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.MessageResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.MessageResponse"}}
                }
            }
        }
    },
    "definitions": {
        "response.MessageResponse": {
            "type": "object",
            "properties": {"message": {"type": "string", "example": "User not found"}}
        },
        "signup.Request": {
            "type": "object",
            "required": ["email", "fullName", "password"],
            "properties": {
                "email": {"type": "string", "example": "ann@example.com"},
                "fullName": {"type": "string", "example": "Ann Example"},
                "password": {"type": "string", "example": "secret1!"}
            }
        },
        "signup.Response": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "fullName": {"type": "string"},
                "id": {"type": "string"},
                "role": {"type": "string"},
                "token": {"type": "string"}
            }
        },
        "login.Request": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string", "example": "ann@example.com"},
                "password": {"type": "string", "example": "secret1!"}
            }
        },
        "login.Response": {
            "type": "object",
            "properties": {
                "message": {"type": "string", "example": "Login successful"},
                "token": {"type": "string"},
                "user": {"$ref": "#/definitions/login.User"}
            }
        },
        "login.User": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "fullName": {"type": "string"},
                "id": {"type": "string"},
                "lastLogin": {"type": "string"},
                "role": {"type": "string"}
            }
        },
        "update.Request": {
            "type": "object",
            "properties": {
                "email": {"type": "string", "example": "ann.b@example.com"},
                "fullName": {"type": "string", "example": "Ann B. Example"},
                "password": {"type": "string", "example": "n3wPass!"}
            }
        },
        "status.Request": {
            "type": "object",
            "required": ["status"],
            "properties": {"status": {"type": "string", "example": "inactive"}}
        },
        "list.Response": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "total": {"type": "integer"},
                "totalPages": {"type": "integer"},
                "users": {"type": "array", "items": {"$ref": "#/definitions/models.Projection"}}
            }
        },
        "models.Projection": {
            "type": "object",
            "properties": {
                "createdAt": {"type": "string"},
                "email": {"type": "string"},
                "fullName": {"type": "string"},
                "id": {"type": "string"},
                "lastLogin": {"type": "string"},
                "role": {"type": "string"},
                "status": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:3000",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "User Management API",
	Description:      "Регистрация, вход, профиль и администрирование учётных записей",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
