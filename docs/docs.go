// Package docs holds the OpenAPI description served at /api/swagger.
// Regenerate with: swag init -g cmd/server/main.go -o docs
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
        "/register": {
            "post": {
                "description": "Create an account. Name is 3-60 characters, email must be unique, password at least 6 characters.",
                "consumes": ["application/json", "application/x-www-form-urlencoded", "multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a user",
                "parameters": [
                    {
                        "description": "Registration form",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/server.registerRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.Envelope"}}
                }
            }
        },
        "/login": {
            "post": {
                "description": "Exchange credentials for a bearer token.",
                "consumes": ["application/json", "application/x-www-form-urlencoded", "multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Log in",
                "parameters": [
                    {
                        "description": "Credentials",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/server.loginRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.Envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.Envelope"}}
                }
            }
        },
        "/logout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Revoke every token of the current user.",
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Log out",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.Envelope"}}
                }
            }
        },
        "/user": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.Envelope"}}
                }
            }
        },
        "/posts": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "All posts, newest first.",
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "List posts",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.Envelope"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.Envelope"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data", "application/json"],
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "Create a post",
                "parameters": [
                    {"type": "string", "description": "Title (max 255)", "name": "title", "in": "formData", "required": true},
                    {"type": "string", "description": "Description", "name": "description", "in": "formData", "required": true},
                    {"type": "file", "description": "jpeg, png, jpg or gif, max 2048 KB", "name": "image", "in": "formData"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.Envelope"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/models.Envelope"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.Envelope"}}
                }
            }
        },
        "/posts/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "Get a post",
                "parameters": [
                    {"type": "integer", "description": "Post ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.Envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.Envelope"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "Only the fields sent are validated and applied. A new image replaces the old file.",
                "consumes": ["multipart/form-data", "application/json"],
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "Update a post",
                "parameters": [
                    {"type": "integer", "description": "Post ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Title (max 255)", "name": "title", "in": "formData"},
                    {"type": "string", "description": "Description", "name": "description", "in": "formData"},
                    {"type": "file", "description": "jpeg, png, jpg or gif, max 2048 KB", "name": "image", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.Envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.Envelope"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/models.Envelope"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "description": "Only the fields sent are validated and applied. A new image replaces the old file.",
                "consumes": ["multipart/form-data", "application/json"],
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "Update a post",
                "parameters": [
                    {"type": "integer", "description": "Post ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Title (max 255)", "name": "title", "in": "formData"},
                    {"type": "string", "description": "Description", "name": "description", "in": "formData"},
                    {"type": "file", "description": "jpeg, png, jpg or gif, max 2048 KB", "name": "image", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.Envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.Envelope"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/models.Envelope"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "description": "Removes the post and its image file.",
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "Delete a post",
                "parameters": [
                    {"type": "integer", "description": "Post ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.Envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.Envelope"}}
                }
            }
        }
    },
    "definitions": {
        "models.Envelope": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "success"},
                "message": {"type": "string"},
                "data": {},
                "error": {},
                "errors": {
                    "type": "object",
                    "additionalProperties": {"type": "array", "items": {"type": "string"}}
                }
            }
        },
        "models.Post": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "image": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "models.TokenPayload": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "token_type": {"type": "string", "example": "Bearer"}
            }
        },
        "models.User": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "server.loginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "server.registerRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and the token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8000",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Postboard API",
	Description:      "Token-authenticated posts API with image uploads.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
