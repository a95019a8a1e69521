// Package docs registers the OpenAPI document for the HTTP API with swag.
// Regenerate with: swag init -g cmd/fileserve/main.go -o infrastructure/api/docs
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
        "/files": {
            "get": {
                "description": "List the entries of a directory under the served root, sorted by name",
                "produces": ["application/json"],
                "tags": ["files"],
                "summary": "List directory",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Directory path relative to the root (default: root)",
                        "name": "path",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/jsonapi.FileListResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/middleware.JSONAPIErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/middleware.JSONAPIErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/middleware.JSONAPIErrorResponse"}}
                }
            }
        },
        "/download": {
            "get": {
                "description": "Serve a file, or a single byte range of it when a Range header is sent.\nThe download endpoint adds Content-Disposition: attachment.",
                "produces": ["application/octet-stream"],
                "tags": ["files"],
                "summary": "Download or stream a file",
                "parameters": [
                    {"type": "string", "description": "File path relative to the root", "name": "path", "in": "query", "required": true},
                    {"type": "string", "description": "Byte range, e.g. bytes=0-1023", "name": "Range", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "206": {"description": "Partial Content", "schema": {"type": "file"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/middleware.JSONAPIErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/middleware.JSONAPIErrorResponse"}},
                    "416": {"description": "Range Not Satisfiable", "schema": {"type": "string"}}
                }
            }
        },
        "/stream": {
            "get": {
                "description": "Serve a file, or a single byte range of it when a Range header is sent.\nThe download endpoint adds Content-Disposition: attachment.",
                "produces": ["application/octet-stream"],
                "tags": ["files"],
                "summary": "Download or stream a file",
                "parameters": [
                    {"type": "string", "description": "File path relative to the root", "name": "path", "in": "query", "required": true},
                    {"type": "string", "description": "Byte range, e.g. bytes=0-1023", "name": "Range", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "206": {"description": "Partial Content", "schema": {"type": "file"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/middleware.JSONAPIErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/middleware.JSONAPIErrorResponse"}},
                    "416": {"description": "Range Not Satisfiable", "schema": {"type": "string"}}
                }
            }
        },
        "/transfers": {
            "get": {
                "description": "List recorded downloads and streams, newest first",
                "produces": ["application/json"],
                "tags": ["transfers"],
                "summary": "List transfers",
                "parameters": [
                    {"type": "integer", "description": "Page number (default: 1)", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Results per page (default: 20, max: 1000)", "name": "page_size", "in": "query"},
                    {"type": "integer", "description": "Alias for page_size", "name": "limit", "in": "query"},
                    {"type": "string", "description": "Only transfers of this path", "name": "path", "in": "query"},
                    {"type": "string", "description": "Comma-separated kinds: download, stream, mcp", "name": "kind", "in": "query"},
                    {"type": "string", "description": "Only transfers started at or after this RFC 3339 time", "name": "since", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/jsonapi.TransferListResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/middleware.JSONAPIErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/middleware.JSONAPIErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/middleware.JSONAPIErrorResponse"}}
                }
            }
        },
        "/transfers/{id}": {
            "get": {
                "description": "Get one recorded transfer by ID",
                "produces": ["application/json"],
                "tags": ["transfers"],
                "summary": "Get transfer",
                "parameters": [
                    {"type": "integer", "description": "Transfer ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/jsonapi.TransferResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/middleware.JSONAPIErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/middleware.JSONAPIErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/middleware.JSONAPIErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "jsonapi.FileAttributes": {
            "type": "object",
            "properties": {
                "is_directory": {"type": "boolean"},
                "modified_time": {"type": "string", "format": "date-time"},
                "name": {"type": "string"},
                "path": {"type": "string"},
                "size": {"type": "integer"}
            }
        },
        "jsonapi.FileListResponse": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/jsonapi.FileResource"}},
                "meta": {"type": "object", "additionalProperties": true}
            }
        },
        "jsonapi.FileResource": {
            "type": "object",
            "properties": {
                "attributes": {"$ref": "#/definitions/jsonapi.FileAttributes"},
                "id": {"type": "string"},
                "type": {"type": "string", "example": "file"}
            }
        },
        "jsonapi.Links": {
            "type": "object",
            "properties": {
                "first": {"type": "string"},
                "last": {"type": "string"},
                "next": {"type": "string"},
                "prev": {"type": "string"},
                "self": {"type": "string"}
            }
        },
        "jsonapi.TransferAttributes": {
            "type": "object",
            "properties": {
                "bytes_sent": {"type": "integer"},
                "client_addr": {"type": "string"},
                "complete": {"type": "boolean"},
                "end": {"type": "integer"},
                "finished_at": {"type": "string", "format": "date-time"},
                "kind": {"type": "string"},
                "length": {"type": "integer"},
                "path": {"type": "string"},
                "request_id": {"type": "string"},
                "start": {"type": "integer"},
                "started_at": {"type": "string", "format": "date-time"},
                "status": {"type": "integer"}
            }
        },
        "jsonapi.TransferListResponse": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/jsonapi.TransferResource"}},
                "links": {"$ref": "#/definitions/jsonapi.Links"},
                "meta": {"type": "object", "additionalProperties": true}
            }
        },
        "jsonapi.TransferResponse": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/jsonapi.TransferResource"}
            }
        },
        "jsonapi.TransferResource": {
            "type": "object",
            "properties": {
                "attributes": {"$ref": "#/definitions/jsonapi.TransferAttributes"},
                "id": {"type": "string"},
                "type": {"type": "string", "example": "transfer"}
            }
        },
        "middleware.JSONAPIError": {
            "type": "object",
            "properties": {
                "detail": {"type": "string"},
                "id": {"type": "string"},
                "status": {"type": "string"},
                "title": {"type": "string"}
            }
        },
        "middleware.JSONAPIErrorResponse": {
            "type": "object",
            "properties": {
                "errors": {"type": "array", "items": {"$ref": "#/definitions/middleware.JSONAPIError"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "fileserve API",
	Description:      "Browse, download and range-stream files from a directory",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
