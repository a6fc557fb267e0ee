// Package openapi registers the Swagger 2.0 description of the HTTP API.
// Regenerate with: swag init -g cmd/docsearch/main.go -o infrastructure/api/openapi
package openapi

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/documents": {
            "get": {
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "List documents",
                "parameters": [
                    {"type": "integer", "description": "Only documents attached to this correspondence", "name": "correspondence_id", "in": "query"},
                    {"type": "integer", "description": "Page number", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size (max 100)", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/jsonapi.Document"}}
                }
            },
            "post": {
                "security": [{"APIKeyAuth": []}],
                "description": "Stores the file and queues it for extraction and indexing",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Upload a document",
                "parameters": [
                    {"type": "file", "description": "PDF, image or text file", "name": "file", "in": "formData", "required": true},
                    {"type": "string", "description": "Display name, defaults to the file name", "name": "name", "in": "formData"},
                    {"type": "integer", "description": "Correspondence to attach to", "name": "correspondence_id", "in": "formData"},
                    {"type": "string", "description": "Text to index instead of the file's extracted text", "name": "content", "in": "formData"}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/dto.JobAccepted"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/jsonapi.Document"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/jsonapi.Document"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/jsonapi.Document"}}
                }
            }
        },
        "/documents/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Get a document",
                "parameters": [
                    {"type": "integer", "description": "Document ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/jsonapi.Document"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/jsonapi.Document"}}
                }
            }
        },
        "/documents/{id}/jobs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "List indexing jobs of a document",
                "parameters": [
                    {"type": "integer", "description": "Document ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/task.Job"}}}
                }
            }
        },
        "/documents/{id}/reprocess": {
            "post": {
                "security": [{"APIKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Re-run the indexing pipeline",
                "parameters": [
                    {"type": "integer", "description": "Document ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/dto.JobAccepted"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/jsonapi.Document"}}
                }
            }
        },
        "/correspondence": {
            "post": {
                "security": [{"APIKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["correspondence"],
                "summary": "Create a correspondence record",
                "parameters": [
                    {"description": "Correspondence", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CorrespondenceRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/jsonapi.Document"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/jsonapi.Document"}}
                }
            }
        },
        "/correspondence/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["correspondence"],
                "summary": "Get a correspondence record with its documents",
                "parameters": [
                    {"type": "integer", "description": "Correspondence ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/jsonapi.Document"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/jsonapi.Document"}}
                }
            }
        },
        "/correspondence/{id}/reindex": {
            "post": {
                "security": [{"APIKeyAuth": []}],
                "tags": ["correspondence"],
                "summary": "Re-embed the documents of a correspondence record",
                "parameters": [
                    {"type": "integer", "description": "Correspondence ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/jsonapi.Document"}}
                }
            }
        },
        "/drafts": {
            "post": {
                "security": [{"APIKeyAuth": []}],
                "description": "Stores the draft and indexes its text",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["drafts"],
                "summary": "Create a draft",
                "parameters": [
                    {"description": "Draft", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.DraftRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/jsonapi.Document"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/jsonapi.Document"}}
                }
            }
        },
        "/drafts/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["drafts"],
                "summary": "Get a draft",
                "parameters": [
                    {"type": "integer", "description": "Draft ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/jsonapi.Document"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/jsonapi.Document"}}
                }
            },
            "put": {
                "security": [{"APIKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["drafts"],
                "summary": "Replace a draft",
                "parameters": [
                    {"type": "integer", "description": "Draft ID", "name": "id", "in": "path", "required": true},
                    {"description": "Draft", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.DraftRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/jsonapi.Document"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/jsonapi.Document"}}
                }
            }
        },
        "/jobs/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Get job status",
                "parameters": [
                    {"type": "string", "description": "Task ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/task.Job"}}
                }
            }
        },
        "/search/documents": {
            "get": {
                "description": "Ranks indexed documents by semantic similarity to the query",
                "produces": ["application/json"],
                "tags": ["search"],
                "summary": "Search documents",
                "parameters": [
                    {"type": "string", "description": "Search text", "name": "q", "in": "query", "required": true},
                    {"type": "number", "description": "Minimum similarity, 0 to 1", "name": "threshold", "in": "query"},
                    {"type": "integer", "description": "Maximum number of results", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.SearchResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/jsonapi.Document"}}
                }
            }
        },
        "/search/correspondence": {
            "get": {
                "description": "Ranks correspondence by its best matching attached document",
                "produces": ["application/json"],
                "tags": ["search"],
                "summary": "Search correspondence",
                "parameters": [
                    {"type": "string", "description": "Search text", "name": "q", "in": "query", "required": true},
                    {"type": "number", "description": "Minimum similarity, 0 to 1", "name": "threshold", "in": "query"},
                    {"type": "integer", "description": "Maximum number of results", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.SearchResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/jsonapi.Document"}}
                }
            }
        },
        "/search/drafts": {
            "get": {
                "produces": ["application/json"],
                "tags": ["search"],
                "summary": "Search drafts",
                "parameters": [
                    {"type": "string", "description": "Search text", "name": "q", "in": "query", "required": true},
                    {"type": "number", "description": "Minimum similarity, 0 to 1", "name": "threshold", "in": "query"},
                    {"type": "integer", "description": "Maximum number of results", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.SearchResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/jsonapi.Document"}}
                }
            }
        }
    },
    "definitions": {
        "dto.CorrespondenceRequest": {
            "type": "object",
            "properties": {
                "reference": {"type": "string"},
                "subject": {"type": "string"},
                "description": {"type": "string"}
            }
        },
        "dto.DraftRequest": {
            "type": "object",
            "properties": {
                "reference": {"type": "string"},
                "intro": {"type": "string"},
                "body": {"type": "string"},
                "conclusion": {"type": "string"},
                "html_content": {"type": "string"}
            }
        },
        "dto.JobAccepted": {
            "type": "object",
            "properties": {
                "task_id": {"type": "string"},
                "status": {"type": "string"},
                "document_id": {"type": "integer"}
            }
        },
        "dto.SearchResult": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "type": {"type": "string"},
                "name": {"type": "string"},
                "preview": {"type": "string"},
                "similarity": {"type": "number"}
            }
        },
        "dto.SearchResponse": {
            "type": "object",
            "properties": {
                "query": {"type": "string"},
                "results": {"type": "array", "items": {"$ref": "#/definitions/dto.SearchResult"}}
            }
        },
        "jsonapi.Document": {
            "type": "object",
            "properties": {
                "data": {},
                "meta": {"type": "object", "additionalProperties": true},
                "links": {"type": "object", "additionalProperties": {"type": "string"}},
                "errors": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "id": {"type": "string"},
                            "status": {"type": "string"},
                            "title": {"type": "string"},
                            "detail": {"type": "string"}
                        }
                    }
                }
            }
        },
        "task.Job": {
            "type": "object",
            "properties": {
                "task_id": {"type": "string"},
                "status": {"type": "string", "enum": ["pending", "success", "failure"]},
                "result": {"type": "object", "additionalProperties": true},
                "error": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "APIKeyAuth": {
            "type": "apiKey",
            "name": "X-API-KEY",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "docsearch API",
	Description:      "Semantic search over uploaded documents, correspondence and drafts.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
