package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Grado API",
        "description": "Lifecycle and review workflow engine for degree projects",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Sessions and tokens"},
        {"name": "Projects", "description": "Project registry and actor roster"},
        {"name": "Workflow", "description": "Iterations, reviews and history"},
        {"name": "Import", "description": "Bulk project upload"},
        {"name": "Catalogs", "description": "Reference catalogs"},
        {"name": "Files", "description": "Signed attachment downloads"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user info",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/projects": {
            "get": {
                "tags": ["Projects"],
                "summary": "List projects",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "program_id", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"},
                    {"name": "sort_by", "in": "query", "type": "string"},
                    {"name": "sort_order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Projects"],
                "summary": "Register project",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateProjectRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate title"}
                }
            }
        },
        "/projects/{id}": {
            "get": {
                "tags": ["Projects"],
                "summary": "Project detail with roster",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/projects/{id}/actors": {
            "post": {
                "tags": ["Projects"],
                "summary": "Assign actor",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ActorAssignment"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already assigned"}
                }
            }
        },
        "/projects/{id}/actors/{personId}": {
            "delete": {
                "tags": ["Projects"],
                "summary": "Remove actor",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "personId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "412": {"description": "Last active student"}
                }
            }
        },
        "/projects/{id}/iteration": {
            "post": {
                "tags": ["Workflow"],
                "summary": "Submit iteration",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "description", "in": "formData", "required": true, "type": "string"},
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not an actor"},
                    "422": {"description": "Terminal status"}
                }
            }
        },
        "/projects/{id}/review": {
            "post": {
                "tags": ["Workflow"],
                "summary": "Review project",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewTransitionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not an actor / role not allowed"},
                    "409": {"description": "Stale expected status"},
                    "422": {"description": "Invalid transition"}
                }
            }
        },
        "/projects/{id}/history": {
            "get": {
                "tags": ["Workflow"],
                "summary": "Project audit history",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "signed_urls", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/projects/bulk-upload": {
            "post": {
                "tags": ["Import"],
                "summary": "Bulk import projects from CSV",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ImportSummary"}},
                    "403": {"description": "Administrative role required"}
                }
            }
        },
        "/projects/bulk-template": {
            "get": {
                "tags": ["Import"],
                "summary": "Download import template",
                "produces": ["text/csv"],
                "responses": {
                    "200": {"description": "CSV template"}
                }
            }
        },
        "/catalogs/statuses": {
            "get": {
                "tags": ["Catalogs"],
                "summary": "List lifecycle statuses",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/catalogs/action-types": {
            "get": {
                "tags": ["Catalogs"],
                "summary": "List workflow action types",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/catalogs/programs": {
            "get": {
                "tags": ["Catalogs"],
                "summary": "List academic programs",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/catalogs/programs/{programId}/degree-options": {
            "get": {
                "tags": ["Catalogs"],
                "summary": "List degree options of a program",
                "parameters": [
                    {"name": "programId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/catalogs/transitions": {
            "get": {
                "tags": ["Catalogs"],
                "summary": "List legal lifecycle transitions",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "RefreshTokenRequest": {
            "type": "object",
            "properties": {
                "refresh_token": {"type": "string"}
            },
            "required": ["refresh_token"]
        },
        "CreateProjectRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "summary": {"type": "string"},
                "objectives": {"type": "string"},
                "company": {"type": "string"},
                "start_date": {"type": "string"},
                "end_date": {"type": "string"},
                "program_id": {"type": "string"},
                "degree_option_id": {"type": "string"},
                "actors": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/ActorAssignment"}
                }
            },
            "required": ["title", "start_date", "program_id", "degree_option_id", "actors"]
        },
        "ActorAssignment": {
            "type": "object",
            "properties": {
                "person_id": {"type": "string"},
                "role": {"type": "string"}
            },
            "required": ["person_id", "role"]
        },
        "ReviewTransitionRequest": {
            "type": "object",
            "properties": {
                "action_type": {"type": "string"},
                "description": {"type": "string"},
                "expected_current_status": {"type": "string"},
                "grade": {"type": "number"}
            },
            "required": ["action_type", "description", "expected_current_status"]
        },
        "ImportSummary": {
            "type": "object",
            "properties": {
                "total_rows": {"type": "integer"},
                "imported": {"type": "integer"},
                "failed": {"type": "integer"},
                "rows": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/ImportRowOutcome"}
                }
            }
        },
        "ImportRowOutcome": {
            "type": "object",
            "properties": {
                "row": {"type": "integer"},
                "success": {"type": "boolean"},
                "title": {"type": "string"},
                "messages": {"type": "array", "items": {"type": "string"}}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"},
                "total_pages": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
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
