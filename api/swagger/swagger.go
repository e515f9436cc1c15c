package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Exam Placement API",
        "description": "Staff tool for placing students into exams and periods",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Reference", "description": "Cached reference lists from the upstream spreadsheet"},
        {"name": "Placements", "description": "Student placement rows and the clear-all gate"},
        {"name": "Reports", "description": "Derived report and edit views"},
        {"name": "Exports", "description": "Downloadable CSV/PDF renditions"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Database unavailable"}
                }
            }
        },
        "/api/v1/reference/roster": {
            "get": {
                "tags": ["Reference"],
                "summary": "Current student roster with classes",
                "parameters": [
                    {"name": "class", "in": "query", "type": "string", "description": "Filter by class"}
                ],
                "responses": {
                    "200": {"description": "Roster entries", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/reference/{list}": {
            "get": {
                "tags": ["Reference"],
                "summary": "One named reference list",
                "parameters": [
                    {"name": "list", "in": "path", "required": true, "type": "string", "enum": ["tests", "periods", "years", "classes"]}
                ],
                "responses": {
                    "200": {"description": "List values", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unknown list name"}
                }
            }
        },
        "/api/v1/reference/refresh": {
            "post": {
                "tags": ["Reference"],
                "summary": "Clear the reference cache",
                "responses": {
                    "204": {"description": "Cache cleared"}
                }
            }
        },
        "/api/v1/assignments": {
            "get": {
                "tags": ["Placements"],
                "summary": "List all placements",
                "responses": {
                    "200": {"description": "All rows", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Placements"],
                "summary": "Save a batch of placements",
                "parameters": [
                    {"name": "X-Actor", "in": "header", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BatchCreateRequest"}}
                ],
                "responses": {
                    "201": {"description": "Rows created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Missing actor or empty selection"}
                }
            }
        },
        "/api/v1/assignments/{id}": {
            "put": {
                "tags": ["Placements"],
                "summary": "Replace all fields of one placement",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "X-Actor", "in": "header", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateAssignmentRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated row", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No row with that id"}
                }
            }
        },
        "/api/v1/assignments/{id}/edit-form": {
            "get": {
                "tags": ["Reports"],
                "summary": "Edit view for one placement",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Edit form with options and stale flags", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No row with that id"}
                }
            }
        },
        "/api/v1/assignments/clear": {
            "post": {
                "tags": ["Placements"],
                "summary": "Request a clear-all confirmation token",
                "responses": {
                    "202": {"description": "Confirmation token issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/assignments/clear/confirm": {
            "post": {
                "tags": ["Placements"],
                "summary": "Destroy every placement after explicit confirmation",
                "responses": {
                    "200": {"description": "Deleted count", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "410": {"description": "Confirmation missing or expired"}
                }
            }
        },
        "/api/v1/assignments/clear/cancel": {
            "post": {
                "tags": ["Placements"],
                "summary": "Cancel a pending clear-all confirmation",
                "responses": {
                    "204": {"description": "Confirmation released"},
                    "410": {"description": "Confirmation missing or expired"}
                }
            }
        },
        "/api/v1/reports/assignments": {
            "get": {
                "tags": ["Reports"],
                "summary": "Full placements report",
                "responses": {
                    "200": {"description": "All rows", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/reports/unconnected": {
            "get": {
                "tags": ["Reports"],
                "summary": "Roster students with no placement row",
                "responses": {
                    "200": {"description": "Unconnected names", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Render a report export and return a signed download link",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {
                    "201": {"description": "Download link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/exports/download": {
            "get": {
                "tags": ["Exports"],
                "summary": "Stream a previously generated export",
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File body"},
                    "403": {"description": "Invalid or expired download link"}
                }
            }
        }
    },
    "definitions": {
        "BatchCreateRequest": {
            "type": "object",
            "required": ["year", "period", "test_id", "class", "students"],
            "properties": {
                "year": {"type": "string"},
                "period": {"type": "string"},
                "test_id": {"type": "string"},
                "class": {"type": "string"},
                "students": {"type": "array", "items": {"type": "string"}}
            }
        },
        "UpdateAssignmentRequest": {
            "type": "object",
            "required": ["year", "period", "test_id", "class", "student"],
            "properties": {
                "year": {"type": "string"},
                "period": {"type": "string"},
                "test_id": {"type": "string"},
                "class": {"type": "string"},
                "student": {"type": "string"}
            }
        },
        "ExportRequest": {
            "type": "object",
            "required": ["type", "format"],
            "properties": {
                "type": {"type": "string", "enum": ["assignments", "unconnected"]},
                "format": {"type": "string", "enum": ["csv", "pdf"]}
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
                "warnings": {"type": "array", "items": {"type": "string"}},
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
