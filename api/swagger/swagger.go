package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Academy Assessment API",
        "description": "Multi-campus academy assessment backend: assignments, attempts, marking and result ledgers",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Staff and student login, token refresh"},
        {"name": "Sessions", "description": "Student assignment attempts"},
        {"name": "Assignments", "description": "Staff assignment authoring"},
        {"name": "Questions", "description": "Question authoring and images"},
        {"name": "Marking", "description": "Marking and moderation of attempts"},
        {"name": "Results", "description": "Result ledgers and exports"},
        {"name": "Staff", "description": "Staff roles and page permissions"},
        {"name": "Notifications", "description": "Student notification feed"}
    ],
    "paths": {
        "/auth/staff/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate staff member",
                "responses": {
                    "200": {"description": "Tokens issued"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/student/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate student",
                "responses": {
                    "200": {"description": "Tokens issued"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "responses": {
                    "200": {"description": "Tokens rotated"},
                    "401": {"description": "Invalid refresh token"}
                }
            }
        },
        "/student/assignments": {
            "get": {
                "tags": ["Sessions"],
                "summary": "List assignments for the current student",
                "responses": {
                    "200": {"description": "Assignment summaries with attempt status"}
                }
            }
        },
        "/student/assignments/{id}/start": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Start an assignment attempt",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Attempt opened"},
                    "401": {"description": "Wrong password"},
                    "403": {"description": "Outside the availability window or already started"}
                }
            }
        },
        "/student/assignments/{id}/write": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Enter the writing phase",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Shuffled question set"},
                    "403": {"description": "Attempt already left Starting"}
                }
            }
        },
        "/student/assignments/{id}/submit": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Submit an attempt for marking",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Auto-graded total"},
                    "412": {"description": "Attempt not in Writing"}
                }
            }
        },
        "/admin/assignments": {
            "get": {
                "tags": ["Assignments"],
                "summary": "List assignments",
                "responses": {
                    "200": {"description": "Paginated assignments"}
                }
            },
            "post": {
                "tags": ["Assignments"],
                "summary": "Create an assignment",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Invalid payload"}
                }
            }
        },
        "/admin/attempts/{id}/mark": {
            "post": {
                "tags": ["Marking"],
                "summary": "Confirm scores on a pending attempt",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Attempt marked, ledger updated"},
                    "412": {"description": "Attempt not pending"},
                    "422": {"description": "Total possible score is zero"}
                }
            }
        },
        "/admin/attempts/{id}/moderate": {
            "post": {
                "tags": ["Marking"],
                "summary": "Moderate a marked attempt",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Attempt moderated with audit trail"},
                    "412": {"description": "Attempt not marked"}
                }
            }
        },
        "/admin/results": {
            "get": {
                "tags": ["Results"],
                "summary": "Get a ledger by campus, intake group and outcome",
                "responses": {
                    "200": {"description": "Ledger with per-student entries"},
                    "404": {"description": "No ledger for the key"}
                }
            }
        },
        "/admin/campuses/{id}/marking-progress": {
            "get": {
                "tags": ["Results"],
                "summary": "Marking progress per outcome",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Marked vs total counts"}
                }
            }
        }
    },
    "definitions": {
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
