package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Visit Builder API",
        "description": "Coach visit schedule builder: drag teachers onto time zones, check conflicts, save planned visits",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Visit Builder", "description": "Draft sessions, gestures and persistence"},
        {"name": "Metrics", "description": "Operational metrics"}
    ],
    "paths": {
        "/builder/sessions": {
            "post": {
                "tags": ["Visit Builder"],
                "summary": "Open a visit builder session",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OpenSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/builder/sessions/{id}": {
            "get": {
                "tags": ["Visit Builder"],
                "summary": "Get session state",
                "security": [{"BearerAuth": []}],
                "parameters": [{"$ref": "#/parameters/SessionID"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown session", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "410": {"description": "Session expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Visit Builder"],
                "summary": "Close a session, dropping unsaved work",
                "security": [{"BearerAuth": []}],
                "parameters": [{"$ref": "#/parameters/SessionID"}],
                "responses": {"204": {"description": "Closed"}}
            }
        },
        "/builder/sessions/{id}/selection": {
            "post": {
                "tags": ["Visit Builder"],
                "summary": "Select a teacher",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"$ref": "#/parameters/SessionID"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TeacherRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/builder/sessions/{id}/selection/{teacherId}": {
            "delete": {
                "tags": ["Visit Builder"],
                "summary": "Deselect a teacher",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"$ref": "#/parameters/SessionID"},
                    {"name": "teacherId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/builder/sessions/{id}/selection/multi": {
            "post": {
                "tags": ["Visit Builder"],
                "summary": "Toggle multi-select mode",
                "security": [{"BearerAuth": []}],
                "parameters": [{"$ref": "#/parameters/SessionID"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/builder/sessions/{id}/drag": {
            "post": {
                "tags": ["Visit Builder"],
                "summary": "Start dragging a teacher",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"$ref": "#/parameters/SessionID"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TeacherRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Gesture not allowed in the current phase", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Visit Builder"],
                "summary": "Cancel the current drag",
                "security": [{"BearerAuth": []}],
                "parameters": [{"$ref": "#/parameters/SessionID"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/builder/sessions/{id}/hover": {
            "put": {
                "tags": ["Visit Builder"],
                "summary": "Set or clear the hovered zone",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"$ref": "#/parameters/SessionID"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/HoverRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/builder/sessions/{id}/drop": {
            "post": {
                "tags": ["Visit Builder"],
                "summary": "Drop the dragged teacher onto a zone",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"$ref": "#/parameters/SessionID"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ZoneRequest"}}
                ],
                "responses": {
                    "200": {"description": "Committed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflicts found or not dragging", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Commitment lookup failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/builder/sessions/{id}/assignments": {
            "post": {
                "tags": ["Visit Builder"],
                "summary": "Assign a teacher, or every selected teacher, without dragging",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"$ref": "#/parameters/SessionID"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignRequest"}}
                ],
                "responses": {
                    "200": {"description": "Committed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflicts found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Commitment lookup failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Visit Builder"],
                "summary": "Discard the draft without saving",
                "security": [{"BearerAuth": []}],
                "parameters": [{"$ref": "#/parameters/SessionID"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/builder/sessions/{id}/assignments/{teacherId}": {
            "delete": {
                "tags": ["Visit Builder"],
                "summary": "Remove one draft assignment",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"$ref": "#/parameters/SessionID"},
                    {"name": "teacherId", "in": "path", "required": true, "type": "string"},
                    {"name": "start", "in": "query", "required": true, "type": "string"},
                    {"name": "end", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No such assignment", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/builder/sessions/{id}/assignments/{teacherId}/purpose": {
            "patch": {
                "tags": ["Visit Builder"],
                "summary": "Set the purpose of a draft assignment",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"$ref": "#/parameters/SessionID"},
                    {"name": "teacherId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PurposeRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/builder/sessions/{id}/save": {
            "post": {
                "tags": ["Visit Builder"],
                "summary": "Persist the draft as planned visits",
                "security": [{"BearerAuth": []}],
                "parameters": [{"$ref": "#/parameters/SessionID"}],
                "responses": {
                    "200": {"description": "Saved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Visit creation failed, draft kept", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/builder/sessions/{id}/checkpoint": {
            "post": {
                "tags": ["Visit Builder"],
                "summary": "Store the draft for a later session",
                "security": [{"BearerAuth": []}],
                "parameters": [{"$ref": "#/parameters/SessionID"}],
                "responses": {"201": {"description": "Stored", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/builder/sessions/{id}/restore": {
            "post": {
                "tags": ["Visit Builder"],
                "summary": "Replace the draft with the stored checkpoint",
                "security": [{"BearerAuth": []}],
                "parameters": [{"$ref": "#/parameters/SessionID"}],
                "responses": {
                    "200": {"description": "Restored", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No checkpoint", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/builder/sessions/{id}/accountability": {
            "get": {
                "tags": ["Visit Builder"],
                "summary": "Per-teacher coverage for the session",
                "security": [{"BearerAuth": []}],
                "parameters": [{"$ref": "#/parameters/SessionID"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/metrics/summary": {
            "get": {
                "tags": ["Metrics"],
                "summary": "Builder metrics summary",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "parameters": {
        "SessionID": {"name": "id", "in": "path", "required": true, "type": "string"}
    },
    "definitions": {
        "OpenSessionRequest": {
            "type": "object",
            "required": ["school_id", "date"],
            "properties": {
                "school_id": {"type": "string"},
                "date": {"type": "string", "example": "2024-03-04"},
                "coach_id": {"type": "string"},
                "teacher_ids": {"type": "array", "items": {"type": "string"}},
                "restore": {"type": "boolean"}
            }
        },
        "TeacherRequest": {
            "type": "object",
            "required": ["teacher_id"],
            "properties": {
                "teacher_id": {"type": "string"}
            }
        },
        "ZoneRequest": {
            "type": "object",
            "required": ["zone"],
            "properties": {
                "zone": {"type": "string", "enum": ["observation", "debrief", "co_planning", "plc", "full_visit"]},
                "start_time": {"type": "string", "example": "09:00"},
                "end_time": {"type": "string", "example": "09:45"},
                "period_number": {"type": "integer"},
                "portion": {"type": "string", "enum": ["full_period", "first_half", "second_half"]}
            }
        },
        "HoverRequest": {
            "type": "object",
            "properties": {
                "zone": {"$ref": "#/definitions/ZoneRequest"}
            }
        },
        "AssignRequest": {
            "type": "object",
            "required": ["zone"],
            "properties": {
                "zone": {"type": "string"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "period_number": {"type": "integer"},
                "portion": {"type": "string"},
                "teacher_id": {"type": "string"}
            }
        },
        "PurposeRequest": {
            "type": "object",
            "required": ["start_time", "end_time"],
            "properties": {
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "purpose": {"type": "string", "maxLength": 200}
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
