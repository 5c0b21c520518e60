package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "RefDesk API",
        "description": "Referee delegation service for basketball competitions",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Sessions and tokens"},
        {"name": "Referees", "description": "Referee registry"},
        {"name": "Availability", "description": "Per-day availability declarations"},
        {"name": "Matches", "description": "Match schedule"},
        {"name": "Delegations", "description": "Slot assignments and responses"},
        {"name": "Roster", "description": "Delegation candidate lists"},
        {"name": "Reports", "description": "Asynchronous exports"}
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
        "/referees": {
            "get": {
                "tags": ["Referees"],
                "summary": "List referees",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "license", "in": "query", "type": "string"},
                    {"name": "city", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Referees"],
                "summary": "Create referee profile",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateRefereeRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/referees/{id}/availability": {
            "get": {
                "tags": ["Availability"],
                "summary": "List availability declarations",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Availability"],
                "summary": "Declare availability for one day",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetAvailabilityRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/matches/{id}/delegation": {
            "get": {
                "tags": ["Delegations"],
                "summary": "Get match delegation",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Match not found"}
                }
            }
        },
        "/matches/{id}/delegation/slots/{slot}": {
            "put": {
                "tags": ["Delegations"],
                "summary": "Assign a referee to a slot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "slot", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignSlotRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate, stale or finalized assignment"},
                    "422": {"description": "Referee unavailable (overridable)"}
                }
            },
            "delete": {
                "tags": ["Delegations"],
                "summary": "Clear a slot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "slot", "in": "path", "required": true, "type": "string"},
                    {"name": "expectedVersion", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/matches/{id}/delegation/confirm": {
            "post": {
                "tags": ["Delegations"],
                "summary": "Confirm a delegation",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ConfirmDelegationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Delegation incomplete"}
                }
            }
        },
        "/matches/{id}/delegation/slots/{slot}/respond": {
            "post": {
                "tags": ["Delegations"],
                "summary": "Respond to an assignment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "slot", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RespondRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Response already finalized"}
                }
            }
        },
        "/matches/{id}/candidates": {
            "get": {
                "tags": ["Roster"],
                "summary": "List delegation candidates",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports": {
            "post": {
                "tags": ["Reports"],
                "summary": "Queue a report",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateReportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateRefereeRequest": {
            "type": "object",
            "properties": {
                "userId": {"type": "string"},
                "fullName": {"type": "string"},
                "license": {"type": "string", "enum": ["INTERNATIONAL", "NATIONAL_A", "NATIONAL_B", "NATIONAL_C", "REGIONAL"]},
                "city": {"type": "string"},
                "experienceYears": {"type": "integer"}
            },
            "required": ["userId", "fullName", "license"]
        },
        "SetAvailabilityRequest": {
            "type": "object",
            "properties": {
                "date": {"type": "string", "format": "date"},
                "available": {"type": "boolean"},
                "reason": {"type": "string"}
            },
            "required": ["date"]
        },
        "AssignSlotRequest": {
            "type": "object",
            "properties": {
                "refereeId": {"type": "string"},
                "override": {"type": "boolean"},
                "expectedVersion": {"type": "integer"}
            },
            "required": ["refereeId"]
        },
        "ConfirmDelegationRequest": {
            "type": "object",
            "properties": {
                "expectedVersion": {"type": "integer"}
            }
        },
        "RespondRequest": {
            "type": "object",
            "properties": {
                "action": {"type": "string", "enum": ["accept", "decline"]},
                "reason": {"type": "string", "enum": ["SCHEDULE_CONFLICT", "HEALTH", "PERSONAL", "TRAVEL", "OTHER"]},
                "note": {"type": "string"}
            },
            "required": ["action"]
        },
        "CreateReportRequest": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["delegations", "availability", "declines"]},
                "format": {"type": "string", "enum": ["csv", "pdf"]},
                "competitionId": {"type": "string"},
                "dateFrom": {"type": "string", "format": "date"},
                "dateTo": {"type": "string", "format": "date"}
            },
            "required": ["type", "format"]
        },
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
                "status": {"type": "integer"},
                "details": {"type": "object"}
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
