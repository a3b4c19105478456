package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Progress Coins API",
        "description": "Derives student progress and coin balances and runs the redemption workflow.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {
            "name": "Periods"
        },
        {
            "name": "Records"
        },
        {
            "name": "Balances"
        },
        {
            "name": "Overrides"
        },
        {
            "name": "Adjustments"
        },
        {
            "name": "Requests"
        },
        {
            "name": "Reconciliation"
        },
        {
            "name": "Configuration"
        },
        {
            "name": "Analytics"
        },
        {
            "name": "Exports"
        }
    ],
    "paths": {
        "/periods": {
            "get": {
                "tags": [
                    "Periods"
                ],
                "summary": "List periods",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Already processed"
                    }
                }
            },
            "post": {
                "tags": [
                    "Periods"
                ],
                "summary": "Create period",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Period exists"
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/UpsertPeriodRequest"
                        }
                    }
                ]
            }
        },
        "/periods/{key}": {
            "get": {
                "tags": [
                    "Periods"
                ],
                "summary": "Get period",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Already processed"
                    }
                },
                "parameters": [
                    {
                        "name": "key",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ]
            },
            "put": {
                "tags": [
                    "Periods"
                ],
                "summary": "Redefine period",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Already processed"
                    }
                },
                "parameters": [
                    {
                        "name": "key",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/UpsertPeriodRequest"
                        }
                    }
                ]
            }
        },
        "/students/{studentId}/records/{date}": {
            "get": {
                "tags": [
                    "Records"
                ],
                "summary": "Day records of a student",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "No record on that date"
                    }
                },
                "parameters": [
                    {
                        "name": "studentId",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "date",
                        "in": "path",
                        "type": "string",
                        "format": "date",
                        "required": true
                    }
                ]
            }
        },
        "/students/{studentId}/periods/{period}/sections/{section}/records": {
            "get": {
                "tags": [
                    "Records"
                ],
                "summary": "List dataset records",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Already processed"
                    }
                },
                "parameters": [
                    {
                        "name": "studentId",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "period",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "section",
                        "in": "path",
                        "type": "integer",
                        "required": true
                    }
                ]
            },
            "put": {
                "tags": [
                    "Records"
                ],
                "summary": "Replace dataset records",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Already processed"
                    }
                },
                "parameters": [
                    {
                        "name": "studentId",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "period",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "section",
                        "in": "path",
                        "type": "integer",
                        "required": true
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/IngestRecordsRequest"
                        }
                    }
                ]
            }
        },
        "/students/{studentId}/progress": {
            "get": {
                "tags": [
                    "Balances"
                ],
                "summary": "Student progress",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Already processed"
                    }
                },
                "parameters": [
                    {
                        "name": "studentId",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ]
            }
        },
        "/students/{studentId}/balance": {
            "get": {
                "tags": [
                    "Balances"
                ],
                "summary": "Student balance",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Already processed"
                    }
                },
                "parameters": [
                    {
                        "name": "studentId",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ]
            }
        },
        "/students/{studentId}/overrides": {
            "get": {
                "tags": [
                    "Overrides"
                ],
                "summary": "List overrides",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Already processed"
                    }
                },
                "parameters": [
                    {
                        "name": "studentId",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ]
            },
            "put": {
                "tags": [
                    "Overrides"
                ],
                "summary": "Create or replace an override",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Already processed"
                    }
                },
                "parameters": [
                    {
                        "name": "studentId",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/UpsertOverrideRequest"
                        }
                    }
                ]
            }
        },
        "/students/{studentId}/overrides/{day}": {
            "delete": {
                "tags": [
                    "Overrides"
                ],
                "summary": "Remove an override",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "204": {
                        "description": "Deleted"
                    }
                },
                "parameters": [
                    {
                        "name": "studentId",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "day",
                        "in": "path",
                        "type": "integer",
                        "required": true
                    }
                ]
            }
        },
        "/students/{studentId}/adjustments": {
            "get": {
                "tags": [
                    "Adjustments"
                ],
                "summary": "List adjustments",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Already processed"
                    }
                },
                "parameters": [
                    {
                        "name": "studentId",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "include_inactive",
                        "in": "query",
                        "type": "boolean"
                    }
                ]
            },
            "post": {
                "tags": [
                    "Adjustments"
                ],
                "summary": "Record an adjustment",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "studentId",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateAdjustmentRequest"
                        }
                    }
                ]
            }
        },
        "/adjustments/{id}/deactivate": {
            "post": {
                "tags": [
                    "Adjustments"
                ],
                "summary": "Deactivate an adjustment",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Already processed"
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ]
            }
        },
        "/requests": {
            "get": {
                "tags": [
                    "Requests"
                ],
                "summary": "List requests",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Already processed"
                    }
                },
                "parameters": [
                    {
                        "name": "student_id",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "name": "status",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "name": "type",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer"
                    },
                    {
                        "name": "page_size",
                        "in": "query",
                        "type": "integer"
                    }
                ]
            },
            "post": {
                "tags": [
                    "Requests"
                ],
                "summary": "Submit a request",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "403": {
                        "description": "Feature disabled"
                    },
                    "422": {
                        "description": "Insufficient balance"
                    },
                    "429": {
                        "description": "Rate limited"
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SubmitRequestInput"
                        }
                    }
                ]
            }
        },
        "/requests/{id}": {
            "get": {
                "tags": [
                    "Requests"
                ],
                "summary": "Get request",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Already processed"
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ]
            }
        },
        "/requests/{id}/process": {
            "post": {
                "tags": [
                    "Requests"
                ],
                "summary": "Approve or reject a request",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Already processed"
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ProcessRequestInput"
                        }
                    }
                ]
            }
        },
        "/students/{studentId}/requests/magic-approve": {
            "post": {
                "tags": [
                    "Requests"
                ],
                "summary": "Auto-approve routine override requests",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Already processed"
                    }
                },
                "parameters": [
                    {
                        "name": "studentId",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ]
            }
        },
        "/reconciliation": {
            "get": {
                "tags": [
                    "Reconciliation"
                ],
                "summary": "List ledger inconsistencies",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Already processed"
                    }
                }
            }
        },
        "/reconciliation/repair": {
            "post": {
                "tags": [
                    "Reconciliation"
                ],
                "summary": "Deactivate adjustments behind repairable findings",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Already processed"
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": false,
                        "schema": {
                            "$ref": "#/definitions/RepairRequest"
                        }
                    }
                ]
            }
        },
        "/configuration/flags": {
            "get": {
                "tags": [
                    "Configuration"
                ],
                "summary": "List feature flags",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Already processed"
                    }
                }
            }
        },
        "/configuration/flags/{key}": {
            "put": {
                "tags": [
                    "Configuration"
                ],
                "summary": "Update a feature flag",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Already processed"
                    }
                },
                "parameters": [
                    {
                        "name": "key",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/UpdateConfigurationRequest"
                        }
                    }
                ]
            }
        },
        "/analytics/periods/{period}/sections/{section}": {
            "get": {
                "tags": [
                    "Analytics"
                ],
                "summary": "Period section summary",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Already processed"
                    }
                },
                "parameters": [
                    {
                        "name": "period",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "section",
                        "in": "path",
                        "type": "integer",
                        "required": true
                    }
                ]
            }
        },
        "/analytics/leaderboard": {
            "get": {
                "tags": [
                    "Analytics"
                ],
                "summary": "Top balances",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Already processed"
                    }
                },
                "parameters": [
                    {
                        "name": "period",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer"
                    }
                ]
            }
        },
        "/exports/balances": {
            "get": {
                "tags": [
                    "Exports"
                ],
                "summary": "Download balance report",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Report file",
                        "schema": {
                            "type": "file"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "period",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "name": "format",
                        "in": "query",
                        "type": "string",
                        "enum": [
                            "csv",
                            "pdf",
                            "xlsx"
                        ]
                    }
                ]
            }
        }
    },
    "definitions": {
        "UpsertPeriodRequest": {
            "type": "object",
            "properties": {
                "key": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "startDate": {
                    "type": "string",
                    "format": "date"
                },
                "endDate": {
                    "type": "string",
                    "format": "date"
                },
                "excludedDates": {
                    "type": "array",
                    "items": {
                        "type": "string",
                        "format": "date"
                    }
                }
            },
            "required": [
                "key",
                "startDate",
                "endDate"
            ]
        },
        "DailyRecordInput": {
            "type": "object",
            "properties": {
                "day": {
                    "type": "integer"
                },
                "date": {
                    "type": "string",
                    "format": "date"
                },
                "qualified": {
                    "type": "boolean"
                },
                "minutes": {
                    "type": "integer"
                },
                "topics": {
                    "type": "integer"
                },
                "reason": {
                    "type": "string"
                },
                "wouldHaveQualified": {
                    "type": "boolean"
                }
            },
            "required": [
                "day",
                "date"
            ]
        },
        "IngestRecordsRequest": {
            "type": "object",
            "properties": {
                "records": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/DailyRecordInput"
                    }
                }
            }
        },
        "UpsertOverrideRequest": {
            "type": "object",
            "properties": {
                "date": {
                    "type": "string",
                    "format": "date"
                },
                "dayNumber": {
                    "type": "integer"
                },
                "overrideType": {
                    "type": "string",
                    "enum": [
                        "qualified",
                        "not_qualified"
                    ]
                },
                "reason": {
                    "type": "string"
                }
            },
            "required": [
                "date",
                "dayNumber",
                "overrideType"
            ]
        },
        "CreateAdjustmentRequest": {
            "type": "object",
            "properties": {
                "period": {
                    "type": "string"
                },
                "sectionNumber": {
                    "type": "integer"
                },
                "amount": {
                    "type": "integer"
                },
                "reason": {
                    "type": "string"
                }
            },
            "required": [
                "amount",
                "reason"
            ]
        },
        "SubmitRequestInput": {
            "type": "object",
            "properties": {
                "studentId": {
                    "type": "string"
                },
                "period": {
                    "type": "string"
                },
                "sectionNumber": {
                    "type": "integer"
                },
                "type": {
                    "type": "string",
                    "enum": [
                        "assignment_replacement",
                        "quiz_replacement",
                        "override_request",
                        "extra_credit",
                        "data_correction"
                    ]
                },
                "details": {
                    "type": "string"
                },
                "dayNumber": {
                    "type": "integer"
                },
                "overrideDate": {
                    "type": "string",
                    "format": "date"
                }
            },
            "required": [
                "period",
                "type",
                "details"
            ]
        },
        "ProcessRequestInput": {
            "type": "object",
            "properties": {
                "decision": {
                    "type": "string",
                    "enum": [
                        "approved",
                        "rejected"
                    ]
                },
                "notes": {
                    "type": "string"
                }
            },
            "required": [
                "decision"
            ]
        },
        "RepairRequest": {
            "type": "object",
            "properties": {
                "kinds": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            }
        },
        "UpdateConfigurationRequest": {
            "type": "object",
            "properties": {
                "value": {
                    "type": "string"
                }
            },
            "required": [
                "value"
            ]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {
                    "type": "integer"
                },
                "page_size": {
                    "type": "integer"
                },
                "total_count": {
                    "type": "integer"
                },
                "total_pages": {
                    "type": "integer"
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "pagination": {
                    "$ref": "#/definitions/Pagination"
                },
                "meta": {
                    "type": "object"
                }
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
