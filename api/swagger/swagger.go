package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "PhysEd Journal API",
        "description": "Physical-education journal: visits, points, standards and semester closure.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "in": "header",
            "name": "Authorization"
        }
    },
    "tags": [
        {
            "name": "Visits"
        },
        {
            "name": "Points"
        },
        {
            "name": "Standards"
        },
        {
            "name": "Archive"
        },
        {
            "name": "Semesters"
        },
        {
            "name": "Migrations"
        }
    ],
    "paths": {
        "/visits": {
            "post": {
                "tags": [
                    "Visits"
                ],
                "summary": "Record a visit",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation or rule failure",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/AddVisitRequest"
                        }
                    }
                ]
            }
        },
        "/visits/{id}": {
            "delete": {
                "tags": [
                    "Visits"
                ],
                "summary": "Delete a visit",
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
                    "400": {
                        "description": "Validation or rule failure",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "integer",
                        "required": true
                    }
                ]
            }
        },
        "/points": {
            "post": {
                "tags": [
                    "Points"
                ],
                "summary": "Grant additional points",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation or rule failure",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/AddPointsRequest"
                        }
                    }
                ]
            }
        },
        "/points/{id}": {
            "delete": {
                "tags": [
                    "Points"
                ],
                "summary": "Delete a points record",
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
                    "400": {
                        "description": "Validation or rule failure",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "integer",
                        "required": true
                    }
                ]
            }
        },
        "/standards": {
            "post": {
                "tags": [
                    "Standards"
                ],
                "summary": "Record a standard result",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation or rule failure",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/AddStandardRequest"
                        }
                    }
                ]
            }
        },
        "/standards/{id}": {
            "delete": {
                "tags": [
                    "Standards"
                ],
                "summary": "Delete a standard result",
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
                    "400": {
                        "description": "Validation or rule failure",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "integer",
                        "required": true
                    }
                ]
            }
        },
        "/students/{guid}/archive": {
            "post": {
                "tags": [
                    "Archive"
                ],
                "summary": "Archive a student's semester",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation or rule failure",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "guid",
                        "type": "string",
                        "required": true
                    },
                    {
                        "in": "body",
                        "name": "payload",
                        "schema": {
                            "$ref": "#/definitions/ArchiveStudentRequest"
                        }
                    }
                ]
            },
            "get": {
                "tags": [
                    "Archive"
                ],
                "summary": "List archived semesters of a student",
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
                    "400": {
                        "description": "Validation or rule failure",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "guid",
                        "type": "string",
                        "required": true
                    }
                ]
            }
        },
        "/semesters": {
            "get": {
                "tags": [
                    "Semesters"
                ],
                "summary": "List semesters",
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
                    "400": {
                        "description": "Validation or rule failure",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "post": {
                "tags": [
                    "Semesters"
                ],
                "summary": "Start a new semester",
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
                    "400": {
                        "description": "Validation or rule failure",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "403": {
                        "description": "Caller is not privileged"
                    }
                },
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/StartSemesterRequest"
                        }
                    }
                ]
            }
        },
        "/semesters/current": {
            "get": {
                "tags": [
                    "Semesters"
                ],
                "summary": "Get current semester",
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
                    "400": {
                        "description": "Validation or rule failure",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/semesters/migrations": {
            "get": {
                "tags": [
                    "Migrations"
                ],
                "summary": "List recent migration jobs",
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
                    "400": {
                        "description": "Validation or rule failure",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "403": {
                        "description": "Caller is not privileged"
                    }
                }
            },
            "post": {
                "tags": [
                    "Migrations"
                ],
                "summary": "Queue a bulk migration",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "202": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation or rule failure",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "403": {
                        "description": "Caller is not privileged"
                    }
                },
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/StartMigrationRequest"
                        }
                    }
                ]
            }
        },
        "/semesters/migrations/{id}": {
            "get": {
                "tags": [
                    "Migrations"
                ],
                "summary": "Get a migration job",
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
                    "400": {
                        "description": "Validation or rule failure",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "403": {
                        "description": "Caller is not privileged"
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "string",
                        "required": true
                    }
                ]
            }
        },
        "/groups/{name}/archive": {
            "post": {
                "tags": [
                    "Archive"
                ],
                "summary": "Archive every student of a group",
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
                    "400": {
                        "description": "Validation or rule failure",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "name",
                        "type": "string",
                        "required": true
                    }
                ]
            }
        },
        "/students/{guid}/unarchive": {
            "post": {
                "tags": [
                    "Archive"
                ],
                "summary": "Restore an archived semester into the live ledger",
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
                    "400": {
                        "description": "Validation or rule failure",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "403": {
                        "description": "Caller is not privileged"
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "guid",
                        "type": "string",
                        "required": true
                    },
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/UnarchiveStudentRequest"
                        }
                    }
                ]
            }
        },
        "/students/{guid}/activate": {
            "post": {
                "tags": [
                    "Admin"
                ],
                "summary": "Include a student in bulk runs",
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
                    "400": {
                        "description": "Validation or rule failure",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "403": {
                        "description": "Caller is not privileged"
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "guid",
                        "type": "string",
                        "required": true
                    }
                ]
            }
        },
        "/students/{guid}/deactivate": {
            "post": {
                "tags": [
                    "Admin"
                ],
                "summary": "Exclude a student from bulk runs",
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
                    "400": {
                        "description": "Validation or rule failure",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "403": {
                        "description": "Caller is not privileged"
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "guid",
                        "type": "string",
                        "required": true
                    }
                ]
            }
        },
        "/groups/{name}/visit-value": {
            "put": {
                "tags": [
                    "Admin"
                ],
                "summary": "Set the per-visit credit of a group",
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
                    "400": {
                        "description": "Validation or rule failure",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "403": {
                        "description": "Caller is not privileged"
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "name",
                        "type": "string",
                        "required": true
                    },
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/AssignVisitValueRequest"
                        }
                    }
                ]
            }
        },
        "/groups/{name}/curator": {
            "put": {
                "tags": [
                    "Admin"
                ],
                "summary": "Assign the curator of a group",
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
                    "400": {
                        "description": "Validation or rule failure",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "403": {
                        "description": "Caller is not privileged"
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "name",
                        "type": "string",
                        "required": true
                    },
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/AssignCuratorRequest"
                        }
                    }
                ]
            }
        },
        "/teachers/{guid}/permissions": {
            "put": {
                "tags": [
                    "Admin"
                ],
                "summary": "Replace the permissions of a teacher",
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
                    "400": {
                        "description": "Validation or rule failure",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "403": {
                        "description": "Caller is not privileged"
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "guid",
                        "type": "string",
                        "required": true
                    },
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/GivePermissionsRequest"
                        }
                    }
                ]
            }
        }
    },
    "definitions": {
        "AddVisitRequest": {
            "type": "object",
            "properties": {
                "studentGuid": {
                    "type": "string"
                },
                "date": {
                    "type": "string",
                    "format": "date",
                    "example": "2024-03-13"
                }
            },
            "required": [
                "studentGuid",
                "date"
            ]
        },
        "AddPointsRequest": {
            "type": "object",
            "properties": {
                "studentGuid": {
                    "type": "string"
                },
                "date": {
                    "type": "string",
                    "format": "date",
                    "example": "2024-03-13"
                },
                "points": {
                    "type": "integer"
                },
                "workType": {
                    "type": "string",
                    "enum": [
                        "ExternalFitness",
                        "GTO",
                        "Science",
                        "OnlineWork",
                        "Competition",
                        "InternalTeam",
                        "Activist"
                    ]
                },
                "comment": {
                    "type": "string"
                }
            },
            "required": [
                "studentGuid",
                "date",
                "workType"
            ]
        },
        "AddStandardRequest": {
            "type": "object",
            "properties": {
                "studentGuid": {
                    "type": "string"
                },
                "date": {
                    "type": "string",
                    "format": "date",
                    "example": "2024-03-13"
                },
                "points": {
                    "type": "integer"
                },
                "standardType": {
                    "type": "string",
                    "enum": [
                        "Tilts",
                        "Jumps",
                        "PullUps",
                        "Squats",
                        "JumpingRopeJumps",
                        "TorsoLifts",
                        "FlexionAndExtensionOfArms",
                        "ShuttleRun",
                        "Other"
                    ]
                },
                "override": {
                    "type": "boolean"
                },
                "comment": {
                    "type": "string"
                }
            },
            "required": [
                "studentGuid",
                "date",
                "standardType"
            ]
        },
        "ArchiveStudentRequest": {
            "type": "object",
            "properties": {
                "targetSemester": {
                    "type": "string",
                    "example": "2023-2024/spring"
                },
                "force": {
                    "type": "boolean"
                }
            }
        },
        "UnarchiveStudentRequest": {
            "type": "object",
            "properties": {
                "semester": {
                    "type": "string",
                    "example": "2023-2024/autumn"
                }
            }
        },
        "AssignVisitValueRequest": {
            "type": "object",
            "properties": {
                "visitValue": {
                    "type": "number",
                    "example": 2.5
                }
            }
        },
        "AssignCuratorRequest": {
            "type": "object",
            "properties": {
                "teacherGuid": {
                    "type": "string"
                }
            }
        },
        "GivePermissionsRequest": {
            "type": "object",
            "properties": {
                "permissions": {
                    "type": "integer",
                    "example": 6
                }
            }
        },
        "StartSemesterRequest": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string",
                    "example": "2024-2025/autumn"
                },
                "migrate": {
                    "type": "boolean"
                }
            },
            "required": [
                "name"
            ]
        },
        "StartMigrationRequest": {
            "type": "object",
            "properties": {
                "target": {
                    "type": "string"
                },
                "kind": {
                    "type": "string",
                    "enum": [
                        "semester",
                        "debt"
                    ]
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
                "details": {
                    "type": "object"
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
