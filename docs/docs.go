// Package docs registers the API's Swagger document with swag so that
// http-swagger can serve it at /swagger/doc.json.
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
        "/health": {
            "get": {"tags": ["System"], "summary": "Health check", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/datasets": {
            "get": {"tags": ["Datasets"], "summary": "List datasets", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/datasets/{datasetID}/questions": {
            "get": {
                "tags": ["Datasets"], "summary": "Search questions", "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "datasetID", "in": "path", "required": true},
                    {"type": "array", "items": {"type": "string"}, "collectionFormat": "multi", "name": "exam", "in": "query"},
                    {"type": "string", "name": "image", "in": "query"},
                    {"type": "string", "name": "q", "in": "query"},
                    {"type": "boolean", "name": "in_answers", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/datasets/{datasetID}/filters": {
            "get": {
                "tags": ["Datasets"], "summary": "List filter values", "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "datasetID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/datasets/{datasetID}/stats": {
            "get": {
                "tags": ["Datasets"], "summary": "Exam statistics", "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "datasetID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/datasets/{datasetID}/sessions": {
            "get": {
                "tags": ["Sessions"], "summary": "List sessions", "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "datasetID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "post": {
                "tags": ["Sessions"], "summary": "Start a quiz session", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "datasetID", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}
            }
        },
        "/datasets/{datasetID}/sessions/latest-finished": {
            "get": {
                "tags": ["Sessions"], "summary": "Latest finished session", "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "datasetID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/datasets/{datasetID}/sessions/{sessionID}": {
            "get": {
                "tags": ["Sessions"], "summary": "Get a session", "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "datasetID", "in": "path", "required": true},
                    {"type": "string", "name": "sessionID", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "422": {"description": "Unprocessable Entity"}}
            },
            "delete": {
                "tags": ["Sessions"], "summary": "Abort a session",
                "parameters": [
                    {"type": "string", "name": "datasetID", "in": "path", "required": true},
                    {"type": "string", "name": "sessionID", "in": "path", "required": true}
                ],
                "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found"}}
            }
        },
        "/datasets/{datasetID}/sessions/{sessionID}/answers/{questionID}": {
            "put": {
                "tags": ["Sessions"], "summary": "Select answers", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "datasetID", "in": "path", "required": true},
                    {"type": "string", "name": "sessionID", "in": "path", "required": true},
                    {"type": "string", "name": "questionID", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"type": "object", "properties": {"selected": {"type": "array", "items": {"type": "integer"}}}}}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}
            }
        },
        "/datasets/{datasetID}/sessions/{sessionID}/answers/{questionID}/submit": {
            "post": {
                "tags": ["Sessions"], "summary": "Submit an answer", "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "datasetID", "in": "path", "required": true},
                    {"type": "string", "name": "sessionID", "in": "path", "required": true},
                    {"type": "string", "name": "questionID", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}
            },
            "delete": {
                "tags": ["Sessions"], "summary": "Reopen an answer", "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "datasetID", "in": "path", "required": true},
                    {"type": "string", "name": "sessionID", "in": "path", "required": true},
                    {"type": "string", "name": "questionID", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}
            }
        },
        "/datasets/{datasetID}/sessions/{sessionID}/finish": {
            "post": {
                "tags": ["Sessions"], "summary": "Finish a session", "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "datasetID", "in": "path", "required": true},
                    {"type": "string", "name": "sessionID", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/datasets/{datasetID}/sessions/{sessionID}/results.csv": {
            "get": {
                "tags": ["Sessions"], "summary": "Export session results", "produces": ["text/csv"],
                "parameters": [
                    {"type": "string", "name": "datasetID", "in": "path", "required": true},
                    {"type": "string", "name": "sessionID", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/backup": {
            "get": {"tags": ["Backup"], "summary": "Export all sessions", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}},
            "post": {
                "tags": ["Backup"], "summary": "Import sessions", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"name": "backup", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            },
            "delete": {"tags": ["Backup"], "summary": "Delete all sessions", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Examgen API",
	Description:      "Self-study quiz engine: filter a question dataset, take practice or exam sessions, resume and review them.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
