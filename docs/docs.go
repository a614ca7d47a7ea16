// Package docs registra la especificación OpenAPI que sirve /swagger/*.
// Se regenera con: swag init -g cmd/api/main.go -o docs
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
        "/users": {
            "post": {
                "tags": ["users"],
                "summary": "Registrar usuario",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "responses": {"201": {"description": "Created"}, "400": {"description": "invalid input"}, "409": {"description": "email already registered"}}
            }
        },
        "/users/me": {
            "get": {
                "tags": ["users"],
                "summary": "Usuario autenticado",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}, "401": {"description": "unauthorized"}}
            }
        },
        "/access": {
            "get": {
                "tags": ["access"],
                "summary": "Listar mis accesos vigentes",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}, "401": {"description": "unauthorized"}, "403": {"description": "forbidden"}}
            },
            "post": {
                "tags": ["access"],
                "summary": "Dar acceso a un doctor",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "responses": {"201": {"description": "Created"}, "400": {"description": "target is not a doctor"}, "401": {"description": "unauthorized / unknown caller"}, "404": {"description": "doctor not found"}}
            }
        },
        "/access/{grantID}": {
            "delete": {
                "tags": ["access"],
                "summary": "Revocar acceso",
                "parameters": [{"type": "string", "name": "grantID", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}, "403": {"description": "forbidden"}, "404": {"description": "not found"}}
            }
        },
        "/access/{grantID}/extend": {
            "put": {
                "tags": ["access"],
                "summary": "Extender acceso",
                "parameters": [{"type": "string", "name": "grantID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "invalid days"}, "403": {"description": "forbidden"}}
            }
        },
        "/access/patients": {
            "get": {
                "tags": ["access"],
                "summary": "Pacientes con acceso vigente (doctor)",
                "parameters": [
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "size", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "403": {"description": "forbidden"}}
            }
        },
        "/audit-logs": {
            "get": {
                "tags": ["audit"],
                "summary": "Historial de auditoría",
                "parameters": [
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "size", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "403": {"description": "forbidden"}}
            }
        },
        "/records/me": {
            "get": {
                "tags": ["records"],
                "summary": "Listar mis registros (paciente)",
                "responses": {"200": {"description": "OK"}, "403": {"description": "forbidden"}}
            }
        },
        "/records/{patientID}": {
            "get": {
                "tags": ["records"],
                "summary": "Listar registros de un paciente (doctor)",
                "parameters": [{"type": "string", "name": "patientID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "active access required"}}
            },
            "post": {
                "tags": ["records"],
                "summary": "Agregar registro clínico",
                "parameters": [{"type": "string", "name": "patientID", "in": "path", "required": true}],
                "responses": {"201": {"description": "Created"}, "403": {"description": "active access required"}}
            }
        },
        "/messages/contacts": {
            "get": {
                "tags": ["messages"],
                "summary": "Contactos habilitados para mensajería",
                "responses": {"200": {"description": "OK"}, "401": {"description": "unauthorized"}}
            }
        },
        "/messages/permissions/{otherUserID}": {
            "get": {
                "tags": ["messages"],
                "summary": "¿Puedo enviarle mensajes a este usuario?",
                "parameters": [{"type": "string", "name": "otherUserID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "unauthorized"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Patient Access API",
	Description:      "Accesos temporales paciente -> doctor, auditoría y gate de mensajería.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
