// Package docs holds the OpenAPI document served by the Swagger UI.
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
        "/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["meta"],
                "summary": "Welcome message",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/process_audio": {
            "post": {
                "description": "Transcribes the audio, gets the partner reply and tutor feedback, synthesizes the reply (and tutor audio when the intervention policy calls for it) and returns the updated chat object.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["turn"],
                "summary": "Process a recorded utterance",
                "parameters": [
                    {"type": "file", "description": "Recorded utterance", "name": "audio", "in": "formData", "required": true},
                    {"type": "string", "description": "JSON-encoded turn request without audio", "name": "data", "in": "formData", "required": true},
                    {"type": "string", "description": "Transcription key override", "name": "groq_api_key", "in": "formData"},
                    {"type": "string", "description": "Synthesis key override", "name": "openai_api_key", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/conversation.TurnResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/conversation.ErrorResponse"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/conversation.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/conversation.ErrorResponse"}}
                }
            }
        },
        "/turn": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["turn"],
                "summary": "Process a turn (JSON)",
                "parameters": [
                    {"description": "Turn request; audio is base64", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/conversation.TurnRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/conversation.TurnResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/conversation.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/conversation.ErrorResponse"}}
                }
            }
        },
        "/generate_homework": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["homework"],
                "summary": "Generate homework for a chat",
                "parameters": [
                    {"description": "Chat object and languages", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/conversation.HomeworkRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/conversation.HomeworkResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/conversation.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/conversation.ErrorResponse"}}
                }
            }
        },
        "/generate_chat_name": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["homework"],
                "summary": "Generate a chat name",
                "parameters": [
                    {"description": "Chat fields and tutoring language", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/conversation.ChatNameRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/conversation.ChatNameResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/conversation.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/conversation.ErrorResponse"}}
                }
            }
        },
        "/verify_api_key": {
            "post": {
                "consumes": ["multipart/form-data", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["meta"],
                "summary": "Verify a model API key",
                "parameters": [
                    {"type": "string", "description": "Key to check", "name": "api_key", "in": "formData", "required": true},
                    {"type": "string", "description": "Provider name", "name": "model", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/conversation.VerifyKeyResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/conversation.ErrorResponse"}}
                }
            }
        },
        "/ws": {
            "get": {
                "description": "Send one JSON turn request (base64 audio) per text frame; each is answered with a turn response or an error envelope. The client keeps the returned chatObject.",
                "tags": ["turn"],
                "summary": "Turn loop over WebSocket",
                "responses": {
                    "101": {"description": "Switching Protocols"}
                }
            }
        }
    },
    "definitions": {
        "conversation.Utterance": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["HumanMessage", "AIMessage"]},
                "content": {"type": "string"}
            }
        },
        "conversation.Session": {
            "type": "object",
            "properties": {
                "chat_history": {"type": "array", "items": {"$ref": "#/definitions/conversation.Utterance"}},
                "tutors_comments": {"type": "array", "items": {"type": "string"}},
                "summary": {"type": "array", "items": {"type": "string"}}
            }
        },
        "conversation.Feedback": {
            "type": "object",
            "properties": {
                "comment": {"type": "string"},
                "correction": {"type": "string"},
                "interventionLevel": {"type": "string", "enum": ["none", "low", "medium", "high"]}
            }
        },
        "conversation.TurnRequest": {
            "type": "object",
            "properties": {
                "audio": {"type": "string", "format": "byte"},
                "content_type": {"type": "string"},
                "text": {"type": "string"},
                "motherTongue": {"type": "string"},
                "tutoringLanguage": {"type": "string"},
                "tutorsLanguage": {"type": "string"},
                "tutorsVoice": {"type": "string"},
                "partnersVoice": {"type": "string"},
                "interventionLevel": {"type": "string", "enum": ["none", "low", "medium", "high"]},
                "disableTutor": {"type": "boolean"},
                "accentignore": {"type": "boolean"},
                "playbackSpeed": {"type": "string", "description": "client slider position, number or numeric string"},
                "pauseTime": {"type": "string", "description": "client slider position, number or numeric string"},
                "synthesisSpeed": {"type": "number"},
                "model": {"type": "string"},
                "api_key": {"type": "string"},
                "groq_api_key": {"type": "string"},
                "openai_api_key": {"type": "string"},
                "chatObject": {"$ref": "#/definitions/conversation.Session"}
            }
        },
        "conversation.TurnResponse": {
            "type": "object",
            "properties": {
                "turn_id": {"type": "string"},
                "transcription": {"type": "string"},
                "transcript": {"type": "string"},
                "reply": {"type": "string"},
                "audio_base64": {"type": "string"},
                "audio_content_type": {"type": "string"},
                "audio_segments": {"type": "array", "items": {"type": "string"}},
                "intervened": {"type": "boolean"},
                "feedback": {"$ref": "#/definitions/conversation.Feedback"},
                "tutorFeedback": {"type": "string"},
                "updatedSummary": {"type": "string"},
                "chatObject": {"$ref": "#/definitions/conversation.Session"}
            }
        },
        "conversation.HomeworkRequest": {
            "type": "object",
            "properties": {
                "tutoringLanguage": {"type": "string"},
                "tutorsLanguage": {"type": "string"},
                "model": {"type": "string"},
                "api_key": {"type": "string"},
                "chatObject": {"$ref": "#/definitions/conversation.Session"}
            }
        },
        "conversation.HomeworkResponse": {
            "type": "object",
            "properties": {
                "homework": {"type": "string"},
                "grammar": {"type": "string"},
                "vocabulary": {"type": "string"}
            }
        },
        "conversation.ChatNameRequest": {
            "type": "object",
            "properties": {
                "chat_history": {"type": "array", "items": {"$ref": "#/definitions/conversation.Utterance"}},
                "tutors_comments": {"type": "array", "items": {"type": "string"}},
                "summary": {"type": "array", "items": {"type": "string"}},
                "tutoringLanguage": {"type": "string"},
                "model": {"type": "string"},
                "api_key": {"type": "string"}
            }
        },
        "conversation.ChatNameResponse": {
            "type": "object",
            "properties": {
                "chatName": {"type": "string"}
            }
        },
        "conversation.VerifyKeyResponse": {
            "type": "object",
            "properties": {
                "valid": {"type": "boolean"}
            }
        },
        "conversation.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "kind": {"type": "string"}
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
	Title:            "tandem API",
	Description:      "Language-learning conversation backend: partner replies, tutor feedback and synthesized audio per turn.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
