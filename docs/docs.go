// Package docs holds the OpenAPI description served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "tags": ["system"],
                "summary": "Health check",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.HealthResponse"}}}
            }
        },
        "/api/v1/analyze": {
            "post": {
                "tags": ["analysis"],
                "summary": "Analyze a review",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/types.AnalyzeRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.AnalysisResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.AppError"}},
                    "503": {"description": "No model loaded", "schema": {"$ref": "#/definitions/errors.AppError"}}
                }
            }
        },
        "/api/v1/analyze/batch": {
            "post": {
                "tags": ["analysis"],
                "summary": "Analyze a batch of reviews",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/types.BatchAnalyzeRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.BatchResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.AppError"}}
                }
            }
        },
        "/api/v1/aspects": {
            "get": {
                "tags": ["analysis"],
                "summary": "List configured aspects",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.AspectsResponse"}}}
            },
            "post": {
                "tags": ["analysis"],
                "summary": "Score product aspects",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/types.AnalyzeRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.AspectScoresResponse"}}}
            }
        },
        "/api/v1/reconcile": {
            "post": {
                "tags": ["analysis"],
                "summary": "Reconcile an ML prediction with a rule score",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/types.ReconcileRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/analysis.Reconciliation"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.AppError"}}
                }
            }
        },
        "/api/v1/history": {
            "get": {
                "tags": ["analysis"],
                "summary": "Recent analyses, newest first",
                "produces": ["application/json"],
                "parameters": [{"in": "query", "name": "limit", "type": "integer", "default": 20}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/reviews": {
            "post": {
                "tags": ["corpus"],
                "summary": "Add labeled training reviews",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/types.AddReviewsRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/types.AddReviewsResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.AppError"}}
                }
            }
        },
        "/api/v1/reviews/stats": {
            "get": {
                "tags": ["corpus"],
                "summary": "Training corpus statistics",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/model/train": {
            "post": {
                "tags": ["model"],
                "summary": "Train the sentiment model",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.ModelStatus"}},
                    "400": {"description": "Corpus not usable", "schema": {"$ref": "#/definitions/errors.AppError"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/errors.AppError"}}
                }
            }
        },
        "/api/v1/model": {
            "get": {
                "tags": ["model"],
                "summary": "Served model status",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/service.ModelStatus"}}}
            }
        }
    },
    "definitions": {
        "types.AnalyzeRequest": {
            "type": "object",
            "required": ["text"],
            "properties": {"text": {"type": "string"}}
        },
        "types.BatchAnalyzeRequest": {
            "type": "object",
            "required": ["texts"],
            "properties": {"texts": {"type": "array", "items": {"type": "string"}}}
        },
        "types.ReconcileRequest": {
            "type": "object",
            "required": ["ml_label", "rule_score"],
            "properties": {
                "ml_label": {"type": "string", "enum": ["positive", "neutral", "negative"]},
                "ml_probabilities": {"type": "object", "additionalProperties": {"type": "number"}},
                "rule_score": {"type": "number", "minimum": 0, "maximum": 1}
            }
        },
        "types.AddReviewsRequest": {
            "type": "object",
            "required": ["reviews"],
            "properties": {
                "reviews": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "required": ["text", "label"],
                        "properties": {
                            "text": {"type": "string"},
                            "label": {"type": "string", "enum": ["positive", "neutral", "negative"]}
                        }
                    }
                },
                "source": {"type": "string"}
            }
        },
        "types.AddReviewsResponse": {
            "type": "object",
            "properties": {"added": {"type": "integer"}, "total": {"type": "integer"}}
        },
        "types.AspectScoresResponse": {
            "type": "object",
            "properties": {
                "aspects": {"type": "object", "additionalProperties": {"type": "number"}},
                "overall_score": {"type": "number"}
            }
        },
        "types.AspectsResponse": {
            "type": "object",
            "properties": {
                "aspects": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {"name": {"type": "string"}, "keywords": {"type": "array", "items": {"type": "string"}}}
                    }
                }
            }
        },
        "types.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "version": {"type": "string"},
                "model": {"type": "string"},
                "model_trained": {"type": "boolean"}
            }
        },
        "analysis.Reconciliation": {
            "type": "object",
            "properties": {
                "final_label": {"type": "string"},
                "final_score": {"type": "number"},
                "adjusted_probabilities": {"type": "object", "additionalProperties": {"type": "number"}},
                "overridden": {"type": "boolean"},
                "ml_label": {"type": "string"},
                "rule_score": {"type": "number"}
            }
        },
        "service.AnalysisResult": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "text": {"type": "string"},
                "overall_score": {"type": "number"},
                "sentences": {"type": "integer"},
                "aspects": {"type": "array", "items": {"type": "object"}},
                "strengths": {"type": "array", "items": {"type": "object"}},
                "weaknesses": {"type": "array", "items": {"type": "object"}},
                "model": {"type": "string"},
                "ml_label": {"type": "string"},
                "ml_probabilities": {"type": "object", "additionalProperties": {"type": "number"}},
                "reconciliation": {"$ref": "#/definitions/analysis.Reconciliation"},
                "emotion": {"type": "string"},
                "score_band": {"type": "string"},
                "analyzed_at": {"type": "string", "format": "date-time"},
                "duration_ms": {"type": "number"}
            }
        },
        "service.BatchResult": {
            "type": "object",
            "properties": {
                "results": {"type": "array", "items": {"$ref": "#/definitions/service.AnalysisResult"}},
                "summary": {"type": "object"}
            }
        },
        "service.ModelStatus": {
            "type": "object",
            "properties": {
                "trained": {"type": "boolean"},
                "model": {"type": "string"},
                "baseline": {"type": "string"},
                "trained_at": {"type": "string", "format": "date-time"},
                "vocabulary": {"type": "integer"},
                "report": {"type": "object"},
                "training_runs": {"type": "integer"},
                "last_error": {"type": "string"}
            }
        },
        "errors.AppError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "category": {"type": "string"},
                "http_status": {"type": "integer"},
                "timestamp": {"type": "string", "format": "date-time"},
                "request_id": {"type": "string"},
                "details": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Review Sentiment API",
	Description:      "Aspect-based product review sentiment with rule-based reconciliation of ML predictions.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
