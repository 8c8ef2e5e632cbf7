package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Deck API",
        "description": "Presentation versioning, slide approval and sharing service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Projects", "description": "Deck project management"},
        {"name": "Slides", "description": "Slide content, ordering and approval"},
        {"name": "Versions", "description": "Deck revision control"},
        {"name": "Sharing", "description": "Sharing links and the anonymous shared surface"},
        {"name": "Exports", "description": "Asynchronous deck exports"}
    ],
    "paths": {
        "/projects": {
            "post": {
                "tags": ["Projects"],
                "summary": "Create a deck project",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateProjectRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/projects/{id}": {
            "get": {
                "tags": ["Projects"],
                "summary": "Get a project with its slides",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Projects"],
                "summary": "Update project fields",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateProjectRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Projects"],
                "summary": "Delete a project",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/projects/{id}/slides": {
            "post": {
                "tags": ["Slides"],
                "summary": "Add a slide",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSlideRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/projects/{id}/slides/order": {
            "put": {
                "tags": ["Slides"],
                "summary": "Reorder the slides of a project",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReorderSlidesRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Ordering is not a permutation of the deck"}
                }
            }
        },
        "/slides/{id}": {
            "put": {
                "tags": ["Slides"],
                "summary": "Update slide fields",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateSlideRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Slides"],
                "summary": "Delete a slide",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/slides/{id}/approve": {
            "post": {
                "tags": ["Slides"],
                "summary": "Approve a slide, locking it against regeneration",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/slides/{id}/unlock": {
            "post": {
                "tags": ["Slides"],
                "summary": "Return a slide to editable draft",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/slides/{id}/submit-review": {
            "post": {
                "tags": ["Slides"],
                "summary": "Submit a draft slide for review",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Slide is not a draft"}
                }
            }
        },
        "/projects/{id}/versions": {
            "post": {
                "tags": ["Versions"],
                "summary": "Create the next revision of a deck",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateVersionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Concurrent version creation"}
                }
            },
            "get": {
                "tags": ["Versions"],
                "summary": "List superseded revisions",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/projects/{id}/links": {
            "post": {
                "tags": ["Sharing"],
                "summary": "Issue a sharing link",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateLinkRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "get": {
                "tags": ["Sharing"],
                "summary": "List sharing links",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/links/{id}/deactivate": {
            "post": {
                "tags": ["Sharing"],
                "summary": "Deactivate a sharing link",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/links/{id}": {
            "delete": {
                "tags": ["Sharing"],
                "summary": "Delete a sharing link",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/shared/{token}": {
            "get": {
                "tags": ["Sharing"],
                "summary": "Resolve a sharing token to a read-only deck",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Link inactive or view limit exceeded"},
                    "404": {"description": "Unknown token"},
                    "410": {"description": "Link expired"}
                }
            }
        },
        "/shared/{token}/export": {
            "get": {
                "tags": ["Sharing"],
                "summary": "Download the shared deck as a PDF",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF payload"},
                    "403": {"description": "Tier does not allow downloads"}
                }
            }
        },
        "/projects/{id}/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue a deck export",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export job status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/download/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a finished export",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File payload"}
                }
            }
        }
    },
    "definitions": {
        "CreateProjectRequest": {
            "type": "object",
            "required": ["title"],
            "properties": {
                "title": {"type": "string"},
                "is_confidential": {"type": "boolean"},
                "metadata": {"type": "object"}
            }
        },
        "UpdateProjectRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "status": {"type": "string", "enum": ["draft", "review", "approved", "published", "archived"]},
                "is_confidential": {"type": "boolean"},
                "metadata": {"type": "object"}
            }
        },
        "CreateSlideRequest": {
            "type": "object",
            "required": ["layout"],
            "properties": {
                "layout": {"type": "string", "enum": ["title", "bullets", "stats", "quote", "two_column", "image", "closing"]},
                "headline": {"type": "string"},
                "subline": {"type": "string"},
                "content": {"type": "object"},
                "accent_color": {"type": "string"},
                "background_url": {"type": "string"},
                "is_hidden": {"type": "boolean"},
                "order_index": {"type": "integer"}
            }
        },
        "UpdateSlideRequest": {
            "type": "object",
            "properties": {
                "layout": {"type": "string"},
                "headline": {"type": "string"},
                "subline": {"type": "string"},
                "content": {"type": "object"},
                "accent_color": {"type": "string"},
                "background_url": {"type": "string"},
                "is_hidden": {"type": "boolean"}
            }
        },
        "ReorderSlidesRequest": {
            "type": "object",
            "required": ["slide_ids"],
            "properties": {
                "slide_ids": {"type": "array", "items": {"type": "string"}}
            }
        },
        "CreateVersionRequest": {
            "type": "object",
            "properties": {
                "notes": {"type": "string"},
                "regenerate_drafts": {"type": "boolean"},
                "generator_inputs": {"type": "object"}
            }
        },
        "CreateLinkRequest": {
            "type": "object",
            "properties": {
                "permission": {"type": "string", "enum": ["view", "download_pdf", "edit"]},
                "expires_at": {"type": "string", "format": "date-time"},
                "max_views": {"type": "integer"},
                "recipient_email": {"type": "string"}
            }
        },
        "ExportRequest": {
            "type": "object",
            "required": ["format"],
            "properties": {
                "format": {"type": "string", "enum": ["csv", "pdf"]},
                "include_hidden": {"type": "boolean"}
            }
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
