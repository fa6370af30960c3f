package api

import (
	"net/http"

	"github.com/swaggo/swag"
	"gopkg.in/yaml.v3"
)

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "schemes": {{ marshal .Schemes }},
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "in": "header", "name": "X-API-Key"}
    },
    "security": [{"ApiKeyAuth": []}],
    "paths": {
        "/health": {
            "get": {"summary": "Health check", "responses": {"200": {"description": "healthy"}}}
        },
        "/chunks": {
            "get": {"summary": "List stored chunks", "responses": {"200": {"description": "chunk summaries"}}},
            "post": {
                "summary": "Store a chunk",
                "consumes": ["application/json"],
                "parameters": [{"in": "body", "name": "chunk", "required": true, "schema": {"$ref": "#/definitions/ChunkRequest"}}],
                "responses": {"201": {"description": "stored"}, "400": {"description": "invalid chunk type"}, "413": {"description": "message too large"}}
            }
        },
        "/chunks/parse": {
            "post": {
                "summary": "Validate a raw chunk frame",
                "consumes": ["application/octet-stream"],
                "responses": {"200": {"description": "chunk summary"}, "422": {"description": "malformed frame"}}
            }
        },
        "/chunks/{id}": {
            "get": {
                "summary": "Get a stored chunk",
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"200": {"description": "chunk summary"}, "404": {"description": "not found"}}
            },
            "delete": {
                "summary": "Delete a stored chunk",
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"200": {"description": "deleted"}, "404": {"description": "not found"}}
            }
        },
        "/chunks/{id}/raw": {
            "get": {
                "summary": "Get the raw frame of a stored chunk",
                "produces": ["application/octet-stream"],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"200": {"description": "chunk frame"}, "404": {"description": "not found"}}
            }
        },
        "/png/encode": {
            "post": {
                "summary": "Hide a message in a PNG",
                "consumes": ["image/png"],
                "produces": ["image/png"],
                "parameters": [
                    {"in": "query", "name": "type", "type": "string"},
                    {"in": "query", "name": "message", "type": "string", "required": true}
                ],
                "responses": {"200": {"description": "encoded PNG"}, "422": {"description": "malformed PNG"}}
            }
        },
        "/png/decode": {
            "post": {
                "summary": "Read a hidden message",
                "consumes": ["image/png"],
                "parameters": [{"in": "query", "name": "type", "type": "string"}],
                "responses": {"200": {"description": "message"}, "400": {"description": "invalid chunk type"}, "404": {"description": "no chunk of that type"}, "413": {"description": "chunk too large"}}
            }
        },
        "/png/remove": {
            "post": {
                "summary": "Remove a hidden message",
                "consumes": ["image/png"],
                "produces": ["image/png"],
                "parameters": [{"in": "query", "name": "type", "type": "string"}],
                "responses": {"200": {"description": "PNG without the chunk"}, "404": {"description": "no chunk of that type"}}
            }
        },
        "/png/print": {
            "post": {
                "summary": "List the chunks of a PNG",
                "consumes": ["image/png"],
                "responses": {"200": {"description": "chunk summaries"}}
            }
        }
    },
    "definitions": {
        "ChunkRequest": {
            "type": "object",
            "required": ["type"],
            "properties": {
                "type": {"type": "string", "example": "ruSt"},
                "message": {"type": "string"},
                "data": {"type": "string", "format": "byte"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "pngme API",
	Description:      "Store PNG chunks and hide messages in PNG files.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

const swaggerUI = `<!DOCTYPE html>
<html>
<head>
	 <title>pngme API Documentation</title>
	 <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@3.25.0/swagger-ui.css" />
</head>
<body>
	 <div id="swagger-ui"></div>
	 <script src="https://unpkg.com/swagger-ui-dist@3.25.0/swagger-ui-bundle.js"></script>
	 <script>
	   window.onload = function() {
	     SwaggerUIBundle({
	       url: '/swagger/swagger.json',
	       dom_id: '#swagger-ui',
	       presets: [
	         SwaggerUIBundle.presets.apis,
	         SwaggerUIBundle.presets.standalone
	       ]
	     });
	   };
	 </script>
</body>
</html>`

// handleSwagger serves the UI and the registered document as JSON or YAML
func (s *Server) handleSwagger(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/swagger/", "/swagger/index.html":
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerUI))

	case "/swagger/swagger.json":
		doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to read swagger doc")
			http.Error(w, "Failed to generate Swagger documentation", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(doc))

	case "/swagger/swagger.yaml":
		doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to read swagger doc")
			http.Error(w, "Failed to generate Swagger documentation", http.StatusInternalServerError)
			return
		}
		// JSON is a subset of YAML
		var tree interface{}
		if err := yaml.Unmarshal([]byte(doc), &tree); err != nil {
			http.Error(w, "Failed to convert Swagger documentation", http.StatusInternalServerError)
			return
		}
		out, err := yaml.Marshal(tree)
		if err != nil {
			http.Error(w, "Failed to convert Swagger documentation", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(out)

	default:
		http.NotFound(w, r)
	}
}
