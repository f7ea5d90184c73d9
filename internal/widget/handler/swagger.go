package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger serves the OpenAPI document of the widget API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(r gin.IRoutes) {
	r.GET("/swagger/index.html", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(swaggerHTML))
	})

	r.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>widgets - Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "widgets", "version": "v1.0.0" },
  "components": {
    "schemas": {
      "Widget": { "type": "object", "properties": { "id": {"type":"string"}, "weight": {"type":"integer"}, "color": {"type":"string","enum":["red","blue"]} } },
      "WidgetInput": { "type": "object", "properties": { "weight": {"type":"integer"}, "color": {"type":"string","enum":["red","blue"]} } },
      "Error": { "type": "object", "properties": { "error": {"type":"string"} } }
    }
  },
  "paths": {
    "/widgets": {
      "get": { "summary": "List widgets", "responses": { "200": { "description": "all widgets", "content": { "application/json": { "schema": {"type":"array","items":{"$ref":"#/components/schemas/Widget"}} } } }, "500": { "description": "store failure" } } },
      "post": {
        "summary": "Create a widget",
        "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/WidgetInput"} } } },
        "responses": { "201": { "description": "created" }, "400": { "description": "invalid color" }, "500": { "description": "store failure" } }
      }
    },
    "/widgets/{id}": {
      "parameters": [ { "name": "id", "in": "path", "required": true, "schema": {"type":"string"} } ],
      "get": { "summary": "Read a widget", "responses": { "200": { "description": "widget" }, "404": { "description": "not found" }, "500": { "description": "store failure" } } },
      "patch": {
        "summary": "Update weight and color",
        "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/WidgetInput"} } } },
        "responses": { "200": { "description": "updated" }, "400": { "description": "invalid color" }, "404": { "description": "not found" }, "500": { "description": "store failure" } }
      },
      "delete": { "summary": "Delete a widget", "responses": { "204": { "description": "deleted" }, "404": { "description": "not found" }, "500": { "description": "store failure" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "store unreachable" } } } }
  }
}`
