package handler

import (
	"fmt"

	"github.com/gofiber/fiber/v3"
)

const swaggerSpecPath = "/swagger/doc.yaml"

var swaggerHTML = fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Kino Alert Matching API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
        SwaggerUIBundle({ url: %q, dom_id: '#swagger-ui', deepLinking: true });
    </script>
</body>
</html>`, swaggerSpecPath)

// RegisterSwagger serves the OpenAPI document and a Swagger UI page that
// renders it.
func RegisterSwagger(app fiber.Router, spec []byte) {
	app.Get(swaggerSpecPath, func(c fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, "application/yaml")
		return c.Send(spec)
	})

	app.Get("/swagger/*", func(c fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(swaggerHTML)
	})
}
