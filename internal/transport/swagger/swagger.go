package swagger

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

func Handler() http.Handler {
	// UI reads the document served at /openapi.yml (from api/openapi.yml)
	return httpSwagger.Handler(
		httpSwagger.URL("/openapi.yml"),
	)
}
