package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
)

// CORS applies the given CORS policy. Preflight requests are answered here
// and never reach the routes.
func CORS(opts cors.Options) gin.HandlerFunc {
	handler := cors.Handler(opts)

	return func(c *gin.Context) {
		passed := false
		handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
			c.Next()
		})).ServeHTTP(c.Writer, c.Request)

		if !passed {
			c.Abort()
		}
	}
}

// DefaultCORSOptions allows any origin to call the JSON API.
func DefaultCORSOptions() cors.Options {
	return cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
		ExposedHeaders: []string{"Retry-After"},
		MaxAge:         300,
	}
}
