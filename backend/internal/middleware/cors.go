package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var corsMethods = []string{
	http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
	http.MethodDelete, http.MethodHead, http.MethodOptions,
}

// CORS allows the given origins with credentials, every method and any
// request header. gin-contrib/cors only emits a fixed Allow-Headers list, and
// a literal "*" is not honoured by browsers on credentialed requests, so the
// preflight echoes Access-Control-Request-Headers back instead.
func CORS(origins []string) gin.HandlerFunc {
	handler := cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     corsMethods,
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})

	return func(c *gin.Context) {
		requested := c.GetHeader("Access-Control-Request-Headers")
		if c.Request.Method == http.MethodOptions && requested != "" {
			c.Writer = &allowHeadersWriter{ResponseWriter: c.Writer, requested: requested}
		}
		handler(c)
	}
}

// allowHeadersWriter replaces the configured Allow-Headers with the ones the
// preflight asked for, right before the status line goes out.
type allowHeadersWriter struct {
	gin.ResponseWriter
	requested string
}

func (w *allowHeadersWriter) echo() {
	h := w.Header()
	if h.Get("Access-Control-Allow-Origin") != "" {
		h.Set("Access-Control-Allow-Headers", w.requested)
	}
}

func (w *allowHeadersWriter) WriteHeader(code int) {
	w.echo()
	w.ResponseWriter.WriteHeader(code)
}

func (w *allowHeadersWriter) WriteHeaderNow() {
	w.echo()
	w.ResponseWriter.WriteHeaderNow()
}
