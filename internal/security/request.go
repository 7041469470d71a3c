package security

import (
	"context"
	"mime"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/ZanzyTHEbar/paper-odds/internal/errors"
)

// Content types accepted by the API
const (
	ContentTypeJSON      = "application/json"
	ContentTypeForm      = "application/x-www-form-urlencoded"
	ContentTypeMultipart = "multipart/form-data"
)

// RequireContentType rejects requests that carry a body in a media type
// outside allowed. Bodyless requests pass through.
func RequireContentType(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !hasBody(c.Request) {
			c.Next()
			return
		}

		raw := c.GetHeader("Content-Type")
		mediaType, _, err := mime.ParseMediaType(raw)
		if err != nil || !slices.Contains(allowed, strings.ToLower(mediaType)) {
			_ = c.Error(apperrors.NewUnsupportedMediaTypeError(raw))
			c.Abort()
			return
		}

		c.Next()
	}
}

// BodyLimit caps the number of bytes a handler can read from the request body
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// RequestTimeout bounds the request context
func RequestTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func hasBody(r *http.Request) bool {
	if r.Body == nil || r.Body == http.NoBody {
		return false
	}
	return r.ContentLength != 0
}
