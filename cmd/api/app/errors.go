package app

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ctxErrKey is the gin context key under which AbortError stashes the error
// until the Errors middleware renders it.
const ctxErrKey = "api_error"

// Error is the wire form of a failed request. Code is a stable machine
// identifier such as "holiday_conflict" or "sla_config_not_found";
// FieldErrors carries per-field validation messages.
type Error struct {
	Code        string            `json:"code"`
	Message     string            `json:"message"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
}

// Envelope is the standard response body: data on success, error on failure.
type Envelope struct {
	Data  interface{} `json:"data,omitempty"`
	Error *Error      `json:"error,omitempty"`
}

// AbortError stops the handler chain with status and stashes the error for
// the Errors middleware to render and log.
func AbortError(c *gin.Context, status int, code, message string, fields map[string]string) {
	c.Set(ctxErrKey, &Error{Code: code, Message: message, FieldErrors: fields})
	c.AbortWithStatus(status)
}

// Errors renders any error recorded by AbortError as a JSON envelope and
// logs it with the request-scoped logger.
func Errors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		v, ok := c.Get(ctxErrKey)
		if !ok {
			return
		}
		apiErr, ok := v.(*Error)
		if !ok {
			return
		}
		ev := log.Ctx(c.Request.Context()).Error().
			Str("code", apiErr.Code).
			Int("status", c.Writer.Status())
		for k, msg := range apiErr.FieldErrors {
			ev = ev.Str("field_"+k, msg)
		}
		ev.Msg(apiErr.Message)
		c.JSON(c.Writer.Status(), Envelope{Error: apiErr})
	}
}
