package api

import (
	stderrors "errors"
	"strconv"
	"time"

	apperrors "github.com/ajharbinger/policy-fund-matcher/internal/errors"
	"github.com/gin-gonic/gin"
)

// respondError writes err with the status its code maps to. Internal
// causes are never echoed to the client.
func respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	body := gin.H{
		"error":     "Internal server error",
		"code":      apperrors.CodeOf(err),
		"timestamp": time.Now(),
	}

	var appErr *apperrors.AppError
	if stderrors.As(err, &appErr) && status < 500 {
		body["error"] = appErr.Message
		if appErr.Details != "" {
			body["details"] = appErr.Details
		}
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, message string, err error) {
	respondError(c, apperrors.InvalidInput(message, err).WithDetails(errString(err)))
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// queryInt reads a non-negative integer query parameter
func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, apperrors.InvalidInput(name+" must be a non-negative integer", err)
	}
	return v, nil
}
