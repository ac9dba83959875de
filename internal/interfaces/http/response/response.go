package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	domainerrors "solbol.backend/internal/domain/errors"
	"solbol.backend/pkg/logger"
	"solbol.backend/pkg/validation"
)

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error maps err to an AppError and writes {"error","code","details"}.
// Unknown errors become a 500 whose cause is logged, never sent.
func Error(c *gin.Context, err error) {
	appErr := domainerrors.FromDomain(err)

	if appErr.Status >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "Request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}

	body := gin.H{
		"error": appErr.Message,
		"code":  appErr.Code,
	}
	if appErr.Details != nil {
		body["details"] = appErr.Details
	}
	c.JSON(appErr.Status, body)
}

// Abort writes the error and stops the handler chain.
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

// BindError reports a request body or query that failed binding, listing
// each failed field when the validator produced them.
func BindError(c *gin.Context, err error) {
	appErr := domainerrors.BadRequest("invalid request")
	if fields := validation.FormatValidationError(err); len(fields) > 0 {
		appErr = appErr.WithDetails(fields)
	} else {
		appErr.Message = err.Error()
	}
	Error(c, appErr)
}
