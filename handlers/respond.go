package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"quickbite-api/apperr"
	"quickbite-api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// fail writes err as {"message": ...} with its mapped status. Internal
// causes are logged and never sent to the client.
func fail(c *gin.Context, logger *slog.Logger, err error) {
	status := apperr.StatusOf(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			"path", c.Request.URL.Path,
			"request_id", middleware.GetRequestID(c),
			"error", err)
	}
	body := gin.H{"message": apperr.MessageOf(err)}
	if fields := apperr.FieldsOf(err); len(fields) > 0 {
		body["errors"] = fields
	}
	c.AbortWithStatusJSON(status, body)
}

// bindJSON decodes the request body; binding failures are written as a 400
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]apperr.FieldError, len(verrs))
			for i, fe := range verrs {
				fields[i] = apperr.FieldError{Field: jsonField(fe), Message: fieldMessage(fe)}
			}
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Validation failed", "errors": fields})
			return false
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return false
	}
	return true
}

func jsonField(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" {
		return name
	}
	return strings.ToLower(name[:1]) + name[1:]
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return jsonField(fe) + " is required"
	case "email":
		return "Please enter a valid email address"
	case "oneof":
		return jsonField(fe) + " must be one of " + fe.Param()
	case "min":
		return jsonField(fe) + " must be at least " + fe.Param()
	}
	return jsonField(fe) + " is invalid"
}

// idParam parses a positive numeric path parameter
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}
