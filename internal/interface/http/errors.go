package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-library-management/internal/domain/apperror"
	"github.com/oksasatya/go-library-management/pkg/response"
	"github.com/oksasatya/go-library-management/pkg/validation"
)

// statusOf maps the application error taxonomy onto HTTP.
func statusOf(err error) (int, string, string) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error", "invalid input"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found", err.Error()
	case errors.Is(err, apperror.ErrUnavailable):
		return http.StatusConflict, "unavailable", "no copies available"
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, "conflict", "conflicting record"
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden, "forbidden", "forbidden"
	case errors.Is(err, apperror.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials", "invalid credentials"
	}
	return http.StatusInternalServerError, "internal_error", "internal server error"
}

func fail(c *gin.Context, logger *logrus.Logger, err error) {
	status, code, msg := statusOf(err)
	body := response.ErrorBody{Code: code}

	var ve *apperror.ValidationError
	if errors.As(err, &ve) {
		body.Details = map[string]string{ve.Field: ve.Message}
	}
	if status >= http.StatusInternalServerError && logger != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"request_id": c.GetString("request_id"),
		}).Error("request failed")
	}
	response.Error[any](c, status, msg, body)
}

func badPayload(c *gin.Context, err error) {
	response.Error[any](c, http.StatusBadRequest, "invalid payload", response.ErrorBody{
		Code:    "validation_error",
		Details: validation.ToDetails(err),
	})
}

// pathID parses a positive int64 route parameter.
func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.Invalid(name, "must be a positive integer")
	}
	return id, nil
}

func queryBool(c *gin.Context, name string) bool {
	b, _ := strconv.ParseBool(c.Query(name))
	return b
}
