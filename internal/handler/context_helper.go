package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/physed-journal-api/internal/dto"
	"github.com/noah-isme/physed-journal-api/internal/middleware"
	"github.com/noah-isme/physed-journal-api/internal/models"
	appErrors "github.com/noah-isme/physed-journal-api/pkg/errors"
)

func callerFromContext(c *gin.Context) (models.Caller, error) {
	caller, ok := middleware.CallerFromContext(c)
	if !ok || caller.TeacherGUID == "" {
		return models.Caller{}, appErrors.ErrUnauthorized
	}
	return caller, nil
}

func bindJSON(c *gin.Context, dest interface{}) error {
	if err := c.ShouldBindJSON(dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
	}
	return nil
}

func parseDate(value string) (time.Time, error) {
	date, err := dto.ParseDate(value)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
	}
	return date, nil
}

func recordID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "record id must be a positive integer")
	}
	return id, nil
}
