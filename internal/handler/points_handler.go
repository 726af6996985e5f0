package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/physed-journal-api/internal/dto"
	"github.com/noah-isme/physed-journal-api/internal/models"
	"github.com/noah-isme/physed-journal-api/internal/service"
	"github.com/noah-isme/physed-journal-api/pkg/response"
)

type pointCommands interface {
	AddPoints(ctx context.Context, req service.AddPointsRequest) (*service.MutationResult, error)
	DeletePoints(ctx context.Context, req service.DeleteRecordRequest) (*service.MutationResult, error)
}

// PointsHandler exposes additional-points endpoints.
type PointsHandler struct {
	service pointCommands
}

// NewPointsHandler constructs a points handler.
func NewPointsHandler(svc pointCommands) *PointsHandler {
	return &PointsHandler{service: svc}
}

// Add godoc
// @Summary Grant additional points
// @Tags Points
// @Accept json
// @Produce json
// @Param payload body dto.AddPointsRequest true "Points payload"
// @Success 201 {object} response.Envelope
// @Router /points [post]
func (h *PointsHandler) Add(c *gin.Context) {
	caller, err := callerFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.AddPointsRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.AddPoints(c.Request.Context(), service.AddPointsRequest{
		StudentGUID: req.StudentGUID,
		Date:        date,
		Points:      req.Points,
		WorkType:    models.WorkType(req.WorkType),
		Comment:     req.Comment,
		Caller:      caller,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Delete godoc
// @Summary Delete a points record
// @Tags Points
// @Produce json
// @Param id path int true "Points record ID"
// @Success 200 {object} response.Envelope
// @Router /points/{id} [delete]
func (h *PointsHandler) Delete(c *gin.Context) {
	caller, err := callerFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := recordID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.DeletePoints(c.Request.Context(), service.DeleteRecordRequest{ID: id, Caller: caller})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
