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

type standardCommands interface {
	AddStandard(ctx context.Context, req service.AddStandardRequest) (*service.MutationResult, error)
	DeleteStandard(ctx context.Context, req service.DeleteRecordRequest) (*service.MutationResult, error)
}

// StandardsHandler exposes fitness standard endpoints.
type StandardsHandler struct {
	service standardCommands
}

// NewStandardsHandler constructs a standards handler.
func NewStandardsHandler(svc standardCommands) *StandardsHandler {
	return &StandardsHandler{service: svc}
}

// Add godoc
// @Summary Record a standard result
// @Description With override=true the score replaces earlier results of the same standard.
// @Tags Standards
// @Accept json
// @Produce json
// @Param payload body dto.AddStandardRequest true "Standard payload"
// @Success 201 {object} response.Envelope
// @Router /standards [post]
func (h *StandardsHandler) Add(c *gin.Context) {
	caller, err := callerFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.AddStandardRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.AddStandard(c.Request.Context(), service.AddStandardRequest{
		StudentGUID:  req.StudentGUID,
		Date:         date,
		Points:       req.Points,
		StandardType: models.StandardType(req.StandardType),
		IsOverride:   req.Override,
		Comment:      req.Comment,
		Caller:       caller,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Delete godoc
// @Summary Delete a standard result
// @Tags Standards
// @Produce json
// @Param id path int true "Standard record ID"
// @Success 200 {object} response.Envelope
// @Router /standards/{id} [delete]
func (h *StandardsHandler) Delete(c *gin.Context) {
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
	result, err := h.service.DeleteStandard(c.Request.Context(), service.DeleteRecordRequest{ID: id, Caller: caller})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
