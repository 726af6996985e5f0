package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/physed-journal-api/internal/dto"
	"github.com/noah-isme/physed-journal-api/internal/service"
	"github.com/noah-isme/physed-journal-api/pkg/response"
)

type visitCommands interface {
	AddVisit(ctx context.Context, req service.AddVisitRequest) (*service.MutationResult, error)
	DeleteVisit(ctx context.Context, req service.DeleteRecordRequest) (*service.MutationResult, error)
}

// VisitHandler exposes attendance endpoints.
type VisitHandler struct {
	service visitCommands
}

// NewVisitHandler constructs a visit handler.
func NewVisitHandler(svc visitCommands) *VisitHandler {
	return &VisitHandler{service: svc}
}

// Add godoc
// @Summary Record a visit
// @Tags Visits
// @Accept json
// @Produce json
// @Param payload body dto.AddVisitRequest true "Visit payload"
// @Success 201 {object} response.Envelope
// @Router /visits [post]
func (h *VisitHandler) Add(c *gin.Context) {
	caller, err := callerFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.AddVisitRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.AddVisit(c.Request.Context(), service.AddVisitRequest{
		StudentGUID: req.StudentGUID,
		Date:        date,
		Caller:      caller,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Delete godoc
// @Summary Delete a visit
// @Tags Visits
// @Produce json
// @Param id path int true "Visit record ID"
// @Success 200 {object} response.Envelope
// @Router /visits/{id} [delete]
func (h *VisitHandler) Delete(c *gin.Context) {
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
	result, err := h.service.DeleteVisit(c.Request.Context(), service.DeleteRecordRequest{ID: id, Caller: caller})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
