package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/physed-journal-api/internal/dto"
	"github.com/noah-isme/physed-journal-api/internal/service"
	appErrors "github.com/noah-isme/physed-journal-api/pkg/errors"
	"github.com/noah-isme/physed-journal-api/pkg/response"
)

// MigrationHandler queues and reports bulk semester migrations.
type MigrationHandler struct {
	queue migrationQueue
}

// NewMigrationHandler constructs a migration handler.
func NewMigrationHandler(queue migrationQueue) *MigrationHandler {
	return &MigrationHandler{queue: queue}
}

// Start godoc
// @Summary Queue a bulk migration
// @Description kind=semester archives every active student into target; kind=debt closes cleared debts.
// @Tags Migrations
// @Accept json
// @Produce json
// @Param payload body dto.StartMigrationRequest true "Migration payload"
// @Success 202 {object} response.Envelope
// @Router /semesters/migrations [post]
func (h *MigrationHandler) Start(c *gin.Context) {
	var req dto.StartMigrationRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	var (
		job *service.MigrationJob
		err error
	)
	switch strings.ToLower(strings.TrimSpace(req.Kind)) {
	case "", "semester", service.JobTypeSemesterMigration:
		job, err = h.queue.Enqueue(strings.TrimSpace(req.Target))
	case "debt", service.JobTypeDebtClosure:
		job, err = h.queue.EnqueueDebtSweep()
	default:
		err = appErrors.Clone(appErrors.ErrValidation, "kind must be semester or debt")
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, job)
}

// Status godoc
// @Summary Get a migration job
// @Tags Migrations
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /semesters/migrations/{id} [get]
func (h *MigrationHandler) Status(c *gin.Context) {
	job, err := h.queue.Status(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// List godoc
// @Summary List recent migration jobs
// @Tags Migrations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /semesters/migrations [get]
func (h *MigrationHandler) List(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.queue.List(), nil)
}
