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

type semesterRegistry interface {
	Current(ctx context.Context) (*models.Semester, error)
	List(ctx context.Context) ([]models.Semester, error)
	StartNewSemester(ctx context.Context, req service.StartSemesterRequest) (*models.Semester, bool, error)
}

type migrationQueue interface {
	Enqueue(target string) (*service.MigrationJob, error)
	EnqueueDebtSweep() (*service.MigrationJob, error)
	Status(id string) (*service.MigrationJob, error)
	List() []service.MigrationJob
}

// SemesterHandler exposes the semester registry.
type SemesterHandler struct {
	service    semesterRegistry
	migrations migrationQueue
}

// NewSemesterHandler constructs a semester handler. migrations may be nil when no worker runs.
func NewSemesterHandler(svc semesterRegistry, migrations migrationQueue) *SemesterHandler {
	return &SemesterHandler{service: svc, migrations: migrations}
}

// Current godoc
// @Summary Get current semester
// @Tags Semesters
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /semesters/current [get]
func (h *SemesterHandler) Current(c *gin.Context) {
	semester, err := h.service.Current(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semester, nil)
}

// List godoc
// @Summary List semesters
// @Tags Semesters
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /semesters [get]
func (h *SemesterHandler) List(c *gin.Context) {
	semesters, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semesters, nil)
}

// Start godoc
// @Summary Start a new semester
// @Description Makes the named semester current. With migrate=true a bulk migration is queued.
// @Tags Semesters
// @Accept json
// @Produce json
// @Param payload body dto.StartSemesterRequest true "Semester payload"
// @Success 200 {object} response.Envelope
// @Router /semesters [post]
func (h *SemesterHandler) Start(c *gin.Context) {
	var req dto.StartSemesterRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	semester, changed, err := h.service.StartNewSemester(c.Request.Context(), service.StartSemesterRequest{Name: req.Name})
	if err != nil {
		response.Error(c, err)
		return
	}
	resp := dto.StartSemesterResponse{Semester: semester, Changed: changed}
	if req.Migrate && h.migrations != nil {
		job, err := h.migrations.Enqueue(semester.Name)
		if err != nil {
			response.Error(c, err)
			return
		}
		resp.Migration = job
	}
	response.JSON(c, http.StatusOK, resp, nil)
}
