package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/physed-journal-api/internal/dto"
	"github.com/noah-isme/physed-journal-api/internal/models"
	"github.com/noah-isme/physed-journal-api/internal/service"
	"github.com/noah-isme/physed-journal-api/pkg/response"
)

type studentArchiver interface {
	ArchiveStudent(ctx context.Context, req service.ArchiveStudentRequest) (*models.ArchivedStudent, error)
	GetArchived(ctx context.Context, studentGUID string) ([]models.ArchivedStudent, error)
	ArchiveGroup(ctx context.Context, groupName string, caller models.Caller) ([]service.ArchiveStudentStatus, error)
	UnarchiveStudent(ctx context.Context, studentGUID, semesterName string) (*models.StudentLedger, error)
}

// ArchiveHandler exposes semester closure endpoints for students and groups.
type ArchiveHandler struct {
	service studentArchiver
}

// NewArchiveHandler constructs an archive handler.
func NewArchiveHandler(svc studentArchiver) *ArchiveHandler {
	return &ArchiveHandler{service: svc}
}

// Archive godoc
// @Summary Archive a student's semester
// @Description Closes the student's semester. Without a body the current semester is the target.
// @Tags Archive
// @Accept json
// @Produce json
// @Param guid path string true "Student GUID"
// @Param payload body dto.ArchiveStudentRequest false "Archive options"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /students/{guid}/archive [post]
func (h *ArchiveHandler) Archive(c *gin.Context) {
	caller, err := callerFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ArchiveStudentRequest
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := bindJSON(c, &req); err != nil && !errors.Is(err, io.EOF) {
			response.Error(c, err)
			return
		}
	}
	archived, err := h.service.ArchiveStudent(c.Request.Context(), service.ArchiveStudentRequest{
		StudentGUID:    c.Param("guid"),
		TargetSemester: req.TargetSemester,
		Force:          req.Force,
		Caller:         caller,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, archived)
}

// List godoc
// @Summary List archived semesters of a student
// @Tags Archive
// @Produce json
// @Param guid path string true "Student GUID"
// @Success 200 {object} response.Envelope
// @Router /students/{guid}/archive [get]
func (h *ArchiveHandler) List(c *gin.Context) {
	archived, err := h.service.GetArchived(c.Request.Context(), c.Param("guid"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, archived, nil)
}

// ArchiveGroup godoc
// @Summary Archive every student of a group
// @Description Runs the single-student closure for each member and reports a status per student.
// @Tags Archive
// @Produce json
// @Param name path string true "Group name"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /groups/{name}/archive [post]
func (h *ArchiveHandler) ArchiveGroup(c *gin.Context) {
	caller, err := callerFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	statuses, err := h.service.ArchiveGroup(c.Request.Context(), c.Param("name"), caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, statuses, nil)
}

// Unarchive godoc
// @Summary Restore an archived semester into the live ledger
// @Tags Archive
// @Accept json
// @Produce json
// @Param guid path string true "Student GUID"
// @Param payload body dto.UnarchiveStudentRequest true "Archived semester"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{guid}/unarchive [post]
func (h *ArchiveHandler) Unarchive(c *gin.Context) {
	var req dto.UnarchiveStudentRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	ledger, err := h.service.UnarchiveStudent(c.Request.Context(), c.Param("guid"), req.Semester)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ledger, nil)
}
