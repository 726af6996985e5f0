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

type adminCommands interface {
	ActivateStudent(ctx context.Context, studentGUID string) error
	DeactivateStudent(ctx context.Context, studentGUID string) error
	AssignVisitValue(ctx context.Context, req service.AssignVisitValueRequest) (*models.Group, error)
	AssignCurator(ctx context.Context, req service.AssignCuratorRequest) (*models.Group, error)
	GivePermissions(ctx context.Context, req service.GivePermissionsRequest) (*models.Teacher, error)
}

// AdminHandler exposes the administrative commands. Routes are mounted behind RequirePrivileged.
type AdminHandler struct {
	service adminCommands
}

// NewAdminHandler constructs an admin handler.
func NewAdminHandler(svc adminCommands) *AdminHandler {
	return &AdminHandler{service: svc}
}

// Activate godoc
// @Summary Include a student in bulk runs
// @Tags Admin
// @Produce json
// @Param guid path string true "Student GUID"
// @Success 200 {object} response.Envelope
// @Router /students/{guid}/activate [post]
func (h *AdminHandler) Activate(c *gin.Context) {
	h.setActive(c, h.service.ActivateStudent, true)
}

// Deactivate godoc
// @Summary Exclude a student from bulk runs
// @Tags Admin
// @Produce json
// @Param guid path string true "Student GUID"
// @Success 200 {object} response.Envelope
// @Router /students/{guid}/deactivate [post]
func (h *AdminHandler) Deactivate(c *gin.Context) {
	h.setActive(c, h.service.DeactivateStudent, false)
}

func (h *AdminHandler) setActive(c *gin.Context, fn func(context.Context, string) error, active bool) {
	guid := c.Param("guid")
	if err := fn(c.Request.Context(), guid); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"student_guid": guid, "is_active": active}, nil)
}

// AssignVisitValue godoc
// @Summary Set the per-visit credit of a group
// @Tags Admin
// @Accept json
// @Produce json
// @Param name path string true "Group name"
// @Param payload body dto.AssignVisitValueRequest true "Visit value"
// @Success 200 {object} response.Envelope
// @Router /groups/{name}/visit-value [put]
func (h *AdminHandler) AssignVisitValue(c *gin.Context) {
	var req dto.AssignVisitValueRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	group, err := h.service.AssignVisitValue(c.Request.Context(), service.AssignVisitValueRequest{
		GroupName:  c.Param("name"),
		VisitValue: req.VisitValue,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// AssignCurator godoc
// @Summary Assign the curator of a group
// @Tags Admin
// @Accept json
// @Produce json
// @Param name path string true "Group name"
// @Param payload body dto.AssignCuratorRequest true "Curator"
// @Success 200 {object} response.Envelope
// @Router /groups/{name}/curator [put]
func (h *AdminHandler) AssignCurator(c *gin.Context) {
	var req dto.AssignCuratorRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	group, err := h.service.AssignCurator(c.Request.Context(), service.AssignCuratorRequest{
		GroupName:   c.Param("name"),
		TeacherGUID: req.TeacherGUID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// GivePermissions godoc
// @Summary Replace the permissions of a teacher
// @Tags Admin
// @Accept json
// @Produce json
// @Param guid path string true "Teacher GUID"
// @Param payload body dto.GivePermissionsRequest true "Permission bit set"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /teachers/{guid}/permissions [put]
func (h *AdminHandler) GivePermissions(c *gin.Context) {
	var req dto.GivePermissionsRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	teacher, err := h.service.GivePermissions(c.Request.Context(), service.GivePermissionsRequest{
		TeacherGUID: c.Param("guid"),
		Permissions: models.TeacherPermission(req.Permissions),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}
