package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/project-planner/internal/api/dto"
	"github.com/spec-kit/project-planner/internal/domain"
	"github.com/spec-kit/project-planner/internal/service"
	apperrors "github.com/spec-kit/project-planner/pkg/util/errorutil"
)

// ProjectsHandler exposes project endpoints.
type ProjectsHandler struct {
	projects *service.ProjectService
}

// NewProjectsHandler constructs handler.
func NewProjectsHandler(projectService *service.ProjectService) *ProjectsHandler {
	return &ProjectsHandler{projects: projectService}
}

// List handles GET /project.
func (h *ProjectsHandler) List(c *fiber.Ctx) error {
	projects, err := h.projects.FindAll(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.ProjectResponse, 0, len(projects))
	for i := range projects {
		items = append(items, dto.NewProjectResponse(&projects[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get handles GET /project/:title.
func (h *ProjectsHandler) Get(c *fiber.Ctx) error {
	project, err := h.projects.FindByTitle(c.UserContext(), pathParam(c, "title"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProjectResponse(project)})
}

// Create handles POST /project.
func (h *ProjectsHandler) Create(c *fiber.Ctx) error {
	var req dto.ProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	receipt, err := parseDate("dateOfReceipt", req.DateOfReceipt)
	if err != nil {
		return err
	}

	project, err := h.projects.Create(c.UserContext(), principal(c), service.ProjectInput{
		Title:           req.Title,
		Customer:        req.Customer,
		DateOfReceipt:   receipt,
		Owner:           req.Owner,
		Writers:         req.Writers,
		MotionDesigners: req.MotionDesigners,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewProjectResponse(project)})
}

// Update handles PUT /project/:title. The body title must name the same
// project as the path; newTitle renames it.
func (h *ProjectsHandler) Update(c *fiber.Ctx) error {
	var req dto.ProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	title := pathParam(c, "title")
	if strings.TrimSpace(req.Title) != strings.TrimSpace(title) {
		return apperrors.NewValidationError("path title and body title differ", map[string]any{
			"path": title,
			"body": req.Title,
		})
	}

	receipt, err := parseDate("dateOfReceipt", req.DateOfReceipt)
	if err != nil {
		return err
	}
	var status *domain.ProjectStatus
	if req.Status != nil {
		s := domain.ProjectStatus(strings.ToUpper(strings.TrimSpace(*req.Status)))
		status = &s
	}

	project, err := h.projects.Update(c.UserContext(), principal(c), title, service.ProjectUpdate{
		NewTitle:        req.NewTitle,
		Customer:        req.Customer,
		DateOfReceipt:   receipt,
		Status:          status,
		Owner:           req.Owner,
		Writers:         req.Writers,
		MotionDesigners: req.MotionDesigners,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProjectResponse(project)})
}

// Archive handles PUT /project/:title/archive.
func (h *ProjectsHandler) Archive(c *fiber.Ctx) error {
	project, err := h.projects.Archive(c.UserContext(), principal(c), pathParam(c, "title"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProjectResponse(project)})
}

// Restore handles PUT /project/:title/restore.
func (h *ProjectsHandler) Restore(c *fiber.Ctx) error {
	project, err := h.projects.Restore(c.UserContext(), principal(c), pathParam(c, "title"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProjectResponse(project)})
}
