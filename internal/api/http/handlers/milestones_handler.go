package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/project-planner/internal/api/dto"
	"github.com/spec-kit/project-planner/internal/service"
)

// MilestonesHandler exposes milestone endpoints.
type MilestonesHandler struct {
	milestones *service.MilestoneService
}

// NewMilestonesHandler constructs handler.
func NewMilestonesHandler(milestoneService *service.MilestoneService) *MilestonesHandler {
	return &MilestonesHandler{milestones: milestoneService}
}

// List handles GET /milestone/:projectTitle.
func (h *MilestonesHandler) List(c *fiber.Ctx) error {
	milestones, err := h.milestones.ListByProjectTitle(c.UserContext(), pathParam(c, "projectTitle"))
	if err != nil {
		return err
	}
	items := make([]dto.MilestoneResponse, 0, len(milestones))
	for i := range milestones {
		items = append(items, dto.NewMilestoneResponse(&milestones[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Create handles POST /milestone.
func (h *MilestonesHandler) Create(c *fiber.Ctx) error {
	input, err := milestoneInput(c)
	if err != nil {
		return err
	}
	milestone, err := h.milestones.Create(c.UserContext(), principal(c), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewMilestoneResponse(milestone)})
}

// Update handles PUT /milestone/:id.
func (h *MilestonesHandler) Update(c *fiber.Ctx) error {
	input, err := milestoneInput(c)
	if err != nil {
		return err
	}
	milestone, err := h.milestones.Update(c.UserContext(), principal(c), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewMilestoneResponse(milestone)})
}

// Delete handles DELETE /milestone/:id.
func (h *MilestonesHandler) Delete(c *fiber.Ctx) error {
	milestone, err := h.milestones.Delete(c.UserContext(), principal(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewMilestoneResponse(milestone)})
}

func milestoneInput(c *fiber.Ctx) (service.MilestoneInput, error) {
	var req dto.MilestoneRequest
	if err := c.BodyParser(&req); err != nil {
		return service.MilestoneInput{}, invalidPayload()
	}
	due, err := parseDate("dueDate", req.DueDate)
	if err != nil {
		return service.MilestoneInput{}, err
	}
	finished, err := parseDate("dateFinished", req.DateFinished)
	if err != nil {
		return service.MilestoneInput{}, err
	}
	return service.MilestoneInput{
		ProjectTitle: req.ProjectTitle,
		Title:        req.Title,
		DueDate:      due,
		DateFinished: finished,
	}, nil
}
