package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grant-service/internal/api/dto"
	"github.com/spec-kit/grant-service/internal/auth"
	"github.com/spec-kit/grant-service/internal/domain"
	"github.com/spec-kit/grant-service/internal/service"
	apperrors "github.com/spec-kit/grant-service/pkg/util/errorutil"
)

const maxPageSize = 100

// ApplicationsHandler exposes the grant workflow.
type ApplicationsHandler struct {
	service *service.ApplicationService
}

// NewApplicationsHandler constructs handler.
func NewApplicationsHandler(applicationService *service.ApplicationService) *ApplicationsHandler {
	return &ApplicationsHandler{service: applicationService}
}

// Submit POST /applications.
func (h *ApplicationsHandler) Submit(c *fiber.Ctx) error {
	var req dto.SubmitApplicationRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	app, err := h.service.Submit(c.UserContext(), auth.ActorFromContext(c), req.Fields())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewApplicationResponse(app)})
}

// List GET /applications. status may repeat or be comma separated; mine=true
// limits the result to the caller's own applications. Applicants only ever see
// their own.
func (h *ApplicationsHandler) List(c *fiber.Ctx) error {
	actor := auth.ActorFromContext(c)
	if actor == nil {
		return apperrors.NewInvalidActor()
	}

	input := service.ApplicationListInput{}
	if actor.Role == domain.RoleApplicant || c.QueryBool("mine") {
		input.ApplicantID = &actor.ID
	}
	for _, raw := range strings.Split(c.Query("status"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		input.Statuses = append(input.Statuses, domain.ApplicationStatus(raw))
	}
	page, pageSize, err := parsePagination(c)
	if err != nil {
		return err
	}
	if pageSize > 0 {
		input.Limit = pageSize
		input.Offset = (page - 1) * pageSize
	}

	apps, err := h.service.List(c.UserContext(), input)
	if err != nil {
		return err
	}
	items := make([]dto.ApplicationResponse, 0, len(apps))
	for i := range apps {
		items = append(items, dto.NewApplicationResponse(&apps[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /applications/:id.
func (h *ApplicationsHandler) Get(c *fiber.Ctx) error {
	app, err := h.visibleApplication(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewApplicationResponse(app)})
}

// History GET /applications/:id/history.
func (h *ApplicationsHandler) History(c *fiber.Ctx) error {
	app, err := h.visibleApplication(c)
	if err != nil {
		return err
	}
	entries, err := h.service.History(c.UserContext(), app.ID)
	if err != nil {
		return err
	}
	items := make([]dto.HistoryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.NewHistoryResponse(entry))
	}
	return c.JSON(fiber.Map{"data": items})
}

// RecordAssessment PUT /applications/:id/assessment. The committee member is the caller.
func (h *ApplicationsHandler) RecordAssessment(c *fiber.Ctx) error {
	actor := auth.ActorFromContext(c)
	if actor == nil {
		return apperrors.NewInvalidActor()
	}
	var req dto.RecordAssessmentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	app, err := h.service.RecordAssessment(c.UserContext(), c.Params("id"), actor.ID, req.Update())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewApplicationResponse(app)})
}

// RecordDeanRecommendation PUT /applications/:id/dean-recommendation.
func (h *ApplicationsHandler) RecordDeanRecommendation(c *fiber.Ctx) error {
	var req dto.DeanRecommendationRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	app, err := h.service.RecordDeanRecommendation(c.UserContext(), auth.ActorFromContext(c), c.Params("id"), req.Recommendation())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewApplicationResponse(app)})
}

// RecordFinalDecision PUT /applications/:id/final-decision.
func (h *ApplicationsHandler) RecordFinalDecision(c *fiber.Ctx) error {
	var req dto.FinalDecisionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	app, err := h.service.RecordFinalDecision(c.UserContext(), auth.ActorFromContext(c), c.Params("id"), domain.FinalDecision(req.Decision))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewApplicationResponse(app)})
}

// AddComment POST /applications/:id/comments.
func (h *ApplicationsHandler) AddComment(c *fiber.Ctx) error {
	actor := auth.ActorFromContext(c)
	if actor == nil {
		return apperrors.NewInvalidActor()
	}
	if actor.Role == domain.RoleApplicant {
		if _, err := h.visibleApplication(c); err != nil {
			return err
		}
	}
	var req dto.CommentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	comment, err := h.service.AddComment(c.UserContext(), actor, c.Params("id"), req.Message)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewCommentResponse(*comment)})
}

// visibleApplication loads :id, hiding other people's applications from applicants.
func (h *ApplicationsHandler) visibleApplication(c *fiber.Ctx) (*domain.Application, error) {
	actor := auth.ActorFromContext(c)
	if actor == nil {
		return nil, apperrors.NewInvalidActor()
	}
	app, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return nil, err
	}
	if actor.Role == domain.RoleApplicant && app.ApplicantID != actor.ID {
		return nil, apperrors.NewNotFound("application", nil)
	}
	return app, nil
}

func parseBody(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return dto.Validate(req)
}

func parsePagination(c *fiber.Ctx) (int, int, error) {
	page, err := positiveQueryInt(c, "page", 1)
	if err != nil {
		return 0, 0, err
	}
	pageSize, err := positiveQueryInt(c, "page_size", 0)
	if err != nil {
		return 0, 0, err
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize, nil
}

func positiveQueryInt(c *fiber.Ctx, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, apperrors.NewValidationError("invalid "+key, map[string]any{key: raw})
	}
	return v, nil
}
