// FILE: internal/controller/session_controller.go
package controller

import (
	"prompt-polish-be/internal/apperror"
	"prompt-polish-be/internal/dto"
	"prompt-polish-be/internal/entity"
	"prompt-polish-be/internal/pkg/serverutils"
	"prompt-polish-be/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	GetTurns(ctx *fiber.Ctx) error
	UpdateTitle(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Merge(ctx *fiber.Ctx) error
}

type sessionController struct {
	service  service.ISessionService
	validate *validator.Validate
}

func NewSessionController(service service.ISessionService) ISessionController {
	return &sessionController{
		service:  service,
		validate: validator.New(),
	}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/sessions")
	h.Post("/", c.Create)
	h.Get("/", c.List)
	h.Get("/:id/turns", c.GetTurns)
	h.Patch("/:id/title", c.UpdateTitle)
	h.Delete("/:id", c.Delete)
	h.Post("/:id/merge", c.Merge)
}

func identityOrErr(ctx *fiber.Ctx) (entity.Identity, error) {
	ident := serverutils.ResolveIdentity(ctx)
	if ident.IsZero() {
		return ident, apperror.Unauthorized("no identity present")
	}
	return ident, nil
}

func sessionIDParam(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, apperror.Validation("invalid session id")
	}
	return id, nil
}

func (c *sessionController) Create(ctx *fiber.Ctx) error {
	ident, err := identityOrErr(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateSessionRequest
	if err := ctx.BodyParser(&req); err != nil && len(ctx.Body()) > 0 {
		return apperror.Validation("invalid request body")
	}
	if err := c.validate.Struct(&req); err != nil {
		return apperror.Validation(err.Error())
	}

	res, err := c.service.Create(ctx.Context(), ident, req.Title)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"code":    201,
		"message": "Session created",
		"data":    res,
	})
}

func (c *sessionController) List(ctx *fiber.Ctx) error {
	ident, err := identityOrErr(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.List(ctx.Context(), ident)
	if err != nil {
		return err
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Sessions retrieved",
		"data":    res,
	})
}

func (c *sessionController) GetTurns(ctx *fiber.Ctx) error {
	ident, err := identityOrErr(ctx)
	if err != nil {
		return err
	}
	sessionID, err := sessionIDParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetTurns(ctx.Context(), ident, sessionID)
	if err != nil {
		return err
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Turns retrieved",
		"data":    res,
	})
}

func (c *sessionController) UpdateTitle(ctx *fiber.Ctx) error {
	ident, err := identityOrErr(ctx)
	if err != nil {
		return err
	}
	sessionID, err := sessionIDParam(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateSessionTitleRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation("invalid request body")
	}
	if err := c.validate.Struct(&req); err != nil {
		return apperror.Validation(err.Error())
	}

	if err := c.service.UpdateTitle(ctx.Context(), ident, sessionID, req.Title); err != nil {
		return err
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Session title updated",
		"data":    nil,
	})
}

func (c *sessionController) Delete(ctx *fiber.Ctx) error {
	ident, err := identityOrErr(ctx)
	if err != nil {
		return err
	}
	sessionID, err := sessionIDParam(ctx)
	if err != nil {
		return err
	}

	if err := c.service.Delete(ctx.Context(), ident, sessionID); err != nil {
		return err
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Session deleted",
		"data":    nil,
	})
}

// Merge reassigns an anonymous session to the authenticated caller. Needs
// both the JWT and the anonymous cookie that owns the session.
func (c *sessionController) Merge(ctx *fiber.Ctx) error {
	userID, ok := serverutils.CurrentUserID(ctx)
	if !ok {
		return apperror.Unauthorized("authentication required")
	}
	anonID := serverutils.CurrentAnonID(ctx)
	if anonID == "" {
		return apperror.Validation("no anonymous identity present")
	}
	sessionID, err := sessionIDParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.MergeIntoUser(ctx.Context(), sessionID, anonID, userID)
	if err != nil {
		return err
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Session merged",
		"data":    res,
	})
}
