// FILE: internal/controller/enhance_controller.go
package controller

import (
	"prompt-polish-be/internal/apperror"
	"prompt-polish-be/internal/dto"
	"prompt-polish-be/internal/pkg/serverutils"
	"prompt-polish-be/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type IEnhanceController interface {
	RegisterRoutes(r fiber.Router)
	Enhance(ctx *fiber.Ctx) error
	GetQuota(ctx *fiber.Ctx) error
	LinkQuota(ctx *fiber.Ctx) error
}

type enhanceController struct {
	enhanceService service.IEnhanceService
	quotaService   service.IQuotaService
	validate       *validator.Validate
}

func NewEnhanceController(enhanceService service.IEnhanceService, quotaService service.IQuotaService) IEnhanceController {
	return &enhanceController{
		enhanceService: enhanceService,
		quotaService:   quotaService,
		validate:       validator.New(),
	}
}

func (c *enhanceController) RegisterRoutes(r fiber.Router) {
	r.Post("/enhance", c.Enhance)
	r.Get("/quota", c.GetQuota)
	r.Post("/quota/link", c.LinkQuota)
}

func (c *enhanceController) Enhance(ctx *fiber.Ctx) error {
	var req dto.EnhanceRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation("invalid request body")
	}
	if err := c.validate.Struct(&req); err != nil {
		return apperror.Validation(err.Error())
	}

	ident := serverutils.ResolveIdentity(ctx)
	if ident.IsZero() {
		return apperror.Unauthorized("no identity present")
	}

	res, err := c.enhanceService.Enhance(ctx.Context(), ident, ctx.IP(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Prompt enhanced",
		"data":    res,
	})
}

func (c *enhanceController) GetQuota(ctx *fiber.Ctx) error {
	ident := serverutils.ResolveIdentity(ctx)
	if ident.IsZero() {
		return apperror.Unauthorized("no identity present")
	}

	res, err := c.quotaService.GetUsage(ctx.Context(), ident, ctx.IP())
	if err != nil {
		return err
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Quota usage",
		"data":    res,
	})
}

// LinkQuota folds today's anonymous usage into the authenticated account.
// Requires both a valid JWT and the anonymous cookie.
func (c *enhanceController) LinkQuota(ctx *fiber.Ctx) error {
	userID, ok := serverutils.CurrentUserID(ctx)
	if !ok {
		return apperror.Unauthorized("authentication required")
	}
	anonID := serverutils.CurrentAnonID(ctx)
	if anonID == "" {
		return apperror.Validation("no anonymous identity to link")
	}

	res, err := c.quotaService.Link(ctx.Context(), userID, anonID)
	if err != nil {
		return err
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Quota linked",
		"data":    res,
	})
}
