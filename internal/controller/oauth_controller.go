// FILE: internal/controller/oauth_controller.go
package controller

import (
	"prompt-polish-be/internal/pkg/serverutils"
	"prompt-polish-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IOAuthController interface {
	RegisterRoutes(r fiber.Router)
	Redirect(ctx *fiber.Ctx) error
	Callback(ctx *fiber.Ctx) error
}

type oauthController struct {
	service   service.IOAuthService
	clientURL string
}

func NewOAuthController(service service.IOAuthService, clientURL string) IOAuthController {
	return &oauthController{
		service:   service,
		clientURL: clientURL,
	}
}

func (c *oauthController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/oauth")
	h.Get("/:provider", c.Redirect)
	h.Get("/:provider/callback", c.Callback)
}

func (c *oauthController) Redirect(ctx *fiber.Ctx) error {
	url, err := c.service.GetLoginURL(ctx.Params("provider"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"code":    400,
			"message": err.Error(),
		})
	}
	return ctx.Redirect(url, fiber.StatusTemporaryRedirect)
}

func (c *oauthController) Callback(ctx *fiber.Ctx) error {
	code := ctx.Query("code")
	if code == "" {
		return ctx.Redirect(c.clientURL+"/login?error=oauth_cancelled", fiber.StatusTemporaryRedirect)
	}

	res, err := c.service.HandleCallback(ctx.Context(), ctx.Params("provider"), code, serverutils.CurrentAnonID(ctx))
	if err != nil {
		return ctx.Redirect(c.clientURL+"/login?error=oauth_failed", fiber.StatusTemporaryRedirect)
	}

	return ctx.Redirect(c.clientURL+"/oauth/success?token="+res.AccessToken, fiber.StatusTemporaryRedirect)
}
