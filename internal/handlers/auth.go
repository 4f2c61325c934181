package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/services"
)

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	auth *services.AuthService
	cfg  *config.Config
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(auth *services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{auth: auth, cfg: cfg}
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"fname"`
	Phone     string `json:"phone"`
}

// Register creates a new user account.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}

	user, err := h.auth.Register(c.UserContext(), services.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		Phone:     req.Phone,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "user registered",
		"data":    user,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks the password and emails a verification code.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}

	res, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	h.setCookie(c, middleware.PendingCookie, res.PendingToken, h.cfg.PendingTokenTTL)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "verification code sent",
		"data": fiber.Map{
			"pendingToken": res.PendingToken,
			"user":         res.User,
		},
	})
}

type verifyRequest struct {
	OTP          string              `json:"otp"`
	PendingToken string              `json:"pendingToken"`
	CartItems    []services.CartItem `json:"cartItems"`
}

// Verify checks the emailed code. Login codes yield a session; reset codes
// unlock forgot-password.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}
	if req.OTP == "" {
		return badRequest("otp is required")
	}

	res, err := h.auth.VerifyOTP(c.UserContext(), h.pendingToken(c, req.PendingToken), req.OTP, req.CartItems)
	if err != nil {
		return err
	}

	if res.SessionToken == "" {
		return c.JSON(fiber.Map{
			"success": true,
			"message": "code verified",
			"data":    fiber.Map{"verified": true},
		})
	}

	h.clearCookie(c, middleware.PendingCookie)
	h.setCookie(c, middleware.SessionCookie, res.SessionToken, h.cfg.SessionTTL)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "login verified",
		"data": fiber.Map{
			"sessionToken":   res.SessionToken,
			"user":           res.User,
			"cartItems":      res.Cart.Items,
			"productDetails": res.Cart.Products,
		},
	})
}

type verifyEmailRequest struct {
	Email string `json:"email"`
}

// VerifyEmail starts a password reset by emailing a code.
func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	var req verifyEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}

	token, err := h.auth.VerifyEmail(c.UserContext(), req.Email)
	if err != nil {
		return err
	}

	h.setCookie(c, middleware.PendingCookie, token, h.cfg.PendingTokenTTL)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "verification code sent",
		"data":    fiber.Map{"pendingToken": token},
	})
}

type passwordRequest struct {
	Password1    string `json:"password1"`
	Password2    string `json:"password2"`
	PendingToken string `json:"pendingToken"`
}

// ForgotPassword sets a new password after the reset code was verified.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req passwordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}

	if err := h.auth.ForgotPassword(c.UserContext(), h.pendingToken(c, req.PendingToken), req.Password1, req.Password2); err != nil {
		return err
	}

	h.clearCookie(c, middleware.PendingCookie)
	return c.JSON(fiber.Map{"success": true, "message": "password updated"})
}

// ChangePassword replaces the password of the signed-in user.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var req passwordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}

	if err := h.auth.ChangePassword(c.UserContext(), middleware.SessionToken(c), req.Password1, req.Password2); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "password updated"})
}

// Logout revokes the session and clears its cookie.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.auth.Logout(c.UserContext(), middleware.SessionToken(c)); err != nil {
		return err
	}
	h.clearCookie(c, middleware.SessionCookie)
	return c.JSON(fiber.Map{"success": true, "message": "logged out"})
}

func (h *AuthHandler) pendingToken(c *fiber.Ctx, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	return c.Cookies(middleware.PendingCookie)
}

func (h *AuthHandler) setCookie(c *fiber.Ctx, name, value string, ttl time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (h *AuthHandler) clearCookie(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
