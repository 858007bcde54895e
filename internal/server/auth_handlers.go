package server

import (
	"fmt"
	"time"

	"postboard/internal/models"
	"postboard/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type registerRequest struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// bindBody parses a JSON or form body into dst. An empty body leaves dst
// zero-valued so the field rules report what is missing.
func bindBody(c *fiber.Ctx, dst any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	return c.BodyParser(dst)
}

// Register handles POST /api/register
// @Summary Register a user
// @Description Create an account. Name is 3-60 characters, email must be unique, password at least 6 characters.
// @Tags auth
// @Accept json,x-www-form-urlencoded,mpfd
// @Produce json
// @Param request body object{name=string,email=string,password=string} true "Registration form"
// @Success 200 {object} models.Envelope{data=models.User}
// @Failure 400 {object} models.Envelope{error=[]string}
// @Router /register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := bindBody(c, &req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	user, err := s.authService.Register(c.UserContext(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return s.respondAuthError(c, err, "Failed to register")
	}

	return respondSuccess(c, fiber.StatusOK, fmt.Sprintf("%s! You registered successfully", user.Name), user)
}

// Login handles POST /api/login
// @Summary Log in
// @Description Exchange credentials for a bearer token.
// @Tags auth
// @Accept json,x-www-form-urlencoded,mpfd
// @Produce json
// @Param request body object{email=string,password=string} true "Credentials"
// @Success 200 {object} models.Envelope{data=models.TokenPayload}
// @Failure 400 {object} models.Envelope{error=[]string}
// @Failure 401 {object} models.Envelope{error=string}
// @Router /login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := bindBody(c, &req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	res, err := s.authService.Login(c.UserContext(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return s.respondAuthError(c, err, "Failed to log in")
	}

	return respondSuccess(c, fiber.StatusOK,
		fmt.Sprintf("%s! You logged in successfully", res.User.Name),
		models.TokenPayload{Token: res.Token, TokenType: "Bearer"},
	)
}

// Logout handles POST /api/logout
// @Summary Log out
// @Description Revoke every token of the current user.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Envelope
// @Failure 401 {object} models.Envelope
// @Router /logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.authService.Logout(c.UserContext(), authFrom(c)); err != nil {
		return s.respondInternal(c, "Failed to log out", err)
	}
	return respondSuccess(c, fiber.StatusOK, "You have been logged out successfully", nil)
}

// CurrentUser handles GET /api/user
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Envelope{data=models.User}
// @Failure 401 {object} models.Envelope
// @Router /user [get]
func (s *Server) CurrentUser(c *fiber.Ctx) error {
	return respondSuccess(c, fiber.StatusOK, "User retrieved successfully", authFrom(c).User)
}

// CSRFCookie handles GET /sanctum/csrf-cookie. SPAs call it before their first
// state-changing request; it sets an XSRF-TOKEN cookie readable by script.
func (s *Server) CSRFCookie(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     "XSRF-TOKEN",
		Value:    uuid.NewString(),
		Path:     "/",
		Expires:  time.Now().Add(2 * time.Hour),
		Secure:   s.config.IsProduction(),
		HTTPOnly: false,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.SendStatus(fiber.StatusNoContent)
}
