package httpapi

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/nhle/tracker/internal/model"
	"github.com/nhle/tracker/internal/service"
)

type signedInBody struct {
	User       model.User `json:"user"`
	Persistent bool       `json:"persistent"`
	ExpiresAt  time.Time  `json:"expires_at"`
}

func (s *Server) signedIn(c *fiber.Ctx, status int, in service.SignedIn) error {
	s.setSessionCookie(c, in.Session)
	return c.Status(status).JSON(signedInBody{
		User:       in.User,
		Persistent: in.Session.Persistent,
		ExpiresAt:  in.Session.ExpiresAt,
	})
}

func (s *Server) setup(c *fiber.Ctx) error {
	var in service.RegisterInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	out, err := s.svc.Setup(c.UserContext(), in)
	if err != nil {
		return err
	}
	return s.signedIn(c, fiber.StatusCreated, out)
}

func (s *Server) register(c *fiber.Ctx) error {
	var in service.RegisterInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	out, err := s.svc.Register(c.UserContext(), in)
	if err != nil {
		return err
	}
	return s.signedIn(c, fiber.StatusCreated, out)
}

func (s *Server) login(c *fiber.Ctx) error {
	var in service.LoginInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	out, err := s.svc.Login(c.UserContext(), in)
	if err != nil {
		return err
	}
	return s.signedIn(c, fiber.StatusOK, out)
}

func (s *Server) logout(c *fiber.Ctx) error {
	if err := s.svc.Logout(c.UserContext()); err != nil {
		return err
	}
	s.clearSessionCookie(c)
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) me(c *fiber.Ctx) error {
	user, err := s.svc.Me(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (s *Server) updateProfile(c *fiber.Ctx) error {
	var in service.ProfileInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	user, err := s.svc.UpdateProfile(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (s *Server) deleteUser(c *fiber.Ctx) error {
	if err := s.svc.DeleteUser(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
