package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nhle/tracker/internal/service"
)

func (s *Server) listProjects(c *fiber.Ctx) error {
	projects, err := s.svc.ListProjects(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(projects)
}

func (s *Server) createProject(c *fiber.Ctx) error {
	var in service.ProjectInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	project, err := s.svc.CreateProject(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(project)
}

func (s *Server) getProject(c *fiber.Ctx) error {
	project, err := s.svc.GetProject(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(project)
}

func (s *Server) updateProject(c *fiber.Ctx) error {
	var patch service.ProjectPatch
	if err := parseBody(c, &patch); err != nil {
		return err
	}
	project, err := s.svc.UpdateProject(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(project)
}

func (s *Server) deleteProject(c *fiber.Ctx) error {
	if err := s.svc.DeleteProject(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) listMembers(c *fiber.Ctx) error {
	members, err := s.svc.ListMembers(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(members)
}

func (s *Server) inviteMember(c *fiber.Ctx) error {
	var in service.InviteInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	m, err := s.svc.InviteMember(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(m)
}

type roleBody struct {
	Role string `json:"role"`
}

func (s *Server) updateMemberRole(c *fiber.Ctx) error {
	var in roleBody
	if err := parseBody(c, &in); err != nil {
		return err
	}
	m, err := s.svc.UpdateMemberRole(c.UserContext(), c.Params("id"), c.Params("member"), in.Role)
	if err != nil {
		return err
	}
	return c.JSON(m)
}

func (s *Server) removeMember(c *fiber.Ctx) error {
	if err := s.svc.RemoveMember(c.UserContext(), c.Params("id"), c.Params("member")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) listMessages(c *fiber.Ctx) error {
	msgs, err := s.svc.ListMessages(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(msgs)
}

func (s *Server) postMessage(c *fiber.Ctx) error {
	var in service.MessageInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	msg, err := s.svc.PostMessage(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

func (s *Server) updateMessage(c *fiber.Ctx) error {
	var in service.MessageInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	msg, err := s.svc.UpdateMessage(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(msg)
}

func (s *Server) deleteMessage(c *fiber.Ctx) error {
	if err := s.svc.DeleteMessage(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
