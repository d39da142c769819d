package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nhle/tracker/internal/service"
)

func (s *Server) listTodos(c *fiber.Ctx) error {
	todos, err := s.svc.ListTodos(c.UserContext(), service.TodoQuery{
		ProjectID: c.Query("project_id"),
		Status:    c.Query("status"),
		Priority:  c.Query("priority"),
		Search:    c.Query("q"),
		SortBy:    c.Query("sort"),
		SortDesc:  c.QueryBool("desc", false),
		Limit:     c.QueryInt("limit", 0),
		Offset:    c.QueryInt("offset", 0),
	})
	if err != nil {
		return err
	}
	return c.JSON(todos)
}

func (s *Server) createTodo(c *fiber.Ctx) error {
	var in service.TodoInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	todo, err := s.svc.CreateTodo(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(todo)
}

func (s *Server) getTodo(c *fiber.Ctx) error {
	todo, err := s.svc.GetTodo(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(todo)
}

func (s *Server) updateTodo(c *fiber.Ctx) error {
	var patch service.TodoPatch
	if err := parseBody(c, &patch); err != nil {
		return err
	}
	todo, err := s.svc.UpdateTodo(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(todo)
}

func (s *Server) deleteTodo(c *fiber.Ctx) error {
	if err := s.svc.DeleteTodo(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) listTimeLogs(c *fiber.Ctx) error {
	summary, err := s.svc.ListTimeLogs(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

func (s *Server) logTime(c *fiber.Ctx) error {
	var in service.TimeLogInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	entry, err := s.svc.LogTime(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}
