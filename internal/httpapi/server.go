// Package httpapi exposes the tracker service over HTTP with fiber.
//
// Every request is resolved to a principal once, by middleware, from the
// session cookie or a Bearer token. Handlers pass the request context to the
// service and never decide access themselves.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/nhle/tracker/internal/identity"
	"github.com/nhle/tracker/internal/service"
	"github.com/nhle/tracker/internal/session"
)

// CookieName is the session cookie.
const CookieName = "tracker_session"

// Options configures a Server.
type Options struct {
	// SecureCookies marks the session cookie Secure.
	SecureCookies bool

	Logger *slog.Logger
}

// Server routes HTTP requests to the service.
type Server struct {
	app      *fiber.App
	svc      *service.Service
	resolver *identity.Resolver
	logger   *slog.Logger
	secure   bool
}

// New builds a Server with every route registered under /api.
func New(svc *service.Service, resolver *identity.Resolver, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		svc:      svc,
		resolver: resolver,
		logger:   logger,
		secure:   opts.SecureCookies,
	}
	s.app = fiber.New(fiber.Config{
		AppName:               "tracker",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})
	s.app.Use(recover.New())
	s.routes()
	return s
}

// App returns the underlying fiber app, for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.logger.Info("listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) routes() {
	api := s.app.Group("/api", s.identify)

	api.Post("/auth/setup", s.setup)
	api.Post("/auth/register", s.register)
	api.Post("/auth/login", s.login)
	api.Post("/auth/logout", s.logout)
	api.Get("/auth/me", s.me)
	api.Patch("/auth/me", s.updateProfile)
	api.Delete("/users/:id", s.deleteUser)

	api.Get("/projects", s.listProjects)
	api.Post("/projects", s.createProject)
	api.Get("/projects/:id", s.getProject)
	api.Patch("/projects/:id", s.updateProject)
	api.Delete("/projects/:id", s.deleteProject)

	api.Get("/projects/:id/members", s.listMembers)
	api.Post("/projects/:id/members", s.inviteMember)
	api.Patch("/projects/:id/members/:member", s.updateMemberRole)
	api.Delete("/projects/:id/members/:member", s.removeMember)

	api.Get("/projects/:id/messages", s.listMessages)
	api.Post("/projects/:id/messages", s.postMessage)
	api.Patch("/messages/:id", s.updateMessage)
	api.Delete("/messages/:id", s.deleteMessage)

	api.Get("/todos", s.listTodos)
	api.Post("/todos", s.createTodo)
	api.Get("/todos/:id", s.getTodo)
	api.Patch("/todos/:id", s.updateTodo)
	api.Delete("/todos/:id", s.deleteTodo)

	api.Get("/todos/:id/timelogs", s.listTimeLogs)
	api.Post("/todos/:id/timelogs", s.logTime)
}

// sessionTokens returns the tokens carried by the request, an
// Authorization header before the cookie.
func sessionTokens(c *fiber.Ctx) []string {
	var tokens []string
	scheme, token, ok := strings.Cut(c.Get(fiber.HeaderAuthorization), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		if token = strings.TrimSpace(token); token != "" {
			tokens = append(tokens, token)
		}
	}
	if token := c.Cookies(CookieName); token != "" {
		tokens = append(tokens, token)
	}
	return tokens
}

// identify resolves the caller and stores it on the request context. The
// first token that resolves wins; with none the caller is anonymous.
func (s *Server) identify(c *fiber.Ctx) error {
	p := identity.Anonymous
	for _, token := range sessionTokens(c) {
		resolved, err := s.resolver.Resolve(c.UserContext(), token)
		if err != nil {
			return err
		}
		if !resolved.IsAnonymous() {
			p = resolved
			break
		}
	}
	c.SetUserContext(identity.WithPrincipal(c.UserContext(), p))
	return c.Next()
}

func (s *Server) setSessionCookie(c *fiber.Ctx, issued session.Issued) {
	cookie := &fiber.Cookie{
		Name:     CookieName,
		Value:    issued.Token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
	if issued.Persistent {
		cookie.Expires = issued.ExpiresAt
	} else {
		cookie.SessionOnly = true
	}
	c.Cookie(cookie)
}

func (s *Server) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// errorBody is the shape of every error response.
type errorBody struct {
	Error    string   `json:"error"`
	Problems []string `json:"problems,omitempty"`
}

// handleError maps service outcomes onto status codes. Internal failures
// are logged and reported without detail.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	var verr *service.ValidationError
	var ferr *fiber.Error
	code := fiber.StatusInternalServerError
	body := errorBody{Error: "internal error"}

	switch {
	case errors.As(err, &verr):
		code = fiber.StatusUnprocessableEntity
		body = errorBody{Error: "validation failed", Problems: verr.Problems}
	case errors.Is(err, service.ErrNotAuthenticated):
		code = fiber.StatusUnauthorized
		body.Error = "not authenticated"
	case errors.Is(err, service.ErrInvalidCredentials):
		code = fiber.StatusUnauthorized
		body.Error = service.ErrInvalidCredentials.Error()
	case errors.Is(err, service.ErrAccessDenied):
		code = fiber.StatusForbidden
		body.Error = "access denied"
	case errors.Is(err, service.ErrNotFound):
		code = fiber.StatusNotFound
		body.Error = "not found"
	case errors.Is(err, service.ErrConflict):
		code = fiber.StatusConflict
		body.Error = "conflict"
	case errors.As(err, &ferr):
		code = ferr.Code
		body.Error = ferr.Message
	default:
		s.logger.Error("request failed", "method", c.Method(), "path", c.Path(), "err", err)
	}
	return c.Status(code).JSON(body)
}

// parseBody decodes the JSON request body into v.
func parseBody(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed request body")
	}
	return nil
}
