package service

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/nhle/tracker/internal/authz"
	"github.com/nhle/tracker/internal/identity"
	"github.com/nhle/tracker/internal/model"
	"github.com/nhle/tracker/internal/store"
)

// MessageInput is the body of a posted or edited message. TodoIDs may only
// name todos linked to the message's project.
type MessageInput struct {
	Body    string   `json:"body"`
	TodoIDs []string `json:"todo_ids"`
}

// MessageView is a message as seen by one caller.
type MessageView struct {
	model.ProjectMessage
	Actions authz.ActionSet `json:"actions"`
}

func messageView(p identity.Principal, snap authz.MessageSnapshot) MessageView {
	return MessageView{ProjectMessage: snap.Message, Actions: authz.MessageActions(p, snap)}
}

func validateMessage(in MessageInput) error {
	if prob := checkLength("body", in.Body, 1, MaxMessageBody); prob != "" {
		return invalid(prob)
	}
	return nil
}

// checkReferences requires every referenced todo to be linked to projectID.
func checkReferences(ctx context.Context, q store.Queries, projectID string, todoIDs []string) error {
	for _, id := range todoIDs {
		todo, err := q.GetTodoByID(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return invalid("referenced todo " + id + " is not linked to this project")
		}
		if err != nil {
			return err
		}
		if !slices.Contains(todo.ProjectIDs, projectID) {
			return invalid("referenced todo " + id + " is not linked to this project")
		}
	}
	return nil
}

// PostMessage adds a message to a project the caller can view.
func (s *Service) PostMessage(ctx context.Context, projectID string, in MessageInput) (MessageView, error) {
	p, err := caller(ctx)
	if err != nil {
		return MessageView{}, err
	}
	if err := validateMessage(in); err != nil {
		return MessageView{}, err
	}

	msg := model.ProjectMessage{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		AuthorID:  p.UserID(),
		Body:      strings.TrimSpace(in.Body),
		TodoIDs:   uniqueIDs(in.TodoIDs),
	}

	var view MessageView
	err = s.inTx(ctx, "post message", func(q store.Queries) error {
		project, err := loadProject(ctx, q, projectID)
		if err != nil {
			return err
		}
		if !authz.CanPostMessage(p, project) {
			return ErrNotFound
		}
		if err := checkReferences(ctx, q, projectID, msg.TodoIDs); err != nil {
			return err
		}
		if err := q.CreateMessage(ctx, msg); err != nil {
			return storeErr(err, "creating message")
		}
		snap, err := loadMessage(ctx, q, msg.ID)
		if err != nil {
			return err
		}
		view = messageView(p, snap)
		return nil
	})
	if err != nil {
		return MessageView{}, err
	}
	return view, nil
}

// ListMessages returns a project's messages, newest first.
func (s *Service) ListMessages(ctx context.Context, projectID string) ([]MessageView, error) {
	p, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	project, err := loadProject(ctx, s.store, projectID)
	if err != nil {
		return nil, s.fail("list messages", err)
	}
	if !authz.CanViewProject(p, project) {
		return nil, ErrNotFound
	}

	msgs, err := s.store.GetMessages(ctx, projectID)
	if err != nil {
		return nil, s.fail("list messages", err)
	}
	views := make([]MessageView, 0, len(msgs))
	for _, msg := range msgs {
		snap := authz.MessageSnapshot{Message: msg, Project: project}
		if !authz.CanViewMessage(p, snap) {
			continue
		}
		views = append(views, messageView(p, snap))
	}
	return views, nil
}

// UpdateMessage replaces a message's body and todo references. Authors may
// edit their own messages; project editors may edit any.
func (s *Service) UpdateMessage(ctx context.Context, id string, in MessageInput) (MessageView, error) {
	p, err := caller(ctx)
	if err != nil {
		return MessageView{}, err
	}
	if err := validateMessage(in); err != nil {
		return MessageView{}, err
	}

	var view MessageView
	err = s.inTx(ctx, "update message", func(q store.Queries) error {
		snap, err := loadMessage(ctx, q, id)
		if err != nil {
			return err
		}
		if !authz.CanViewMessage(p, snap) {
			return ErrNotFound
		}
		if !authz.CanEditMessage(p, snap) {
			return ErrAccessDenied
		}

		msg := snap.Message
		msg.Body = strings.TrimSpace(in.Body)
		msg.TodoIDs = uniqueIDs(in.TodoIDs)
		if err := checkReferences(ctx, q, msg.ProjectID, msg.TodoIDs); err != nil {
			return err
		}
		if err := q.UpdateMessage(ctx, msg); err != nil {
			return storeErr(err, "updating message")
		}
		fresh, err := loadMessage(ctx, q, id)
		if err != nil {
			return err
		}
		view = messageView(p, fresh)
		return nil
	})
	if err != nil {
		return MessageView{}, err
	}
	return view, nil
}

// DeleteMessage removes a message.
func (s *Service) DeleteMessage(ctx context.Context, id string) error {
	p, err := caller(ctx)
	if err != nil {
		return err
	}
	return s.inTx(ctx, "delete message", func(q store.Queries) error {
		snap, err := loadMessage(ctx, q, id)
		if err != nil {
			return err
		}
		if !authz.CanViewMessage(p, snap) {
			return ErrNotFound
		}
		if !authz.CanDeleteMessage(p, snap) {
			return ErrAccessDenied
		}
		return storeErr(q.DeleteMessage(ctx, id), "deleting message")
	})
}
