package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/duda4418/dishwise-backend/internal/logger"
	"github.com/duda4418/dishwise-backend/internal/repos"
	"github.com/duda4418/dishwise-backend/internal/types"
)

var ErrSessionNotFound = errors.New("session not found")

const (
	defaultSessionListLimit = 50
	maxSessionListLimit     = 100
	defaultHistoryLimit     = 100
	maxHistoryLimit         = 200
)

type SessionService interface {
	List(ctx context.Context, limit int) ([]*types.ConversationSession, error)
	History(ctx context.Context, sessionID uuid.UUID, limit int) (*types.ConversationSession, []*types.ConversationMessage, error)
	SetFeedback(ctx context.Context, sessionID uuid.UUID, rating *int, text *string) error
}

type sessionService struct {
	sessions repos.SessionRepo
	messages repos.MessageRepo
	log      *logger.Logger
}

func NewSessionService(sessions repos.SessionRepo, messages repos.MessageRepo, baseLog *logger.Logger) SessionService {
	return &sessionService{
		sessions: sessions,
		messages: messages,
		log:      baseLog.With("service", "SessionService"),
	}
}

func (s *sessionService) List(ctx context.Context, limit int) ([]*types.ConversationSession, error) {
	if limit <= 0 {
		limit = defaultSessionListLimit
	}
	if limit > maxSessionListLimit {
		limit = maxSessionListLimit
	}
	return s.sessions.List(ctx, nil, limit)
}

func (s *sessionService) History(ctx context.Context, sessionID uuid.UUID, limit int) (*types.ConversationSession, []*types.ConversationMessage, error) {
	session, err := s.sessions.GetByID(ctx, nil, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session == nil {
		return nil, nil, ErrSessionNotFound
	}

	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	messages, err := s.messages.ListBySession(ctx, nil, sessionID, maxHistoryLimit)
	if err != nil {
		return nil, nil, err
	}
	if len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return session, messages, nil
}

func (s *sessionService) SetFeedback(ctx context.Context, sessionID uuid.UUID, rating *int, text *string) error {
	session, err := s.sessions.GetByID(ctx, nil, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}
	return s.sessions.SetFeedback(ctx, nil, sessionID, rating, text)
}
