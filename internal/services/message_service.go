package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"mystrymsg/internal/metrics"
	"mystrymsg/internal/models"
	"mystrymsg/internal/repositories"
	"mystrymsg/internal/validation"
)

type MessageService interface {
	// SendMessage is anonymous: the sender is never recorded.
	SendMessage(ctx context.Context, username, content string) (*models.Message, error)
	ListMessages(ctx context.Context, p *models.Principal) ([]*models.Message, error)
	DeleteMessage(ctx context.Context, p *models.Principal, messageID string) error
}

type messageService struct {
	accounts repositories.AccountRepository
	messages repositories.MessageRepository
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

func NewMessageService(
	accounts repositories.AccountRepository,
	messages repositories.MessageRepository,
	m *metrics.Metrics,
	logger *slog.Logger,
) MessageService {
	return &messageService{
		accounts: accounts,
		messages: messages,
		metrics:  m,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *messageService) SendMessage(ctx context.Context, username, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if err := validation.ValidateContent(content); err != nil {
		s.metrics.Message("send", "invalid")
		return nil, invalid(err)
	}

	account, err := s.accounts.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repositories.ErrNotFound) || (err == nil && !account.IsVerified) {
		s.metrics.Message("send", "not_found")
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !account.IsAcceptingMessages {
		s.metrics.Message("send", "disabled")
		return nil, ErrMessagingDisabled
	}

	msg := &models.Message{
		ID:        uuid.NewString(),
		AccountID: account.ID,
		Content:   content,
		CreatedAt: s.now(),
	}
	if err := s.messages.Append(ctx, msg); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// account removed between lookup and insert
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.metrics.Message("send", "ok")
	s.logger.DebugContext(ctx, "message stored", "username", account.Username, "message_id", msg.ID)
	return msg, nil
}

func (s *messageService) ListMessages(ctx context.Context, p *models.Principal) ([]*models.Message, error) {
	if p == nil || p.ID == "" {
		return nil, ErrUnauthenticated
	}
	return s.messages.ListByAccount(ctx, p.ID)
}

func (s *messageService) DeleteMessage(ctx context.Context, p *models.Principal, messageID string) error {
	if p == nil || p.ID == "" {
		return ErrUnauthenticated
	}
	if _, err := uuid.Parse(messageID); err != nil {
		s.metrics.Message("delete", "not_found")
		return ErrNotFound
	}

	err := s.messages.DeleteOwned(ctx, p.ID, messageID)
	if errors.Is(err, repositories.ErrNotFound) {
		s.metrics.Message("delete", "not_found")
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	s.metrics.Message("delete", "ok")
	return nil
}
