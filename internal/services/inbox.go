package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/repository"
)

// InboxService stores newsletter sign-ups and contact and support messages.
type InboxService struct {
	inbox InboxStore
	log   *zap.Logger
}

func NewInboxService(inbox InboxStore, log *zap.Logger) *InboxService {
	return &InboxService{inbox: inbox, log: log}
}

func (s *InboxService) Subscribe(ctx context.Context, email string) (*models.Subscription, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	sub := &models.Subscription{Email: email}
	if err := s.inbox.Subscribe(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadySubscribed
		}
		return nil, ErrStore.Wrap(err)
	}
	return sub, nil
}

func (s *InboxService) Contact(ctx context.Context, msg *models.ContactMessage) error {
	if strings.TrimSpace(msg.Email) == "" || strings.TrimSpace(msg.Message) == "" {
		return ErrInvalidInput.WithMessage("email and message are required")
	}
	if err := s.inbox.CreateContact(ctx, msg); err != nil {
		return ErrStore.Wrap(err)
	}
	s.log.Info("contact message received", zap.String("id", msg.ID.String()))
	return nil
}

func (s *InboxService) Support(ctx context.Context, ticket *models.SupportTicket) error {
	if strings.TrimSpace(ticket.Email) == "" || strings.TrimSpace(ticket.Subject) == "" || strings.TrimSpace(ticket.Message) == "" {
		return ErrInvalidInput.WithMessage("email, subject and message are required")
	}
	if err := s.inbox.CreateSupport(ctx, ticket); err != nil {
		return ErrStore.Wrap(err)
	}
	s.log.Info("support ticket opened", zap.String("id", ticket.ID.String()))
	return nil
}
