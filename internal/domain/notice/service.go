package notice

import (
	"context"
	"time"

	"stoka/internal/core/apperror"
	"stoka/internal/core/id"
	"stoka/internal/core/tx"
	"stoka/pkg/logger"
)

// Service provides notice lifecycle operations.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a notice service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// Create stores a draft notice.
func (s *Service) Create(ctx context.Context, n *NoticeEvent) error {
	if err := n.Validate(); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, n)
	})
}

// Publish opens a draft notice, optionally with an expiry.
func (s *Service) Publish(ctx context.Context, tenantID, noticeID id.ID, expiresAt *time.Time) error {
	n, err := s.get(ctx, tenantID, noticeID)
	if err != nil {
		return err
	}
	if err := n.Publish(time.Now(), expiresAt); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, n)
	})
}

// Expire closes a published notice ahead of (or at) its window end.
func (s *Service) Expire(ctx context.Context, tenantID, noticeID id.ID) error {
	n, err := s.get(ctx, tenantID, noticeID)
	if err != nil {
		return err
	}
	if err := n.Expire(time.Now()); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, n)
	})
}

// Dismiss hides a notice for one user.
func (s *Service) Dismiss(ctx context.Context, tenantID, noticeID, userID id.ID) error {
	n, err := s.get(ctx, tenantID, noticeID)
	if err != nil {
		return err
	}
	d := &Dismissal{
		NoticeID:    n.ID,
		UserID:      userID,
		DismissedAt: time.Now().UTC(),
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.SaveDismissal(ctx, d)
	})
}

// ListVisible returns the notices a user should currently see.
func (s *Service) ListVisible(ctx context.Context, tenantID, userID id.ID, audience Audience) ([]*NoticeEvent, error) {
	return s.repo.ListVisible(ctx, tenantID, userID, audience, time.Now().UTC())
}

// ExpireStale expires every published notice past its window. Returns
// the number expired; called by the maintenance worker.
func (s *Service) ExpireStale(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}
	now := time.Now().UTC()

	stale, err := s.repo.ListStale(ctx, now, limit)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, n := range stale {
		if err := n.Expire(now); err != nil {
			continue
		}
		err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			return s.repo.Update(ctx, n)
		})
		if err != nil {
			logger.Warn(ctx, "expire notice failed", "notice_id", n.ID.String(), "error", err)
			continue
		}
		expired++
	}

	if expired > 0 {
		logger.Info(ctx, "stale notices expired", "count", expired)
	}
	return expired, nil
}

func (s *Service) get(ctx context.Context, tenantID, noticeID id.ID) (*NoticeEvent, error) {
	n, err := s.repo.GetByID(ctx, tenantID, noticeID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("notice", noticeID.String())
		}
		return nil, err
	}
	return n, nil
}
