package notice

import (
	"context"
	"testing"
	"time"

	"stoka/internal/core/apperror"
	"stoka/internal/core/id"
)

type nopTx struct{}

func (nopTx) RunInTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type memNoticeRepo struct {
	notices    map[id.ID]*NoticeEvent
	dismissals map[id.ID]map[id.ID]bool // notice -> user
}

func newMemNoticeRepo() *memNoticeRepo {
	return &memNoticeRepo{
		notices:    make(map[id.ID]*NoticeEvent),
		dismissals: make(map[id.ID]map[id.ID]bool),
	}
}

func (r *memNoticeRepo) Create(ctx context.Context, n *NoticeEvent) error {
	cp := *n
	r.notices[n.ID] = &cp
	return nil
}

func (r *memNoticeRepo) GetByID(ctx context.Context, tenantID, noticeID id.ID) (*NoticeEvent, error) {
	n, ok := r.notices[noticeID]
	if !ok || n.TenantID != tenantID {
		return nil, apperror.NewNotFound("notice", noticeID.String())
	}
	cp := *n
	return &cp, nil
}

func (r *memNoticeRepo) Update(ctx context.Context, n *NoticeEvent) error {
	if _, ok := r.notices[n.ID]; !ok {
		return apperror.NewNotFound("notice", n.ID.String())
	}
	cp := *n
	r.notices[n.ID] = &cp
	return nil
}

func (r *memNoticeRepo) ListVisible(ctx context.Context, tenantID, userID id.ID, audience Audience, now time.Time) ([]*NoticeEvent, error) {
	var out []*NoticeEvent
	for _, n := range r.notices {
		if n.TenantID != tenantID || !n.IsVisible(now) {
			continue
		}
		if n.Audience != AudienceAll && n.Audience != audience {
			continue
		}
		if r.dismissals[n.ID][userID] {
			continue
		}
		cp := *n
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memNoticeRepo) ListStale(ctx context.Context, now time.Time, limit int) ([]*NoticeEvent, error) {
	var out []*NoticeEvent
	for _, n := range r.notices {
		if len(out) >= limit {
			break
		}
		if n.IsStale(now) {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memNoticeRepo) SaveDismissal(ctx context.Context, d *Dismissal) error {
	users, ok := r.dismissals[d.NoticeID]
	if !ok {
		users = make(map[id.ID]bool)
		r.dismissals[d.NoticeID] = users
	}
	users[d.UserID] = true
	return nil
}

func TestNoticeLifecycle(t *testing.T) {
	now := time.Now().UTC()
	n := NewNotice(id.New(), SeverityInfo, "Scheduled maintenance", "Sunday 02:00 UTC", AudienceAll, id.New())

	if n.IsVisible(now) {
		t.Error("draft notice must not be visible")
	}

	expiry := now.Add(time.Hour)
	if err := n.Publish(now, &expiry); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if !n.IsVisible(now.Add(time.Minute)) {
		t.Error("published notice must be visible inside its window")
	}
	if n.IsVisible(now.Add(2 * time.Hour)) {
		t.Error("notice must not be visible past its expiry")
	}
	if !n.IsStale(now.Add(2 * time.Hour)) {
		t.Error("published notice past expiry must be stale")
	}

	if err := n.Publish(now, nil); err == nil {
		t.Error("publishing twice must fail")
	}

	if err := n.Expire(now.Add(time.Minute)); err != nil {
		t.Fatalf("Expire failed: %v", err)
	}
	if n.Status != StatusExpired {
		t.Errorf("status = %s, want expired", n.Status)
	}
	if err := n.Expire(now); err == nil {
		t.Error("expiring twice must fail")
	}
}

func TestNoticeValidate(t *testing.T) {
	actorID := id.New()

	n := NewNotice(id.New(), SeverityWarning, "", "body", AudienceAll, actorID)
	if err := n.Validate(); err == nil {
		t.Error("empty title must be rejected")
	}

	n = NewNotice(id.New(), "loud", "title", "body", AudienceAll, actorID)
	if err := n.Validate(); err == nil {
		t.Error("unknown severity must be rejected")
	}

	n = NewNotice(id.New(), SeverityInfo, "title", "body", AudienceAll, actorID)
	now := time.Now().UTC()
	before := now.Add(-time.Hour)
	n.PublishAt = &now
	n.ExpiresAt = &before
	if err := n.Validate(); err == nil {
		t.Error("expiry before publication must be rejected")
	}
}

func TestExpireStale(t *testing.T) {
	repo := newMemNoticeRepo()
	svc := NewService(repo, nopTx{})
	ctx := context.Background()
	tenantID := id.New()
	actorID := id.New()
	past := time.Now().UTC().Add(-time.Minute)
	future := time.Now().UTC().Add(time.Hour)

	stale := NewNotice(tenantID, SeverityInfo, "Old promo", "over", AudienceAll, actorID)
	if err := svc.Create(ctx, stale); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := svc.Publish(ctx, tenantID, stale.ID, &past); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	current := NewNotice(tenantID, SeverityInfo, "New promo", "running", AudienceAll, actorID)
	if err := svc.Create(ctx, current); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := svc.Publish(ctx, tenantID, current.ID, &future); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	expired, err := svc.ExpireStale(ctx, 0)
	if err != nil {
		t.Fatalf("ExpireStale failed: %v", err)
	}
	if expired != 1 {
		t.Errorf("expired = %d, want 1", expired)
	}

	if repo.notices[stale.ID].Status != StatusExpired {
		t.Error("stale notice must be expired")
	}
	if repo.notices[current.ID].Status != StatusPublished {
		t.Error("current notice must stay published")
	}

	// Second sweep finds nothing.
	expired, err = svc.ExpireStale(ctx, 0)
	if err != nil {
		t.Fatalf("ExpireStale failed: %v", err)
	}
	if expired != 0 {
		t.Errorf("expired = %d, want 0 on a clean sweep", expired)
	}
}

func TestDismiss_HidesNoticeForUser(t *testing.T) {
	repo := newMemNoticeRepo()
	svc := NewService(repo, nopTx{})
	ctx := context.Background()
	tenantID := id.New()
	userID := id.New()

	n := NewNotice(tenantID, SeverityInfo, "Welcome", "hello", AudienceAll, id.New())
	if err := svc.Create(ctx, n); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := svc.Publish(ctx, tenantID, n.ID, nil); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	visible, err := svc.ListVisible(ctx, tenantID, userID, AudienceStaff)
	if err != nil {
		t.Fatalf("ListVisible failed: %v", err)
	}
	if len(visible) != 1 {
		t.Fatalf("visible = %d, want 1", len(visible))
	}

	if err := svc.Dismiss(ctx, tenantID, n.ID, userID); err != nil {
		t.Fatalf("Dismiss failed: %v", err)
	}

	visible, _ = svc.ListVisible(ctx, tenantID, userID, AudienceStaff)
	if len(visible) != 0 {
		t.Errorf("visible = %d, want 0 after dismissal", len(visible))
	}

	// Other users still see it.
	visible, _ = svc.ListVisible(ctx, tenantID, id.New(), AudienceStaff)
	if len(visible) != 1 {
		t.Errorf("visible = %d for another user, want 1", len(visible))
	}
}
