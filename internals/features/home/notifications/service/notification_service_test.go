package service_test

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/gomega"

	"wasitku_backend/internals/constants"
	"wasitku_backend/internals/features/home/notifications/model"
	"wasitku_backend/internals/features/home/notifications/service"
)

type memRepo struct {
	rows []*model.NotificationModel
	// incomplete profiles, consumed by CreateMissingProfileReminders
	incomplete []uuid.UUID
}

func (m *memRepo) Create(ctx context.Context, n *model.NotificationModel) error {
	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	cp := *n
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memRepo) ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]model.NotificationModel, int64, error) {
	var out []model.NotificationModel
	for _, r := range m.rows {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := int64(len(out))
	if offset >= len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (m *memRepo) ListActive(ctx context.Context, userID uuid.UUID, now time.Time) ([]model.NotificationModel, error) {
	var out []model.NotificationModel
	for _, r := range m.rows {
		if r.UserID == userID && r.VisibleAt(now) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memRepo) CountUnread(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	var n int64
	for _, r := range m.rows {
		if r.UserID == userID && r.VisibleAt(now) && !r.Read {
			n++
		}
	}
	return n, nil
}

func (m *memRepo) UpdateOwned(ctx context.Context, userID, id uuid.UUID, fields map[string]any) (int64, error) {
	for _, r := range m.rows {
		if r.ID != id || r.UserID != userID {
			continue
		}
		for k, v := range fields {
			switch k {
			case "read":
				r.Read = v.(bool)
			case "dismissed_permanently":
				r.DismissedPermanently = v.(bool)
			case "next_reminder_at":
				t := v.(time.Time)
				r.NextReminderAt = &t
			}
		}
		return 1, nil
	}
	return 0, nil
}

func (m *memRepo) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	for _, r := range m.rows {
		if r.UserID == userID && !r.Read {
			r.Read = true
			n++
		}
	}
	return n, nil
}

func (m *memRepo) DeleteByType(ctx context.Context, userID uuid.UUID, kind string) (int64, error) {
	var kept []*model.NotificationModel
	var n int64
	for _, r := range m.rows {
		if r.UserID == userID && r.Type == kind {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.rows = kept
	return n, nil
}

func (m *memRepo) ExistsOfType(ctx context.Context, userID uuid.UUID, kind string) (bool, error) {
	for _, r := range m.rows {
		if r.UserID == userID && r.Type == kind {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) ResurfaceDue(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for _, r := range m.rows {
		if !r.DismissedPermanently && r.NextReminderAt != nil && !r.NextReminderAt.After(now) {
			r.Read = false
			r.NextReminderAt = nil
			n++
		}
	}
	return n, nil
}

func (m *memRepo) CreateMissingProfileReminders(ctx context.Context, title, message string) (int64, error) {
	var n int64
	for _, uid := range m.incomplete {
		if ok, _ := m.ExistsOfType(ctx, uid, constants.NotificationProfileIncomplete); ok {
			continue
		}
		_ = m.Create(ctx, &model.NotificationModel{UserID: uid, Type: constants.NotificationProfileIncomplete, Title: title, Message: message})
		n++
	}
	return n, nil
}

func newSvc(repo *memRepo, now *time.Time) *service.NotificationService {
	svc := service.NewNotificationService(repo, time.FixedZone("WIB", 7*3600))
	svc.Now = func() time.Time { return *now }
	return svc
}

func TestNextReminderAt(t *testing.T) {
	g := NewWithT(t)
	loc := time.FixedZone("WIB", 7*3600)

	// 23:30 local on Mar 1 is still "today"; the reminder lands on Mar 2 09:00
	now := time.Date(2026, 3, 1, 16, 30, 0, 0, time.UTC)
	got := service.NextReminderAt(now, loc)
	g.Expect(got).To(BeTemporally("==", time.Date(2026, 3, 2, 9, 0, 0, 0, loc)))

	// month rollover
	now = time.Date(2026, 1, 31, 1, 0, 0, 0, loc)
	g.Expect(service.NextReminderAt(now, loc)).To(BeTemporally("==", time.Date(2026, 2, 1, 9, 0, 0, 0, loc)))
}

func TestRemindLaterHidesUntilDue(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	repo := &memRepo{}
	now := time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC)
	svc := newSvc(repo, &now)
	user := uuid.New()

	g.Expect(svc.EnsureProfileReminder(ctx, user)).To(Succeed())
	active, _ := svc.Active(ctx, user)
	g.Expect(active).To(HaveLen(1))
	id := active[0].ID

	at, err := svc.RemindLater(ctx, user, id)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(at.After(now)).To(BeTrue())

	active, _ = svc.Active(ctx, user)
	g.Expect(active).To(BeEmpty())
	count, _ := svc.UnreadCount(ctx, user)
	g.Expect(count).To(BeZero())

	now = at.Add(time.Minute)
	resurfaced, _, err := svc.Sweep(ctx)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(resurfaced).To(Equal(int64(1)))
	count, _ = svc.UnreadCount(ctx, user)
	g.Expect(count).To(Equal(int64(1)))
}

func TestDismissIsPermanent(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	user := uuid.New()
	repo := &memRepo{incomplete: []uuid.UUID{user}}
	now := time.Now()
	svc := newSvc(repo, &now)

	g.Expect(svc.EnsureProfileReminder(ctx, user)).To(Succeed())
	all, _, _ := svc.List(ctx, user, 0, 100)
	g.Expect(svc.Dismiss(ctx, user, all[0].ID)).To(Succeed())

	_, created, err := svc.Sweep(ctx)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(created).To(BeZero())

	active, _ := svc.Active(ctx, user)
	g.Expect(active).To(BeEmpty())
}

func TestOwnershipAndProfileReminderRemoval(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	repo := &memRepo{}
	now := time.Now()
	svc := newSvc(repo, &now)
	owner, stranger := uuid.New(), uuid.New()

	g.Expect(svc.EnsureProfileReminder(ctx, owner)).To(Succeed())
	g.Expect(svc.EnsureProfileReminder(ctx, owner)).To(Succeed())
	all, _, _ := svc.List(ctx, owner, 0, 100)
	g.Expect(all).To(HaveLen(1))

	g.Expect(svc.MarkRead(ctx, stranger, all[0].ID)).To(MatchError(service.ErrNotificationNotFound))

	g.Expect(svc.DeleteProfileReminder(ctx, owner)).To(Succeed())
	g.Expect(svc.DeleteProfileReminder(ctx, owner)).To(Succeed())
	all, _, _ = svc.List(ctx, owner, 0, 100)
	g.Expect(all).To(BeEmpty())
}

func TestNotifyStoresPayloadAndMarkAllRead(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	repo := &memRepo{}
	now := time.Now()
	svc := newSvc(repo, &now)
	user := uuid.New()

	g.Expect(svc.Notify(ctx, user, constants.NotificationTestResult, "Offside basics", "You scored 4/5 (80%).",
		map[string]any{"percent": 80})).To(Succeed())
	g.Expect(svc.Notify(ctx, user, constants.NotificationSystem, "Welcome", "", nil)).To(Succeed())

	all, _, _ := svc.List(ctx, user, 0, 100)
	g.Expect(all).To(HaveLen(2))
	var withData int
	for _, n := range all {
		if len(n.Data) > 0 {
			withData++
			g.Expect(string(n.Data)).To(ContainSubstring(`"percent":80`))
		}
	}
	g.Expect(withData).To(Equal(1))

	n, err := svc.MarkAllRead(ctx, user)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(n).To(Equal(int64(2)))
}
