package service_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"wasitku_backend/internals/features/realtime/authevents"
	"wasitku_backend/internals/features/users/profiles/model"
	"wasitku_backend/internals/features/users/profiles/service"
)

type memProfiles struct {
	rows map[uuid.UUID]*model.ProfileModel
}

func (m *memProfiles) FindByID(ctx context.Context, id uuid.UUID) (*model.ProfileModel, error) {
	p, ok := m.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProfiles) UsernameTaken(ctx context.Context, username string, exceptID uuid.UUID) (bool, error) {
	for id, p := range m.rows {
		if id != exceptID && strings.EqualFold(p.Username, username) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memProfiles) Update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	p, ok := m.rows[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if u, ok := fields["username"].(string); ok {
		if taken, _ := m.UsernameTaken(ctx, u, id); taken {
			return &pgconn.PgError{Code: "23505", ConstraintName: "uq_profiles_username_ci"}
		}
		p.Username = u
	}
	if v, ok := fields["username_customized"].(bool); ok {
		p.UsernameCustomized = v
	}
	if v, ok := fields["name"]; ok {
		p.Name = v.(*string)
	}
	if v, ok := fields["photo_url"]; ok {
		p.PhotoURL = v.(*string)
	}
	return nil
}

func (m *memProfiles) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	if p, ok := m.rows[id]; ok {
		p.LastLoginAt = &at
	}
	return nil
}

type recordingReminders struct{ removed []uuid.UUID }

func (r *recordingReminders) DeleteProfileReminder(ctx context.Context, userID uuid.UUID) error {
	r.removed = append(r.removed, userID)
	return nil
}

type recordingPublisher struct {
	mu    sync.Mutex
	kinds []string
}

func (p *recordingPublisher) Publish(userID uuid.UUID, kind string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.kinds = append(p.kinds, kind)
}

func strPtr(s string) *string { return &s }

func setup() (*service.ProfileService, *memProfiles, *recordingReminders, *recordingPublisher, uuid.UUID, uuid.UUID) {
	me, other := uuid.New(), uuid.New()
	repo := &memProfiles{rows: map[uuid.UUID]*model.ProfileModel{
		me:    {ID: me, Username: "jose_silva", Role: "user"},
		other: {ID: other, Username: "Referee_01", UsernameCustomized: true, Name: strPtr("Ana"), Role: "user"},
	}}
	rem := &recordingReminders{}
	pub := &recordingPublisher{}
	return service.NewProfileService(repo, rem, pub), repo, rem, pub, me, other
}

func TestCompletingProfileRemovesReminderOnce(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	svc, _, rem, pub, me, _ := setup()

	p, err := svc.SetUsername(ctx, me, "  Whistle_Jose ")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(p.Username).To(Equal("whistle_jose"))
	g.Expect(p.IsComplete()).To(BeFalse())
	g.Expect(rem.removed).To(BeEmpty())

	p, err = svc.Update(ctx, me, service.UpdateInput{Name: strPtr("José Silva")})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(p.IsComplete()).To(BeTrue())
	g.Expect(rem.removed).To(ConsistOf(me))

	_, err = svc.Update(ctx, me, service.UpdateInput{PhotoURL: strPtr("https://cdn.example.com/a.png")})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(rem.removed).To(HaveLen(1))

	g.Expect(pub.kinds).To(HaveLen(3))
	g.Expect(pub.kinds).To(HaveEach(authevents.UserUpdated))
}

func TestUsernameConflictsAreCaseInsensitive(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	svc, _, _, _, me, other := setup()

	ok, err := svc.UsernameAvailable(ctx, me, "REFEREE_01")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(ok).To(BeFalse())

	ok, err = svc.UsernameAvailable(ctx, other, "referee_01")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(ok).To(BeTrue())

	_, err = svc.SetUsername(ctx, me, "referee_01")
	g.Expect(err).To(MatchError(service.ErrUsernameTaken))
}

func TestInvalidUsernameAndEmptyUpdate(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	svc, _, _, _, me, _ := setup()

	for _, bad := range []string{"ab", "has space", "dash-name", strings.Repeat("x", 31)} {
		_, err := svc.SetUsername(ctx, me, bad)
		g.Expect(err).To(MatchError(service.ErrInvalidUsername), bad)
	}
	_, err := svc.UsernameAvailable(ctx, me, "a!")
	g.Expect(err).To(MatchError(service.ErrInvalidUsername))

	_, err = svc.Update(ctx, me, service.UpdateInput{})
	g.Expect(err).To(MatchError(service.ErrNothingToUpdate))

	_, err = svc.Get(ctx, uuid.New())
	g.Expect(err).To(MatchError(service.ErrProfileNotFound))
}

func TestBlankNameClearsIt(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	svc, _, _, _, _, other := setup()

	p, err := svc.Update(ctx, other, service.UpdateInput{Name: strPtr("   ")})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(p.Name).To(BeNil())
	g.Expect(p.IsComplete()).To(BeFalse())
}

func TestRecordLastLogin(t *testing.T) {
	g := NewWithT(t)
	svc, repo, _, _, me, _ := setup()
	at := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return at }

	g.Expect(svc.RecordLastLogin(context.Background(), me)).To(Succeed())
	g.Expect(repo.rows[me].LastLoginAt).To(HaveValue(BeTemporally("==", at)))
}
