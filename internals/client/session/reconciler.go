package session

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"wasitku_backend/internals/client/gateway"
)

var (
	ErrUsernameTaken = errors.New("username is already taken")
	ErrNotSignedIn   = errors.New("not signed in")
)

// Gateway is the part of gateway.Client the reconciler drives.
type Gateway interface {
	Subscribe() (<-chan gateway.AuthEvent, func())
	GetSession(ctx context.Context) (*gateway.Session, error)
	SignIn(ctx context.Context, email, password string) (*gateway.Session, error)
	SignUp(ctx context.Context, email, password string) (*gateway.Session, error)
	SignInWithGoogle(ctx context.Context, idToken string) (*gateway.Session, error)
	RequestPasswordReset(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, password, confirm string) error
	SignOut(ctx context.Context) error
	GetProfile(ctx context.Context) (*gateway.Profile, error)
	RecordLastLogin(ctx context.Context) error
	SetUsername(ctx context.Context, username string) (*gateway.Profile, error)
	UpdateProfile(ctx context.Context, in gateway.ProfileUpdate) (*gateway.Profile, error)
	UsernameAvailable(ctx context.Context, username string) (bool, error)
}

var _ Gateway = (*gateway.Client)(nil)

type Options struct {
	// SignOutGrace is how long a user-initiated sign-out keeps later
	// signed_out events from being read as an expiry.
	SignOutGrace time.Duration
}

func (o Options) withDefaults() Options {
	if o.SignOutGrace <= 0 {
		o.SignOutGrace = time.Second
	}
	return o
}

// Reconciler folds the initial session check, auth events and profile
// fetches into one Snapshot that callers can read or watch.
type Reconciler struct {
	gw   Gateway
	opts Options

	mu          sync.Mutex
	state       Snapshot
	userSignOut bool
	signOutGen  uint64
	profileSeq  uint64
	closed      bool
	watchers    map[int]chan Snapshot
	nextWatch   int

	ctx       context.Context
	cancel    context.CancelFunc
	release   func()
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func New(gw Gateway, opts Options) *Reconciler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Reconciler{
		gw:       gw,
		opts:     opts.withDefaults(),
		state:    Snapshot{AuthStatus: CheckingSession},
		watchers: map[int]chan Snapshot{},
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start subscribes before checking the stored session so no event between
// the two is lost. A failed check settles as unauthenticated.
func (r *Reconciler) Start(ctx context.Context) error {
	events, release := r.gw.Subscribe()
	r.mu.Lock()
	r.release = release
	r.mu.Unlock()

	r.wg.Add(1)
	go r.loop(events)

	s, err := r.gw.GetSession(ctx)
	if err != nil {
		log.Printf("[session] initial session check failed: %v", err)
	}
	if s != nil {
		r.applySession(s)
		return nil
	}
	r.mu.Lock()
	// an event may already have signed the user in
	if r.state.AuthStatus == CheckingSession {
		r.state = Snapshot{AuthStatus: Unauthenticated}
		r.publishLocked()
	}
	r.mu.Unlock()
	return err
}

func (r *Reconciler) loop(events <-chan gateway.AuthEvent) {
	defer r.wg.Done()
	for {
		select {
		case <-r.ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			r.handle(ev)
		}
	}
}

func (r *Reconciler) handle(ev gateway.AuthEvent) {
	switch ev.Kind {
	case gateway.EventSignedOut:
		r.mu.Lock()
		expired := r.state.User != nil && !r.userSignOut
		// an undismissed notice outlives repeated sign-outs
		r.clearLocked(expired || r.state.SessionExpired)
		r.mu.Unlock()
	case gateway.EventSignedIn, gateway.EventPasswordRecovery, gateway.EventTokenRefreshed:
		if ev.Session != nil {
			r.applySession(ev.Session)
		}
	case gateway.EventUserUpdated:
		if ev.Session != nil && r.applySession(ev.Session) {
			return
		}
		r.spawnProfileLoad(false)
	}
}

// applySession installs s and reports whether it brought a new user. A new
// user starts a profile load and a last-login record; the same user only
// gets fresher tokens.
func (r *Reconciler) applySession(s *gateway.Session) bool {
	cp := *s
	user := cp.User
	r.mu.Lock()
	sameUser := r.state.User != nil && r.state.User.ID == user.ID
	r.state.AuthStatus = Authenticated
	r.state.Session = &cp
	r.state.User = &user
	r.state.SessionExpired = false
	if !sameUser {
		r.state.Profile = nil
		r.state.ProfileStatus = ProfileLoading
	}
	r.publishLocked()
	r.mu.Unlock()

	if !sameUser {
		r.spawnProfileLoad(true)
	}
	return !sameUser
}

func (r *Reconciler) clearLocked(expired bool) {
	r.profileSeq++
	r.state = Snapshot{AuthStatus: Unauthenticated, SessionExpired: expired}
	r.publishLocked()
}

/* ==========================
   Profile
========================== */

func (r *Reconciler) spawnProfileLoad(recordLogin bool) {
	r.mu.Lock()
	if r.closed || r.state.AuthStatus != Authenticated {
		r.mu.Unlock()
		return
	}
	r.profileSeq++
	seq := r.profileSeq
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		r.loadProfile(r.ctx, seq)
		if recordLogin {
			if err := r.gw.RecordLastLogin(r.ctx); err != nil && r.ctx.Err() == nil {
				log.Printf("[session] record last login: %v", err)
			}
		}
	}()
}

func (r *Reconciler) loadProfile(ctx context.Context, seq uint64) {
	p, err := r.gw.GetProfile(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Printf("[session] profile fetch failed: %v", err)
		p = nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if seq != r.profileSeq || r.state.AuthStatus != Authenticated {
		return
	}
	r.setProfileLocked(p)
}

func (r *Reconciler) setProfileLocked(p *gateway.Profile) {
	r.state.Profile = p
	r.state.ProfileStatus = profileStatusOf(p)
	r.publishLocked()
}

// RefreshProfile refetches the profile now. A failed fetch leaves the
// profile incomplete and is returned.
func (r *Reconciler) RefreshProfile(ctx context.Context) error {
	r.mu.Lock()
	if r.state.AuthStatus != Authenticated {
		r.mu.Unlock()
		return ErrNotSignedIn
	}
	r.profileSeq++
	seq := r.profileSeq
	r.mu.Unlock()

	p, err := r.gw.GetProfile(ctx)
	r.mu.Lock()
	defer r.mu.Unlock()
	if seq != r.profileSeq || r.state.AuthStatus != Authenticated {
		return err
	}
	if err != nil {
		p = nil
	}
	r.setProfileLocked(p)
	return err
}

/* ==========================
   Observation
========================== */

func (r *Reconciler) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.clone()
}

// Watch delivers the latest snapshot whenever it changes. Slow readers
// skip intermediate states. The channel is closed by the returned func
// or by Close.
func (r *Reconciler) Watch() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := r.nextWatch
	r.nextWatch++
	r.watchers[id] = ch
	ch <- r.state.clone()
	r.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if w, ok := r.watchers[id]; ok {
				delete(r.watchers, id)
				close(w)
			}
		})
	}
}

func (r *Reconciler) publishLocked() {
	snap := r.state.clone()
	for _, ch := range r.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

func (r *Reconciler) DismissSessionExpired() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state.SessionExpired {
		r.state.SessionExpired = false
		r.publishLocked()
	}
}

func (r *Reconciler) Close() {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		release := r.release
		r.mu.Unlock()

		r.cancel()
		if release != nil {
			release()
		}
		r.wg.Wait()

		r.mu.Lock()
		for id, ch := range r.watchers {
			delete(r.watchers, id)
			close(ch)
		}
		r.mu.Unlock()
	})
}

/* ==========================
   Actions
========================== */

func (r *Reconciler) SignIn(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if err := check(signInForm{Email: email, Password: password}); err != nil {
		return err
	}
	s, err := r.gw.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	r.applySession(s)
	return nil
}

// SignUp reports whether the new account still waits for email confirmation.
func (r *Reconciler) SignUp(ctx context.Context, email, password, confirm string) (bool, error) {
	email = strings.TrimSpace(email)
	if err := check(signUpForm{Email: email, Password: password, ConfirmPassword: confirm}); err != nil {
		return false, err
	}
	s, err := r.gw.SignUp(ctx, email, password)
	if err != nil {
		return false, err
	}
	if s == nil {
		return true, nil
	}
	r.applySession(s)
	return false, nil
}

func (r *Reconciler) SignInWithGoogle(ctx context.Context, idToken string) error {
	if strings.TrimSpace(idToken) == "" {
		return &ValidationError{Fields: map[string]string{"id_token": "Google sign-in did not return a credential"}}
	}
	s, err := r.gw.SignInWithGoogle(ctx, idToken)
	if err != nil {
		return err
	}
	r.applySession(s)
	return nil
}

func (r *Reconciler) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if err := check(emailForm{Email: email}); err != nil {
		return err
	}
	return r.gw.RequestPasswordReset(ctx, email)
}

func (r *Reconciler) UpdatePassword(ctx context.Context, password, confirm string) error {
	if err := check(passwordForm{Password: password, ConfirmPassword: confirm}); err != nil {
		return err
	}
	return r.gw.UpdatePassword(ctx, password, confirm)
}

// SignOut clears local state before the remote call and is never reported
// as an expiry, even if the push channel echoes signed_out late.
func (r *Reconciler) SignOut(ctx context.Context) error {
	r.mu.Lock()
	r.userSignOut = true
	r.signOutGen++
	gen := r.signOutGen
	r.clearLocked(false)
	r.mu.Unlock()

	err := r.gw.SignOut(ctx)

	time.AfterFunc(r.opts.SignOutGrace, func() {
		r.mu.Lock()
		if r.signOutGen == gen {
			r.userSignOut = false
		}
		r.mu.Unlock()
	})
	return err
}

func normalizeUsername(u string) string {
	return strings.ToLower(strings.TrimSpace(u))
}

func (r *Reconciler) SetUsername(ctx context.Context, username string) error {
	username = normalizeUsername(username)
	if err := check(usernameForm{Username: username}); err != nil {
		return err
	}
	p, err := r.gw.SetUsername(ctx, username)
	if err != nil {
		if gateway.IsConflict(err) {
			return ErrUsernameTaken
		}
		return err
	}
	r.installProfile(p)
	return nil
}

func (r *Reconciler) UpdateProfile(ctx context.Context, in gateway.ProfileUpdate) error {
	if in.Username != nil {
		u := normalizeUsername(*in.Username)
		if err := check(usernameForm{Username: u}); err != nil {
			return err
		}
		in.Username = &u
	}
	if in.Name != nil {
		n := strings.TrimSpace(*in.Name)
		if n == "" {
			return &ValidationError{Fields: map[string]string{"name": "Name is required"}}
		}
		in.Name = &n
	}
	p, err := r.gw.UpdateProfile(ctx, in)
	if err != nil {
		if gateway.IsConflict(err) {
			return ErrUsernameTaken
		}
		return err
	}
	r.installProfile(p)
	return nil
}

// CheckUsernameAvailable matches case-insensitively.
func (r *Reconciler) CheckUsernameAvailable(ctx context.Context, username string) (bool, error) {
	username = normalizeUsername(username)
	if err := check(usernameForm{Username: username}); err != nil {
		return false, err
	}
	return r.gw.UsernameAvailable(ctx, username)
}

func (r *Reconciler) installProfile(p *gateway.Profile) {
	r.mu.Lock()
	if r.state.AuthStatus != Authenticated {
		r.mu.Unlock()
		return
	}
	// supersede any fetch still in flight
	r.profileSeq++
	r.setProfileLocked(p)
	r.mu.Unlock()

	// the server may have cleared reminders; take its view of the profile
	if IsProfileComplete(p) {
		r.spawnProfileLoad(false)
	}
}
