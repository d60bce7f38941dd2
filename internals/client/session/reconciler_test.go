package session_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"wasitku_backend/internals/client/gateway"
	"wasitku_backend/internals/client/session"
)

var _ = Describe("Reconciler", func() {
	var (
		ctx context.Context
		gw  *fakeGateway
		rec *session.Reconciler
	)

	status := func() session.AuthStatus { return rec.Snapshot().AuthStatus }
	profileStatus := func() session.ProfileStatus { return rec.Snapshot().ProfileStatus }

	BeforeEach(func() {
		ctx = context.Background()
		gw = newFakeGateway()
		rec = session.New(gw, session.Options{SignOutGrace: 50 * time.Millisecond})
	})

	AfterEach(func() {
		rec.Close()
	})

	Describe("startup", func() {
		It("begins in checking_session", func() {
			Expect(rec.Snapshot().Loading()).To(BeTrue())
		})

		It("settles as unauthenticated without a stored session", func() {
			Expect(rec.Start(ctx)).To(Succeed())
			Expect(status()).To(Equal(session.Unauthenticated))
			Expect(rec.Snapshot().SessionExpired).To(BeFalse())
		})

		It("settles as unauthenticated when the check fails", func() {
			gw.sessionErr = errors.New("network down")
			Expect(rec.Start(ctx)).To(HaveOccurred())
			Expect(status()).To(Equal(session.Unauthenticated))
		})

		It("restores a stored session and loads a complete profile", func() {
			gw.stored = newSession("referee@wasitku.test")
			gw.setProfile(&gateway.Profile{Username: "ref_one", UsernameCustomized: true, Name: strp("Ref One")}, nil)

			Expect(rec.Start(ctx)).To(Succeed())
			Expect(status()).To(Equal(session.Authenticated))
			Eventually(profileStatus).Should(Equal(session.ProfileComplete))
			Eventually(gw.LastLogins).Should(Equal(1))
		})

		It("treats a missing profile as incomplete", func() {
			gw.stored = newSession("referee@wasitku.test")
			Expect(rec.Start(ctx)).To(Succeed())
			Eventually(profileStatus).Should(Equal(session.ProfileIncomplete))
		})
	})

	Describe("events", func() {
		BeforeEach(func() {
			Expect(rec.Start(ctx)).To(Succeed())
		})

		It("moves to authenticated on signed_in and records the login", func() {
			gw.setProfile(&gateway.Profile{Username: "user_1"}, nil)
			s := newSession("a@wasitku.test")
			gw.events <- gateway.AuthEvent{Kind: gateway.EventSignedIn, Session: s, At: time.Now()}

			Eventually(status).Should(Equal(session.Authenticated))
			Eventually(profileStatus).Should(Equal(session.ProfileIncomplete))
			Eventually(gw.LastLogins).Should(Equal(1))
			Expect(rec.Snapshot().User.Email).To(Equal("a@wasitku.test"))
		})

		It("keeps the profile when only the tokens are refreshed", func() {
			s := newSession("a@wasitku.test")
			gw.setProfile(&gateway.Profile{Username: "ref", UsernameCustomized: true, Name: strp("Ref")}, nil)
			gw.events <- gateway.AuthEvent{Kind: gateway.EventSignedIn, Session: s}
			Eventually(profileStatus).Should(Equal(session.ProfileComplete))

			next := *s
			next.AccessToken = "rotated"
			gw.events <- gateway.AuthEvent{Kind: gateway.EventTokenRefreshed, Session: &next}

			Eventually(func() string { return rec.Snapshot().Session.AccessToken }).Should(Equal("rotated"))
			Expect(profileStatus()).To(Equal(session.ProfileComplete))
		})

		It("flags an expiry when the server ends the session", func() {
			gw.events <- gateway.AuthEvent{Kind: gateway.EventSignedIn, Session: newSession("a@wasitku.test")}
			Eventually(status).Should(Equal(session.Authenticated))

			gw.events <- gateway.AuthEvent{Kind: gateway.EventSignedOut}
			Eventually(status).Should(Equal(session.Unauthenticated))
			Expect(rec.Snapshot().SessionExpired).To(BeTrue())

			rec.DismissSessionExpired()
			Expect(rec.Snapshot().SessionExpired).To(BeFalse())
		})

		It("keeps an undismissed expiry across repeated server sign-outs", func() {
			gw.events <- gateway.AuthEvent{Kind: gateway.EventSignedIn, Session: newSession("a@wasitku.test")}
			Eventually(status).Should(Equal(session.Authenticated))

			gw.events <- gateway.AuthEvent{Kind: gateway.EventSignedOut}
			Eventually(func() bool { return rec.Snapshot().SessionExpired }).Should(BeTrue())

			gw.events <- gateway.AuthEvent{Kind: gateway.EventSignedOut}
			Consistently(func() bool { return rec.Snapshot().SessionExpired }, 100*time.Millisecond).Should(BeTrue())

			rec.DismissSessionExpired()
			Expect(rec.Snapshot().SessionExpired).To(BeFalse())
		})

		It("does not flag an expiry when nobody was signed in", func() {
			gw.events <- gateway.AuthEvent{Kind: gateway.EventSignedOut}
			Consistently(func() bool { return rec.Snapshot().SessionExpired }, 100*time.Millisecond).Should(BeFalse())
		})

		It("refetches the profile on user_updated", func() {
			s := newSession("a@wasitku.test")
			gw.events <- gateway.AuthEvent{Kind: gateway.EventSignedIn, Session: s}
			Eventually(profileStatus).Should(Equal(session.ProfileIncomplete))

			gw.setProfile(&gateway.Profile{Username: "ref", UsernameCustomized: true, Name: strp("Ref")}, nil)
			gw.events <- gateway.AuthEvent{Kind: gateway.EventUserUpdated, Session: s}
			Eventually(profileStatus).Should(Equal(session.ProfileComplete))
		})
	})

	Describe("sign-out", func() {
		BeforeEach(func() {
			Expect(rec.Start(ctx)).To(Succeed())
			Expect(rec.SignIn(ctx, "a@wasitku.test", "secret1")).To(Succeed())
		})

		It("is not reported as an expiry, even when echoed", func() {
			Expect(rec.SignOut(ctx)).To(Succeed())
			Expect(status()).To(Equal(session.Unauthenticated))

			gw.events <- gateway.AuthEvent{Kind: gateway.EventSignedOut}
			Consistently(func() bool { return rec.Snapshot().SessionExpired }, 100*time.Millisecond).Should(BeFalse())
			Expect(gw.Calls()).To(ContainElement("SignOut"))
		})

		It("does not report a server sign-out inside the grace window, even after signing in again", func() {
			Expect(rec.SignOut(ctx)).To(Succeed())

			gw.events <- gateway.AuthEvent{Kind: gateway.EventSignedIn, Session: newSession("a@wasitku.test")}
			Eventually(status).Should(Equal(session.Authenticated))
			gw.events <- gateway.AuthEvent{Kind: gateway.EventSignedOut}
			Eventually(status).Should(Equal(session.Unauthenticated))
			Consistently(func() bool { return rec.Snapshot().SessionExpired }, 100*time.Millisecond).Should(BeFalse())
		})

		It("reports the same sequence as an expiry once the grace window passed", func() {
			Expect(rec.SignOut(ctx)).To(Succeed())
			time.Sleep(100 * time.Millisecond)

			gw.events <- gateway.AuthEvent{Kind: gateway.EventSignedIn, Session: newSession("a@wasitku.test")}
			Eventually(status).Should(Equal(session.Authenticated))
			gw.events <- gateway.AuthEvent{Kind: gateway.EventSignedOut}
			Eventually(func() bool { return rec.Snapshot().SessionExpired }).Should(BeTrue())
		})

		It("reports a later server sign-out as an expiry once the grace window passed", func() {
			Expect(rec.SignOut(ctx)).To(Succeed())
			time.Sleep(100 * time.Millisecond)

			Expect(rec.SignIn(ctx, "a@wasitku.test", "secret1")).To(Succeed())
			gw.events <- gateway.AuthEvent{Kind: gateway.EventSignedOut}
			Eventually(func() bool { return rec.Snapshot().SessionExpired }).Should(BeTrue())
		})
	})

	Describe("stale profile results", func() {
		It("drops a profile that arrives after sign-out", func() {
			gw.profileHit = make(chan struct{})
			gw.setProfile(&gateway.Profile{Username: "ref", UsernameCustomized: true, Name: strp("Ref")}, nil)
			Expect(rec.Start(ctx)).To(Succeed())
			Expect(rec.SignIn(ctx, "a@wasitku.test", "secret1")).To(Succeed())
			Expect(profileStatus()).To(Equal(session.ProfileLoading))

			Expect(rec.SignOut(ctx)).To(Succeed())
			close(gw.profileHit)

			Consistently(func() *gateway.Profile { return rec.Snapshot().Profile }, 100*time.Millisecond).Should(BeNil())
			Expect(status()).To(Equal(session.Unauthenticated))
		})
	})

	Describe("actions", func() {
		BeforeEach(func() {
			Expect(rec.Start(ctx)).To(Succeed())
		})

		It("validates sign-in input before calling the gateway", func() {
			err := rec.SignIn(ctx, "not-an-email", "")
			var ve *session.ValidationError
			Expect(errors.As(err, &ve)).To(BeTrue())
			Expect(ve.Fields).To(HaveKeyWithValue("email", "Please enter a valid email"))
			Expect(ve.Fields).To(HaveKeyWithValue("password", "Password is required"))
			Expect(gw.Calls()).NotTo(ContainElement("SignIn"))
		})

		It("rejects mismatched sign-up passwords", func() {
			_, err := rec.SignUp(ctx, "new@wasitku.test", "secret1", "secret2")
			Expect(session.AuthMessage(err)).To(Equal("Passwords do not match"))
		})

		It("reports pending confirmation on sign-up", func() {
			gw.signUpPend = true
			pending, err := rec.SignUp(ctx, "new@wasitku.test", "secret1", "secret1")
			Expect(err).NotTo(HaveOccurred())
			Expect(pending).To(BeTrue())
			Expect(status()).To(Equal(session.Unauthenticated))
		})

		It("maps a taken username", func() {
			Expect(rec.SignIn(ctx, "a@wasitku.test", "secret1")).To(Succeed())
			gw.taken["ref_one"] = true

			err := rec.SetUsername(ctx, "Ref_One")
			Expect(err).To(MatchError(session.ErrUsernameTaken))
			Expect(session.AuthMessage(err)).To(Equal("Username is already taken"))
		})

		It("completes the profile after username and name are set", func() {
			Expect(rec.SignIn(ctx, "a@wasitku.test", "secret1")).To(Succeed())
			Eventually(profileStatus).Should(Equal(session.ProfileIncomplete))

			Expect(rec.SetUsername(ctx, "ref_one")).To(Succeed())
			Expect(profileStatus()).To(Equal(session.ProfileIncomplete))
			Expect(rec.UpdateProfile(ctx, gateway.ProfileUpdate{Name: strp(" Ref One ")})).To(Succeed())
			Expect(profileStatus()).To(Equal(session.ProfileComplete))
			Expect(*rec.Snapshot().Profile.Name).To(Equal("Ref One"))
			Eventually(func() int {
				n := 0
				for _, c := range gw.Calls() {
					if c == "GetProfile" {
						n++
					}
				}
				return n
			}).Should(Equal(2))
		})

		It("checks availability case-insensitively", func() {
			gw.taken["ref_one"] = true
			ok, err := rec.CheckUsernameAvailable(ctx, "REF_ONE")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("refuses usernames outside the allowed alphabet", func() {
			_, err := rec.CheckUsernameAvailable(ctx, "no spaces")
			Expect(err).To(BeAssignableToTypeOf(&session.ValidationError{}))
		})

		It("returns ErrNotSignedIn from RefreshProfile when signed out", func() {
			Expect(rec.RefreshProfile(ctx)).To(MatchError(session.ErrNotSignedIn))
		})
	})

	Describe("Watch", func() {
		It("delivers the current state first and later transitions", func() {
			ch, stop := rec.Watch()
			defer stop()
			Expect((<-ch).AuthStatus).To(Equal(session.CheckingSession))

			Expect(rec.Start(ctx)).To(Succeed())
			Eventually(ch).Should(Receive(HaveField("AuthStatus", session.Unauthenticated)))
		})

		It("closes watchers on Close", func() {
			ch, _ := rec.Watch()
			<-ch
			rec.Close()
			Eventually(ch).Should(BeClosed())
		})
	})
})
