package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"wasitku_backend/internals/client/attempt"
	"wasitku_backend/internals/client/gateway"
	"wasitku_backend/internals/client/session"
	"wasitku_backend/internals/configs"
)

const usage = `usage: trainer [flags] <command> [args]

commands:
  login               sign in with email and password
  signup              create an account
  reset               request a password reset email
  logout              sign out and forget the stored session
  profile             show the profile and finish onboarding
  tests               list available tests
  take <slug>         take or resume a test
  history <slug>      list submitted attempts
  notifications       show active notifications
`

func main() {
	_ = godotenv.Load()

	sessionFile := flag.String("session", defaultSessionFile(), "where the session is kept between runs")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := gateway.ConfigFromEnv()
	cfg.Store = gateway.FileStore{Path: *sessionFile}
	gw := gateway.New(cfg)
	defer gw.Close()

	rec := session.New(gw, session.Options{})
	defer rec.Close()
	if err := rec.Start(ctx); err != nil {
		log.Printf("[WARN] session check failed: %v", err)
	}

	t := &terminal{in: bufio.NewScanner(os.Stdin), gw: gw, rec: rec}
	if err := t.run(ctx, flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", message(err))
		os.Exit(1)
	}
}

func defaultSessionFile() string {
	if p := configs.GetEnv("WASITKU_SESSION_FILE"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".wasitku-session.json"
	}
	return filepath.Join(dir, "wasitku", "session.json")
}

func message(err error) string {
	var ve *session.ValidationError
	var api *gateway.APIError
	switch {
	case errors.As(err, &ve), errors.As(err, &api), errors.Is(err, session.ErrUsernameTaken):
		return session.AuthMessage(err)
	}
	return err.Error()
}

type terminal struct {
	in  *bufio.Scanner
	gw  *gateway.Client
	rec *session.Reconciler
}

func (t *terminal) ask(prompt string) string {
	fmt.Print(prompt)
	if !t.in.Scan() {
		return ""
	}
	return strings.TrimSpace(t.in.Text())
}

func (t *terminal) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return t.login(ctx)
	case "signup":
		return t.signup(ctx)
	case "reset":
		return t.rec.RequestPasswordReset(ctx, t.ask("Email: "))
	case "logout":
		return t.rec.SignOut(ctx)
	}

	if t.rec.Snapshot().AuthStatus != session.Authenticated {
		if t.rec.Snapshot().SessionExpired {
			fmt.Println("Your session has expired. Please sign in again.")
			t.rec.DismissSessionExpired()
		}
		if err := t.login(ctx); err != nil {
			return err
		}
	}

	switch cmd {
	case "profile":
		return t.profile(ctx)
	case "tests":
		return t.tests(ctx)
	case "take":
		if len(args) != 1 {
			return errors.New("take needs a test slug")
		}
		return t.take(ctx, args[0])
	case "history":
		if len(args) != 1 {
			return errors.New("history needs a test slug")
		}
		return t.history(ctx, args[0])
	case "notifications":
		return t.notifications(ctx)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

/* ==========================
   Account
========================== */

func (t *terminal) login(ctx context.Context) error {
	email := t.ask("Email: ")
	password := t.ask("Password: ")
	if err := t.rec.SignIn(ctx, email, password); err != nil {
		return err
	}
	fmt.Println("Signed in as", email)
	return nil
}

func (t *terminal) signup(ctx context.Context) error {
	email := t.ask("Email: ")
	password := t.ask("Password: ")
	confirm := t.ask("Confirm password: ")
	pending, err := t.rec.SignUp(ctx, email, password, confirm)
	if err != nil {
		return err
	}
	if pending {
		fmt.Println("Check your inbox to confirm your email, then sign in.")
		return nil
	}
	fmt.Println("Account created and signed in.")
	return nil
}

// waitProfile blocks until the profile fetch after sign-in settles.
func (t *terminal) waitProfile(ctx context.Context) session.Snapshot {
	ch, release := t.rec.Watch()
	defer release()
	timeout := time.After(10 * time.Second)
	for {
		select {
		case snap, ok := <-ch:
			if !ok || snap.AuthStatus != session.Authenticated || snap.ProfileStatus != session.ProfileLoading {
				return t.rec.Snapshot()
			}
		case <-timeout:
			return t.rec.Snapshot()
		case <-ctx.Done():
			return t.rec.Snapshot()
		}
	}
}

func (t *terminal) profile(ctx context.Context) error {
	snap := t.waitProfile(ctx)
	if snap.ProfileStatus == session.ProfileComplete {
		p := snap.Profile
		fmt.Printf("%s (@%s)\n", *p.Name, p.Username)
		return nil
	}

	fmt.Println("Your profile is incomplete.")
	if snap.Profile == nil || !snap.Profile.UsernameCustomized {
		for {
			u := t.ask("Choose a username: ")
			if u == "" {
				return errors.New("no username given")
			}
			ok, err := t.rec.CheckUsernameAvailable(ctx, u)
			if err != nil {
				fmt.Println(message(err))
				continue
			}
			if !ok {
				fmt.Println("Username is already taken")
				continue
			}
			if err := t.rec.SetUsername(ctx, u); err != nil {
				fmt.Println(message(err))
				continue
			}
			break
		}
	}
	name := t.ask("Your name: ")
	if err := t.rec.UpdateProfile(ctx, gateway.ProfileUpdate{Name: &name}); err != nil {
		return err
	}
	fmt.Println("Profile complete.")
	return nil
}

func (t *terminal) notifications(ctx context.Context) error {
	list, err := t.gw.ActiveNotifications(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No notifications.")
		return nil
	}
	for _, n := range list {
		fmt.Printf("- %s: %s\n", n.Title, n.Message)
		switch strings.ToLower(t.ask("  [r]ead, [l]ater, [d]ismiss, enter to skip: ")) {
		case "r":
			err = t.gw.MarkNotificationRead(ctx, n.ID)
		case "l":
			err = t.gw.RemindLater(ctx, n.ID)
		case "d":
			err = t.gw.DismissNotification(ctx, n.ID)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

/* ==========================
   Tests
========================== */

func (t *terminal) tests(ctx context.Context) error {
	list, err := t.gw.ListTests(ctx)
	if err != nil {
		return err
	}
	for _, test := range list {
		fmt.Printf("%-24s %s\n", test.Slug, test.Title)
	}
	return nil
}

func (t *terminal) take(ctx context.Context, slug string) error {
	c, err := attempt.Open(ctx, t.gw, slug)
	if err != nil {
		return err
	}
	defer c.Flush()

	test := c.Test()
	qs := c.Questions()
	fmt.Printf("%s: %d questions, %d already answered\n", test.Title, len(qs), c.AnsweredCount())

	for !c.AllAnswered() {
		i, q, ok := c.Current()
		if !ok {
			return errors.New("test has no questions")
		}
		fmt.Printf("\n%d/%d. %s\n", i+1, len(qs), q.QuestionText)
		for _, l := range []string{"A", "B", "C", "D"} {
			mark := " "
			if sel, ok := c.Selected(q.ID); ok && sel == l {
				mark = "*"
			}
			fmt.Printf(" %s %s) %s\n", mark, l, q.Option(l))
		}
		in := strings.ToUpper(t.ask("Answer (A-D, n next, p previous, q quit): "))
		switch in {
		case "N":
			if !c.Next() {
				_ = c.Goto(0)
			}
		case "P":
			c.Prev()
		case "Q", "":
			fmt.Println("Progress saved. Run take again to resume.")
			return nil
		default:
			if err := c.SelectCurrent(in); err != nil {
				fmt.Println(err)
				continue
			}
			if !c.Next() {
				_ = c.Goto(0)
			}
		}
	}

	if strings.ToLower(t.ask("\nAll questions answered. Submit? [y/N] ")) != "y" {
		fmt.Println("Progress saved.")
		return nil
	}
	a, err := c.Submit(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Score: %d/%d (%d%%)\n", deref(a.ScoreCorrect), deref(a.ScoreTotal), deref(a.ScorePercent))

	items, err := c.Review(ctx)
	if err != nil {
		return err
	}
	for _, it := range items {
		got := "-"
		if it.SelectedOption != nil {
			got = *it.SelectedOption
		}
		status := "wrong"
		if it.IsCorrect {
			status = "ok"
		}
		fmt.Printf("%2d. %-5s you: %s  correct: %s\n", it.OrderIndex, status, got, it.CorrectOption)
	}
	return nil
}

func (t *terminal) history(ctx context.Context, slug string) error {
	// listed directly so looking at history never starts an attempt
	list, err := t.gw.ListAttempts(ctx, slug, gateway.StatusSubmitted)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No submitted attempts yet.")
		return nil
	}
	for _, a := range list {
		when := ""
		if a.SubmittedAt != nil {
			when = a.SubmittedAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Printf("%s  %d/%d (%d%%)\n", when, deref(a.ScoreCorrect), deref(a.ScoreTotal), deref(a.ScorePercent))
	}
	return nil
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
