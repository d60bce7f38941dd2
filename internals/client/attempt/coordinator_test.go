package attempt_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"wasitku_backend/internals/client/attempt"
	"wasitku_backend/internals/client/gateway"
)

var _ = Describe("Coordinator", func() {
	var (
		ctx context.Context
		gw  *fakeGateway
	)

	BeforeEach(func() {
		ctx = context.Background()
		gw = newFakeGateway("A", "B", "C", "D", "B")
	})

	open := func() *attempt.Coordinator {
		c, err := attempt.Open(ctx, gw, "offside-basics")
		Expect(err).NotTo(HaveOccurred())
		return c
	}

	It("rejects an unknown slug", func() {
		_, err := attempt.Open(ctx, gw, "no-such-test")
		Expect(err).To(MatchError(attempt.ErrTestNotFound))
	})

	It("rejects an inactive test", func() {
		gw.test.IsActive = false
		_, err := attempt.Open(ctx, gw, "offside-basics")
		Expect(err).To(MatchError(attempt.ErrTestNotFound))
	})

	It("orders questions by order_index", func() {
		c := open()
		qs := c.Questions()
		Expect(qs).To(HaveLen(5))
		for i, q := range qs {
			Expect(q.OrderIndex).To(Equal(i + 1))
		}
	})

	It("reuses the in-progress attempt", func() {
		first := open().Attempt().ID
		second := open().Attempt().ID
		Expect(second).To(Equal(first))
	})

	It("restores exactly the saved answers on resume", func() {
		c := open()
		qs := c.Questions()
		Expect(c.Select(qs[0].ID, "A")).To(Succeed())
		Expect(c.Select(qs[2].ID, "d")).To(Succeed())
		c.Flush()

		again := open()
		Expect(again.AnsweredCount()).To(Equal(2))
		o, ok := again.Selected(qs[2].ID)
		Expect(ok).To(BeTrue())
		Expect(o).To(Equal("D"))
		_, ok = again.Selected(qs[1].ID)
		Expect(ok).To(BeFalse())
	})

	It("keeps the last selection for a question", func() {
		c := open()
		q := c.Questions()[0]
		Expect(c.Select(q.ID, "B")).To(Succeed())
		Expect(c.Select(q.ID, "C")).To(Succeed())
		c.Flush()

		saved := gw.saved(c.Attempt().ID)
		Expect(saved).To(HaveLen(1))
		Expect(saved[q.ID]).To(Equal("C"))
	})

	It("commits locally even when the save fails", func() {
		gw.upsertErr = errors.New("gateway down")
		c := open()
		q := c.Questions()[0]
		Expect(c.Select(q.ID, "A")).To(Succeed())
		c.Flush()
		Expect(c.AnsweredCount()).To(Equal(1))
		Expect(gw.saved(c.Attempt().ID)).To(BeEmpty())
	})

	It("does not block on a slow save", func() {
		gw.upsertGate = make(chan struct{})
		c := open()
		Expect(c.SelectCurrent("A")).To(Succeed())
		Expect(c.Next()).To(BeTrue())
		idx, _, _ := c.Current()
		Expect(idx).To(Equal(1))
		close(gw.upsertGate)
		c.Flush()
	})

	It("validates options and questions", func() {
		c := open()
		Expect(c.SelectCurrent("E")).To(MatchError(attempt.ErrInvalidOption))
		Expect(c.Select(gw.test.ID, "A")).To(MatchError(attempt.ErrUnknownQuestion))
	})

	It("navigates within bounds", func() {
		c := open()
		Expect(c.Prev()).To(BeFalse())
		Expect(c.Goto(4)).To(Succeed())
		Expect(c.Next()).To(BeFalse())
		Expect(c.Goto(5)).To(MatchError(attempt.ErrOutOfRange))
		Expect(c.Prev()).To(BeTrue())
		idx, _, ok := c.Current()
		Expect(ok).To(BeTrue())
		Expect(idx).To(Equal(3))
	})

	It("refuses to submit with unanswered questions", func() {
		c := open()
		Expect(c.SelectCurrent("A")).To(Succeed())
		_, err := c.Submit(ctx)
		Expect(err).To(MatchError(attempt.ErrNotAllAnswered))
	})

	It("answers all five, submits and scores", func() {
		c := open()
		for _, o := range []string{"A", "B", "C", "A", "B"} {
			Expect(c.SelectCurrent(o)).To(Succeed())
			c.Next()
		}
		Expect(c.AllAnswered()).To(BeTrue())

		a, err := c.Submit(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Status).To(Equal(gateway.StatusSubmitted))
		Expect(*a.ScoreTotal).To(Equal(5))
		Expect(*a.ScoreCorrect).To(Equal(4))
		Expect(*a.ScorePercent).To(Equal(80))

		Expect(c.SelectCurrent("A")).To(MatchError(attempt.ErrAttemptSubmitted))
		_, err = c.Submit(ctx)
		Expect(err).To(MatchError(attempt.ErrAttemptSubmitted))

		items, err := c.Review(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(HaveLen(5))
		Expect(items[3].IsCorrect).To(BeFalse())
		Expect(items[3].CorrectOption).To(Equal("D"))
	})

	It("hides the review until submission", func() {
		c := open()
		_, err := c.Review(ctx)
		Expect(err).To(MatchError(attempt.ErrNotSubmitted))
	})

	It("maps a conflicting submit to ErrAttemptSubmitted", func() {
		c := open()
		for _, q := range c.Questions() {
			Expect(c.Select(q.ID, "A")).To(Succeed())
		}
		c.Flush()
		other := open()
		_, err := other.Submit(ctx)
		Expect(err).NotTo(HaveOccurred())

		_, err = c.Submit(ctx)
		Expect(err).To(MatchError(attempt.ErrAttemptSubmitted))
		Expect(c.Submitted()).To(BeTrue())
	})

	It("starts a fresh attempt on redo and keeps history", func() {
		c := open()
		for _, q := range c.Questions() {
			Expect(c.Select(q.ID, "A")).To(Succeed())
		}
		first, err := c.Submit(ctx)
		Expect(err).NotTo(HaveOccurred())

		Expect(c.Redo(ctx)).To(Succeed())
		Expect(c.Attempt().ID).NotTo(Equal(first.ID))
		Expect(c.Attempt().Status).To(Equal(gateway.StatusInProgress))
		Expect(c.AnsweredCount()).To(BeZero())

		hist, err := c.History(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(hist).To(HaveLen(1))
		Expect(hist[0].ID).To(Equal(first.ID))
	})
})
