package tests_test

import (
	"os"
	"testing"

	. "github.com/onsi/gomega"

	"wasitku_backend/internals/seeds/tests"
)

func TestBundledOffsideBasicsHasFiveQuestions(t *testing.T) {
	g := NewWithT(t)

	content, err := os.ReadFile("data_tests.json")
	g.Expect(err).NotTo(HaveOccurred())

	data, err := tests.ParseTestSeeds(content)
	g.Expect(err).NotTo(HaveOccurred())

	var found *tests.TestSeed
	for i := range data {
		if data[i].Slug == "offside-basics" {
			found = &data[i]
		}
	}
	g.Expect(found).NotTo(BeNil())
	g.Expect(found.IsActive).To(BeTrue())
	g.Expect(found.Questions).To(HaveLen(5))
}

func TestParseTestSeedsRejectsBadAnswerKey(t *testing.T) {
	g := NewWithT(t)

	_, err := tests.ParseTestSeeds([]byte(`[{"slug":"x","title":"X","questions":[{"order_index":1,"correct_option":"E"}]}]`))
	g.Expect(err).To(MatchError(ContainSubstring("correct_option")))

	_, err = tests.ParseTestSeeds([]byte(`[{"slug":"x","title":"X","questions":[{"order_index":1,"correct_option":"A"},{"order_index":1,"correct_option":"B"}]}]`))
	g.Expect(err).To(MatchError(ContainSubstring("duplicate order_index")))
}
