package tests

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wasitku_backend/internals/features/learn/tests/model"
)

type QuestionSeed struct {
	OrderIndex    int    `json:"order_index"`
	QuestionText  string `json:"question_text"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectOption string `json:"correct_option"`
}

type TestSeed struct {
	Slug      string         `json:"slug"`
	Title     string         `json:"title"`
	IsActive  bool           `json:"is_active"`
	Tags      []string       `json:"tags"`
	Questions []QuestionSeed `json:"questions"`
}

// ParseTestSeeds decodes the seed file and rejects malformed questions.
func ParseTestSeeds(content []byte) ([]TestSeed, error) {
	var data []TestSeed
	if err := sonic.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	for _, t := range data {
		if strings.TrimSpace(t.Slug) == "" || strings.TrimSpace(t.Title) == "" {
			return nil, fmt.Errorf("test %q: slug and title are required", t.Slug)
		}
		seen := make(map[int]bool, len(t.Questions))
		for _, q := range t.Questions {
			if seen[q.OrderIndex] {
				return nil, fmt.Errorf("test %q: duplicate order_index %d", t.Slug, q.OrderIndex)
			}
			seen[q.OrderIndex] = true
			if !model.IsOptionLetter(q.CorrectOption) {
				return nil, fmt.Errorf("test %q question %d: correct_option %q", t.Slug, q.OrderIndex, q.CorrectOption)
			}
		}
	}
	return data, nil
}

// SeedTestsFromJSON upserts tests by slug and their questions by order_index,
// so re-running it after editing the file updates rows in place.
func SeedTestsFromJSON(db *gorm.DB, filePath string) {
	log.Println("[SEED] reading", filePath)

	content, err := os.ReadFile(filePath)
	if err != nil {
		log.Fatalf("[SEED] read %s: %v", filePath, err)
	}
	data, err := ParseTestSeeds(content)
	if err != nil {
		log.Fatalf("[SEED] %s: %v", filePath, err)
	}

	for _, item := range data {
		err := db.Transaction(func(tx *gorm.DB) error {
			test := model.TestModel{
				Slug:     item.Slug,
				Title:    item.Title,
				IsActive: item.IsActive,
				Tags:     pq.StringArray(item.Tags),
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "slug"}},
				DoUpdates: clause.AssignmentColumns([]string{"title", "is_active", "tags", "updated_at"}),
			}).Create(&test).Error; err != nil {
				return err
			}
			// the conflict path does not fill the id back
			if err := tx.Where("slug = ?", item.Slug).First(&test).Error; err != nil {
				return err
			}

			for _, q := range item.Questions {
				row := model.TestQuestionModel{
					TestID:        test.ID,
					OrderIndex:    q.OrderIndex,
					QuestionText:  q.QuestionText,
					OptionA:       q.OptionA,
					OptionB:       q.OptionB,
					OptionC:       q.OptionC,
					OptionD:       q.OptionD,
					CorrectOption: q.CorrectOption,
				}
				if err := tx.Clauses(clause.OnConflict{
					Columns: []clause.Column{{Name: "test_id"}, {Name: "order_index"}},
					DoUpdates: clause.AssignmentColumns([]string{
						"question_text", "option_a", "option_b", "option_c", "option_d", "correct_option", "updated_at",
					}),
				}).Create(&row).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			log.Printf("[SEED] test %s failed: %v", item.Slug, err)
			continue
		}
		log.Printf("[SEED] test %s ready with %d question(s)", item.Slug, len(item.Questions))
	}
}
