package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wasitku_backend/internals/features/learn/attempts/model"
)

// AttemptRepository persists attempts and their answers. Lookups that miss
// return gorm.ErrRecordNotFound.
type AttemptRepository interface {
	// Transaction runs fn against a repository bound to one DB transaction.
	Transaction(ctx context.Context, fn func(tx AttemptRepository) error) error

	FindInProgress(ctx context.Context, userID, testID uuid.UUID) (*model.TestAttemptModel, error)
	Create(ctx context.Context, a *model.TestAttemptModel) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.TestAttemptModel, error)
	// LockByID is FindByID with FOR UPDATE; only meaningful inside Transaction.
	LockByID(ctx context.Context, id uuid.UUID) (*model.TestAttemptModel, error)
	ListByStatus(ctx context.Context, userID, testID uuid.UUID, status string) ([]model.TestAttemptModel, error)
	SaveResult(ctx context.Context, a *model.TestAttemptModel) error

	ListAnswers(ctx context.Context, attemptID uuid.UUID) ([]model.TestAttemptAnswerModel, error)
	UpsertAnswer(ctx context.Context, a *model.TestAttemptAnswerModel) error
	MarkAnswer(ctx context.Context, answerID uuid.UUID, correct bool) error
}

type GormAttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *GormAttemptRepository {
	return &GormAttemptRepository{DB: db}
}

func (r *GormAttemptRepository) Transaction(ctx context.Context, fn func(tx AttemptRepository) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormAttemptRepository{DB: tx})
	})
}

func (r *GormAttemptRepository) FindInProgress(ctx context.Context, userID, testID uuid.UUID) (*model.TestAttemptModel, error) {
	var a model.TestAttemptModel
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND test_id = ? AND status = ?", userID, testID, model.StatusInProgress).
		Order("started_at DESC").
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GormAttemptRepository) Create(ctx context.Context, a *model.TestAttemptModel) error {
	return r.DB.WithContext(ctx).Create(a).Error
}

func (r *GormAttemptRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.TestAttemptModel, error) {
	var a model.TestAttemptModel
	if err := r.DB.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GormAttemptRepository) LockByID(ctx context.Context, id uuid.UUID) (*model.TestAttemptModel, error) {
	var a model.TestAttemptModel
	err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&a, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GormAttemptRepository) ListByStatus(ctx context.Context, userID, testID uuid.UUID, status string) ([]model.TestAttemptModel, error) {
	var rows []model.TestAttemptModel
	q := r.DB.WithContext(ctx).Where("user_id = ? AND test_id = ?", userID, testID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("started_at DESC").Find(&rows).Error
	return rows, err
}

func (r *GormAttemptRepository) SaveResult(ctx context.Context, a *model.TestAttemptModel) error {
	return r.DB.WithContext(ctx).
		Model(&model.TestAttemptModel{}).
		Where("id = ?", a.ID).
		Updates(map[string]any{
			"status":        a.Status,
			"submitted_at":  a.SubmittedAt,
			"score_correct": a.ScoreCorrect,
			"score_total":   a.ScoreTotal,
			"score_percent": a.ScorePercent,
			"updated_at":    time.Now(),
		}).Error
}

func (r *GormAttemptRepository) ListAnswers(ctx context.Context, attemptID uuid.UUID) ([]model.TestAttemptAnswerModel, error) {
	var rows []model.TestAttemptAnswerModel
	err := r.DB.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Order("confirmed_at ASC").
		Find(&rows).Error
	return rows, err
}

// UpsertAnswer keeps one row per (attempt, question); the latest selection wins.
func (r *GormAttemptRepository) UpsertAnswer(ctx context.Context, a *model.TestAttemptAnswerModel) error {
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"selected_option", "confirmed_at", "is_correct"}),
		}, clause.Returning{}).
		Create(a).Error
}

func (r *GormAttemptRepository) MarkAnswer(ctx context.Context, answerID uuid.UUID, correct bool) error {
	return r.DB.WithContext(ctx).
		Model(&model.TestAttemptAnswerModel{}).
		Where("id = ?", answerID).
		Update("is_correct", correct).Error
}
