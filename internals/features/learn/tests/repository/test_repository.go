package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wasitku_backend/internals/features/learn/tests/model"
)

// TestRepository is read-only: tests are authored out of band (seeds/admin).
// Lookups that miss return gorm.ErrRecordNotFound.
type TestRepository interface {
	ListActive(ctx context.Context) ([]model.TestModel, error)
	FindBySlug(ctx context.Context, slug string) (*model.TestModel, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.TestModel, error)
	ListQuestions(ctx context.Context, testID uuid.UUID) ([]model.TestQuestionModel, error)
	FindQuestion(ctx context.Context, testID, questionID uuid.UUID) (*model.TestQuestionModel, error)
}

type GormTestRepository struct {
	DB *gorm.DB
}

func NewTestRepository(db *gorm.DB) *GormTestRepository {
	return &GormTestRepository{DB: db}
}

func (r *GormTestRepository) ListActive(ctx context.Context) ([]model.TestModel, error) {
	var rows []model.TestModel
	err := r.DB.WithContext(ctx).
		Where("is_active = ?", true).
		Order("title ASC").
		Find(&rows).Error
	return rows, err
}

func (r *GormTestRepository) FindBySlug(ctx context.Context, slug string) (*model.TestModel, error) {
	var t model.TestModel
	if err := r.DB.WithContext(ctx).Where("slug = ?", slug).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *GormTestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.TestModel, error) {
	var t model.TestModel
	if err := r.DB.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *GormTestRepository) ListQuestions(ctx context.Context, testID uuid.UUID) ([]model.TestQuestionModel, error) {
	var rows []model.TestQuestionModel
	err := r.DB.WithContext(ctx).
		Where("test_id = ?", testID).
		Order("order_index ASC").
		Find(&rows).Error
	return rows, err
}

func (r *GormTestRepository) FindQuestion(ctx context.Context, testID, questionID uuid.UUID) (*model.TestQuestionModel, error) {
	var q model.TestQuestionModel
	if err := r.DB.WithContext(ctx).
		Where("id = ? AND test_id = ?", questionID, testID).
		First(&q).Error; err != nil {
		return nil, err
	}
	return &q, nil
}
