package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"wasitku_backend/internals/features/learn/tests/model"
	"wasitku_backend/internals/features/learn/tests/repository"
)

var ErrTestNotFound = errors.New("test not found")

type TestService struct {
	Repo repository.TestRepository
}

func NewTestService(repo repository.TestRepository) *TestService {
	return &TestService{Repo: repo}
}

func (s *TestService) ListActive(ctx context.Context) ([]model.TestModel, error) {
	return s.Repo.ListActive(ctx)
}

// ResolveActive finds a test by its external slug. Missing and inactive
// tests are indistinguishable to callers.
func (s *TestService) ResolveActive(ctx context.Context, slug string) (*model.TestModel, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrTestNotFound
	}
	t, err := s.Repo.FindBySlug(ctx, slug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTestNotFound
	}
	if err != nil {
		return nil, err
	}
	if !t.IsActive {
		return nil, ErrTestNotFound
	}
	return t, nil
}

// Questions returns the test and its questions in presentation order.
func (s *TestService) Questions(ctx context.Context, slug string) (*model.TestModel, []model.TestQuestionModel, error) {
	t, err := s.ResolveActive(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	qs, err := s.Repo.ListQuestions(ctx, t.ID)
	if err != nil {
		return nil, nil, err
	}
	return t, qs, nil
}
