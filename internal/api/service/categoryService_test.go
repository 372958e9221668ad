package service

import (
	"context"
	"testing"

	"reviewhub/internal/api/dto"
	"reviewhub/internal/api/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

func TestCategoryCreate_InvalidSlug(t *testing.T) {
	repo := new(MockCategoryRepository)
	svc := NewCategoryService(repo)

	_, err := svc.Create(context.Background(), dto.CreateCategoryDTO{Name: "Books", Slug: "not a slug"})

	fe, ok := AsFieldErrors(err)
	assert.True(t, ok)
	assert.Contains(t, fe, "slug")
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCategoryCreate_DuplicateSlug(t *testing.T) {
	repo := new(MockCategoryRepository)
	svc := NewCategoryService(repo)

	repo.On("Create", mock.Anything, mock.AnythingOfType("*models.Category")).Return(repository.ErrDuplicateKey)

	_, err := svc.Create(context.Background(), dto.CreateCategoryDTO{Name: "Books", Slug: "books"})

	fe, ok := AsFieldErrors(err)
	assert.True(t, ok)
	assert.Contains(t, fe, "slug")
}

func TestCategoryDelete_NotFound(t *testing.T) {
	repo := new(MockCategoryRepository)
	svc := NewCategoryService(repo)

	repo.On("FindBySlug", mock.Anything, "ghost").Return(nil, gorm.ErrRecordNotFound)

	err := svc.Delete(context.Background(), "ghost")

	assert.ErrorIs(t, err, ErrNotFound)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
