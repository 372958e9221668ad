package service

import (
	"context"
	"testing"
	"time"

	"reviewhub/internal/api/dto"
	"reviewhub/internal/api/models"
	"reviewhub/internal/api/repository"
	"reviewhub/internal/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

func noopRatings() *cache.RatingCache {
	return cache.NewRatingCache(nil, time.Minute, testLogger())
}

func testTitle() *models.Title {
	return &models.Title{ID: 7, Name: "The Left Hand of Darkness", Year: 1969}
}

func intPtr(v int) *int { return &v }

func TestReviewCreate_Success(t *testing.T) {
	reviewRepo := new(MockReviewRepository)
	titleRepo := new(MockTitleRepository)
	svc := NewReviewService(reviewRepo, titleRepo, noopRatings())

	author := testUser()
	titleRepo.On("GetByID", mock.Anything, int64(7)).Return(testTitle(), nil)
	reviewRepo.On("GetByAuthorAndTitle", mock.Anything, author.ID, int64(7)).Return(nil, gorm.ErrRecordNotFound)
	reviewRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Review")).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Review).ID = 101
	}).Return(nil)

	resp, err := svc.Create(context.Background(), 7, author, dto.CreateReviewDTO{Text: "superb", Score: 9})

	assert.NoError(t, err)
	assert.Equal(t, int64(101), resp.ID)
	assert.Equal(t, author.Username, resp.Author)
	assert.Equal(t, 9, resp.Score)
	reviewRepo.AssertExpectations(t)
}

func TestReviewCreate_TitleMissing(t *testing.T) {
	reviewRepo := new(MockReviewRepository)
	titleRepo := new(MockTitleRepository)
	svc := NewReviewService(reviewRepo, titleRepo, noopRatings())

	titleRepo.On("GetByID", mock.Anything, int64(404)).Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.Create(context.Background(), 404, testUser(), dto.CreateReviewDTO{Text: "x", Score: 5})

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReviewCreate_SecondReviewRejected(t *testing.T) {
	reviewRepo := new(MockReviewRepository)
	titleRepo := new(MockTitleRepository)
	svc := NewReviewService(reviewRepo, titleRepo, noopRatings())

	author := testUser()
	titleRepo.On("GetByID", mock.Anything, int64(7)).Return(testTitle(), nil)
	reviewRepo.On("GetByAuthorAndTitle", mock.Anything, author.ID, int64(7)).
		Return(&models.Review{ID: 55, AuthorID: author.ID, TitleID: 7}, nil)

	_, err := svc.Create(context.Background(), 7, author, dto.CreateReviewDTO{Text: "again", Score: 8})

	fe, ok := AsFieldErrors(err)
	assert.True(t, ok)
	assert.Contains(t, fe, "title")
	reviewRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestReviewCreate_RaceFallsBackToUniqueIndex(t *testing.T) {
	reviewRepo := new(MockReviewRepository)
	titleRepo := new(MockTitleRepository)
	svc := NewReviewService(reviewRepo, titleRepo, noopRatings())

	author := testUser()
	titleRepo.On("GetByID", mock.Anything, int64(7)).Return(testTitle(), nil)
	reviewRepo.On("GetByAuthorAndTitle", mock.Anything, author.ID, int64(7)).Return(nil, gorm.ErrRecordNotFound)
	reviewRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Review")).Return(repository.ErrDuplicateKey)

	_, err := svc.Create(context.Background(), 7, author, dto.CreateReviewDTO{Text: "again", Score: 8})

	fe, ok := AsFieldErrors(err)
	assert.True(t, ok)
	assert.Contains(t, fe, "title")
}

func TestReviewUpdate_ByAuthor(t *testing.T) {
	reviewRepo := new(MockReviewRepository)
	titleRepo := new(MockTitleRepository)
	svc := NewReviewService(reviewRepo, titleRepo, noopRatings())

	author := testUser()
	review := &models.Review{ID: 55, AuthorID: author.ID, TitleID: 7, Text: "old", Score: 5, Author: *author}
	reviewRepo.On("GetByID", mock.Anything, int64(7), int64(55)).Return(review, nil)
	reviewRepo.On("Update", mock.Anything, review).Return(nil)

	resp, err := svc.Update(context.Background(), 7, 55, author, dto.UpdateReviewDTO{Score: intPtr(10)})

	assert.NoError(t, err)
	assert.Equal(t, 10, resp.Score)
	assert.Equal(t, "old", resp.Text)
}

func TestReviewUpdate_StrangerForbidden(t *testing.T) {
	reviewRepo := new(MockReviewRepository)
	titleRepo := new(MockTitleRepository)
	svc := NewReviewService(reviewRepo, titleRepo, noopRatings())

	review := &models.Review{ID: 55, AuthorID: "someone-else", TitleID: 7}
	reviewRepo.On("GetByID", mock.Anything, int64(7), int64(55)).Return(review, nil)

	_, err := svc.Update(context.Background(), 7, 55, testUser(), dto.UpdateReviewDTO{Score: intPtr(1)})

	assert.ErrorIs(t, err, ErrForbidden)
	reviewRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestReviewDelete_ByModerator(t *testing.T) {
	reviewRepo := new(MockReviewRepository)
	titleRepo := new(MockTitleRepository)
	svc := NewReviewService(reviewRepo, titleRepo, noopRatings())

	review := &models.Review{ID: 55, AuthorID: "someone-else", TitleID: 7}
	reviewRepo.On("GetByID", mock.Anything, int64(7), int64(55)).Return(review, nil)
	reviewRepo.On("Delete", mock.Anything, review).Return(nil)

	moderator := testUser()
	moderator.Role = models.RoleModerator

	err := svc.Delete(context.Background(), 7, 55, moderator)

	assert.NoError(t, err)
	reviewRepo.AssertExpectations(t)
}

func TestReviewDelete_StrangerForbidden(t *testing.T) {
	reviewRepo := new(MockReviewRepository)
	titleRepo := new(MockTitleRepository)
	svc := NewReviewService(reviewRepo, titleRepo, noopRatings())

	review := &models.Review{ID: 55, AuthorID: "someone-else", TitleID: 7}
	reviewRepo.On("GetByID", mock.Anything, int64(7), int64(55)).Return(review, nil)

	err := svc.Delete(context.Background(), 7, 55, testUser())

	assert.ErrorIs(t, err, ErrForbidden)
	reviewRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestReviewGet_NotFound(t *testing.T) {
	reviewRepo := new(MockReviewRepository)
	titleRepo := new(MockTitleRepository)
	svc := NewReviewService(reviewRepo, titleRepo, noopRatings())

	reviewRepo.On("GetByID", mock.Anything, int64(7), int64(999)).Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.Get(context.Background(), 7, 999)

	assert.ErrorIs(t, err, ErrNotFound)
}
