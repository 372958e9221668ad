package service

import (
	"context"
	"errors"

	"reviewhub/internal/api/dto"
	"reviewhub/internal/api/models"
	"reviewhub/internal/api/repository"
	"reviewhub/internal/api/validation"

	"gorm.io/gorm"
)

type GenreService interface {
	List(ctx context.Context, search string, page, pageSize int) (*dto.Paginated[dto.GenreResponse], error)
	Create(ctx context.Context, in dto.CreateGenreDTO) (*models.Genre, error)
	Delete(ctx context.Context, slug string) error
}

type genreService struct {
	genreRepo repository.GenreRepository
}

func NewGenreService(genreRepo repository.GenreRepository) GenreService {
	return &genreService{genreRepo: genreRepo}
}

func (s *genreService) List(ctx context.Context, search string, page, pageSize int) (*dto.Paginated[dto.GenreResponse], error) {
	list, total, err := s.genreRepo.List(ctx, search, page, pageSize)
	if err != nil {
		return nil, err
	}

	resp := make([]dto.GenreResponse, 0, len(list))
	for _, g := range list {
		resp = append(resp, dto.GenreFromModel(g))
	}
	return dto.NewPaginated(resp, int(total), page, pageSize), nil
}

func (s *genreService) Create(ctx context.Context, in dto.CreateGenreDTO) (*models.Genre, error) {
	if err := validation.Slug(in.Slug); err != nil {
		return nil, NewFieldError("slug", err.Error())
	}

	genre := &models.Genre{Name: in.Name, Slug: in.Slug}
	if err := s.genreRepo.Create(ctx, genre); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, NewFieldError("slug", "slug already exists")
		}
		return nil, err
	}
	return genre, nil
}

// Delete removes the genre by slug; only the join rows to titles disappear.
func (s *genreService) Delete(ctx context.Context, slug string) error {
	genre, err := s.genreRepo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return s.genreRepo.Delete(ctx, genre)
}
