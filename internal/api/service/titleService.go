package service

import (
	"context"
	"errors"

	"reviewhub/internal/api/dto"
	"reviewhub/internal/api/models"
	"reviewhub/internal/api/repository"
	"reviewhub/internal/api/validation"
	"reviewhub/internal/cache"

	"gorm.io/gorm"
)

type TitleService interface {
	List(ctx context.Context, filter dto.TitleFilter, page, pageSize int) (*dto.Paginated[dto.TitleResponse], error)
	Get(ctx context.Context, id int64) (*dto.TitleResponse, error)
	Create(ctx context.Context, in dto.CreateTitleDTO) (*dto.TitleResponse, error)
	Update(ctx context.Context, id int64, in dto.UpdateTitleDTO) (*dto.TitleResponse, error)
	Delete(ctx context.Context, id int64) error
}

type titleService struct {
	titleRepo    repository.TitleRepository
	categoryRepo repository.CategoryRepository
	genreRepo    repository.GenreRepository
	reviewRepo   repository.ReviewRepository
	ratings      *cache.RatingCache
}

func NewTitleService(
	titleRepo repository.TitleRepository,
	categoryRepo repository.CategoryRepository,
	genreRepo repository.GenreRepository,
	reviewRepo repository.ReviewRepository,
	ratings *cache.RatingCache,
) TitleService {
	return &titleService{
		titleRepo:    titleRepo,
		categoryRepo: categoryRepo,
		genreRepo:    genreRepo,
		reviewRepo:   reviewRepo,
		ratings:      ratings,
	}
}

// rating computes the read-time average score, going through the cache. Nil
// means the title has no reviews yet.
func (s *titleService) rating(ctx context.Context, titleID int64) (*float64, error) {
	if avg, ok := s.ratings.Get(ctx, titleID); ok {
		return avg, nil
	}
	avg, err := s.reviewRepo.AverageScore(ctx, titleID)
	if err != nil {
		return nil, err
	}
	s.ratings.Set(ctx, titleID, avg)
	return avg, nil
}

func (s *titleService) toResponse(ctx context.Context, t *models.Title) (*dto.TitleResponse, error) {
	avg, err := s.rating(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	resp := dto.TitleFromModel(*t, avg)
	return &resp, nil
}

func (s *titleService) List(ctx context.Context, filter dto.TitleFilter, page, pageSize int) (*dto.Paginated[dto.TitleResponse], error) {
	repoFilter := repository.TitleFilter{
		CategorySlug: filter.Category,
		GenreSlug:    filter.Genre,
		Name:         filter.Name,
		Year:         filter.Year,
	}
	list, total, err := s.titleRepo.List(ctx, repoFilter, page, pageSize)
	if err != nil {
		return nil, err
	}

	resp := make([]dto.TitleResponse, 0, len(list))
	for i := range list {
		item, err := s.toResponse(ctx, &list[i])
		if err != nil {
			return nil, err
		}
		resp = append(resp, *item)
	}
	return dto.NewPaginated(resp, int(total), page, pageSize), nil
}

func (s *titleService) Get(ctx context.Context, id int64) (*dto.TitleResponse, error) {
	title, err := s.titleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.toResponse(ctx, title)
}

// resolveCategory maps a slug to the category row; unknown slug is a
// validation error, not a 404 — the title is the addressed resource here.
func (s *titleService) resolveCategory(ctx context.Context, slug string) (*models.Category, error) {
	category, err := s.categoryRepo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewFieldError("category", "unknown category slug")
		}
		return nil, err
	}
	return category, nil
}

func (s *titleService) resolveGenres(ctx context.Context, slugs []string) ([]models.Genre, error) {
	genres, err := s.genreRepo.FindBySlugs(ctx, slugs)
	if err != nil {
		return nil, err
	}
	if len(genres) != len(slugs) {
		return nil, NewFieldError("genre", "unknown genre slug")
	}
	return genres, nil
}

func (s *titleService) Create(ctx context.Context, in dto.CreateTitleDTO) (*dto.TitleResponse, error) {
	if err := validation.Year(in.Year); err != nil {
		return nil, NewFieldError("year", err.Error())
	}

	title := &models.Title{
		Name:        in.Name,
		Year:        in.Year,
		Description: in.Description,
	}

	if in.Category != nil && *in.Category != "" {
		category, err := s.resolveCategory(ctx, *in.Category)
		if err != nil {
			return nil, err
		}
		title.CategoryID = &category.ID
		title.Category = category
	}

	genres, err := s.resolveGenres(ctx, in.Genres)
	if err != nil {
		return nil, err
	}
	title.Genres = genres

	if err := s.titleRepo.Create(ctx, title); err != nil {
		return nil, err
	}
	return s.toResponse(ctx, title)
}

func (s *titleService) Update(ctx context.Context, id int64, in dto.UpdateTitleDTO) (*dto.TitleResponse, error) {
	title, err := s.titleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if in.Name != nil {
		title.Name = *in.Name
	}
	if in.Year != nil {
		if err := validation.Year(*in.Year); err != nil {
			return nil, NewFieldError("year", err.Error())
		}
		title.Year = *in.Year
	}
	if in.Description != nil {
		title.Description = in.Description
	}
	if in.Category != nil {
		// An explicit empty slug detaches the title from its category.
		if *in.Category == "" {
			title.CategoryID = nil
			title.Category = nil
		} else {
			category, err := s.resolveCategory(ctx, *in.Category)
			if err != nil {
				return nil, err
			}
			title.CategoryID = &category.ID
			title.Category = category
		}
	}

	if err := s.titleRepo.Update(ctx, title); err != nil {
		return nil, err
	}

	if in.Genres != nil {
		genres, err := s.resolveGenres(ctx, *in.Genres)
		if err != nil {
			return nil, err
		}
		if err := s.titleRepo.ReplaceGenres(ctx, title, genres); err != nil {
			return nil, err
		}
	}

	return s.toResponse(ctx, title)
}

// Delete removes the title. Its reviews and their comments fall with it at
// the store level; the cached rating goes too.
func (s *titleService) Delete(ctx context.Context, id int64) error {
	title, err := s.titleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := s.titleRepo.Delete(ctx, title); err != nil {
		return err
	}
	s.ratings.Invalidate(ctx, id)
	return nil
}
