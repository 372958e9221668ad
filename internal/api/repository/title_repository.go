package repository

import (
	"context"
	"fmt"

	"reviewhub/internal/api/models"

	"gorm.io/gorm"
)

// TitleFilter narrows the title listing. Zero values mean "don't filter".
type TitleFilter struct {
	CategorySlug string
	GenreSlug    string
	Name         string
	Year         *int
}

type TitleRepository interface {
	Create(ctx context.Context, title *models.Title) error
	GetByID(ctx context.Context, id int64) (*models.Title, error)
	List(ctx context.Context, filter TitleFilter, page, pageSize int) ([]models.Title, int64, error)
	Update(ctx context.Context, title *models.Title) error
	ReplaceGenres(ctx context.Context, title *models.Title, genres []models.Genre) error
	Delete(ctx context.Context, title *models.Title) error
}

type titleRepository struct {
	db *gorm.DB
}

func NewTitleRepository(db *gorm.DB) TitleRepository {
	return &titleRepository{db: db}
}

func (r *titleRepository) Create(ctx context.Context, title *models.Title) error {
	if err := r.db.WithContext(ctx).Create(title).Error; err != nil {
		return fmt.Errorf("create title: %w", err)
	}
	return nil
}

func (r *titleRepository) GetByID(ctx context.Context, id int64) (*models.Title, error) {
	var t models.Title
	if err := r.db.WithContext(ctx).Preload("Category").Preload("Genres").First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *titleRepository) List(ctx context.Context, filter TitleFilter, page, pageSize int) ([]models.Title, int64, error) {
	var list []models.Title
	var total int64

	applyFilter := func(q *gorm.DB) *gorm.DB {
		if filter.CategorySlug != "" {
			q = q.Joins("JOIN categories ON categories.id = titles.category_id").
				Where("categories.slug = ?", filter.CategorySlug)
		}
		if filter.GenreSlug != "" {
			q = q.Joins("JOIN title_genres ON title_genres.title_id = titles.id").
				Joins("JOIN genres ON genres.id = title_genres.genre_id").
				Where("genres.slug = ?", filter.GenreSlug)
		}
		if filter.Name != "" {
			q = q.Where("titles.name ILIKE ?", "%"+filter.Name+"%")
		}
		if filter.Year != nil {
			q = q.Where("titles.year = ?", *filter.Year)
		}
		return q
	}

	// the genre join can fan out, distinct keeps the count honest
	if err := applyFilter(r.db.WithContext(ctx).Model(&models.Title{})).
		Distinct("titles.id").
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := applyFilter(r.db.WithContext(ctx).Model(&models.Title{})).
		Distinct("titles.*").
		Preload("Category").Preload("Genres").
		Order("titles.id asc").
		Limit(pageSize).
		Offset(offset).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}

	return list, total, nil
}

func (r *titleRepository) Update(ctx context.Context, title *models.Title) error {
	// Save does not touch the m2m rows; ReplaceGenres handles those.
	if err := r.db.WithContext(ctx).Omit("Genres", "Category").Save(title).Error; err != nil {
		return fmt.Errorf("update title: %w", err)
	}
	return nil
}

func (r *titleRepository) ReplaceGenres(ctx context.Context, title *models.Title, genres []models.Genre) error {
	if err := r.db.WithContext(ctx).Model(title).Association("Genres").Replace(genres); err != nil {
		return fmt.Errorf("replace genres: %w", err)
	}
	title.Genres = genres
	return nil
}

// Delete removes the title; reviews and their comments follow via the FK
// cascade chain.
func (r *titleRepository) Delete(ctx context.Context, title *models.Title) error {
	if err := r.db.WithContext(ctx).Select("Genres").Delete(title).Error; err != nil {
		return fmt.Errorf("delete title: %w", err)
	}
	return nil
}
