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

type UserService interface {
	List(ctx context.Context, search string, page, pageSize int) (*dto.Paginated[dto.UserResponse], error)
	Create(ctx context.Context, in dto.CreateUserRequest) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// Update applies a partial update. allowRoleChange distinguishes the
	// admin path from /users/me, where a submitted role is silently replaced
	// with the caller's current one.
	Update(ctx context.Context, user *models.User, in dto.UpdateUserRequest, allowRoleChange bool) (*models.User, error)
	Delete(ctx context.Context, username string) error
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) List(ctx context.Context, search string, page, pageSize int) (*dto.Paginated[dto.UserResponse], error) {
	users, total, err := s.userRepo.List(ctx, search, page, pageSize)
	if err != nil {
		return nil, err
	}

	resp := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, dto.UserFromModel(&users[i]))
	}
	return dto.NewPaginated(resp, int(total), page, pageSize), nil
}

func (s *userService) Create(ctx context.Context, in dto.CreateUserRequest) (*models.User, error) {
	if err := validation.Username(in.Username); err != nil {
		return nil, NewFieldError("username", err.Error())
	}

	role := models.RoleUser
	if in.Role != nil {
		if !models.ValidRole(*in.Role) {
			return nil, NewFieldError("role", "unknown role")
		}
		role = *in.Role
	}

	user := &models.User{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Bio:       in.Bio,
		Role:      role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, NewFieldError("username", "username and email must be unique")
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) Update(ctx context.Context, user *models.User, in dto.UpdateUserRequest, allowRoleChange bool) (*models.User, error) {
	if in.Username != nil {
		if err := validation.Username(*in.Username); err != nil {
			return nil, NewFieldError("username", err.Error())
		}
	}

	in.ApplyTo(user)

	// Role is never applied from the body on the self-service path. No
	// error: the submitted value is just discarded.
	if allowRoleChange && in.Role != nil {
		if !models.ValidRole(*in.Role) {
			return nil, NewFieldError("role", "unknown role")
		}
		user.Role = *in.Role
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, NewFieldError("username", "username and email must be unique")
		}
		return nil, err
	}
	return user, nil
}

// Delete removes the user; their reviews and comments go with them via the
// store-level cascade.
func (s *userService) Delete(ctx context.Context, username string) error {
	user, err := s.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	return s.userRepo.Delete(ctx, user)
}
