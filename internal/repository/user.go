package repository

import (
	"context"

	"foodgram/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines read access to users and their subscriptions.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, int64, error)
	ListFollowedAuthors(ctx context.Context, userID uint, limit, offset int) ([]models.User, int64, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translateError(err, "User", id)
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]models.User, int64, error) {
	return r.page(r.db.WithContext(ctx).Model(&models.User{}), "users.id", limit, offset)
}

// ListFollowedAuthors returns the authors userID follows, oldest subscription first.
func (r *userRepository) ListFollowedAuthors(ctx context.Context, userID uint, limit, offset int) ([]models.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.User{}).
		Joins("JOIN follows ON follows.author_id = users.id").
		Where("follows.user_id = ?", userID)
	return r.page(q, "follows.id", limit, offset)
}

func (r *userRepository) page(q *gorm.DB, order string, limit, offset int) ([]models.User, int64, error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "User", nil)
	}
	q = q.Order(order)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		return nil, 0, translateError(err, "User", nil)
	}
	return users, total, nil
}
