package service

import (
	"context"

	"foodgram/internal/repository"
)

// UserService lists users and subscriptions from a viewer's perspective.
type UserService struct {
	users       repository.UserRepository
	projections *ProjectionService
}

// NewUserService returns a new UserService.
func NewUserService(users repository.UserRepository, projections *ProjectionService) *UserService {
	return &UserService{users: users, projections: projections}
}

// ListUsers returns a page of users and the total count.
func (s *UserService) ListUsers(ctx context.Context, viewerID uint, limit, offset int) ([]UserView, int64, error) {
	users, total, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	views, err := s.projections.Users(ctx, viewerID, users)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// GetUser returns one user as seen by viewerID.
func (s *UserService) GetUser(ctx context.Context, viewerID, userID uint) (*UserView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.projections.User(ctx, viewerID, user)
}

// Me returns the viewer's own profile.
func (s *UserService) Me(ctx context.Context, viewerID uint) (*UserView, error) {
	return s.GetUser(ctx, viewerID, viewerID)
}

// Subscriptions returns the authors viewerID follows with their recipe
// previews capped at recipesLimit.
func (s *UserService) Subscriptions(ctx context.Context, viewerID uint, limit, offset, recipesLimit int) ([]UserWithRecipesView, int64, error) {
	authors, total, err := s.users.ListFollowedAuthors(ctx, viewerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	views, err := s.projections.UsersWithRecipes(ctx, viewerID, authors, recipesLimit)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}
