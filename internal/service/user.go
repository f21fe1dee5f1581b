package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserService handles user lookups and subscriptions between users
type UserService struct {
	db *gorm.DB
}

// Ensure UserService implements IUserService
var _ IUserService = (*UserService)(nil)

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) GetUser(ctx context.Context, viewerID, userID uuid.UUID) (*types.UserResponse, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	subscribed, err := s.subscribedAuthors(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	resp := types.NewUserResponse(user, subscribed[user.ID])
	return &resp, nil
}

func (s *UserService) ListUsers(ctx context.Context, viewerID uuid.UUID) ([]types.UserResponse, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("username ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	subscribed, err := s.subscribedAuthors(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	result := make([]types.UserResponse, len(users))
	for i := range users {
		result[i] = types.NewUserResponse(&users[i], subscribed[users[i].ID])
	}
	return result, nil
}

// Subscribe makes userID follow authorID. The unique (user, author) index
// decides between concurrent duplicate attempts.
func (s *UserService) Subscribe(ctx context.Context, userID, authorID uuid.UUID, recipesLimit int) (*types.SubscriptionResponse, error) {
	if userID == authorID {
		return nil, ErrSelfSubscription
	}
	author, err := s.loadUser(ctx, authorID)
	if err != nil {
		return nil, err
	}

	sub := models.Subscription{UserID: userID, AuthorID: authorID}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&sub)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadySubscribed
		}
		return nil, fmt.Errorf("failed to create subscription: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrAlreadySubscribed
	}

	return s.subscriptionView(ctx, author, recipesLimit)
}

func (s *UserService) Unsubscribe(ctx context.Context, userID, authorID uuid.UUID) error {
	if _, err := s.loadUser(ctx, authorID); err != nil {
		return err
	}
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&models.Subscription{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete subscription: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotSubscribed
	}
	return nil
}

// ListSubscriptions returns the authors userID follows with their newest recipes.
func (s *UserService) ListSubscriptions(ctx context.Context, userID uuid.UUID, recipesLimit int) ([]types.SubscriptionResponse, error) {
	var authors []models.User
	err := s.db.WithContext(ctx).
		Joins("JOIN subscriptions ON subscriptions.author_id = users.id").
		Where("subscriptions.user_id = ?", userID).
		Order("users.username ASC").
		Find(&authors).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	result := make([]types.SubscriptionResponse, 0, len(authors))
	for i := range authors {
		view, err := s.subscriptionView(ctx, &authors[i], recipesLimit)
		if err != nil {
			return nil, err
		}
		result = append(result, *view)
	}
	return result, nil
}

func (s *UserService) subscriptionView(ctx context.Context, author *models.User, recipesLimit int) (*types.SubscriptionResponse, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Recipe{}).Where("author_id = ?", author.ID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count recipes: %w", err)
	}

	query := s.db.WithContext(ctx).Where("author_id = ?", author.ID).Order("pub_date DESC")
	if recipesLimit > 0 {
		query = query.Limit(recipesLimit)
	}
	var recipes []models.Recipe
	if err := query.Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to load author recipes: %w", err)
	}

	short := make([]types.ShortRecipeResponse, len(recipes))
	for i := range recipes {
		short[i] = types.NewShortRecipeResponse(&recipes[i])
	}
	return &types.SubscriptionResponse{
		UserResponse: types.NewUserResponse(author, true),
		Recipes:      short,
		RecipesCount: count,
	}, nil
}

func (s *UserService) loadUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// subscribedAuthors returns the set of authors viewerID follows.
func (s *UserService) subscribedAuthors(ctx context.Context, viewerID uuid.UUID) (map[uuid.UUID]bool, error) {
	set := make(map[uuid.UUID]bool)
	if viewerID == uuid.Nil {
		return set, nil
	}
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("user_id = ?", viewerID).
		Pluck("author_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load subscriptions: %w", err)
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}
