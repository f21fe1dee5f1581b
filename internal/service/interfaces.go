package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Register(ctx context.Context, req *types.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context, claims *types.TokenClaims) error
	ValidateToken(ctx context.Context, token string) (*types.TokenClaims, error)
	GenerateToken(claims *types.TokenClaims) (string, error)
	SetPassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error
}

// IUserService defines the interface for user and subscription operations.
// viewerID is uuid.Nil for anonymous requests.
type IUserService interface {
	GetUser(ctx context.Context, viewerID, userID uuid.UUID) (*types.UserResponse, error)
	ListUsers(ctx context.Context, viewerID uuid.UUID) ([]types.UserResponse, error)
	Subscribe(ctx context.Context, userID, authorID uuid.UUID, recipesLimit int) (*types.SubscriptionResponse, error)
	Unsubscribe(ctx context.Context, userID, authorID uuid.UUID) error
	ListSubscriptions(ctx context.Context, userID uuid.UUID, recipesLimit int) ([]types.SubscriptionResponse, error)
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	CreateRecipe(ctx context.Context, authorID uuid.UUID, req *types.RecipeRequest) (*types.RecipeResponse, error)
	GetRecipe(ctx context.Context, viewerID, id uuid.UUID) (*types.RecipeResponse, error)
	UpdateRecipe(ctx context.Context, userID, id uuid.UUID, req *types.RecipeRequest) (*types.RecipeResponse, error)
	DeleteRecipe(ctx context.Context, userID, id uuid.UUID) error
	ListRecipes(ctx context.Context, viewerID uuid.UUID, filters *types.RecipeFilters) ([]types.RecipeResponse, error)
}

// ICollectionService covers the favorite and shopping-cart toggles and the
// shopping list derived from the cart
type ICollectionService interface {
	AddFavorite(ctx context.Context, userID, recipeID uuid.UUID) (*types.ShortRecipeResponse, error)
	RemoveFavorite(ctx context.Context, userID, recipeID uuid.UUID) error
	AddToCart(ctx context.Context, userID, recipeID uuid.UUID) (*types.ShortRecipeResponse, error)
	RemoveFromCart(ctx context.Context, userID, recipeID uuid.UUID) error
	ShoppingList(ctx context.Context, userID uuid.UUID) ([]types.ShoppingListItem, error)
}

// ICatalogService exposes the read-only tag and ingredient catalogs
type ICatalogService interface {
	ListTags(ctx context.Context) ([]models.Tag, error)
	GetTag(ctx context.Context, id uuid.UUID) (*models.Tag, error)
	ListIngredients(ctx context.Context, namePrefix string) ([]models.Ingredient, error)
	GetIngredient(ctx context.Context, id uuid.UUID) (*models.Ingredient, error)
}
