package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ShoppingListHeader is the first line of a rendered shopping list
const ShoppingListHeader = "Shopping list:"

// CollectionService manages favorites and the shopping cart
type CollectionService struct {
	db *gorm.DB
}

// Ensure CollectionService implements ICollectionService
var _ ICollectionService = (*CollectionService)(nil)

func NewCollectionService(db *gorm.DB) *CollectionService {
	return &CollectionService{db: db}
}

func (s *CollectionService) AddFavorite(ctx context.Context, userID, recipeID uuid.UUID) (*types.ShortRecipeResponse, error) {
	return s.add(ctx, &models.Favorite{UserID: userID, RecipeID: recipeID}, recipeID, ErrAlreadyFavorited)
}

func (s *CollectionService) RemoveFavorite(ctx context.Context, userID, recipeID uuid.UUID) error {
	return s.remove(ctx, &models.Favorite{}, userID, recipeID, ErrNotFavorited)
}

func (s *CollectionService) AddToCart(ctx context.Context, userID, recipeID uuid.UUID) (*types.ShortRecipeResponse, error) {
	return s.add(ctx, &models.ShoppingCartEntry{UserID: userID, RecipeID: recipeID}, recipeID, ErrAlreadyInCart)
}

func (s *CollectionService) RemoveFromCart(ctx context.Context, userID, recipeID uuid.UUID) error {
	return s.remove(ctx, &models.ShoppingCartEntry{}, userID, recipeID, ErrNotInCart)
}

// ShoppingList sums ingredient amounts over every recipe in the user's cart,
// one line per (name, measurement unit), ordered by name.
func (s *CollectionService) ShoppingList(ctx context.Context, userID uuid.UUID) ([]types.ShoppingListItem, error) {
	var items []types.ShoppingListItem
	err := s.db.WithContext(ctx).
		Table("recipe_ingredients AS ir").
		Select("i.name AS name, i.measurement_unit AS measurement_unit, SUM(ir.amount) AS amount").
		Joins("JOIN ingredients AS i ON i.id = ir.ingredient_id").
		Joins("JOIN shopping_carts AS sc ON sc.recipe_id = ir.recipe_id").
		Where("sc.user_id = ?", userID).
		Group("i.name, i.measurement_unit").
		Order("i.name ASC, i.measurement_unit ASC").
		Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to build shopping list: %w", err)
	}
	return items, nil
}

// RenderShoppingList formats items as the downloadable text document
func RenderShoppingList(items []types.ShoppingListItem) string {
	var b strings.Builder
	b.WriteString(ShoppingListHeader)
	b.WriteString("\n")
	for _, item := range items {
		fmt.Fprintf(&b, "%s - %d, %s\n", item.Name, item.Amount, item.MeasurementUnit)
	}
	return b.String()
}

// add inserts entry and relies on the (user, recipe) unique index so that
// concurrent duplicates collapse into a single row.
func (s *CollectionService) add(ctx context.Context, entry interface{}, recipeID uuid.UUID, errExists error) (*types.ShortRecipeResponse, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}

	result := s.db.WithContext(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(entry)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, errExists
		}
		return nil, fmt.Errorf("failed to add recipe: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, errExists
	}

	short := types.NewShortRecipeResponse(&recipe)
	return &short, nil
}

func (s *CollectionService) remove(ctx context.Context, model interface{}, userID, recipeID uuid.UUID, errMissing error) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Recipe{}).Where("id = ?", recipeID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to load recipe: %w", err)
	}
	if count == 0 {
		return ErrRecipeNotFound
	}

	result := s.db.WithContext(ctx).Where("user_id = ? AND recipe_id = ?", userID, recipeID).Delete(model)
	if result.Error != nil {
		return fmt.Errorf("failed to remove recipe: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errMissing
	}
	return nil
}
