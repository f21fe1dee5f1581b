package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const ingredientBatchSize = 100

// RecipeService handles recipe operations
type RecipeService struct {
	db *gorm.DB
}

// Ensure RecipeService implements IRecipeService
var _ IRecipeService = (*RecipeService)(nil)

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB) *RecipeService {
	return &RecipeService{db: db}
}

// CreateRecipe validates req and stores the recipe with its tags and
// ingredient rows in one transaction.
func (s *RecipeService) CreateRecipe(ctx context.Context, authorID uuid.UUID, req *types.RecipeRequest) (*types.RecipeResponse, error) {
	tags, err := s.validate(ctx, req)
	if err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		Name:        req.Name,
		AuthorID:    authorID,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		Image:       req.Image,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&recipe).Error; err != nil {
			return fmt.Errorf("failed to create recipe: %w", err)
		}
		return attachTagsAndIngredients(tx, &recipe, tags, req.Ingredients)
	})
	if err != nil {
		return nil, err
	}

	return s.GetRecipe(ctx, authorID, recipe.ID)
}

// GetRecipe retrieves a recipe by ID as seen by viewerID
func (s *RecipeService) GetRecipe(ctx context.Context, viewerID, id uuid.UUID) (*types.RecipeResponse, error) {
	var recipe models.Recipe
	if err := s.withDetails(s.db.WithContext(ctx)).First(&recipe, "recipes.id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}

	views, err := s.toResponses(ctx, viewerID, []models.Recipe{recipe})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// UpdateRecipe replaces the recipe's fields, tags and ingredient rows.
// Nothing is written when the payload is invalid.
func (s *RecipeService) UpdateRecipe(ctx context.Context, userID, id uuid.UUID, req *types.RecipeRequest) (*types.RecipeResponse, error) {
	recipe, err := s.loadOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	tags, err := s.validate(ctx, req)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"name":         req.Name,
		"text":         req.Text,
		"cooking_time": req.CookingTime,
	}
	if req.Image != "" {
		updates["image"] = req.Image
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(recipe).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update recipe: %w", err)
		}
		if err := tx.Model(recipe).Association("Tags").Clear(); err != nil {
			return fmt.Errorf("failed to clear recipe tags: %w", err)
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.IngredientInRecipe{}).Error; err != nil {
			return fmt.Errorf("failed to clear recipe ingredients: %w", err)
		}
		return attachTagsAndIngredients(tx, recipe, tags, req.Ingredients)
	})
	if err != nil {
		return nil, err
	}

	return s.GetRecipe(ctx, userID, id)
}

// DeleteRecipe deletes a recipe together with everything that references it
func (s *RecipeService) DeleteRecipe(ctx context.Context, userID, id uuid.UUID) error {
	recipe, err := s.loadOwned(ctx, userID, id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(recipe).Association("Tags").Clear(); err != nil {
			return fmt.Errorf("failed to clear recipe tags: %w", err)
		}
		for _, dependent := range []interface{}{
			&models.IngredientInRecipe{},
			&models.Favorite{},
			&models.ShoppingCartEntry{},
		} {
			if err := tx.Where("recipe_id = ?", recipe.ID).Delete(dependent).Error; err != nil {
				return fmt.Errorf("failed to delete recipe dependents: %w", err)
			}
		}
		if err := tx.Delete(recipe).Error; err != nil {
			return fmt.Errorf("failed to delete recipe: %w", err)
		}
		return nil
	})
}

// ListRecipes lists recipes newest first, narrowed by filters. The favorite
// and cart filters only apply to an authenticated viewer.
func (s *RecipeService) ListRecipes(ctx context.Context, viewerID uuid.UUID, filters *types.RecipeFilters) ([]types.RecipeResponse, error) {
	query := s.withDetails(s.db.WithContext(ctx))

	if filters != nil {
		if filters.AuthorID != nil {
			query = query.Where("recipes.author_id = ?", *filters.AuthorID)
		}
		if len(filters.TagSlugs) > 0 {
			tagged := s.db.Table("recipe_tags").
				Select("recipe_tags.recipe_id").
				Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
				Where("tags.slug IN ?", filters.TagSlugs)
			query = query.Where("recipes.id IN (?)", tagged)
		}
		if filters.IsFavorited && viewerID != uuid.Nil {
			favorited := s.db.Model(&models.Favorite{}).Select("recipe_id").Where("user_id = ?", viewerID)
			query = query.Where("recipes.id IN (?)", favorited)
		}
		if filters.IsInShoppingCart && viewerID != uuid.Nil {
			inCart := s.db.Model(&models.ShoppingCartEntry{}).Select("recipe_id").Where("user_id = ?", viewerID)
			query = query.Where("recipes.id IN (?)", inCart)
		}
	}

	var recipes []models.Recipe
	if err := query.Order("recipes.pub_date DESC").Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	return s.toResponses(ctx, viewerID, recipes)
}

func (s *RecipeService) withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name ASC") }).
		Preload("Ingredients.Ingredient")
}

func (s *RecipeService) loadOwned(ctx context.Context, userID, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}
	if recipe.AuthorID != userID {
		return nil, ErrForbidden
	}
	return &recipe, nil
}

// validate runs the payload checks and then resolves tag and ingredient
// references, returning the referenced tags.
func (s *RecipeService) validate(ctx context.Context, req *types.RecipeRequest) ([]models.Tag, error) {
	verr := ValidateRecipe(req)
	if verr.HasErrors() {
		return nil, verr
	}

	var tags []models.Tag
	if err := s.db.WithContext(ctx).Where("id IN ?", req.Tags).Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}
	found := make(map[uuid.UUID]bool, len(tags))
	for _, t := range tags {
		found[t.ID] = true
	}
	for _, id := range req.Tags {
		if !found[id] {
			verr.Add("tags", fmt.Sprintf("tag %s does not exist", id))
		}
	}

	ingredientIDs := make([]uuid.UUID, len(req.Ingredients))
	for i, item := range req.Ingredients {
		ingredientIDs[i] = item.ID
	}
	var existing []uuid.UUID
	if err := s.db.WithContext(ctx).Model(&models.Ingredient{}).Where("id IN ?", ingredientIDs).Pluck("id", &existing).Error; err != nil {
		return nil, fmt.Errorf("failed to load ingredients: %w", err)
	}
	known := make(map[uuid.UUID]bool, len(existing))
	for _, id := range existing {
		known[id] = true
	}
	for _, id := range ingredientIDs {
		if !known[id] {
			verr.Add("ingredients", fmt.Sprintf("ingredient %s does not exist", id))
		}
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return tags, nil
}

func attachTagsAndIngredients(tx *gorm.DB, recipe *models.Recipe, tags []models.Tag, items []types.IngredientAmount) error {
	if err := tx.Model(recipe).Association("Tags").Append(tags); err != nil {
		return fmt.Errorf("failed to attach tags: %w", err)
	}

	rows := make([]models.IngredientInRecipe, len(items))
	for i, item := range items {
		rows[i] = models.IngredientInRecipe{
			RecipeID:     recipe.ID,
			IngredientID: item.ID,
			Amount:       item.Amount,
		}
	}
	if err := tx.Omit(clause.Associations).CreateInBatches(&rows, ingredientBatchSize).Error; err != nil {
		return fmt.Errorf("failed to add recipe ingredients: %w", err)
	}
	return nil
}

// toResponses converts recipes into views, resolving the viewer-relative
// flags with one query per flag.
func (s *RecipeService) toResponses(ctx context.Context, viewerID uuid.UUID, recipes []models.Recipe) ([]types.RecipeResponse, error) {
	favorited := map[uuid.UUID]bool{}
	inCart := map[uuid.UUID]bool{}
	subscribed := map[uuid.UUID]bool{}

	if viewerID != uuid.Nil && len(recipes) > 0 {
		recipeIDs := make([]uuid.UUID, len(recipes))
		authorIDs := make([]uuid.UUID, len(recipes))
		for i := range recipes {
			recipeIDs[i] = recipes[i].ID
			authorIDs[i] = recipes[i].AuthorID
		}

		var err error
		if favorited, err = s.pluckSet(ctx, &models.Favorite{}, "recipe_id", viewerID, recipeIDs); err != nil {
			return nil, err
		}
		if inCart, err = s.pluckSet(ctx, &models.ShoppingCartEntry{}, "recipe_id", viewerID, recipeIDs); err != nil {
			return nil, err
		}
		if subscribed, err = s.pluckSet(ctx, &models.Subscription{}, "author_id", viewerID, authorIDs); err != nil {
			return nil, err
		}
	}

	views := make([]types.RecipeResponse, len(recipes))
	for i := range recipes {
		r := &recipes[i]
		ingredients := make([]types.RecipeIngredientResponse, len(r.Ingredients))
		for j, item := range r.Ingredients {
			ingredients[j] = types.RecipeIngredientResponse{
				ID:              item.IngredientID,
				Name:            item.Ingredient.Name,
				MeasurementUnit: item.Ingredient.MeasurementUnit,
				Amount:          item.Amount,
			}
		}
		sort.Slice(ingredients, func(a, b int) bool { return ingredients[a].Name < ingredients[b].Name })

		tags := r.Tags
		if tags == nil {
			tags = []models.Tag{}
		}
		views[i] = types.RecipeResponse{
			ID:               r.ID,
			Tags:             tags,
			Author:           types.NewUserResponse(&r.Author, subscribed[r.AuthorID]),
			Ingredients:      ingredients,
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			Name:             r.Name,
			Image:            r.Image,
			Text:             r.Text,
			CookingTime:      r.CookingTime,
			PubDate:          r.PubDate,
		}
	}
	return views, nil
}

func (s *RecipeService) pluckSet(ctx context.Context, model interface{}, column string, userID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	var matched []uuid.UUID
	err := s.db.WithContext(ctx).Model(model).
		Where("user_id = ? AND "+column+" IN ?", userID, ids).
		Pluck(column, &matched).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load %s flags: %w", column, err)
	}
	set := make(map[uuid.UUID]bool, len(matched))
	for _, id := range matched {
		set[id] = true
	}
	return set, nil
}
