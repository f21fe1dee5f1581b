package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

func TestAddFavoriteTwiceKeepsOneRow(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewCollectionService(db)
	ctx := context.Background()

	user := testhelpers.CreateUser(t, db, "user")
	recipe := testhelpers.CreateRecipe(t, db, user, testhelpers.RecipeFixture{Name: "Toast"})

	short, err := svc.AddFavorite(ctx, user.ID, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ShortRecipeResponse{ID: recipe.ID, Name: "Toast", CookingTime: 10}, *short)

	_, err = svc.AddFavorite(ctx, user.ID, recipe.ID)
	assert.ErrorIs(t, err, service.ErrAlreadyFavorited)
	assert.Equal(t, int64(1), countRows(t, db, &models.Favorite{}))
}

func TestRemoveMissingFavorite(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewCollectionService(db)
	ctx := context.Background()

	user := testhelpers.CreateUser(t, db, "user")
	recipe := testhelpers.CreateRecipe(t, db, user, testhelpers.RecipeFixture{Name: "Toast"})

	err := svc.RemoveFavorite(ctx, user.ID, recipe.ID)
	assert.ErrorIs(t, err, service.ErrNotFavorited)

	err = svc.RemoveFavorite(ctx, user.ID, uuid.New())
	assert.ErrorIs(t, err, service.ErrRecipeNotFound)

	_, err = svc.AddFavorite(ctx, user.ID, uuid.New())
	assert.ErrorIs(t, err, service.ErrRecipeNotFound)
}

func TestShoppingCartToggle(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewCollectionService(db)
	ctx := context.Background()

	user := testhelpers.CreateUser(t, db, "user")
	recipe := testhelpers.CreateRecipe(t, db, user, testhelpers.RecipeFixture{Name: "Toast"})

	_, err := svc.AddToCart(ctx, user.ID, recipe.ID)
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, user.ID, recipe.ID)
	assert.ErrorIs(t, err, service.ErrAlreadyInCart)

	require.NoError(t, svc.RemoveFromCart(ctx, user.ID, recipe.ID))
	assert.ErrorIs(t, svc.RemoveFromCart(ctx, user.ID, recipe.ID), service.ErrNotInCart)
	assert.Zero(t, countRows(t, db, &models.ShoppingCartEntry{}))
}

func TestShoppingListAggregatesCart(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewCollectionService(db)
	ctx := context.Background()

	user := testhelpers.CreateUser(t, db, "user")
	stranger := testhelpers.CreateUser(t, db, "stranger")
	flour := testhelpers.CreateIngredient(t, db, "flour", "g")
	sugar := testhelpers.CreateIngredient(t, db, "sugar", "g")
	flourCups := testhelpers.CreateIngredient(t, db, "flour", "cup")

	r1 := testhelpers.CreateRecipe(t, db, user, testhelpers.RecipeFixture{
		Name:    "Bread",
		Amounts: map[*models.Ingredient]int{flour: 200},
	})
	r2 := testhelpers.CreateRecipe(t, db, user, testhelpers.RecipeFixture{
		Name:    "Cake",
		Amounts: map[*models.Ingredient]int{flour: 100, sugar: 50},
	})
	r3 := testhelpers.CreateRecipe(t, db, user, testhelpers.RecipeFixture{
		Name:    "Pie",
		Amounts: map[*models.Ingredient]int{flourCups: 2},
	})

	for _, r := range []*models.Recipe{r1, r2} {
		_, err := svc.AddToCart(ctx, user.ID, r.ID)
		require.NoError(t, err)
	}
	// Another user's cart must not leak in
	_, err := svc.AddToCart(ctx, stranger.ID, r3.ID)
	require.NoError(t, err)

	items, err := svc.ShoppingList(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []types.ShoppingListItem{
		{Name: "flour", MeasurementUnit: "g", Amount: 300},
		{Name: "sugar", MeasurementUnit: "g", Amount: 50},
	}, items)

	assert.Equal(t, "Shopping list:\nflour - 300, g\nsugar - 50, g\n", service.RenderShoppingList(items))

	// Same name, different unit stays separate
	_, err = svc.AddToCart(ctx, user.ID, r3.ID)
	require.NoError(t, err)
	items, err = svc.ShoppingList(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestShoppingListEmptyCart(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewCollectionService(db)
	user := testhelpers.CreateUser(t, db, "user")

	items, err := svc.ShoppingList(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, "Shopping list:\n", service.RenderShoppingList(items))
}
