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
)

func TestListIngredientsByPrefix(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewCatalogService(db)
	ctx := context.Background()

	for _, name := range []string{"Sugar", "salt", "sour cream", "flour", "100% juice"} {
		testhelpers.CreateIngredient(t, db, name, "g")
	}

	ingredients, err := svc.ListIngredients(ctx, "S")
	require.NoError(t, err)
	names := make([]string, len(ingredients))
	for i, ing := range ingredients {
		names[i] = ing.Name
	}
	assert.ElementsMatch(t, []string{"Sugar", "salt", "sour cream"}, names)

	ingredients, err = svc.ListIngredients(ctx, "")
	require.NoError(t, err)
	assert.Len(t, ingredients, 5)

	ingredients, err = svc.ListIngredients(ctx, "100%")
	require.NoError(t, err)
	require.Len(t, ingredients, 1)

	ingredients, err = svc.ListIngredients(ctx, "%")
	require.NoError(t, err)
	assert.Empty(t, ingredients)
}

func TestTagsAndIngredientLookup(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewCatalogService(db)
	ctx := context.Background()

	lunch := testhelpers.CreateTag(t, db, "Lunch", models.ColorGreen, "lunch")
	testhelpers.CreateTag(t, db, "Breakfast", models.ColorOrange, "breakfast")
	salt := testhelpers.CreateIngredient(t, db, "salt", "g")

	tags, err := svc.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "Breakfast", tags[0].Name)

	tag, err := svc.GetTag(ctx, lunch.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ColorGreen, tag.Color)
	_, err = svc.GetTag(ctx, uuid.New())
	assert.ErrorIs(t, err, service.ErrTagNotFound)

	ingredient, err := svc.GetIngredient(ctx, salt.ID)
	require.NoError(t, err)
	assert.Equal(t, "salt", ingredient.Name)
	_, err = svc.GetIngredient(ctx, uuid.New())
	assert.ErrorIs(t, err, service.ErrIngredientNotFound)
}

func TestImportIsIdempotent(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewCatalogService(db)
	ctx := context.Background()

	batch := func() []models.Ingredient {
		return []models.Ingredient{
			{Name: "flour", MeasurementUnit: "g"},
			{Name: "milk", MeasurementUnit: "ml"},
		}
	}
	created, err := svc.ImportIngredients(ctx, batch())
	require.NoError(t, err)
	assert.Equal(t, int64(2), created)

	created, err = svc.ImportIngredients(ctx, batch())
	require.NoError(t, err)
	assert.Zero(t, created)

	tagsCreated, err := svc.ImportTags(ctx, []models.Tag{{Name: "Dinner", Slug: "dinner"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), tagsCreated)

	var tag models.Tag
	require.NoError(t, db.First(&tag, "slug = ?", "dinner").Error)
	assert.Equal(t, models.ColorBlue, tag.Color)
}
