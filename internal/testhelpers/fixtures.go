package testhelpers

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
)

// TestPassword is the password of every user created by CreateUser
const TestPassword = "password123"

func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Username:     username,
		Email:        strings.ToLower(username) + "@example.com",
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: string(hash),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func CreateTag(t *testing.T, db *gorm.DB, name, color, slug string) *models.Tag {
	t.Helper()
	tag := &models.Tag{Name: name, Color: color, Slug: slug}
	require.NoError(t, db.Create(tag).Error)
	return tag
}

func CreateIngredient(t *testing.T, db *gorm.DB, name, unit string) *models.Ingredient {
	t.Helper()
	ingredient := &models.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(t, db.Create(ingredient).Error)
	return ingredient
}

// RecipeFixture describes a recipe inserted directly, bypassing validation
type RecipeFixture struct {
	Name    string
	PubDate time.Time
	Tags    []*models.Tag
	Amounts map[*models.Ingredient]int
}

func CreateRecipe(t *testing.T, db *gorm.DB, author *models.User, f RecipeFixture) *models.Recipe {
	t.Helper()
	recipe := &models.Recipe{
		Name:        f.Name,
		PubDate:     f.PubDate,
		AuthorID:    author.ID,
		Text:        "Mix and bake.",
		CookingTime: 10,
	}
	require.NoError(t, db.Omit("Author", "Tags", "Ingredients").Create(recipe).Error)

	if len(f.Tags) > 0 {
		tags := make([]models.Tag, len(f.Tags))
		for i, tag := range f.Tags {
			tags[i] = *tag
		}
		require.NoError(t, db.Model(recipe).Association("Tags").Append(tags))
	}
	for ingredient, amount := range f.Amounts {
		row := &models.IngredientInRecipe{
			RecipeID:     recipe.ID,
			IngredientID: ingredient.ID,
			Amount:       amount,
		}
		require.NoError(t, db.Omit("Recipe", "Ingredient").Create(row).Error)
	}
	return recipe
}
