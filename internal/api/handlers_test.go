package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/mocks"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

func newMockRouter(deps Deps) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	RegisterRoutes(router, deps)
	return router
}

func serve(router *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestListRecipesPassesFilters(t *testing.T) {
	viewer := uuid.New()
	author := uuid.New()

	auth := new(mocks.MockAuthService)
	auth.On("ValidateToken", mock.Anything, "valid").
		Return(&types.TokenClaims{UserID: viewer, Username: "viewer"}, nil)

	recipes := new(mocks.MockRecipeService)
	recipes.On("ListRecipes", mock.Anything, viewer, &types.RecipeFilters{
		AuthorID:    &author,
		TagSlugs:    []string{"breakfast", "lunch"},
		IsFavorited: true,
	}).Return([]types.RecipeResponse{}, nil)

	router := newMockRouter(Deps{Auth: auth, Recipes: recipes})
	w := serve(router, http.MethodGet,
		"/api/recipes?tags=breakfast&tags=lunch&is_favorited=1&is_in_shopping_cart=0&author="+author.String(), "valid")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":0,"results":[]}`, w.Body.String())
	recipes.AssertExpectations(t)
	auth.AssertExpectations(t)
}

func TestInvalidTokenOnPublicEndpoint(t *testing.T) {
	auth := new(mocks.MockAuthService)
	auth.On("ValidateToken", mock.Anything, "stale").Return(nil, service.ErrInvalidToken)
	recipes := new(mocks.MockRecipeService)

	router := newMockRouter(Deps{Auth: auth, Recipes: recipes})
	w := serve(router, http.MethodGet, "/api/recipes", "stale")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	recipes.AssertNotCalled(t, "ListRecipes", mock.Anything, mock.Anything, mock.Anything)
}

func TestUnexpectedErrorsAreHidden(t *testing.T) {
	userID := uuid.New()
	auth := new(mocks.MockAuthService)
	auth.On("ValidateToken", mock.Anything, "valid").
		Return(&types.TokenClaims{UserID: userID, Username: "cook"}, nil)

	collections := new(mocks.MockCollectionService)
	collections.On("ShoppingList", mock.Anything, userID).Return(nil, assert.AnError)

	router := newMockRouter(Deps{Auth: auth, Collections: collections})
	w := serve(router, http.MethodGet, "/api/recipes/download_shopping_cart", "valid")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
	collections.AssertExpectations(t)
}

func TestCreateRecipeIsRateLimited(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	userID := uuid.New()
	auth := new(mocks.MockAuthService)
	auth.On("ValidateToken", mock.Anything, "valid").
		Return(&types.TokenClaims{UserID: userID, Username: "cook"}, nil)

	recipes := new(mocks.MockRecipeService)
	recipes.On("CreateRecipe", mock.Anything, userID, mock.AnythingOfType("*types.RecipeRequest")).
		Return(&types.RecipeResponse{ID: uuid.New(), Name: "Bread", Author: types.UserResponse{ID: userID}}, nil).
		Once()

	router := newMockRouter(Deps{
		Auth:          auth,
		Recipes:       recipes,
		RecipeLimiter: middleware.NewRecipeCreationRateLimiter(client, 1, zap.NewNop()),
	})

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/recipes", strings.NewReader(`{"name":"Bread"}`))
		req.Header.Set("Authorization", "Bearer valid")
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := post()
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = post()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	recipes.AssertNumberOfCalls(t, "CreateRecipe", 1)
}

func TestUserHandlersWithMocks(t *testing.T) {
	viewer := uuid.New()
	author := uuid.New()

	auth := new(mocks.MockAuthService)
	auth.On("ValidateToken", mock.Anything, "valid").
		Return(&types.TokenClaims{UserID: viewer, Username: "viewer"}, nil)

	users := new(mocks.MockUserService)
	users.On("ListUsers", mock.Anything, uuid.Nil).Return(nil, assert.AnError)
	users.On("Subscribe", mock.Anything, viewer, author, 3).
		Return(&types.SubscriptionResponse{
			UserResponse: types.UserResponse{ID: author, Username: "author", IsSubscribed: true},
			Recipes:      []types.ShortRecipeResponse{},
			RecipesCount: 5,
		}, nil)
	users.On("ListSubscriptions", mock.Anything, viewer, 0).Return([]types.SubscriptionResponse{}, nil)

	router := newMockRouter(Deps{Auth: auth, Users: users})

	w := serve(router, http.MethodGet, "/api/users", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())

	w = serve(router, http.MethodPost, "/api/users/"+author.String()+"/subscribe?recipes_limit=3", "valid")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"recipes_count":5`)

	w = serve(router, http.MethodGet, "/api/users/subscriptions", "valid")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":0,"results":[]}`, w.Body.String())

	users.AssertExpectations(t)
}

func TestCatalogHandlersWithMocks(t *testing.T) {
	tagID := uuid.New()
	catalog := new(mocks.MockCatalogService)
	catalog.On("ListIngredients", mock.Anything, "sug").
		Return([]models.Ingredient{{ID: uuid.New(), Name: "sugar", MeasurementUnit: "g"}}, nil)
	catalog.On("GetTag", mock.Anything, tagID).Return(nil, service.ErrTagNotFound)

	router := newMockRouter(Deps{Catalog: catalog})

	w := serve(router, http.MethodGet, "/api/ingredients?name=sug", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = serve(router, http.MethodGet, "/api/tags/"+tagID.String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"not found"}`, w.Body.String())

	catalog.AssertExpectations(t)
}

func TestHealth(t *testing.T) {
	router := newMockRouter(Deps{HealthCheck: func(context.Context) error { return assert.AnError }})
	w := serve(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	router = newMockRouter(Deps{})
	w = serve(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
