package api

import (
	"context"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
)

// Deps carries everything the HTTP layer needs
type Deps struct {
	Auth          service.IAuthService
	Users         service.IUserService
	Recipes       service.IRecipeService
	Collections   service.ICollectionService
	Catalog       service.ICatalogService
	RecipeLimiter *middleware.RateLimiter
	HealthCheck   func(ctx context.Context) error
	Logger        *zap.Logger
}

// RegisterRoutes mounts the health check and the /api tree on router
func RegisterRoutes(router *gin.Engine, deps Deps) {
	registerValidators()
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	router.GET("/health", healthHandler(deps.HealthCheck))

	group := router.Group("/api")
	NewUserHandler(deps.Auth, deps.Users, deps.Logger).RegisterRoutes(group)
	NewAuthHandler(deps.Auth, deps.Logger).RegisterRoutes(group)
	NewCatalogHandler(deps.Catalog, deps.Logger).RegisterRoutes(group)
	NewRecipeHandler(deps.Auth, deps.Recipes, deps.Collections, deps.RecipeLimiter, deps.Logger).RegisterRoutes(group)
}

func healthHandler(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			if err := check(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

var registerOnce sync.Once

// registerValidators reports binding errors under JSON field names and adds
// the "username" rule.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return service.ValidateUsername(fl.Field().String()) == nil
		})
	})
}

// pathID parses the :id route parameter, answering 404 when it is not a uuid
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return uuid.Nil, false
	}
	return id, true
}

// queryFlag reads boolean filters written as 1/0 or true/false
func queryFlag(c *gin.Context, key string) bool {
	v, err := strconv.ParseBool(c.Query(key))
	return err == nil && v
}

// recipesLimit reads ?recipes_limit, where 0 means no limit
func recipesLimit(c *gin.Context) (int, bool) {
	raw := c.Query("recipes_limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"fields": gin.H{"recipes_limit": []string{"must be a non-negative integer"}},
		})
		return 0, false
	}
	return n, true
}
