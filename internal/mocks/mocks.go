// Package mocks holds testify mocks of the service interfaces for handler tests.
package mocks

import "github.com/pageza/foodgram/backend/internal/service"

var (
	_ service.IAuthService       = (*MockAuthService)(nil)
	_ service.IUserService       = (*MockUserService)(nil)
	_ service.IRecipeService     = (*MockRecipeService)(nil)
	_ service.ICollectionService = (*MockCollectionService)(nil)
	_ service.ICatalogService    = (*MockCatalogService)(nil)
)
