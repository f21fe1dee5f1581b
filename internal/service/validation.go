package service

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/types"
)

const (
	// Upper bounds keep values inside the integer columns they are stored in
	maxCookingTime = math.MaxInt16
	maxAmount      = math.MaxInt32

	maxRecipeNameLength = 200
	maxUsernameLength   = 150
	reservedUsername    = "me"
)

var usernameAllowed = regexp.MustCompile(`[\p{L}\p{N}_.@+-]`)

// ValidateUsername rejects the reserved name "me" and any character outside
// letters, digits and . @ + - _.
func ValidateUsername(username string) error {
	if username == reservedUsername {
		return fmt.Errorf("username %q is not allowed", reservedUsername)
	}
	if utf8.RuneCountInString(username) > maxUsernameLength {
		return fmt.Errorf("username must be at most %d characters", maxUsernameLength)
	}
	if bad := usernameAllowed.ReplaceAllString(username, ""); bad != "" {
		return fmt.Errorf("username contains forbidden characters: %s", uniqueRunes(bad))
	}
	return nil
}

func uniqueRunes(s string) string {
	seen := make(map[rune]struct{})
	var out []rune
	for _, r := range s {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return string(out)
}

// ValidateRecipe checks the shape of a recipe payload. It does not touch the
// database; references to tags and ingredients are checked by RecipeService.
func ValidateRecipe(req *types.RecipeRequest) *ValidationError {
	verr := NewValidationError()

	if strings.TrimSpace(req.Name) == "" {
		verr.Add("name", "this field may not be blank")
	} else if utf8.RuneCountInString(req.Name) > maxRecipeNameLength {
		verr.Add("name", fmt.Sprintf("ensure this field has no more than %d characters", maxRecipeNameLength))
	}
	if strings.TrimSpace(req.Text) == "" {
		verr.Add("text", "this field may not be blank")
	}
	if req.CookingTime <= 0 {
		verr.Add("cooking_time", "cooking time must be at least 1 minute")
	} else if req.CookingTime > maxCookingTime {
		verr.Add("cooking_time", fmt.Sprintf("cooking time must be at most %d minutes", maxCookingTime))
	}

	if len(req.Ingredients) == 0 {
		verr.Add("ingredients", "ingredient list may not be empty")
	} else {
		seen := make(map[uuid.UUID]struct{}, len(req.Ingredients))
		for _, item := range req.Ingredients {
			if _, dup := seen[item.ID]; dup {
				verr.Add("ingredients", fmt.Sprintf("ingredient %s is listed more than once", item.ID))
			}
			seen[item.ID] = struct{}{}
			if item.Amount <= 0 {
				verr.Add("ingredients", fmt.Sprintf("amount of ingredient %s must be greater than 0", item.ID))
			} else if item.Amount > maxAmount {
				verr.Add("ingredients", fmt.Sprintf("amount of ingredient %s must be at most %d", item.ID, maxAmount))
			}
		}
	}

	if len(req.Tags) == 0 {
		verr.Add("tags", "tag list may not be empty")
	} else {
		seen := make(map[uuid.UUID]struct{}, len(req.Tags))
		for _, id := range req.Tags {
			if _, dup := seen[id]; dup {
				verr.Add("tags", fmt.Sprintf("tag %s is listed more than once", id))
			}
			seen[id] = struct{}{}
		}
	}

	return verr
}
