// Package domain defines the core types and interfaces for culina.
// All other packages depend on domain; domain depends on nothing.
package domain

import (
	"strconv"
	"strings"
	"time"
)

// UserRecipePrefix marks a unified recipe ID as user-authored.
// Catalog IDs are assumed never to start with it.
const UserRecipePrefix = "user_"

// Recipe is the uniform recipe view shared by catalog and user-authored
// recipes. Empty strings stand for absent optional fields.
type Recipe struct {
	ID           string // unified ID: catalog ID or "user_<localID>"
	Name         string
	Category     string
	Area         string
	Instructions string
	ThumbnailURL string
	Ingredients  []Ingredient
	Tags         []string
}

// IsUserRecipe reports whether the recipe originates from the local store.
func (r Recipe) IsUserRecipe() bool { return IsUserRecipeID(r.ID) }

// Ingredient is one ingredient line with its free-form measure.
type Ingredient struct {
	Name    string
	Measure string // "1 cup", "2 tbsp", ""
}

// Favorite is a snapshot of a recipe the user saved. It is a copy, not a
// reference, so it survives the source recipe disappearing.
type Favorite struct {
	ID           string
	Title        string
	ThumbnailURL string
	Category     string
	Area         string
	Instructions string
	SavedAt      time.Time
}

// UserRecipe is a locally authored recipe. LocalID is assigned by the
// store on create and never changes afterwards.
type UserRecipe struct {
	LocalID      int64
	Title        string
	Category     string
	Area         string
	Instructions string
	ThumbnailURI string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UnifiedID returns the recipe's ID in the shared namespace.
func (u UserRecipe) UnifiedID() string { return UserRecipeID(u.LocalID) }

// UserRecipeFields is the payload for creating a user recipe.
type UserRecipeFields struct {
	Title        string
	Category     string
	Area         string
	Instructions string
	ThumbnailURI string
}

// Category is a catalog category. Read-only, never persisted.
type Category struct {
	ID           string
	Name         string
	ThumbnailURL string
	Description  string
}

// UserRecipeID builds the unified ID for a local recipe.
func UserRecipeID(localID int64) string {
	return UserRecipePrefix + strconv.FormatInt(localID, 10)
}

// IsUserRecipeID reports whether id carries the user-recipe prefix.
func IsUserRecipeID(id string) bool {
	return strings.HasPrefix(id, UserRecipePrefix)
}

// ParseUserRecipeID splits a unified ID.
//
// For catalog IDs it returns (0, false, nil). For "user_<n>" with n a
// non-negative decimal integer it returns (n, true, nil). When the prefix is
// present but the remainder is not a valid integer it returns
// (0, true, ErrMalformedID).
func ParseUserRecipeID(id string) (int64, bool, error) {
	if !IsUserRecipeID(id) {
		return 0, false, nil
	}
	rest := strings.TrimPrefix(id, UserRecipePrefix)
	if rest == "" || strings.HasPrefix(rest, "+") || strings.HasPrefix(rest, "-") {
		return 0, true, ErrMalformedID
	}
	n, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, true, ErrMalformedID
	}
	return n, true, nil
}
