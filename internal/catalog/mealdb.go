// Package catalog provides remote recipe catalog implementations.
package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/hammamikhairi/culina/internal/domain"
	"github.com/hammamikhairi/culina/internal/logger"
)

// Compile-time interface check.
var _ domain.Catalog = (*MealDB)(nil)

// DefaultBaseURL is TheMealDB v1 API with the public test key.
const DefaultBaseURL = "https://www.themealdb.com/api/json/v1/1"

// maxBodySize caps catalog responses; the largest real payload
// (categories.php) is well under 100 KB.
const maxBodySize = 4 * 1024 * 1024

// maxIngredients is the number of strIngredientN/strMeasureN slots TheMealDB
// exposes per meal.
const maxIngredients = 20

// ClientOption configures the MealDB client.
type ClientOption func(*MealDB)

// WithBaseURL overrides the API root (used by tests and self-hosted mirrors).
func WithBaseURL(base string) ClientOption {
	return func(c *MealDB) { c.baseURL = strings.TrimRight(base, "/") }
}

// WithHTTPTimeout sets the HTTP client timeout.
func WithHTTPTimeout(d time.Duration) ClientOption {
	return func(c *MealDB) { c.http.Timeout = d }
}

// WithHTTPClient replaces the HTTP client entirely.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *MealDB) { c.http = hc }
}

// MealDB talks to TheMealDB JSON API. Every method is fail-soft: transport,
// status and decode failures are logged and come back as empty results.
type MealDB struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

// NewMealDB creates a catalog client.
func NewMealDB(log *logger.Logger, opts ...ClientOption) *MealDB {
	c := &MealDB{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     log,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SearchByName queries search.php?s=.
func (c *MealDB) SearchByName(ctx context.Context, query string) ([]domain.Recipe, error) {
	c.log.Debug("catalog: searching for %q", query)
	return c.meals(ctx, "search.php", url.Values{"s": {query}}), nil
}

// FilterByIngredient queries filter.php?i=. Results carry only ID, name and
// thumbnail.
func (c *MealDB) FilterByIngredient(ctx context.Context, ingredient string) ([]domain.Recipe, error) {
	c.log.Debug("catalog: filtering by ingredient %q", ingredient)
	return c.meals(ctx, "filter.php", url.Values{"i": {ingredient}}), nil
}

// FilterByCategory queries filter.php?c=. Results carry only ID, name and
// thumbnail; the category is filled in from the query.
func (c *MealDB) FilterByCategory(ctx context.Context, category string) ([]domain.Recipe, error) {
	c.log.Debug("catalog: filtering by category %q", category)
	out := c.meals(ctx, "filter.php", url.Values{"c": {category}})
	for i := range out {
		if out[i].Category == "" {
			out[i].Category = category
		}
	}
	return out, nil
}

// LookupByID queries lookup.php?i=. Any failure is reported as ErrNotFound.
func (c *MealDB) LookupByID(ctx context.Context, id string) (*domain.Recipe, error) {
	c.log.Debug("catalog: looking up meal %s", id)
	meals := c.meals(ctx, "lookup.php", url.Values{"i": {id}})
	if len(meals) == 0 {
		return nil, fmt.Errorf("catalog: meal %s: %w", id, domain.ErrNotFound)
	}
	return &meals[0], nil
}

// Random queries random.php for a single meal.
func (c *MealDB) Random(ctx context.Context) (*domain.Recipe, error) {
	c.log.Debug("catalog: fetching random meal")
	meals := c.meals(ctx, "random.php", nil)
	if len(meals) == 0 {
		return nil, fmt.Errorf("catalog: random meal: %w", domain.ErrNotFound)
	}
	return &meals[0], nil
}

// Categories queries categories.php.
func (c *MealDB) Categories(ctx context.Context) ([]domain.Category, error) {
	body, err := c.get(ctx, "categories.php", nil)
	if err != nil {
		c.log.Error("catalog: categories: %v", err)
		return nil, nil
	}

	var out []domain.Category
	cats := gjson.GetBytes(body, "categories")
	if !cats.IsArray() {
		c.log.Warn("catalog: categories: unexpected payload shape")
		return nil, nil
	}
	cats.ForEach(func(_, v gjson.Result) bool {
		out = append(out, domain.Category{
			ID:           v.Get("idCategory").String(),
			Name:         v.Get("strCategory").String(),
			ThumbnailURL: v.Get("strCategoryThumb").String(),
			Description:  v.Get("strCategoryDescription").String(),
		})
		return true
	})
	c.log.Debug("catalog: %d categories", len(out))
	return out, nil
}

// meals fetches an endpoint returning {"meals": [...]} and decodes it.
func (c *MealDB) meals(ctx context.Context, endpoint string, params url.Values) []domain.Recipe {
	body, err := c.get(ctx, endpoint, params)
	if err != nil {
		c.log.Error("catalog: %s: %v", endpoint, err)
		return nil
	}
	out := parseMeals(body)
	c.log.Debug("catalog: %s found %d meals", endpoint, len(out))
	return out
}

func (c *MealDB) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	u := c.baseURL + "/" + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid JSON (%d bytes)", len(body))
	}
	return body, nil
}

// parseMeals decodes the "meals" array. TheMealDB answers misses with
// "meals": null, and some endpoints with a bare string, so anything that is
// not an array is an empty result.
func parseMeals(body []byte) []domain.Recipe {
	meals := gjson.GetBytes(body, "meals")
	if !meals.IsArray() {
		return nil
	}
	var out []domain.Recipe
	meals.ForEach(func(_, m gjson.Result) bool {
		if id := m.Get("idMeal").String(); id != "" {
			out = append(out, mealFromJSON(m))
		}
		return true
	})
	return out
}

func mealFromJSON(m gjson.Result) domain.Recipe {
	r := domain.Recipe{
		ID:           m.Get("idMeal").String(),
		Name:         m.Get("strMeal").String(),
		Category:     m.Get("strCategory").String(),
		Area:         m.Get("strArea").String(),
		Instructions: m.Get("strInstructions").String(),
		ThumbnailURL: m.Get("strMealThumb").String(),
	}

	for i := 1; i <= maxIngredients; i++ {
		name := strings.TrimSpace(m.Get(fmt.Sprintf("strIngredient%d", i)).String())
		if name == "" {
			continue
		}
		r.Ingredients = append(r.Ingredients, domain.Ingredient{
			Name:    name,
			Measure: strings.TrimSpace(m.Get(fmt.Sprintf("strMeasure%d", i)).String()),
		})
	}

	for _, tag := range strings.Split(m.Get("strTags").String(), ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			r.Tags = append(r.Tags, tag)
		}
	}
	return r
}
