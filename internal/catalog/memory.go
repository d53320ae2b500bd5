package catalog

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"

	"github.com/hammamikhairi/culina/internal/domain"
	"github.com/hammamikhairi/culina/internal/logger"
)

// Compile-time interface check.
var _ domain.Catalog = (*Memory)(nil)

// Memory is an in-memory catalog used for offline mode and tests.
// Safe for concurrent use.
type Memory struct {
	mu         sync.RWMutex
	recipes    map[string]domain.Recipe
	categories []domain.Category
	log        *logger.Logger
}

// NewMemory creates a catalog preloaded with a few built-in meals.
func NewMemory(log *logger.Logger) *Memory {
	m := NewEmptyMemory(log)
	m.seed()
	return m
}

// NewEmptyMemory creates a catalog with no meals and no categories.
func NewEmptyMemory(log *logger.Logger) *Memory {
	return &Memory{
		recipes: make(map[string]domain.Recipe),
		log:     log,
	}
}

// Put adds or replaces a meal. A category that has not been seen yet is
// added to the category list.
func (m *Memory) Put(r domain.Recipe) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.recipes[r.ID] = r
	if r.Category == "" {
		return
	}
	for _, c := range m.categories {
		if strings.EqualFold(c.Name, r.Category) {
			return
		}
	}
	m.categories = append(m.categories, domain.Category{
		ID:   fmt.Sprintf("%d", len(m.categories)+1),
		Name: r.Category,
	})
}

// Delete removes a meal. Unknown IDs are ignored.
func (m *Memory) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.recipes, id)
}

// SearchByName returns meals whose name contains query (case-insensitive).
func (m *Memory) SearchByName(ctx context.Context, query string) ([]domain.Recipe, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	m.log.Debug("memory catalog: searching for %q", q)
	return m.filter(func(r domain.Recipe) bool {
		return strings.Contains(strings.ToLower(r.Name), q)
	}), nil
}

// FilterByIngredient returns meals listing the ingredient.
func (m *Memory) FilterByIngredient(ctx context.Context, ingredient string) ([]domain.Recipe, error) {
	q := strings.ToLower(strings.TrimSpace(ingredient))
	return m.filter(func(r domain.Recipe) bool {
		for _, ing := range r.Ingredients {
			if strings.Contains(strings.ToLower(ing.Name), q) {
				return true
			}
		}
		return false
	}), nil
}

// FilterByCategory returns meals in the category.
func (m *Memory) FilterByCategory(ctx context.Context, category string) ([]domain.Recipe, error) {
	return m.filter(func(r domain.Recipe) bool {
		return strings.EqualFold(r.Category, category)
	}), nil
}

// LookupByID returns a meal by catalog ID.
func (m *Memory) LookupByID(ctx context.Context, id string) (*domain.Recipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.recipes[id]
	if !ok {
		m.log.Debug("memory catalog: meal not found: %s", id)
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

// Random returns any meal, or ErrNotFound when the catalog is empty.
func (m *Memory) Random(ctx context.Context) (*domain.Recipe, error) {
	all := m.filter(func(domain.Recipe) bool { return true })
	if len(all) == 0 {
		return nil, domain.ErrNotFound
	}
	r := all[rand.IntN(len(all))]
	return &r, nil
}

// Categories returns the known categories in insertion order.
func (m *Memory) Categories(ctx context.Context) ([]domain.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Category, len(m.categories))
	copy(out, m.categories)
	return out, nil
}

// filter returns matching meals sorted by ID so results are stable.
func (m *Memory) filter(keep func(domain.Recipe) bool) []domain.Recipe {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.Recipe
	for _, r := range m.recipes {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// seed populates the catalog with built-in meals.
func (m *Memory) seed() {
	meals := []domain.Recipe{
		{
			ID:       "52772",
			Name:     "Teriyaki Chicken Casserole",
			Category: "Chicken",
			Area:     "Japanese",
			Instructions: "Preheat oven to 350F. Combine soy sauce, water, brown sugar, ginger and garlic " +
				"in a saucepan and bring to a simmer. Thicken with cornstarch. Pour over chicken and " +
				"bake 35 minutes, then serve over rice with steamed vegetables.",
			ThumbnailURL: "https://www.themealdb.com/images/media/meals/wvpsxx1468256321.jpg",
			Tags:         []string{"Meat", "Casserole"},
			Ingredients:  []domain.Ingredient{
				{Name: "soy sauce", Measure: "3/4 cup"},
				{Name: "water", Measure: "1/2 cup"},
				{Name: "brown sugar", Measure: "1/4 cup"},
				{Name: "chicken breasts", Measure: "2"},
				{Name: "stir-fry vegetables", Measure: "1 (12 oz.)"},
				{Name: "brown rice", Measure: "3 cups"},
			},
		},
		{
			ID:           "52959",
			Name:         "Baked salmon with fennel & tomatoes",
			Category:     "Seafood",
			Area:         "British",
			Instructions: "Heat oven to 180C. Trim the fennel and cut into wedges. Roast with tomatoes, then add the salmon and bake 15 minutes more.",
			ThumbnailURL: "https://www.themealdb.com/images/media/meals/1548772327.jpg",
			Ingredients:  []domain.Ingredient{
				{Name: "fennel", Measure: "2 medium"},
				{Name: "cherry tomatoes", Measure: "175g"},
				{Name: "salmon", Measure: "2 fillets"},
			},
		},
		{
			ID:           "52874",
			Name:         "Beef and Mustard Pie",
			Category:     "Beef",
			Area:         "British",
			Instructions: "Brown the beef, add mustard and stock, simmer until tender, then top with pastry and bake until golden.",
			ThumbnailURL: "https://www.themealdb.com/images/media/meals/sytuqu1511553755.jpg",
			Ingredients:  []domain.Ingredient{
				{Name: "beef", Measure: "1kg"},
				{Name: "mustard", Measure: "2 tbsp"},
				{Name: "puff pastry", Measure: "400g"},
			},
		},
		{
			ID:           "52893",
			Name:         "Apple & Blackberry Crumble",
			Category:     "Dessert",
			Area:         "British",
			Instructions: "Rub butter into flour and sugar, scatter over apples and blackberries, bake 40 minutes.",
			ThumbnailURL: "https://www.themealdb.com/images/media/meals/xvsurr1511719182.jpg",
			Ingredients:  []domain.Ingredient{
				{Name: "plain flour", Measure: "120g"},
				{Name: "butter", Measure: "60g"},
				{Name: "apples", Measure: "300g"},
				{Name: "blackberries", Measure: "120g"},
			},
		},
	}
	for _, r := range meals {
		m.Put(r)
	}
	m.log.Debug("memory catalog: seeded %d meals", len(meals))
}
