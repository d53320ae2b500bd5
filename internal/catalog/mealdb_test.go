package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/culina/internal/domain"
	"github.com/hammamikhairi/culina/internal/logger"
)

const teriyakiJSON = `{"meals":[{"idMeal":"52772","strMeal":"Teriyaki Chicken Casserole",
"strCategory":"Chicken","strArea":"Japanese","strInstructions":"Preheat oven.",
"strMealThumb":"https://img/teriyaki.jpg","strTags":"Meat, Casserole",
"strIngredient1":"soy sauce","strMeasure1":"3/4 cup",
"strIngredient2":"water","strMeasure2":"1/2 cup",
"strIngredient3":"","strMeasure3":" ",
"strIngredient4":null,"strMeasure4":null}]}`

const chickenFilterJSON = `{"meals":[
{"strMeal":"Brown Stew Chicken","strMealThumb":"https://img/1.jpg","idMeal":"52940"},
{"strMeal":"Chicken & mushroom Hotpot","strMealThumb":"https://img/2.jpg","idMeal":"52846"}]}`

const categoriesJSON = `{"categories":[
{"idCategory":"1","strCategory":"Beef","strCategoryThumb":"https://img/beef.png","strCategoryDescription":"Beef is the culinary name for meat from cattle."},
{"idCategory":"2","strCategory":"Chicken","strCategoryThumb":"https://img/chicken.png","strCategoryDescription":"Chicken is a type of domesticated fowl."}]}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/search.php", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("s") == "teriyaki" {
			w.Write([]byte(teriyakiJSON))
			return
		}
		w.Write([]byte(`{"meals":null}`))
	})
	mux.HandleFunc("/filter.php", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Query().Get("c") == "Chicken":
			w.Write([]byte(chickenFilterJSON))
		case r.URL.Query().Get("i") == "chicken_breast":
			w.Write([]byte(chickenFilterJSON))
		default:
			w.Write([]byte(`{"meals":null}`))
		}
	})
	mux.HandleFunc("/lookup.php", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("i") {
		case "52772":
			w.Write([]byte(teriyakiJSON))
		case "bad":
			w.Write([]byte(`{"meals":"Invalid ID"}`))
		default:
			w.Write([]byte(`{"meals":null}`))
		}
	})
	mux.HandleFunc("/random.php", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(teriyakiJSON))
	})
	mux.HandleFunc("/categories.php", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(categoriesJSON))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, base string) *MealDB {
	t.Helper()
	return NewMealDB(logger.New(logger.LevelOff, nil), WithBaseURL(base), WithHTTPTimeout(2*time.Second))
}

func TestSearchByNameParsesFullMeal(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t, srv.URL)

	meals, err := c.SearchByName(context.Background(), "teriyaki")
	require.NoError(t, err)
	require.Len(t, meals, 1)

	m := meals[0]
	assert.Equal(t, "52772", m.ID)
	assert.Equal(t, "Teriyaki Chicken Casserole", m.Name)
	assert.Equal(t, "Chicken", m.Category)
	assert.Equal(t, "Japanese", m.Area)
	assert.Equal(t, "https://img/teriyaki.jpg", m.ThumbnailURL)
	assert.Equal(t, []string{"Meat", "Casserole"}, m.Tags)
	assert.Equal(t, []domain.Ingredient{
		{Name: "soy sauce", Measure: "3/4 cup"},
		{Name: "water", Measure: "1/2 cup"},
	}, m.Ingredients)
}

func TestSearchMissReturnsEmpty(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t, srv.URL)

	meals, err := c.SearchByName(context.Background(), "nothing-like-this")
	require.NoError(t, err)
	assert.Empty(t, meals)
}

func TestFilterByCategoryFillsCategory(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t, srv.URL)

	meals, err := c.FilterByCategory(context.Background(), "Chicken")
	require.NoError(t, err)
	require.Len(t, meals, 2)
	for _, m := range meals {
		assert.Equal(t, "Chicken", m.Category)
		assert.NotEmpty(t, m.ID)
	}
}

func TestFilterByIngredientEncodesQuery(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t, srv.URL)

	meals, err := c.FilterByIngredient(context.Background(), "chicken_breast")
	require.NoError(t, err)
	assert.Len(t, meals, 2)
}

func TestLookupByID(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t, srv.URL)
	ctx := context.Background()

	tests := []struct {
		id      string
		wantErr error
	}{
		{"52772", nil},
		{"99999", domain.ErrNotFound},
		{"bad", domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			r, err := c.LookupByID(ctx, tt.id)
			if tt.wantErr != nil {
				require.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.Nil(t, r)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, r.ID)
		})
	}
}

func TestRandom(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t, srv.URL)

	r, err := c.Random(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "52772", r.ID)
}

func TestCategories(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t, srv.URL)

	cats, err := c.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, domain.Category{
		ID:           "1",
		Name:         "Beef",
		ThumbnailURL: "https://img/beef.png",
		Description:  "Beef is the culinary name for meat from cattle.",
	}, cats[0])
}

func TestFailuresAreSoft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search.php":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			w.Write([]byte(`{"meals": [`))
		}
	}))
	defer srv.Close()
	c := newClient(t, srv.URL)
	ctx := context.Background()

	meals, err := c.SearchByName(ctx, "x")
	assert.NoError(t, err)
	assert.Empty(t, meals)

	meals, err = c.FilterByCategory(ctx, "Beef")
	assert.NoError(t, err)
	assert.Empty(t, meals)

	cats, err := c.Categories(ctx)
	assert.NoError(t, err)
	assert.Empty(t, cats)

	_, err = c.LookupByID(ctx, "1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUnreachableServerIsSoft(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := newClient(t, base)
	meals, err := c.SearchByName(context.Background(), "anything")
	assert.NoError(t, err)
	assert.Empty(t, meals)
}
