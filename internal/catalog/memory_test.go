package catalog

import (
	"context"
	"testing"

	"github.com/hammamikhairi/culina/internal/domain"
	"github.com/hammamikhairi/culina/internal/logger"
)

func TestMemorySearch(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	src := NewMemory(log)
	ctx := context.Background()

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"exact word", "casserole", 1},
		{"case insensitive", "SALMON", 1},
		{"no match", "sushi", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := src.SearchByName(ctx, tt.query)
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			if len(got) != tt.want {
				t.Fatalf("expected %d results, got %d", tt.want, len(got))
			}
		})
	}
}

func TestMemoryLookup(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	src := NewMemory(log)
	ctx := context.Background()

	r, err := src.LookupByID(ctx, "52772")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if r.Name != "Teriyaki Chicken Casserole" {
		t.Fatalf("unexpected name %q", r.Name)
	}

	if _, err := src.LookupByID(ctx, "nonexistent"); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryFilters(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	src := NewMemory(log)
	ctx := context.Background()

	byCat, _ := src.FilterByCategory(ctx, "seafood")
	if len(byCat) != 1 || byCat[0].ID != "52959" {
		t.Fatalf("unexpected seafood results: %+v", byCat)
	}

	byIng, _ := src.FilterByIngredient(ctx, "butter")
	if len(byIng) != 1 || byIng[0].ID != "52893" {
		t.Fatalf("unexpected butter results: %+v", byIng)
	}

	cats, _ := src.Categories(ctx)
	if len(cats) != 4 {
		t.Fatalf("expected 4 categories, got %d", len(cats))
	}
}

func TestMemoryRandomEmpty(t *testing.T) {
	src := NewEmptyMemory(logger.New(logger.LevelOff, nil))
	if _, err := src.Random(context.Background()); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	src.Put(domain.Recipe{ID: "1", Name: "Only", Category: "Misc"})
	r, err := src.Random(context.Background())
	if err != nil || r.ID != "1" {
		t.Fatalf("expected the only meal, got %+v, %v", r, err)
	}
}
