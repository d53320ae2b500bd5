package importer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/culina/internal/logger"
)

const recipePage = `<!DOCTYPE html>
<html><head>
<title>Grandma's Shakshuka</title>
<meta property="og:image" content="https://cdn.example.com/shakshuka.jpg">
</head><body>
<nav><a href="/">Home</a> <a href="/about">About</a></nav>
<article>
<h1>Grandma's Shakshuka</h1>
<p>Warm the olive oil in a wide pan over medium heat and soften one diced onion and two sliced red peppers for about ten minutes, stirring now and then so nothing catches.</p>
<p>Add three cloves of garlic, a teaspoon of cumin and a teaspoon of sweet paprika, then pour in two tins of chopped tomatoes and simmer until the sauce has thickened nicely.</p>
<p>Make six wells in the sauce, crack an egg into each, cover the pan and cook gently until the whites are set but the yolks are still runny. Scatter with parsley and serve with bread.</p>
</article>
<footer>Copyright</footer>
</body></html>`

func TestImportExtractsRecipe(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(recipePage))
	}))
	defer srv.Close()

	imp := NewWeb(logger.New(logger.LevelOff, nil))
	fields, err := imp.Import(context.Background(), srv.URL+"/shakshuka")
	require.NoError(t, err)

	assert.Contains(t, fields.Title, "Shakshuka")
	assert.Contains(t, fields.Instructions, "crack an egg into each")
	assert.NotContains(t, fields.Instructions, "\n\n\n")
	assert.Equal(t, "https://cdn.example.com/shakshuka.jpg", fields.ThumbnailURI)
	assert.True(t, strings.HasPrefix(gotUA, "Mozilla/5.0"))
}

func TestImportRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	imp := NewWeb(logger.New(logger.LevelOff, nil))
	ctx := context.Background()

	tests := []struct {
		name string
		url  string
		want string
	}{
		{"not a url", "::nope", "not an http(s) URL"},
		{"other scheme", "ftp://example.com/recipe", "not an http(s) URL"},
		{"blocked", srv.URL, "status 403"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := imp.Import(ctx, tt.url)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCleanText(t *testing.T) {
	in := "  Step one  \n\n\n\n  Step two\n \n"
	assert.Equal(t, "Step one\n\nStep two", cleanText(in))
}
