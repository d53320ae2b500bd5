package display

import (
	"fmt"
	"strings"

	"github.com/hammamikhairi/culina/internal/domain"
)

// RecipeLines formats a recipe for the scrollback.
func RecipeLines(r domain.Recipe, favorite bool) []string {
	title := r.Name
	if title == "" {
		title = "(untitled)"
	}
	if favorite {
		title += "  ★"
	}

	lines := []string{titleStyle.Render(title)}
	if meta := joinNonEmpty(" · ", r.Category, r.Area, sourceLabel(r)); meta != "" {
		lines = append(lines, hintStyle.Render(meta))
	}
	if len(r.Tags) > 0 {
		lines = append(lines, hintStyle.Render("tags: "+strings.Join(r.Tags, ", ")))
	}
	if r.ThumbnailURL != "" {
		lines = append(lines, hintStyle.Render(r.ThumbnailURL))
	}

	if len(r.Ingredients) > 0 {
		lines = append(lines, "", headingStyle.Render("Ingredients"))
		for _, ing := range r.Ingredients {
			line := "  • " + ing.Name
			if ing.Measure != "" {
				line += " (" + ing.Measure + ")"
			}
			lines = append(lines, bodyStyle.Render(line))
		}
	}

	if strings.TrimSpace(r.Instructions) != "" {
		lines = append(lines, "", headingStyle.Render("Instructions"))
		for _, para := range strings.Split(strings.TrimSpace(r.Instructions), "\n") {
			if para = strings.TrimSpace(para); para != "" {
				lines = append(lines, bodyStyle.Render("  "+para))
			}
		}
	}
	return lines
}

// RecipeListLines formats search results as a numbered list. The numbers
// are 1-based and match what "show <n>" accepts.
func RecipeListLines(recipes []domain.Recipe) []string {
	if len(recipes) == 0 {
		return []string{hintStyle.Render("no recipes found")}
	}
	lines := make([]string, 0, len(recipes))
	for i, r := range recipes {
		meta := joinNonEmpty(" · ", r.Category, r.Area)
		line := fmt.Sprintf("%3d. %s", i+1, r.Name)
		if meta != "" {
			line += "  " + hintStyle.Render(meta)
		}
		line += "  " + hintStyle.Render("["+r.ID+"]")
		lines = append(lines, line)
	}
	return lines
}

// FavoriteLines formats saved favorites.
func FavoriteLines(favs []domain.Favorite) []string {
	if len(favs) == 0 {
		return []string{hintStyle.Render("no favorites yet")}
	}
	lines := make([]string, 0, len(favs))
	for _, f := range favs {
		line := "  ★ " + f.Title
		if meta := joinNonEmpty(" · ", f.Category, f.Area); meta != "" {
			line += "  " + hintStyle.Render(meta)
		}
		lines = append(lines, line+"  "+hintStyle.Render("["+f.ID+"]"))
	}
	return lines
}

// UserRecipeLines formats the user's own recipes.
func UserRecipeLines(recs []domain.UserRecipe) []string {
	if len(recs) == 0 {
		return []string{hintStyle.Render("you have not added any recipes")}
	}
	lines := make([]string, 0, len(recs))
	for _, r := range recs {
		line := "  ✎ " + r.Title
		if meta := joinNonEmpty(" · ", r.Category, r.Area); meta != "" {
			line += "  " + hintStyle.Render(meta)
		}
		lines = append(lines, line+"  "+hintStyle.Render("["+r.UnifiedID()+"]"))
	}
	return lines
}

// CategoryLines formats the category list.
func CategoryLines(cats []domain.Category) []string {
	if len(cats) == 0 {
		return []string{hintStyle.Render("no categories available")}
	}
	lines := make([]string, 0, len(cats))
	for _, c := range cats {
		desc := firstSentence(c.Description)
		line := "  " + c.Name
		if desc != "" {
			line += "  " + hintStyle.Render(desc)
		}
		lines = append(lines, line)
	}
	return lines
}

// AuthLine describes an auth session in one line.
func AuthLine(s domain.AuthSession) string {
	switch s.Status {
	case domain.AuthAuthenticated:
		if s.User == nil {
			return "signed in"
		}
		name := s.User.DisplayName
		if name == "" {
			name = s.User.Email
		}
		return "signed in as " + name
	case domain.AuthLoading:
		return "signing in…"
	case domain.AuthError:
		return "sign-in failed: " + s.Message
	default:
		return "guest"
	}
}

func sourceLabel(r domain.Recipe) string {
	if r.IsUserRecipe() {
		return "your recipe"
	}
	return ""
}

func firstSentence(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, ". "); i >= 0 {
		s = s[:i+1]
	}
	if len(s) > 80 {
		s = s[:77] + "..."
	}
	return s
}

func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
