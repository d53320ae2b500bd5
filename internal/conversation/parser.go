// Package conversation turns REPL input into intents and delivers
// notifications back to the user.
package conversation

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/hammamikhairi/culina/internal/domain"
	"github.com/hammamikhairi/culina/internal/logger"
)

// Compile-time interface check.
var _ domain.IntentParser = (*KeywordParser)(nil)

// KeywordParser matches user input to intents using command words. Input
// that matches no command is a search by recipe name.
type KeywordParser struct {
	log      *logger.Logger
	patterns []patternRule
}

// patternRule maps a regex to an intent. If the regex has a capture group,
// the first group becomes the payload.
type patternRule struct {
	regex  *regexp.Regexp
	intent domain.IntentType
}

// NewKeywordParser creates a keyword-based intent parser.
func NewKeywordParser(log *logger.Logger) *KeywordParser {
	p := &KeywordParser{log: log}
	p.patterns = []patternRule{
		{regexp.MustCompile(`(?i)^(?:help|h|\?)$`), domain.IntentHelp},
		{regexp.MustCompile(`(?i)^(?:quit|exit|q)$`), domain.IntentQuit},
		{regexp.MustCompile(`(?i)^(?:status|whoami)$`), domain.IntentStatus},
		{regexp.MustCompile(`(?i)^(?:home|browse|b)$`), domain.IntentBrowse},
		{regexp.MustCompile(`(?i)^(?:search|find)\s+(.+)$`), domain.IntentSearch},
		{regexp.MustCompile(`(?i)^(?:ingredient|with|i)\s+(.+)$`), domain.IntentSearchIngredient},
		{regexp.MustCompile(`(?i)^(?:category|cat|c)\s+(.+)$`), domain.IntentSearchCategory},
		{regexp.MustCompile(`(?i)^(?:categories|cats)$`), domain.IntentListCategories},
		{regexp.MustCompile(`(?i)^(?:random|surprise me|r)$`), domain.IntentRandom},
		{regexp.MustCompile(`(?i)^(?:show|open|view)\s+(.+)$`), domain.IntentShow},
		{regexp.MustCompile(`^(\d{1,3})$`), domain.IntentShow},
		{regexp.MustCompile(`(?i)^(?:favs|favorites|saved)$`), domain.IntentListFavorites},
		{regexp.MustCompile(`(?i)^(?:unfav|unfavorite|unsave)(?:\s+(.+))?$`), domain.IntentUnfavorite},
		{regexp.MustCompile(`(?i)^(?:fav|favorite|save)(?:\s+(.+))?$`), domain.IntentFavorite},
		{regexp.MustCompile(`(?i)^(?:mine|my recipes)$`), domain.IntentListMine},
		{regexp.MustCompile(`(?i)^(?:add|new)\s+(.+)$`), domain.IntentAddRecipe},
		{regexp.MustCompile(`(?i)^edit\s+(.+)$`), domain.IntentEditRecipe},
		{regexp.MustCompile(`(?i)^(?:delete|del|rm)\s+(.+)$`), domain.IntentDeleteRecipe},
		{regexp.MustCompile(`(?i)^import\s+(\S+)$`), domain.IntentImport},
		{regexp.MustCompile(`(?i)^(?:login|sign ?in)\s+(.+)$`), domain.IntentLogin},
		{regexp.MustCompile(`(?i)^(?:register|sign ?up)\s+(.+)$`), domain.IntentRegister},
		{regexp.MustCompile(`(?i)^google$`), domain.IntentGoogle},
		{regexp.MustCompile(`(?i)^(?:logout|sign ?out)$`), domain.IntentLogout},
	}
	return p
}

// Parse converts user input into an intent.
func (p *KeywordParser) Parse(ctx context.Context, input string) (*domain.Intent, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return &domain.Intent{Type: domain.IntentUnknown}, nil
	}

	p.log.Debug("parsing input: %q", trimmed)

	for _, rule := range p.patterns {
		m := rule.regex.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		p.log.Debug("matched intent: %s", rule.intent)
		var payload string
		if len(m) > 1 {
			payload = strings.TrimSpace(m[1])
		}
		return &domain.Intent{Type: rule.intent, Payload: payload}, nil
	}

	p.log.Debug("no command matched, searching by name")
	return &domain.Intent{Type: domain.IntentSearch, Payload: trimmed}, nil
}

// ErrNoTitle is returned when a recipe payload has an empty title.
var ErrNoTitle = errors.New("a recipe needs a title")

// ParseRecipeFields reads "title | category | area | instructions | thumbnail".
// Only the title is required; missing trailing fields are empty.
func ParseRecipeFields(payload string) (domain.UserRecipeFields, error) {
	parts := strings.SplitN(payload, "|", 5)
	for len(parts) < 5 {
		parts = append(parts, "")
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if parts[0] == "" {
		return domain.UserRecipeFields{}, ErrNoTitle
	}
	return domain.UserRecipeFields{
		Title:        parts[0],
		Category:     parts[1],
		Area:         parts[2],
		Instructions: parts[3],
		ThumbnailURI: parts[4],
	}, nil
}

// SplitTarget splits "<id> <rest>" into the leading token and the rest.
func SplitTarget(payload string) (string, string) {
	payload = strings.TrimSpace(payload)
	target, rest, _ := strings.Cut(payload, " ")
	return target, strings.TrimSpace(rest)
}

// ParseCredentials reads "email password".
func ParseCredentials(payload string) (email, password string, err error) {
	fields := strings.Fields(payload)
	if len(fields) != 2 {
		return "", "", errors.New("expected: <email> <password>")
	}
	return fields[0], fields[1], nil
}
