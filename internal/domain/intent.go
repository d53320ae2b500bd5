package domain

// IntentType classifies what the user wants to do.
type IntentType int

const (
	IntentUnknown IntentType = iota
	IntentHelp
	IntentQuit
	IntentStatus
	IntentBrowse           // default meals
	IntentSearch           // payload: query
	IntentSearchIngredient // payload: ingredient
	IntentSearchCategory   // payload: category name
	IntentListCategories
	IntentRandom
	IntentShow     // payload: unified ID or 1-based result index
	IntentFavorite // payload: optional ID; empty means the selected recipe
	IntentUnfavorite
	IntentListFavorites
	IntentListMine
	IntentAddRecipe    // payload: "title | category | area | instructions | thumbnail"
	IntentEditRecipe   // payload: "localID title | category | ..."
	IntentDeleteRecipe // payload: local ID or unified ID
	IntentImport       // payload: URL
	IntentLogin        // payload: "email password"
	IntentRegister     // payload: "email password"
	IntentGoogle
	IntentLogout
)

// String returns a human-readable intent type.
func (i IntentType) String() string {
	for name, t := range intentNames {
		if t == i {
			return name
		}
	}
	return "unknown"
}

// Intent represents a parsed user action.
type Intent struct {
	Type    IntentType
	Payload string
}

// intentNames maps snake_case names to IntentType values.
var intentNames = map[string]IntentType{
	"help":              IntentHelp,
	"quit":              IntentQuit,
	"status":            IntentStatus,
	"browse":            IntentBrowse,
	"search":            IntentSearch,
	"search_ingredient": IntentSearchIngredient,
	"search_category":   IntentSearchCategory,
	"list_categories":   IntentListCategories,
	"random":            IntentRandom,
	"show":              IntentShow,
	"favorite":          IntentFavorite,
	"unfavorite":        IntentUnfavorite,
	"list_favorites":    IntentListFavorites,
	"list_mine":         IntentListMine,
	"add_recipe":        IntentAddRecipe,
	"edit_recipe":       IntentEditRecipe,
	"delete_recipe":     IntentDeleteRecipe,
	"import":            IntentImport,
	"login":             IntentLogin,
	"register":          IntentRegister,
	"google":            IntentGoogle,
	"logout":            IntentLogout,
	"unknown":           IntentUnknown,
}

// IntentFromString converts a snake_case intent name to an IntentType.
// Returns IntentUnknown for unrecognized names.
func IntentFromString(name string) IntentType {
	if t, ok := intentNames[name]; ok {
		return t
	}
	return IntentUnknown
}
