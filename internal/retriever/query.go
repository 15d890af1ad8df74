package retriever

import (
	"regexp"
	"strings"
)

// QueryType classifies what a question is about so the search query can be
// enriched with the vocabulary the matching chunks use.
type QueryType string

const (
	QueryDietary    QueryType = "dietary_restrictions"
	QueryMenu       QueryType = "menu_availability"
	QueryPrice      QueryType = "price_range"
	QueryComparison QueryType = "comparison"
	QueryLocation   QueryType = "location"
	QueryHours      QueryType = "opening_hours"
	QueryAmbiance   QueryType = "ambiance"
	QueryRating     QueryType = "rating"
	QueryGeneral    QueryType = "general"
)

// Classification order matters: dietary terms win over generic menu words
// so "vegan dishes" lands on dietary, not menu.
var queryPatterns = []struct {
	kind QueryType
	re   *regexp.Regexp
}{
	{QueryDietary, regexp.MustCompile(`vegan|vegetarian|gluten.?free|dairy.?free|allergies|dietary|halal|jain`)},
	{QueryMenu, regexp.MustCompile(`menu|dish|serve|offer|have.*?items?|food|eat`)},
	{QueryPrice, regexp.MustCompile(`price|cost|expensive|cheap|affordable|range|budget`)},
	{QueryComparison, regexp.MustCompile(`compare|difference|versus|vs\.?|better|between`)},
	{QueryLocation, regexp.MustCompile(`location|address|where|area|direction|situated`)},
	{QueryHours, regexp.MustCompile(`time|open|hours|close|available|when`)},
	{QueryAmbiance, regexp.MustCompile(`ambiance|atmosphere|environment|setting|decor`)},
	{QueryRating, regexp.MustCompile(`rating|stars|review|popular|recommend`)},
}

var dietaryTerms = []string{
	"vegetarian", "vegan", "gluten-free", "dairy-free", "nut-free", "halal", "jain",
}

// DetectQueryType classifies a user question by keyword.
func DetectQueryType(query string) QueryType {
	q := strings.ToLower(query)
	for _, p := range queryPatterns {
		if p.re.MatchString(q) {
			return p.kind
		}
	}
	return QueryGeneral
}

// enhanceQuery appends the vocabulary the relevant chunk kind uses, so a
// terse question still lands near the right chunks in embedding space.
func enhanceQuery(query string, kind QueryType) string {
	q := strings.ToLower(query)
	switch kind {
	case QueryDietary:
		var terms []string
		for _, term := range dietaryTerms {
			if strings.Contains(q, term) {
				terms = append(terms, term)
			}
		}
		if len(terms) > 0 {
			return query + " " + strings.Join(terms, " ") + " options menu restrictions dietary"
		}
		return query + " options menu restrictions dietary"
	case QueryMenu:
		return query + " menu items dishes food"
	case QueryPrice:
		return query + " price cost menu prices range budget"
	case QueryLocation:
		return query + " location address area directions map"
	case QueryHours:
		return query + " hours open close timing schedule"
	case QueryAmbiance:
		return query + " ambiance atmosphere environment setting decor"
	case QueryRating:
		return query + " rating review stars popular feedback"
	default:
		return query
	}
}
