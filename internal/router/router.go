// File path: internal/router/router.go
package router

import (
	"fmt"
	"strings"
)

// Route names the pipeline a question should be answered by.
type Route string

const (
	RouteSQL       Route = "SQL"
	RouteDocuments Route = "DOCUMENTS"
	RouteHybrid    Route = "HYBRID"
)

var sqlKeywords = []string{
	"how many", "count", "total", "sum", "average", "avg", "mean",
	"maximum", "max", "minimum", "min", "highest", "lowest",
	"list all", "show all", "find all", "get all", "display all",
	"list", "show", "find", "get", "display",
	"revenue", "sales", "orders", "customers", "products", "order",
	"customer", "product", "price", "cost", "amount", "quantity",
	"last", "recent", "past", "previous", "this month", "this year",
	"today", "yesterday", "week", "month", "year",
	"more than", "less than", "greater than", "top", "bottom",
	"rank", "ranking", "best", "worst",
	"by segment", "by category", "by status", "group by", "per",
	"each", "every",
	"database", "table", "record", "row", "data",
}

var documentKeywords = []string{
	"what is", "what are", "define", "definition", "explain",
	"describe", "tell me about", "information about",
	"policy", "policies", "procedure", "procedures", "process",
	"guideline", "guidelines", "rule", "rules", "regulation",
	"guide", "manual", "handbook", "documentation", "document",
	"reference", "instruction", "instructions",
	"how to", "how do", "how can", "how should", "why",
	"when should", "where can", "who should",
	"according to", "based on", "mentioned in", "stated in",
	"document says", "documentation states",
	"understand", "clarify", "elaborate", "detail", "overview",
	"summary", "summarize",
}

var hybridKeywords = []string{
	"and explain", "and describe", "and tell me",
	"also explain", "also describe", "also tell me",
	"sales and policy", "revenue and guideline", "data and procedure",
	"show data and explain", "list and describe",
	"compare and explain", "analyze and describe",
}

// Decision carries the chosen route plus the evidence behind it.
type Decision struct {
	Route      Route              `json:"route"`
	Confidence map[string]float64 `json:"confidence"`
	Matches    map[string]int     `json:"matches"`
}

// Classify picks a route for a natural language question. Hybrid cues win,
// then SQL, then documents; questions matching nothing default to documents
// because retrieval is the safer fallback for unclear intent.
func Classify(question string) Decision {
	lower := strings.ToLower(question)

	sqlMatches := countMatches(lower, sqlKeywords)
	docMatches := countMatches(lower, documentKeywords)
	hybridMatches := countMatches(lower, hybridKeywords)

	route := RouteDocuments
	switch {
	case hybridMatches > 0 || (sqlMatches > 0 && docMatches > 0):
		route = RouteHybrid
	case sqlMatches > 0:
		route = RouteSQL
	}

	total := sqlMatches + docMatches + hybridMatches
	if total == 0 {
		total = 1
	}
	return Decision{
		Route: route,
		Confidence: map[string]float64{
			"sql":       float64(sqlMatches) / float64(total),
			"documents": float64(docMatches) / float64(total),
			"hybrid":    float64(hybridMatches) / float64(total),
		},
		Matches: map[string]int{
			"sql":       sqlMatches,
			"documents": docMatches,
			"hybrid":    hybridMatches,
		},
	}
}

// Explain renders a decision for operators inspecting routing behavior.
func (d Decision) Explain() string {
	var b strings.Builder
	fmt.Fprintf(&b, "routed to %s (sql=%d documents=%d hybrid=%d matches)", d.Route, d.Matches["sql"], d.Matches["documents"], d.Matches["hybrid"])
	switch d.Route {
	case RouteSQL:
		b.WriteString("; looks like a data or analytics question")
	case RouteDocuments:
		b.WriteString("; looks like a knowledge question over documentation")
	case RouteHybrid:
		b.WriteString("; needs both data retrieval and contextual information")
	}
	return b.String()
}

func countMatches(lower string, keywords []string) int {
	matches := 0
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			matches++
		}
	}
	return matches
}
