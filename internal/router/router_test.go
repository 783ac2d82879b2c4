// File path: internal/router/router_test.go
package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifySQL(t *testing.T) {
	questions := []string{
		"How many customers do we have?",
		"Total revenue this month",
		"top 5 products by quantity sold",
	}
	for _, q := range questions {
		d := Classify(q)
		assert.Equal(t, RouteSQL, d.Route, q)
		assert.Greater(t, d.Matches["sql"], 0, q)
	}
}

func TestClassifyDocuments(t *testing.T) {
	questions := []string{
		"What is our return policy?",
		"Describe the onboarding handbook",
		"Why should refunds go through finance?",
	}
	for _, q := range questions {
		d := Classify(q)
		assert.Equal(t, RouteDocuments, d.Route, q)
	}
}

func TestClassifySubstringMatchScoresBothSides(t *testing.T) {
	// Keyword matching is substring based, so "Summarize" also hits "sum"
	// and the question scores on both sides.
	d := Classify("Summarize the onboarding handbook")
	assert.Equal(t, RouteHybrid, d.Route)
	assert.Greater(t, d.Matches["sql"], 0)
	assert.Greater(t, d.Matches["documents"], 0)
}

func TestClassifyHybrid(t *testing.T) {
	d := Classify("Show total sales and explain our pricing strategy")
	assert.Equal(t, RouteHybrid, d.Route)
	assert.Greater(t, d.Matches["hybrid"], 0)
}

func TestClassifyMixedKeywordsIsHybrid(t *testing.T) {
	// No single hybrid phrase, but both keyword families match.
	d := Classify("count of policies per customer")
	assert.Equal(t, RouteHybrid, d.Route)
}

func TestClassifyAmbiguousDefaultsToDocuments(t *testing.T) {
	d := Classify("hmm")
	assert.Equal(t, RouteDocuments, d.Route)
	assert.Equal(t, 0.0, d.Confidence["sql"])
}

func TestConfidenceSumsToOne(t *testing.T) {
	d := Classify("How many customers do we have and explain the segmentation policy?")
	sum := d.Confidence["sql"] + d.Confidence["documents"] + d.Confidence["hybrid"]
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestExplainNamesRoute(t *testing.T) {
	d := Classify("What is our return policy?")
	assert.Contains(t, d.Explain(), "DOCUMENTS")
}
