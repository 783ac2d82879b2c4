// File path: internal/pipeline/hybrid.go
package pipeline

import (
	"context"

	"github.com/raglinehq/ragline/internal/common"
	"github.com/raglinehq/ragline/internal/common/telemetry"
	"github.com/raglinehq/ragline/internal/router"
)

// Dispatcher routes a question to the SQL pipeline, the document pipeline,
// or both.
type Dispatcher struct {
	sql  *SQLPipeline
	docs *DocumentPipeline
}

// QueryResponse is the routed result. Exactly the fields for the chosen
// route are populated; hybrid questions fill both.
type QueryResponse struct {
	Question  string          `json:"question"`
	Route     router.Route    `json:"route"`
	Reasoning string          `json:"reasoning"`
	SQL       *SQLOutcome     `json:"sql,omitempty"`
	Document  *DocumentAnswer `json:"document,omitempty"`
}

func NewDispatcher(sql *SQLPipeline, docs *DocumentPipeline) *Dispatcher {
	return &Dispatcher{sql: sql, docs: docs}
}

// Dispatch classifies the question and runs the matching pipeline(s). On a
// hybrid route a failing branch does not suppress the other branch's result;
// both failing surfaces the SQL error.
func (d *Dispatcher) Dispatch(ctx context.Context, question string) (*QueryResponse, error) {
	decision := router.Classify(question)
	ctx, done := telemetry.StartSpan(ctx, "pipeline.dispatch")
	defer done("route", string(decision.Route))
	common.Logger().Info("pipeline: question routed", "route", decision.Route)
	response := &QueryResponse{
		Question:  question,
		Route:     decision.Route,
		Reasoning: decision.Explain(),
	}

	switch decision.Route {
	case router.RouteSQL:
		outcome, err := d.sql.Query(ctx, question)
		if err != nil {
			return nil, err
		}
		response.SQL = outcome
	case router.RouteDocuments:
		answer, err := d.docs.Ask(ctx, question)
		if err != nil {
			return nil, err
		}
		response.Document = answer
	case router.RouteHybrid:
		outcome, sqlErr := d.sql.Query(ctx, question)
		answer, docErr := d.docs.Ask(ctx, question)
		if sqlErr != nil && docErr != nil {
			return nil, sqlErr
		}
		if sqlErr != nil {
			common.Logger().Warn("pipeline: hybrid sql branch failed", "error", sqlErr)
		}
		if docErr != nil {
			common.Logger().Warn("pipeline: hybrid document branch failed", "error", docErr)
		}
		response.SQL = outcome
		response.Document = answer
	}
	return response, nil
}
