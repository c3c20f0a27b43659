package models

import (
	"context"
	"fmt"

	"github.com/camoo/enkap-go/pkg/enkap"
	"github.com/camoo/enkap-go/pkg/enkap/errors"
	"github.com/camoo/enkap-go/pkg/enkap/types"
)

type WhereFunc func(where map[string]any)

func Param(name string, value any) WhereFunc {
	return func(where map[string]any) {
		where[name] = value
	}
}

func TransactionID(id string) WhereFunc {
	return Param("txid", id)
}

func OrderMerchantID(id string) WhereFunc {
	return Param("orderMerchantId", id)
}

// Query is a pending GET for a model type
type Query struct {
	model  types.Model
	client Dispatcher
	where  map[string]any
	uri    string
}

func newQuery(model types.Model, client Dispatcher) *Query {
	return &Query{
		model:  model,
		client: client,
		where:  map[string]any{},
	}
}

func (q *Query) Where(where ...WhereFunc) *Query {
	for _, w := range where {
		w(q.where)
	}
	return q
}

// URI overrides the resource uri of the model for this query
func (q *Query) URI(uri string) *Query {
	q.uri = uri
	return q
}

func (q *Query) Execute(ctx context.Context) (*enkap.ModelResponse, error) {
	if q.client == nil {
		return nil, fmt.Errorf("%s: find is only available on models with an attached client (%w)", q.model.ModelName(), errors.ErrClientNotAttached)
	}

	return q.client.Get(ctx, q.model, q.where, q.uri)
}
