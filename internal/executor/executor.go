// Package executor validates, throttles, dispatches and shapes every
// upstream Tushare call.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"tusharemcp/internal/catalog"
	"tusharemcp/internal/limits"
	"tusharemcp/internal/logging"
	"tusharemcp/internal/tushare"
)

// maxSuggestions bounds the "did you mean" list on unknown api errors.
const maxSuggestions = 3

// Limiter is the throttle gate the executor waits on before every
// upstream call.
type Limiter interface {
	Acquire(ctx context.Context) error
}

// ShapedResult is the normalized response returned to the agent.
// Tabular payloads carry Rows (possibly truncated); anything else
// passes through untouched in Scalar.
type ShapedResult struct {
	Rows      []map[string]interface{} `json:"rows,omitempty"`
	Truncated bool                     `json:"truncated"`
	TotalRows int                      `json:"total_rows"`
	HasMore   bool                     `json:"has_more,omitempty"`
	Scalar    json.RawMessage          `json:"scalar,omitempty"`
}

// Executor drives the per-call pipeline: catalog lookup, required
// parameter validation, rate limiter gate, upstream invoke, shaping.
type Executor struct {
	store   *catalog.Store
	limits  limits.EffectiveLimits
	limiter Limiter
	invoker tushare.Invoker
}

func New(store *catalog.Store, effective limits.EffectiveLimits, limiter Limiter, invoker tushare.Invoker) *Executor {
	return &Executor{
		store:   store,
		limits:  effective,
		limiter: limiter,
		invoker: invoker,
	}
}

// Execute runs one cataloged api call. Validation failures return
// before the rate limiter, so a rejected call never consumes throttle
// budget. No retries; a clean failure is the caller's signal to adjust
// and retry itself.
func (e *Executor) Execute(ctx context.Context, apiName string, params map[string]interface{}) (*ShapedResult, error) {
	spec, ok := e.store.Get(apiName)
	if !ok {
		return nil, &UnknownAPIError{
			Name:        apiName,
			Suggestions: e.store.Suggest(apiName, maxSuggestions),
		}
	}

	if missing := missingParams(spec, params); len(missing) > 0 {
		return nil, &MissingParameterError{API: apiName, Missing: missing}
	}

	if err := e.limiter.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	logging.Debug("invoking upstream api %s", apiName)
	payload, err := e.invoker.Invoke(ctx, apiName, params)
	if err != nil {
		return nil, &UpstreamError{API: apiName, Err: err}
	}

	return e.shape(apiName, payload), nil
}

// missingParams returns the required parameters absent (or blank) in
// params, sorted for a deterministic error message.
func missingParams(spec *catalog.ApiSpec, params map[string]interface{}) []string {
	var missing []string
	for _, name := range spec.RequiredParams() {
		value, ok := params[name]
		if !ok || value == nil || value == "" {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// shape truncates tabular payloads to the effective row cap and
// annotates whether data was dropped. Non-tabular payloads pass
// through unmodified.
func (e *Executor) shape(apiName string, payload *tushare.Payload) *ShapedResult {
	if !payload.IsTabular() {
		return &ShapedResult{Scalar: payload.Raw}
	}

	rows := make([]map[string]interface{}, 0, len(payload.Items))
	for _, item := range payload.Items {
		row := make(map[string]interface{}, len(payload.Fields))
		for i, field := range payload.Fields {
			if i < len(item) {
				row[field] = item[i]
			}
		}
		rows = append(rows, row)
	}

	result := &ShapedResult{
		Rows:      rows,
		TotalRows: len(rows),
		HasMore:   payload.HasMore,
	}

	rowCap := e.limits.RowCapFor(apiName)
	if rowCap > 0 && len(rows) > rowCap {
		result.Rows = rows[:rowCap]
		result.Truncated = true
		logging.Debug("truncated %s response from %d to %d rows", apiName, len(rows), rowCap)
	}
	return result
}
