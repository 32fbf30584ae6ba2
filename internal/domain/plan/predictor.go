package plan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/carefolio/api/internal/platform/httperr"
)

// Predictor calls the external model service for a plan variant. Errors are
// upstream-kinded; the caller recovers them via the fallback planner, never
// surfaced.
type Predictor interface {
	Predict(ctx context.Context, variant Variant, inputParams json.RawMessage) (json.RawMessage, error)
}

// HTTPPredictor posts input parameters to one endpoint per variant. Every
// call is bounded by the configured timeout so a dead predictor cannot
// stall a request.
type HTTPPredictor struct {
	mealURL     string
	exerciseURL string
	client      *http.Client
}

func NewHTTPPredictor(mealURL, exerciseURL string, timeout time.Duration) *HTTPPredictor {
	return &HTTPPredictor{
		mealURL:     mealURL,
		exerciseURL: exerciseURL,
		client:      &http.Client{Timeout: timeout},
	}
}

const maxPredictorResponse = 1 << 20 // 1 MiB

func (p *HTTPPredictor) Predict(ctx context.Context, variant Variant, inputParams json.RawMessage) (json.RawMessage, error) {
	url := p.mealURL
	if variant == VariantExercise {
		url = p.exerciseURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(inputParams))
	if err != nil {
		return nil, fmt.Errorf("build predictor request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, httperr.Upstream("call predictor", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, httperr.Upstream("predictor", fmt.Errorf("status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPredictorResponse))
	if err != nil {
		return nil, httperr.Upstream("read predictor response", err)
	}
	if !json.Valid(body) {
		return nil, httperr.Upstream("predictor", fmt.Errorf("malformed JSON response"))
	}
	return body, nil
}
