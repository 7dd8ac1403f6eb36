package entropy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const (
	randomOrgEndpoint = "https://api.random.org/json-rpc/4/invoke"
	randomOrgBatch    = 100
	randomOrgLowWater = 10
)

// RandomOrg is a Source backed by random.org decimal fractions with a local pool.
// When the API is unreachable it falls back to crypto/rand, so Float never blocks
// on failure for longer than one request timeout.
type RandomOrg struct {
	apiKey   string
	endpoint string
	client   *http.Client

	mu   sync.Mutex
	pool []float64
}

// NewRandomOrg creates a random.org source. Returns nil if apiKey is empty;
// a nil *RandomOrg still works and draws from crypto/rand.
func NewRandomOrg(apiKey string) *RandomOrg {
	if apiKey == "" {
		return nil
	}
	return &RandomOrg{
		apiKey:   apiKey,
		endpoint: randomOrgEndpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Enabled returns true if the source has an API key.
func (r *RandomOrg) Enabled() bool {
	return r != nil && r.apiKey != ""
}

// Float returns a value in [0, 1), refilling the pool when it runs low.
func (r *RandomOrg) Float() float64 {
	if !r.Enabled() {
		return cryptoRandFloat()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.pool) < randomOrgLowWater {
		ctx, cancel := context.WithTimeout(context.Background(), r.client.Timeout)
		vals, err := r.fetch(ctx, randomOrgBatch)
		cancel()
		if err != nil {
			slog.Debug("random.org refill failed", "error", err)
		} else {
			r.pool = append(r.pool, vals...)
			slog.Debug("random.org pool refilled", "count", len(vals))
		}
	}

	if len(r.pool) == 0 {
		return cryptoRandFloat()
	}

	val := r.pool[0]
	r.pool = r.pool[1:]
	return val
}

func (r *RandomOrg) fetch(ctx context.Context, n int) ([]float64, error) {
	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"method":  "generateDecimalFractions",
		"params": map[string]any{
			"apiKey":        r.apiKey,
			"n":             n,
			"decimalPlaces": 6,
		},
		"id": 1,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var result struct {
		Result struct {
			Random struct {
				Data []float64 `json:"data"`
			} `json:"random"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("parse body: %w", err)
	}
	if result.Error != nil {
		return nil, fmt.Errorf("api error: %s", result.Error.Message)
	}
	return result.Result.Random.Data, nil
}
