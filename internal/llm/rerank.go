package llm

import (
	"context"
	"fmt"
	"net/http"
)

// RerankClient scores (query, document) pairs with a cross-encoder served
// behind a /v1/rerank endpoint (llama.cpp, TEI and Jina share this shape).
type RerankClient struct {
	BaseURL string
	APIKey  string
	Model   string
	client  *http.Client
}

// NewRerankClient creates a new cross-encoder client.
func NewRerankClient(baseURL, apiKey, model string) *RerankClient {
	return &RerankClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		client:  newHTTPClient(),
	}
}

// RerankRequest is the payload for the rerank endpoint.
type RerankRequest struct {
	Model     string   `json:"model,omitempty"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

// RerankResult is the score of one document, addressed by its input index.
type RerankResult struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
}

// RerankResponse is the reply of the rerank endpoint.
type RerankResponse struct {
	Results []RerankResult `json:"results"`
}

// Score returns one relevance score per document, aligned with documents.
func (c *RerankClient) Score(ctx context.Context, query string, documents []string) ([]float64, error) {
	if len(documents) == 0 {
		return nil, nil
	}

	payload := RerankRequest{
		Model:     c.Model,
		Query:     query,
		Documents: documents,
		TopN:      len(documents),
	}

	var rerankResp RerankResponse
	if err := postJSON(ctx, c.client, c.BaseURL, "/v1/rerank", c.APIKey, payload, &rerankResp); err != nil {
		return nil, err
	}

	scores := make([]float64, len(documents))
	seen := make([]bool, len(documents))
	for _, r := range rerankResp.Results {
		if r.Index < 0 || r.Index >= len(documents) {
			return nil, fmt.Errorf("rerank result index %d out of range", r.Index)
		}
		scores[r.Index] = r.RelevanceScore
		seen[r.Index] = true
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("missing rerank score for document %d", i)
		}
	}
	return scores, nil
}
