package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const HuggingFaceBaseURL = "https://router.huggingface.co/hf-inference/models"

// HuggingFaceProvider calls the feature-extraction pipeline of the HF inference API.
type HuggingFaceProvider struct {
	token   string
	baseURL string
	model   string
	client  *http.Client
}

func NewHuggingFaceProvider(token, baseURL, model string, timeout time.Duration) *HuggingFaceProvider {
	if baseURL == "" {
		baseURL = HuggingFaceBaseURL
	}
	if model == "" {
		model = "sentence-transformers/all-MiniLM-L6-v2"
	}
	return &HuggingFaceProvider{
		token:   token,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

type hfRequest struct {
	Inputs string `json:"inputs"`
}

type hfError struct {
	Error string `json:"error"`
}

func (p *HuggingFaceProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	jsonData, err := json.Marshal(hfRequest{Inputs: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/pipeline/feature-extraction", p.baseURL, p.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("huggingface request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr hfError
		if json.Unmarshal(bodyBytes, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("huggingface api error (status %d): %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("huggingface api error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	values, err := decodeFeatures(bodyBytes)
	if err != nil {
		return nil, err
	}

	return newResponse(normalizeVector(values)), nil
}

// decodeFeatures accepts a sentence vector, a token matrix, or a batch of
// one token matrix. Token matrices are mean-pooled.
func decodeFeatures(body []byte) ([]float32, error) {
	var flat []float32
	if err := json.Unmarshal(body, &flat); err == nil {
		if len(flat) == 0 {
			return nil, fmt.Errorf("empty embedding from huggingface")
		}
		return flat, nil
	}

	var matrix [][]float32
	if err := json.Unmarshal(body, &matrix); err == nil {
		return meanPool(matrix)
	}

	var batch [][][]float32
	if err := json.Unmarshal(body, &batch); err == nil && len(batch) > 0 {
		return meanPool(batch[0])
	}

	return nil, fmt.Errorf("unexpected feature-extraction payload: %.120s", string(body))
}

func meanPool(rows [][]float32) ([]float32, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("empty embedding from huggingface")
	}
	dim := len(rows[0])
	out := make([]float32, dim)
	for _, row := range rows {
		if len(row) != dim {
			return nil, fmt.Errorf("ragged token matrix: %d != %d", len(row), dim)
		}
		for i, v := range row {
			out[i] += v
		}
	}
	for i := range out {
		out[i] /= float32(len(rows))
	}
	return out, nil
}
