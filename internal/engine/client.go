// internal/engine/client.go

// Package engine is the client side of the external AI execution service.
// The core only hands runs off; all computation and the eventual write-back
// happen on the engine's side.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type dispatchRequest struct {
	PipelineID uint           `json:"pipelineId"`
	ReportID   uint           `json:"reportId"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Dispatch asks the engine to start processing a pipeline. The engine
// reports progress back through the pipeline callback endpoint; a non-2xx
// response here means the run never started.
func (c *Client) Dispatch(ctx context.Context, pipelineID, reportID uint, parameters map[string]any) error {
	body, err := json.Marshal(dispatchRequest{
		PipelineID: pipelineID,
		ReportID:   reportID,
		Parameters: parameters,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pipelines/execute", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("engine dispatch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("engine dispatch: status %d: %s", resp.StatusCode, string(detail))
	}
	return nil
}
