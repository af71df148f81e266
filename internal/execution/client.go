// Package execution talks to the remote multi-language execution backend
// and turns its stage output into normalized run results.
package execution

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/language"
)

// ErrBackendUnavailable marks transport-class failures: the backend could
// not be reached or answered outside its wire contract. These are the only
// errors the orchestrator retries.
var ErrBackendUnavailable = errors.New("execution backend unavailable")

// StageOutput is one compile or run stage reported by the backend.
type StageOutput struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	Output string `json:"output"`
	Code   *int   `json:"code"`
	Signal string `json:"signal,omitempty"`
}

// Failed reports whether the stage exited nonzero or was killed.
func (s StageOutput) Failed() bool {
	if s.Signal != "" {
		return true
	}
	return s.Code != nil && *s.Code != 0
}

// BackendResponse is the raw payload returned by the execution backend.
type BackendResponse struct {
	Language string       `json:"language"`
	Version  string       `json:"version"`
	Compile  *StageOutput `json:"compile,omitempty"`
	Run      StageOutput  `json:"run"`
}

type wireFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type wireRequest struct {
	Language string     `json:"language"`
	Version  string     `json:"version"`
	Files    []wireFile `json:"files"`
	Stdin    string     `json:"stdin,omitempty"`
}

// Client sends a single source payload to the execution backend. One
// outbound call per invocation; retries belong to the Orchestrator.
type Client interface {
	Execute(ctx context.Context, spec language.Spec, source, stdin string) (BackendResponse, error)
}

// ClientConfig groups HTTP client construction values.
type ClientConfig struct {
	BaseURL string
	Logger  zerolog.Logger
}

// HTTPClient implements Client over the backend's JSON-over-HTTP contract.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

// NewHTTPClient constructs a backend client. Deadlines are applied per
// call through the caller's context, so the underlying http.Client carries
// no timeout of its own.
func NewHTTPClient(cfg ClientConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("execution backend url must not be empty")
	}

	return &HTTPClient{
		baseURL: cfg.BaseURL,
		http:    &http.Client{},
		logger:  cfg.Logger.With().Str("component", "execution_client").Logger(),
	}, nil
}

// Execute posts the source to the backend and parses the stage response.
// Transport failures and non-2xx statuses are wrapped in
// ErrBackendUnavailable; context errors pass through untouched so the
// caller can tell a timeout from a dead backend.
func (c *HTTPClient) Execute(ctx context.Context, spec language.Spec, source, stdin string) (BackendResponse, error) {
	payload := wireRequest{
		Language: spec.RuntimeName,
		Version:  spec.RuntimeVersion,
		Files:    []wireFile{{Name: sourceFileName(spec), Content: source}},
		Stdin:    stdin,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return BackendResponse{}, fmt.Errorf("encode execution request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/execute", bytes.NewReader(body))
	if err != nil {
		return BackendResponse{}, fmt.Errorf("build execution request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return BackendResponse{}, ctxErr
		}
		return BackendResponse{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return BackendResponse{}, ctxErr
		}
		return BackendResponse{}, fmt.Errorf("%w: read response: %v", ErrBackendUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("language", spec.ID).
			Dur("elapsed", time.Since(started)).
			Msg("execution backend returned non-2xx")
		return BackendResponse{}, fmt.Errorf("%w: status %d", ErrBackendUnavailable, resp.StatusCode)
	}

	var parsed BackendResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return BackendResponse{}, fmt.Errorf("%w: malformed response body: %v", ErrBackendUnavailable, err)
	}

	c.logger.Debug().
		Str("language", spec.ID).
		Str("version", spec.RuntimeVersion).
		Dur("elapsed", time.Since(started)).
		Msg("execution backend call completed")

	return parsed, nil
}

func sourceFileName(spec language.Spec) string {
	extensions := map[string]string{
		"python":     "main.py",
		"javascript": "main.js",
		"go":         "main.go",
		"java":       "Main.java",
		"cpp":        "main.cpp",
	}
	if name, ok := extensions[spec.ID]; ok {
		return name
	}
	return "main.txt"
}
