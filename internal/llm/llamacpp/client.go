package llamacpp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/spendify/internal/common"
	"github.com/joseph-ayodele/spendify/internal/llm"
)

var _ llm.Completer = (*Client)(nil)

type completionRequest struct {
	Prompt      string   `json:"prompt"`
	NPredict    int      `json:"n_predict"`
	Temperature float32  `json:"temperature"`
	TopP        float32  `json:"top_p"`
	Stop        []string `json:"stop"`
	Stream      bool     `json:"stream"`
}

// completionResponse covers both the native /completion shape (content) and the
// OpenAI-compatible one (choices[].text) some llama.cpp builds return.
type completionResponse struct {
	Content         string `json:"content"`
	TokensPredicted int    `json:"tokens_predicted"`
	StoppedLimit    bool   `json:"stopped_limit"`
	Choices         []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

func (r completionResponse) text() (string, bool) {
	if r.Content != "" {
		return r.Content, true
	}
	if len(r.Choices) > 0 {
		return r.Choices[0].Text, true
	}
	return "", false
}

// Complete posts the prompt to <BaseURL>/completion and returns the generated text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.NewString()
		ctx = common.WithRequestID(ctx, rid)
	}
	start := time.Now()

	if c.cfg.BaseURL == "" {
		return "", errors.New("llamacpp: base url is empty")
	}

	c.log.Info("llm.complete.start",
		"req_id", rid,
		"prompt_len", len(prompt),
		"n_predict", c.cfg.MaxTokens,
		"temp", c.cfg.Temperature,
		"top_p", c.cfg.TopP,
	)

	body := completionRequest{
		Prompt:      prompt,
		NPredict:    c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		TopP:        c.cfg.TopP,
		Stop:        c.cfg.Stop,
	}
	headers := map[string]string{}
	if c.cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + c.cfg.APIKey
	}

	var out completionResponse
	raw, status, err := c.post(ctx, rid, body, &out, headers)
	if err != nil {
		c.log.Error("llm.complete.http_error",
			"req_id", rid, "status", status, "error", err,
			"raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("llamacpp completion: %w", err)
	}

	text, ok := out.text()
	if !ok {
		c.log.Warn("llm.complete.empty",
			"req_id", rid, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
	if out.StoppedLimit {
		c.log.Warn("llm.complete.truncated", "req_id", rid, "tokens", out.TokensPredicted)
	}

	c.log.Info("llm.complete.ok",
		"req_id", rid,
		"chars", len(text),
		"tokens", out.TokensPredicted,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

// post sends the request, waiting out 503 responses llama-server gives while the model loads.
func (c *Client) post(ctx context.Context, rid string, body completionRequest, out *completionResponse, headers map[string]string) ([]byte, int, error) {
	for attempt := 0; ; attempt++ {
		raw, status, err := llm.PostJSON(ctx, c.httpClient, c.cfg.BaseURL+"/completion", body, out, headers, c.log)
		if status != http.StatusServiceUnavailable || attempt >= c.cfg.LoadRetries {
			return raw, status, err
		}
		c.log.Warn("llm.complete.model_loading", "req_id", rid, "attempt", attempt+1, "retry_in_ms", c.cfg.RetryDelay.Milliseconds())
		select {
		case <-ctx.Done():
			return raw, status, errors.Join(ctx.Err(), err)
		case <-time.After(c.cfg.RetryDelay):
		}
	}
}
