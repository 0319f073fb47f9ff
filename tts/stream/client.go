// Package stream opens token-generation requests against a llama-server
// compatible completions endpoint and yields streamed tokens in arrival
// order.
package stream

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/skald-tts/skald/tts"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"

	// maxErrorBody caps how much of an error response is carried into
	// the returned error.
	maxErrorBody = 4096
)

// Config holds connection settings for the generation service.
type Config struct {
	// URL of the completions endpoint. Defaults to tts.DefaultServerURL.
	URL string

	// Timeout bounds a whole streaming request. Zero disables it;
	// callers should then cancel via context.
	Timeout time.Duration

	// RequestsPerMinute throttles stream openings so sequential chunk
	// requests don't hammer the service. Zero disables throttling.
	RequestsPerMinute int
}

// Client issues streaming completion requests. One stream is opened per
// text chunk; the client is safe for reuse across requests.
type Client struct {
	url        string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client for the given service configuration.
func NewClient(cfg Config) *Client {
	if cfg.URL == "" {
		cfg.URL = tts.DefaultServerURL
	}
	c := &Client{
		url:        cfg.URL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(
			rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return c
}

// completionRequest is the llama-server completions payload.
type completionRequest struct {
	Prompt        string  `json:"prompt"`
	Temperature   float64 `json:"temperature"`
	TopP          float64 `json:"top_p"`
	MaxTokens     int     `json:"max_tokens"`
	Stop          *string `json:"stop"`
	Stream        bool    `json:"stream"`
	RepeatPenalty float64 `json:"repeat_penalty"`
}

// completionRecord is one streamed data line.
type completionRecord struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

// Generate opens one streaming request for the formatted prompt and returns
// its token source. A non-success status is fatal for the chunk and
// reported as *tts.GenerationError carrying the status and body.
func (c *Client) Generate(ctx context.Context, prompt string, params tts.SynthesisParams) (tts.TokenSource, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	body, err := sonic.Marshal(completionRequest{
		Prompt:        prompt,
		Temperature:   params.Temperature,
		TopP:          params.TopP,
		MaxTokens:     params.MaxTokens,
		Stop:          nil,
		Stream:        true,
		RepeatPenalty: params.RepeatPenalty,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("contact generation service: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close() //nolint:errcheck,gosec
		return nil, &tts.GenerationError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(b)),
		}
	}

	return &TokenStream{
		body:    resp.Body,
		scanner: bufio.NewScanner(resp.Body),
	}, nil
}

// TokenStream reads server-sent completion records line by line. Only lines
// with the data prefix are interpreted; everything else is skipped. Not
// safe for concurrent use; a stream belongs to one pipeline run.
type TokenStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
}

// Next returns the next generated token in arrival order. A malformed data
// line is a local error: it is logged and skipped without aborting the
// stream. io.EOF signals a clean end, either via the termination sentinel
// or the connection closing.
func (s *TokenStream) Next() (string, error) {
	if s.done {
		return "", io.EOF
	}
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}
		payload := strings.TrimSpace(line[len(dataPrefix):])
		if payload == doneSentinel {
			s.done = true
			return "", io.EOF
		}
		var rec completionRecord
		if err := sonic.UnmarshalString(payload, &rec); err != nil {
			log.Debug("skipping malformed stream record", "err", err)
			continue
		}
		if len(rec.Choices) == 0 {
			log.Debug("skipping stream record without choices")
			continue
		}
		return rec.Choices[0].Text, nil
	}
	s.done = true
	if err := s.scanner.Err(); err != nil {
		return "", fmt.Errorf("read token stream: %w", err)
	}
	return "", io.EOF
}

// Close releases the underlying connection.
func (s *TokenStream) Close() error {
	return s.body.Close()
}
