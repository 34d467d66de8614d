// Package api talks to the exam-paper backend that stores questions, their
// boxes and answer boxes.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type Client struct {
	Papers    PaperService
	Questions QuestionService
	Answers   AnswerService
}

func New(url string, opts ...RequestOption) *Client {
	opts = append(opts, WithURL(url))

	return &Client{
		Papers:    NewPaperService(opts...),
		Questions: NewQuestionService(opts...),
		Answers:   NewAnswerService(opts...),
	}
}

type RequestConfig struct {
	Client *http.Client
	URL    string
	Token  string
}

type RequestOption func(*RequestConfig)

func WithClient(c *http.Client) RequestOption {
	return func(cfg *RequestConfig) {
		cfg.Client = c
	}
}

func WithURL(url string) RequestOption {
	return func(cfg *RequestConfig) {
		cfg.URL = strings.TrimRight(url, "/")
	}
}

func WithToken(token string) RequestOption {
	return func(cfg *RequestConfig) {
		cfg.Token = token
	}
}

func newRequestConfig(opts ...RequestOption) *RequestConfig {
	c := &RequestConfig{
		Client: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return e.Status
	}
	return fmt.Sprintf("%s: %s", e.Status, e.Body)
}

func (c *RequestConfig) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader

	if body != nil {
		data, err := json.Marshal(body)

		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}

		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL+path, r)

	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	req.Header.Set("X-Request-Id", uuid.NewString())

	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	return req, nil
}

func (c *RequestConfig) send(req *http.Request) (*http.Response, error) {
	resp, err := c.Client.Do(req)

	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()

		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

		return nil, &StatusError{
			Code:   resp.StatusCode,
			Status: resp.Status,
			Body:   strings.TrimSpace(string(data)),
		}
	}

	return resp, nil
}

// doJSON sends body as JSON and decodes the response into out when non-nil.
func (c *RequestConfig) doJSON(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)

	if err != nil {
		return err
	}

	resp, err := c.send(req)

	if err != nil {
		return err
	}

	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}

	return nil
}
