package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"shikkha_backend/internal/model"
	"shikkha_backend/internal/result"
	"strings"
	"time"
)

var ErrNotFound = errors.New("not found")

// APIError is a non-2xx response from the exam server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

// Client talks to the exam HTTP API. It implements every collaborator a
// Session needs.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && !errors.Is(err, io.EOF) {
		if resp.StatusCode >= 300 {
			return &APIError{Status: resp.StatusCode}
		}
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode >= 300 || !env.Success {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

func (c *Client) LoadPaper(ctx context.Context, examID string) (*model.Paper, error) {
	var p model.Paper
	if err := c.do(ctx, http.MethodGet, "/api/exams/"+url.PathEscape(examID)+"/paper", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) StartAttempt(ctx context.Context, examID, studentID string) (time.Time, error) {
	var info struct {
		StartedAt time.Time `json:"startedAt"`
	}
	body := map[string]string{"studentId": studentID}
	if err := c.do(ctx, http.MethodPost, "/api/exams/"+url.PathEscape(examID)+"/attempts", body, &info); err != nil {
		return time.Time{}, err
	}
	return info.StartedAt, nil
}

func (c *Client) Submit(ctx context.Context, req SubmitRequest) (*model.ExamSubmission, error) {
	var sub model.ExamSubmission
	if err := c.do(ctx, http.MethodPost, "/api/exam-submissions", req, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func draftPath(examID, studentID string) string {
	return "/api/exam-drafts/" + url.PathEscape(examID) + "?studentId=" + url.QueryEscape(studentID)
}

func (c *Client) SaveDraft(ctx context.Context, examID, studentID string, d Draft) error {
	return c.do(ctx, http.MethodPut, draftPath(examID, studentID), d, nil)
}

func (c *Client) LoadDraft(ctx context.Context, examID, studentID string) (*Draft, error) {
	var d Draft
	err := c.do(ctx, http.MethodGet, draftPath(examID, studentID), nil, &d)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) FetchResult(ctx context.Context, submissionID string) (*result.Result, error) {
	var r result.Result
	if err := c.do(ctx, http.MethodGet, "/api/exam-submissions/"+url.PathEscape(submissionID)+"/result", nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
