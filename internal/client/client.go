package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"notesync-be/internal/entity"
	"notesync-be/internal/pkg/apperror"

	"github.com/cenkalti/backoff/v5"
)

const (
	DefaultTimeout = 15 * time.Second

	// readAttempts bounds retries of idempotent reads; writes are sent once.
	readAttempts = 3
)

// Client talks to the note HTTP surface.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	newBackOff func() backoff.BackOff
}

type Option func(*Client)

// WithToken sends token as a bearer credential on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			return b
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type errorBody struct {
	Code    int           `json:"code"`
	Error   apperror.Code `json:"error"`
	Message string        `json:"message"`
}

// SavePayload is the body of a save. Content nil leaves the stored content.
type SavePayload struct {
	ID      string
	Content *string
	Meta    entity.NoteMeta
}

func (p SavePayload) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(p.Meta)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	if p.ID != "" {
		fields["id"], _ = json.Marshal(p.ID)
	}
	if p.Content != nil {
		fields["content"], _ = json.Marshal(*p.Content)
	}
	return json.Marshal(fields)
}

// SaveResult is the server's answer to a save: either the stored note or,
// for a delete, only the id.
type SaveResult struct {
	Note    *entity.Note
	ID      string
	Created bool
	Deleted bool
}

func (c *Client) GetNote(ctx context.Context, id string) (*entity.Note, error) {
	var note entity.Note
	if _, err := c.read(ctx, "/api/notes/"+url.PathEscape(id), &note); err != nil {
		return nil, err
	}
	return &note, nil
}

func (c *Client) CreateNote(ctx context.Context, payload SavePayload) (*entity.Note, error) {
	var note entity.Note
	if _, err := c.write(ctx, http.MethodPost, "/api/notes", payload, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

func (c *Client) SaveNote(ctx context.Context, payload SavePayload) (*SaveResult, error) {
	var raw json.RawMessage
	status, err := c.write(ctx, http.MethodPost, "/api/notes/save", payload, &raw)
	if err != nil {
		return nil, err
	}

	var probe struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("decode save response: %w", err)
	}
	if probe.Status == "deleted" {
		return &SaveResult{ID: probe.ID, Deleted: true}, nil
	}

	var note entity.Note
	if err := json.Unmarshal(raw, &note); err != nil {
		return nil, fmt.Errorf("decode save response: %w", err)
	}
	return &SaveResult{Note: &note, ID: note.Id, Created: status == http.StatusCreated}, nil
}

func (c *Client) UpdateContent(ctx context.Context, id, content string) error {
	_, err := c.write(ctx, http.MethodPost, "/api/notes/"+url.PathEscape(id), map[string]string{"content": content}, nil)
	return err
}

// GetMeta returns an empty NoteMeta for a note without metadata.
func (c *Client) GetMeta(ctx context.Context, id string) (*entity.NoteMeta, error) {
	var meta entity.NoteMeta
	if _, err := c.read(ctx, "/api/notes/"+url.PathEscape(id)+"/meta", &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (c *Client) UpdateMeta(ctx context.Context, id string, meta entity.NoteMeta) error {
	_, err := c.write(ctx, http.MethodPost, "/api/notes/"+url.PathEscape(id)+"/meta", meta, nil)
	return err
}

func (c *Client) DeleteNote(ctx context.Context, id string) error {
	_, err := c.write(ctx, http.MethodDelete, "/api/notes/"+url.PathEscape(id), nil, nil)
	return err
}

// Trash sends a trash action ("delete" or "restore").
func (c *Client) Trash(ctx context.Context, action, id, parentID string) error {
	body := map[string]interface{}{
		"action": action,
		"data":   map[string]string{"id": id, "parentId": parentID},
	}
	_, err := c.write(ctx, http.MethodPost, "/api/trash", body, nil)
	return err
}

func (c *Client) GetTree(ctx context.Context) (*entity.Tree, error) {
	tree := entity.NewTree()
	if _, err := c.read(ctx, "/api/tree", tree); err != nil {
		return nil, err
	}
	tree.Normalize()
	return tree, nil
}

// read retries transport failures and 5xx responses with exponential backoff.
func (c *Client) read(ctx context.Context, path string, out interface{}) (int, error) {
	return backoff.Retry(ctx, func() (int, error) {
		status, err := c.do(ctx, http.MethodGet, path, nil, out)
		if err != nil && status != 0 && status < http.StatusInternalServerError {
			return status, backoff.Permanent(err)
		}
		return status, err
	}, backoff.WithBackOff(c.newBackOff()), backoff.WithMaxTries(readAttempts))
}

func (c *Client) write(ctx context.Context, method, path string, body, out interface{}) (int, error) {
	return c.do(ctx, method, path, body, out)
}

// do returns the response status, or 0 when no response arrived.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read %s %s: %w", method, path, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return resp.StatusCode, decodeError(resp.StatusCode, data)
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return resp.StatusCode, nil
}

// decodeError turns an error body into an *apperror.Error so callers can use
// errors.Is(err, apperror.ErrNotFound).
func decodeError(status int, data []byte) error {
	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		return apperror.New(body.Error, body.Message)
	}
	switch status {
	case http.StatusNotFound:
		return apperror.NotFound("%s", http.StatusText(status))
	case http.StatusBadRequest:
		return apperror.InvalidRequest("%s", http.StatusText(status))
	}
	return apperror.New(apperror.CodeInternalServerError, fmt.Sprintf("unexpected status %d", status))
}
