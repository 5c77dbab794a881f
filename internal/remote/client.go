// Package remote implements the HTTP client for the messaging backend and
// the commerce catalog. Both are external collaborators: this package owns
// no retry policy and surfaces every failure as a plain error for the
// caller (poller or send pipeline) to absorb.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the backend over JSON/HTTPS.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a backend client. baseURL has no trailing slash.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// ListConversations fetches the conversation list.
func (c *Client) ListConversations(ctx context.Context) ([]RemoteConversation, error) {
	var out []RemoteConversation
	if err := c.getJSON(ctx, "/conversations", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListMessages fetches the newest-first message feed for one conversation.
func (c *Client) ListMessages(ctx context.Context, conversationID string) ([]RemoteMessage, error) {
	var out []RemoteMessage
	path := "/conversations/" + url.PathEscape(conversationID) + "/messages"
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SendText submits a free-form text message.
func (c *Client) SendText(ctx context.Context, recipient, text string) (SendResult, error) {
	body, err := json.Marshal(map[string]string{
		"recipient": recipient,
		"text":      text,
	})
	if err != nil {
		return SendResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/send-text", bytes.NewReader(body))
	if err != nil {
		return SendResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doSend(req)
}

// SendMedia submits one file as multipart form data. caption may be empty;
// the pipeline only sets it on the last file of a batch.
func (c *Client) SendMedia(ctx context.Context, recipient string, file Attachment, caption string) (SendResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("recipient", recipient); err != nil {
		return SendResult{}, err
	}
	if caption != "" {
		if err := w.WriteField("caption", caption); err != nil {
			return SendResult{}, err
		}
	}
	part, err := w.CreateFormFile("file", file.Filename)
	if err != nil {
		return SendResult{}, err
	}
	if _, err := part.Write(file.Data); err != nil {
		return SendResult{}, err
	}
	if err := w.Close(); err != nil {
		return SendResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/send-media", &buf)
	if err != nil {
		return SendResult{}, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.doSend(req)
}

// FindProduct resolves a catalog product by name. Returns nil when the
// catalog has no match.
func (c *Client) FindProduct(ctx context.Context, name string) (*Product, error) {
	var out []Product
	if err := c.getJSON(ctx, "/products?name="+url.QueryEscape(name), &out); err != nil {
		return nil, err
	}
	for i := range out {
		if strings.EqualFold(out[i].Name, name) {
			return &out[i], nil
		}
	}
	if len(out) > 0 {
		return &out[0], nil
	}
	return nil, nil
}

// doSend executes a send request and decodes the shared result envelope.
// A backend rejection ({ok:false}) is returned as an error carrying the
// backend's error string so the pipeline can classify it.
func (c *Client) doSend(req *http.Request) (SendResult, error) {
	c.authorize(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return SendResult{}, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return SendResult{}, fmt.Errorf("read send response: %w", err)
	}

	var result SendResult
	if err := json.Unmarshal(data, &result); err != nil {
		return SendResult{}, fmt.Errorf("decode send response (status %d): %w", resp.StatusCode, err)
	}
	if !result.OK {
		return result, fmt.Errorf("backend rejected send: %s", result.Error)
	}
	return result, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("get %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
