package remote

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

	"github.com/gorilla/websocket"

	"github.com/studypulse/backend/internal/errors"
	"github.com/studypulse/backend/internal/logging"
)

// HTTPConfig holds document store connection configuration.
type HTTPConfig struct {
	Endpoint string // e.g. https://docs.studypulse.app
	APIKey   string
	Project  string
}

// HTTPClient implements DocumentClient against the StudyPulse
// document store REST API.
type HTTPClient struct {
	config     *HTTPConfig
	httpClient *http.Client
	dialer     *websocket.Dialer
}

// NewHTTPClient creates a new HTTPClient.
func NewHTTPClient(config *HTTPConfig) *HTTPClient {
	return &HTTPClient{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		},
		dialer: &websocket.Dialer{HandshakeTimeout: 15 * time.Second},
	}
}

// docURL builds the REST URL for a document path.
func (c *HTTPClient) docURL(path string) string {
	return fmt.Sprintf("%s/v1/projects/%s/documents/%s",
		strings.TrimSuffix(c.config.Endpoint, "/"),
		url.PathEscape(c.config.Project),
		path)
}

// GetDocument fetches a document snapshot. A 404 is a missing
// document, not an error.
func (c *HTTPClient) GetDocument(ctx context.Context, path string) (Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.docURL(path), nil)
	if err != nil {
		return Snapshot{}, err
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Snapshot{}, errors.Wrap(errors.ErrRemoteUnavailable, "get request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return NewSnapshot(path, nil), nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Snapshot{}, errors.New(errors.ErrRemoteUnavailable,
			fmt.Sprintf("get failed with status %d: %s", resp.StatusCode, string(body)))
	}

	var fields map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&fields); err != nil {
		return Snapshot{}, errors.Wrap(errors.ErrRemoteUnavailable, "failed to decode document", err)
	}
	return NewSnapshot(path, fields), nil
}

// SetDocument writes document fields. With merge the server patches
// the named fields; without it the document is replaced.
func (c *HTTPClient) SetDocument(ctx context.Context, path string, fields map[string]interface{}, merge bool) error {
	body, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	method := http.MethodPut
	if merge {
		method = http.MethodPatch
	}
	req, err := http.NewRequestWithContext(ctx, method, c.docURL(path), bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(errors.ErrRemoteUnavailable, "set request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		respBody, _ := io.ReadAll(resp.Body)
		return errors.New(errors.ErrRemoteRejected,
			fmt.Sprintf("set failed with status %d: %s", resp.StatusCode, string(respBody)))
	}
	return nil
}

// watchEnvelope wraps messages on the document watch socket.
type watchEnvelope struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

// Subscribe opens a websocket watch on a document and delivers each
// snapshot push to onChange. The returned function stops the watch.
func (c *HTTPClient) Subscribe(path string, onChange func(Snapshot), onError func(error)) (func(), error) {
	wsURL := strings.Replace(c.docURL(path), "http", "ws", 1) + "/watch"

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.config.APIKey)

	conn, _, err := c.dialer.Dial(wsURL, header)
	if err != nil {
		return nil, errors.Wrap(errors.ErrSubscribeFailed, "watch dial failed", err)
	}

	done := make(chan struct{})
	go func() {
		for {
			var env watchEnvelope
			if err := conn.ReadJSON(&env); err != nil {
				select {
				case <-done:
					// Unsubscribed; the read error is the closed conn.
				default:
					logging.Warn("Document watch closed", map[string]interface{}{
						"doc":   path,
						"error": err.Error(),
					})
					onError(errors.Wrap(errors.ErrSubscribeFailed, "watch read failed", err))
				}
				return
			}
			switch env.Type {
			case "snapshot":
				onChange(NewSnapshot(path, env.Data))
			case "deleted":
				onChange(NewSnapshot(path, nil))
			}
		}
	}()

	unsubscribe := func() {
		close(done)
		conn.Close()
	}
	return unsubscribe, nil
}

// authorize attaches API credentials to a request.
func (c *HTTPClient) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
}
