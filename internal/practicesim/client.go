package practicesim

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	service "github.com/okian/mimicoo/internal/app"
	"github.com/okian/mimicoo/internal/domain/model"
	"github.com/okian/mimicoo/internal/domain/practice"
	"github.com/okian/mimicoo/internal/domain/types"
)

// ErrUnexpectedStatus reports a response code the run did not expect.
var ErrUnexpectedStatus = errors.New("unexpected status")

// Client talks to the mimicoo HTTP API.
type Client struct {
	baseURL string
	wsURL   string
	http    *http.Client
	dialer  *websocket.Dialer
}

// NewClient creates a client. wsURL may be empty to derive it from baseURL.
func NewClient(baseURL, wsURL string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	if wsURL == "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
		switch u.Scheme {
		case "https":
			u.Scheme = "wss"
		default:
			u.Scheme = "ws"
		}
		wsURL = u.String()
	}
	return &Client{
		baseURL: baseURL,
		wsURL:   strings.TrimRight(wsURL, "/"),
		http:    &http.Client{Timeout: timeout},
		dialer:  &websocket.Dialer{HandshakeTimeout: timeout},
	}, nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, header http.Header, want ...int) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read %s: %w", path, err)
	}
	for _, code := range want {
		if resp.StatusCode == code {
			return data, resp.StatusCode, nil
		}
	}
	return data, resp.StatusCode, fmt.Errorf("%w: %s %s: %d %s", ErrUnexpectedStatus, method, path, resp.StatusCode, strings.TrimSpace(string(data)))
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any, want ...int) (int, error) {
	var body io.Reader = http.NoBody
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(b)
	}
	data, code, err := c.do(ctx, http.MethodPost, path, "application/json", body, nil, want...)
	if err != nil {
		return code, err
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return code, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return code, nil
}

// Health checks that the metrics endpoint answers.
func (c *Client) Health(ctx context.Context) error {
	_, _, err := c.do(ctx, http.MethodGet, "/healthz", "", http.NoBody, nil, http.StatusOK)
	return err
}

// CreateSession starts a session for age.
func (c *Client) CreateSession(ctx context.Context, age string) (practice.View, error) {
	var v practice.View
	_, err := c.postJSON(ctx, "/sessions", map[string]string{"age_category": age}, &v, http.StatusCreated)
	return v, err
}

// Session fetches a session snapshot.
func (c *Client) Session(ctx context.Context, id string) (practice.View, error) {
	var v practice.View
	data, _, err := c.do(ctx, http.MethodGet, "/sessions/"+id, "", http.NoBody, nil, http.StatusOK)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode session: %w", err)
	}
	return v, nil
}

// StartRecording reports the microphone answer and starts recording. A
// denied permission returns the 403 status with a nil error.
func (c *Client) StartRecording(ctx context.Context, id string, granted bool) (int, error) {
	return c.postJSON(ctx, "/sessions/"+id+"/recording/start",
		map[string]bool{"permission_granted": granted}, nil, http.StatusOK, http.StatusForbidden)
}

// StopRecording uploads a take.
func (c *Client) StopRecording(ctx context.Context, id string, audio []byte) error {
	_, _, err := c.do(ctx, http.MethodPost, "/sessions/"+id+"/recording/stop", "audio/webm",
		bytes.NewReader(audio), nil, http.StatusOK)
	return err
}

// Analyze submits the take with an idempotency key.
func (c *Client) Analyze(ctx context.Context, id, key string) (service.Ticket, error) {
	var t service.Ticket
	data, _, err := c.do(ctx, http.MethodPost, "/sessions/"+id+"/analyze", "", http.NoBody,
		http.Header{"Idempotency-Key": []string{key}}, http.StatusAccepted, http.StatusOK)
	if err != nil {
		return t, err
	}
	if err := json.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("decode ticket: %w", err)
	}
	return t, nil
}

// Reset returns the session to idle.
func (c *Client) Reset(ctx context.Context, id string) error {
	_, err := c.postJSON(ctx, "/sessions/"+id+"/reset", nil, nil, http.StatusOK)
	return err
}

// Delete removes the session.
func (c *Client) Delete(ctx context.Context, id string) error {
	_, _, err := c.do(ctx, http.MethodDelete, "/sessions/"+id, "", http.NoBody, nil, http.StatusNoContent)
	return err
}

// Upload posts a baseline recording.
func (c *Client) Upload(ctx context.Context, filename string, audio []byte) (model.UploadResponse, error) {
	var resp model.UploadResponse
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return resp, fmt.Errorf("create form file: %w", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return resp, fmt.Errorf("write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return resp, fmt.Errorf("close form: %w", err)
	}

	data, _, err := c.do(ctx, http.MethodPost, "/upload-base-audio", mw.FormDataContentType(), &buf, nil, http.StatusOK)
	if err != nil {
		return resp, err
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return resp, fmt.Errorf("decode upload: %w", err)
	}
	return resp, nil
}

// Report downloads a report body.
func (c *Client) Report(ctx context.Context, id string) (string, error) {
	data, _, err := c.do(ctx, http.MethodGet, "/reports/"+id, "", http.NoBody, nil, http.StatusOK)
	return string(data), err
}

// wireFrame is a frame with its payload left undecoded.
type wireFrame struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
}

// Subscription receives the frames of one session.
type Subscription struct {
	conn    *websocket.Conn
	timeout time.Duration
}

// Subscribe opens a WebSocket filtered to sessionID and waits until the
// server has registered it.
func (c *Client) Subscribe(ctx context.Context, sessionID string) (*Subscription, error) {
	target := c.wsURL + "/ws?session=" + url.QueryEscape(sessionID)
	conn, resp, err := c.dialer.DialContext(ctx, target, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}
	s := &Subscription{conn: conn, timeout: c.http.Timeout}

	if err := conn.WriteJSON(types.Frame{Type: types.FramePing}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if _, err := s.next(func(f wireFrame) bool { return f.Type == types.FramePong }); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *Subscription) next(match func(wireFrame) bool) (wireFrame, error) {
	_ = s.conn.SetReadDeadline(time.Now().Add(s.timeout))
	for {
		var f wireFrame
		if err := s.conn.ReadJSON(&f); err != nil {
			return f, fmt.Errorf("read frame: %w", err)
		}
		if match(f) {
			return f, nil
		}
	}
}

// AwaitResult reads frames until the completion and returns the scored
// session with the number of notifications seen on the way.
func (s *Subscription) AwaitResult() (practice.View, int, error) {
	var v practice.View
	notifications := 0
	f, err := s.next(func(f wireFrame) bool {
		if f.Type == types.FrameNotification {
			notifications++
		}
		return f.Type == types.FrameComplete || f.Type == types.FrameError
	})
	if err != nil {
		return v, notifications, err
	}
	if f.Type == types.FrameError {
		return v, notifications, fmt.Errorf("analysis failed: %s", f.Message)
	}
	if err := json.Unmarshal(f.Data, &v); err != nil {
		return v, notifications, fmt.Errorf("decode result: %w", err)
	}
	return v, notifications, nil
}

// Close closes the connection.
func (s *Subscription) Close() error {
	return s.conn.Close()
}
