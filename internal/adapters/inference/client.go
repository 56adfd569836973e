// Package inference is the client for the external generative analysis
// service. It scores practice recordings, generates challenge sentences and
// assesses screening risk.
package inference

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/mimicoo/internal/domain/model"
	"github.com/okian/mimicoo/pkg/logger"
	"github.com/okian/mimicoo/pkg/metrics"
)

const (
	defaultModel       = "gemini-2.5-flash-preview-05-20"
	defaultMaxRetries  = 3
	defaultBackoffBase = time.Second
	defaultTimeout     = 30 * time.Second
	maxErrorBody       = 512
)

// Operation labels.
const (
	OpAnalyze  = "analyze"
	OpSentence = "sentence"
	OpRisk     = "risk"
)

// Client talks to a generateContent endpoint.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	http        *http.Client
	maxRetries  int
	backoffBase time.Duration
	limiter     *rate.Limiter
	jitter      func() float64
	log         logger.Logger
}

// New creates a Client. apiKey must be non-empty.
func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	if _, err := url.Parse(baseURL); err != nil || baseURL == "" {
		return nil, fmt.Errorf("%w: invalid base url %q", ErrNotConfigured, baseURL)
	}
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		model:       defaultModel,
		http:        &http.Client{Timeout: defaultTimeout},
		maxRetries:  defaultMaxRetries,
		backoffBase: defaultBackoffBase,
		limiter:     rate.NewLimiter(rate.Inf, 1),
		jitter:      rand.Float64, //nolint:gosec // jitter only
		log:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (c *Client) endpoint() string {
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.baseURL, url.PathEscape(c.model), url.QueryEscape(c.apiKey))
}

// generate posts parts and returns the first candidate's text. 429 answers
// are retried with 2^i*base + U(0,base) delays; every other failure returns
// immediately.
func (c *Client) generate(ctx context.Context, op string, parts []part) (string, error) {
	start := time.Now()
	text, err := c.generateWithRetry(ctx, parts)
	outcome := "ok"
	switch {
	case errors.Is(err, ErrRateLimited):
		outcome = "rate_limited"
	case err != nil:
		outcome = "error"
	}
	metrics.RecordInferenceRequest(op, outcome, float64(time.Since(start).Milliseconds()))
	return text, err
}

func (c *Client) generateWithRetry(ctx context.Context, parts []part) (string, error) {
	body, err := json.Marshal(generateRequest{Contents: []content{{Role: "user", Parts: parts}}})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter: %w", err)
		}

		text, retry, err := c.do(ctx, body)
		if !retry {
			return text, err
		}
		if attempt == c.maxRetries-1 {
			break
		}

		delay := c.backoff(attempt)
		metrics.RecordInferenceRetry()
		c.log.Warn(ctx, "inference rate limited, backing off",
			logger.Int("attempt", attempt+1),
			logger.Duration("delay", delay))

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return "", ctx.Err()
		case <-t.C:
		}
	}
	return "", ErrRateLimited
}

func (c *Client) backoff(attempt int) time.Duration {
	base := float64(c.backoffBase)
	return time.Duration(math.Pow(2, float64(attempt))*base + c.jitter()*base)
}

// do performs one attempt. retry is true only for 429.
func (c *Client) do(ctx context.Context, body []byte) (text string, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", true, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", false, &StatusError{Code: resp.StatusCode, Body: string(b)}
	}

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", false, fmt.Errorf("decode envelope: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", false, ErrEmptyResponse
	}
	return strings.TrimSpace(gr.Candidates[0].Content.Parts[0].Text), false, nil
}

// StripFences removes markdown code fences around a JSON answer.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// Analyze scores a practice recording. It never returns an error: an
// undecodable answer is a ParseError, everything else a NetworkError.
func (c *Client) Analyze(ctx context.Context, req model.AnalysisRequest) model.AnalysisOutcome {
	parts := []part{{Text: analysisPrompt(req.Sentence)}}
	if len(req.Audio) > 0 {
		mime := req.MimeType
		if mime == "" {
			mime = "audio/webm"
		}
		parts = append(parts, part{InlineData: &inlineData{
			MimeType: mime,
			Data:     base64.StdEncoding.EncodeToString(req.Audio),
		}})
	}

	text, err := c.generate(ctx, OpAnalyze, parts)
	if err != nil {
		c.log.Warn(ctx, "inference analysis failed", logger.String("session_id", req.SessionID), logger.Error(err))
		return model.NetworkError{Err: err}
	}

	raw := StripFences(text)
	var ans scoreAnswer
	if err := json.Unmarshal([]byte(raw), &ans); err != nil {
		c.log.Warn(ctx, "inference analysis unparseable", logger.String("session_id", req.SessionID), logger.Error(err))
		return model.ParseError{Raw: raw, Err: err}
	}
	return model.Success{Result: ans.result()}
}

// scoreAnswer is the analysis answer as sent. Numbers may be fractional.
type scoreAnswer struct {
	Score         float64  `json:"score"`
	Feedback      []string `json:"feedback"`
	Strengths     []string `json:"strengths"`
	Improvements  []string `json:"improvements"`
	Clarity       float64  `json:"clarity"`
	Pronunciation float64  `json:"pronunciation"`
	Fluency       float64  `json:"fluency"`
}

func (a scoreAnswer) result() model.ScoreResult {
	return model.ScoreResult{
		Score:         model.RoundPercent(a.Score),
		Feedback:      a.Feedback,
		Strengths:     a.Strengths,
		Improvements:  a.Improvements,
		Clarity:       model.RoundPercent(a.Clarity),
		Pronunciation: model.RoundPercent(a.Pronunciation),
		Fluency:       model.RoundPercent(a.Fluency),
	}
}

// GenerateSentence returns the raw challenge text for prompt.
func (c *Client) GenerateSentence(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, OpSentence, []part{{Text: prompt}})
}

type riskAnswer struct {
	RiskAssessment []struct {
		Condition      string  `json:"condition"`
		RiskPercentage float64 `json:"risk_percentage"`
		Reasoning      string  `json:"reasoning"`
	} `json:"risk_assessment"`
	OverallStatus string   `json:"overall_status"`
	NextSteps     []string `json:"next_steps"`
	KeyFindings   string   `json:"key_findings"`
}

// AssessRisk asks for a screening assessment comparing uploaded features to
// the reference. Percentages are clamped and statuses derived locally; the
// service's own status labels are ignored.
func (c *Client) AssessRisk(ctx context.Context, uploaded, reference model.Summary) (model.AnalysisReport, error) {
	text, err := c.generate(ctx, OpRisk, []part{{Text: riskPrompt(uploaded, reference)}})
	if err != nil {
		return model.AnalysisReport{}, err
	}

	var ans riskAnswer
	if err := json.Unmarshal([]byte(StripFences(text)), &ans); err != nil {
		return model.AnalysisReport{}, fmt.Errorf("decode risk answer: %w", err)
	}
	if len(ans.RiskAssessment) == 0 {
		return model.AnalysisReport{}, fmt.Errorf("decode risk answer: %w", ErrEmptyResponse)
	}

	rep := model.AnalysisReport{
		OverallStatus: ans.OverallStatus,
		NextSteps:     ans.NextSteps,
		KeyFindings:   ans.KeyFindings,
		Source:        "inference",
	}
	for _, it := range ans.RiskAssessment {
		rep.RiskAssessment = append(rep.RiskAssessment,
			model.NewRiskAssessmentItem(it.Condition, model.RoundPercent(it.RiskPercentage), it.Reasoning))
	}
	return rep, nil
}
