package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golf-tracker/internal/config"
	"golf-tracker/internal/domain"

	"github.com/valyala/fasthttp"
)

// SheetsClient talks to the spreadsheet-backed remote round store: a single
// Apps Script web-app URL that accepts POSTed round payloads and returns the
// full round set on GET.
type SheetsClient struct {
	url    string
	client *fasthttp.Client
}

func NewSheetsClient(cfg *config.Config) *SheetsClient {
	return &SheetsClient{
		url: cfg.SheetsURL,
		client: &fasthttp.Client{
			MaxConnsPerHost:     4,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

// RoundPayload is the push body for a finished or manually synced round.
type RoundPayload struct {
	ID         string                    `json:"id"`
	Date       string                    `json:"date"` // ISO-8601
	TotalScore int                       `json:"totalScore"`
	Scores     map[int]*domain.HoleScore `json:"scores"`
}

// RemoteRound is one item of the fetched remote set.
type RemoteRound struct {
	ID     string                    `json:"id"`
	Date   string                    `json:"date"`
	Scores map[int]*domain.HoleScore `json:"scores"`
}

type deletePayload struct {
	Action string `json:"action"`
	ID     string `json:"id"`
}

type fetchEnvelope struct {
	Rounds []RemoteRound `json:"rounds"`
}

// SaveRound pushes one round to the remote store.
func (c *SheetsClient) SaveRound(ctx context.Context, payload RoundPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode round payload: %w", err)
	}
	_, err = c.post(ctx, body)
	return err
}

// DeleteRound asks the remote store to drop a round by id. Best-effort: the
// caller treats failure as a warning, not a rollback.
func (c *SheetsClient) DeleteRound(ctx context.Context, id string) error {
	body, err := json.Marshal(deletePayload{Action: "delete", ID: id})
	if err != nil {
		return fmt.Errorf("failed to encode delete payload: %w", err)
	}
	_, err = c.post(ctx, body)
	return err
}

// FetchRounds retrieves the complete remote round set. The endpoint returns
// either a bare array or a {"rounds": [...]} envelope depending on script
// version; both are accepted.
func (c *SheetsClient) FetchRounds(ctx context.Context) ([]RemoteRound, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	// Cache-busted: Apps Script GET responses are aggressively cached.
	req.SetRequestURI(fmt.Sprintf("%s?t=%d", c.url, time.Now().UnixMilli()))
	req.Header.SetMethod(fasthttp.MethodGet)

	if err := c.do(ctx, req, resp); err != nil {
		return nil, err
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("remote store error: %d", resp.StatusCode())
	}

	return ParseRounds(resp.Body())
}

// ParseRounds decodes either accepted fetch body shape.
func ParseRounds(body []byte) ([]RemoteRound, error) {
	var bare []RemoteRound
	if err := json.Unmarshal(body, &bare); err == nil {
		return bare, nil
	}
	var envelope fetchEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode remote rounds: %w", err)
	}
	return envelope.Rounds, nil
}

func (c *SheetsClient) post(ctx context.Context, body []byte) (int, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	// text/plain avoids the CORS preflight OPTIONS request, which Apps
	// Script web apps do not answer.
	req.Header.SetContentType("text/plain;charset=utf-8")
	req.SetBody(body)

	if err := c.do(ctx, req, resp); err != nil {
		return 0, err
	}

	status := resp.StatusCode()
	// Apps Script answers POSTs with a 302 to a one-time result URL.
	if status != fasthttp.StatusOK && status != fasthttp.StatusFound {
		return status, fmt.Errorf("remote store error: %d", status)
	}
	return status, nil
}

func (c *SheetsClient) do(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error {
	if deadline, ok := ctx.Deadline(); ok {
		return c.client.DoDeadline(req, resp, deadline)
	}
	return c.client.Do(req, resp)
}
