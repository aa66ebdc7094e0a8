package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"flyingbus/models"
)

const (
	upsertDraftPath     = "/rpc/upsert_draft"
	submitForReviewPath = "/rpc/submit_for_review"

	maxResponseBytes = 1 << 20
)

// RPCGateway calls the draft RPC endpoints over HTTP. Only the canonical
// models.RPCResponse body is accepted.
type RPCGateway struct {
	baseURL string
	apiKey  string
	token   string
	client  *http.Client
}

func NewRPCGateway(baseURL, apiKey, token string, timeout time.Duration) *RPCGateway {
	return &RPCGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

func (g *RPCGateway) UpsertDraft(ctx context.Context, record models.DraftRecord) Result {
	res := g.call(ctx, upsertDraftPath, record)
	if !res.Success {
		return res
	}
	if res.ID == "" {
		return Fail(fmt.Errorf("%w: upsert succeeded without an id", ErrMalformedResponse))
	}
	if record.ID != "" && res.ID != record.ID {
		return Fail(fmt.Errorf("%w: upsert returned id %q for draft %q", ErrMalformedResponse, res.ID, record.ID))
	}
	return res
}

func (g *RPCGateway) TransitionStatus(ctx context.Context, id string) Result {
	if id == "" {
		return Fail(errors.New("gateway: transition needs a draft id"))
	}
	res := g.call(ctx, submitForReviewPath, models.SubmitForReviewRequest{ID: id})
	if !res.Success {
		return res
	}
	if res.ID != "" && res.ID != id {
		return Fail(fmt.Errorf("%w: transition returned id %q for draft %q", ErrMalformedResponse, res.ID, id))
	}
	return OK(id)
}

func (g *RPCGateway) call(ctx context.Context, path string, payload interface{}) Result {
	body, err := json.Marshal(payload)
	if err != nil {
		return Fail(fmt.Errorf("gateway: encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return Fail(fmt.Errorf("gateway: build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if g.apiKey != "" {
		req.Header.Set("apikey", g.apiKey)
	}
	switch {
	case g.token != "":
		req.Header.Set("Authorization", "Bearer "+g.token)
	case g.apiKey != "":
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return Fail(fmt.Errorf("gateway: %s: %w", path, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Fail(fmt.Errorf("gateway: read response: %w", err))
	}

	decoded, decodeErr := decodeResponse(raw)
	ok := resp.StatusCode >= 200 && resp.StatusCode < 300

	if !ok {
		msg := http.StatusText(resp.StatusCode)
		if decodeErr == nil && decoded.Error != "" {
			msg = decoded.Error
		}
		return Fail(&RemoteError{StatusCode: resp.StatusCode, Message: msg})
	}
	if decodeErr != nil {
		return Fail(decodeErr)
	}
	if !decoded.Success {
		msg := decoded.Error
		if msg == "" {
			msg = "request rejected"
		}
		return Fail(&RemoteError{StatusCode: resp.StatusCode, Message: msg})
	}
	return OK(decoded.ID)
}

// decodeResponse rejects anything other than a single canonical object.
func decodeResponse(raw []byte) (models.RPCResponse, error) {
	var shape struct {
		Success *bool   `json:"success"`
		ID      *string `json:"id"`
		Error   *string `json:"error"`
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&shape); err != nil {
		return models.RPCResponse{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if dec.More() {
		return models.RPCResponse{}, fmt.Errorf("%w: trailing data", ErrMalformedResponse)
	}
	if shape.Success == nil {
		return models.RPCResponse{}, fmt.Errorf("%w: missing success flag", ErrMalformedResponse)
	}

	out := models.RPCResponse{Success: *shape.Success}
	if shape.ID != nil {
		out.ID = *shape.ID
	}
	if shape.Error != nil {
		out.Error = *shape.Error
	}
	if out.Success && out.Error != "" {
		return models.RPCResponse{}, fmt.Errorf("%w: success with error %q", ErrMalformedResponse, out.Error)
	}
	return out, nil
}
