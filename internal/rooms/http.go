package rooms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"telemed-platform/internal/config"
)

// HTTPProvider talks to the room-provisioning REST API.
// The API is a collaborator, not something this service defines; only the
// wire shapes in provider.go are assumed.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPProvider(cfg config.RoomsConfig) *HTTPProvider {
	return &HTTPProvider{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
	}
}

func (p *HTTPProvider) Name() string { return "rooms-http" }

func (p *HTTPProvider) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rooms: health check returned %d", resp.StatusCode)
	}
	return nil
}

func (p *HTTPProvider) CreateRoom(ctx context.Context, req CreateRoomRequest) (CreateRoomResult, error) {
	var out CreateRoomResult
	if err := p.post(ctx, "/rooms", req, &out); err != nil {
		return CreateRoomResult{}, err
	}
	if out.Token == "" || out.ServerURL == "" {
		return CreateRoomResult{}, &ProvisionError{Reason: "provider returned incomplete credentials"}
	}
	return out, nil
}

func (p *HTTPProvider) DeleteRoom(ctx context.Context, req DeleteRoomRequest) error {
	return p.post(ctx, "/rooms/delete", req, nil)
}

func (p *HTTPProvider) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return &ProvisionError{Reason: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ProvisionError{Reason: providerMessage(resp.Body, resp.StatusCode)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ProvisionError{Reason: "invalid provider response"}
	}
	return nil
}

// providerMessage pulls the provider's error string out of a rejection body
// so it can be surfaced to the user; falls back to the status code.
func providerMessage(r io.Reader, status int) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 4096)).Decode(&body); err == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return fmt.Sprintf("provider returned status %d", status)
}

var _ Provider = (*HTTPProvider)(nil)
