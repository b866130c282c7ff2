// internal/client/functions.go
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"recycle-pickup-api-server/internal/apperr"
	"recycle-pickup-api-server/internal/models"
)

// FunctionsClient calls the server's callable functions over HTTP.
type FunctionsClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewFunctionsClient(baseURL, token string) *FunctionsClient {
	return &FunctionsClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type callRequest struct {
	Data any `json:"data"`
}

type callResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Status  apperr.Code `json:"status"`
		Message string      `json:"message"`
	} `json:"error"`
}

// Call invokes function name with payload and decodes its result into out,
// which may be nil. Failures come back as *apperr.Error.
func (c *FunctionsClient) Call(ctx context.Context, name string, payload, out any) error {
	jsonData, err := json.Marshal(callRequest{Data: payload})
	if err != nil {
		return apperr.Wrap(apperr.CodeInvalidArgument, err, "failed to marshal request")
	}

	endpoint := c.baseURL + "/api/v1/functions/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return apperr.Wrap(apperr.CodeInternal, err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.CodeUnavailable, err, "failed to call %s", name)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Wrap(apperr.CodeUnavailable, err, "failed to read response body")
	}

	var envelope callResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		if resp.StatusCode != http.StatusOK {
			return apperr.New(apperr.FromHTTPStatus(resp.StatusCode), "%s failed: status %d", name, resp.StatusCode)
		}
		return apperr.Wrap(apperr.CodeInternal, err, "failed to decode %s response", name)
	}
	if envelope.Error != nil {
		code := envelope.Error.Status
		if code == "" {
			code = apperr.FromHTTPStatus(resp.StatusCode)
		}
		return apperr.New(code, "%s", envelope.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return apperr.New(apperr.FromHTTPStatus(resp.StatusCode), "%s failed: status %d", name, resp.StatusCode)
	}

	if out == nil || len(envelope.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return apperr.Wrap(apperr.CodeInternal, err, "failed to decode %s result", name)
	}
	return nil
}

// CreatePickup calls createPickup. The server takes the creator from the
// token, so caller only fills the informational createdBy field.
func (c *FunctionsClient) CreatePickup(ctx context.Context, caller models.Caller, req models.CreatePickupRequest) (*models.Pickup, error) {
	if req.CreatedBy == nil {
		creator := caller.Creator()
		req.CreatedBy = &creator
	}
	var p models.Pickup
	if err := c.Call(ctx, "createPickup", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
