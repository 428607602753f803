// Package host is the thin HTTP client for the four host endpoints of
// spec §6: /finish, /notice, /report, /voucher. It is the core's only
// permitted network speech — everything else in the module is either
// pure computation or storage-local.
package host

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"

	lerrors "github.com/lcore-labs/lcore-core/errors"
)

// RequestType distinguishes the two shapes /finish can hand back.
type RequestType string

const (
	RequestAdvance RequestType = "advance_state"
	RequestInspect RequestType = "inspect_state"
)

// Request is the decoded body of a non-idle /finish response.
type Request struct {
	RequestType RequestType     `json:"request_type"`
	Data        RequestMetadata `json:"data"`
}

// RequestMetadata carries the envelope the host attaches to every
// request: the sender, the input index (advance only), and the
// hex-encoded payload.
type RequestMetadata struct {
	Metadata *struct {
		MsgSender   string `json:"msg_sender"`
		InputIndex  int64  `json:"input_index"`
		BlockNumber int64  `json:"block_number"`
		Timestamp   int64  `json:"timestamp"`
	} `json:"metadata,omitempty"`
	Payload string `json:"payload"`
}

// Client speaks the four host endpoints over plain HTTP, mirroring the
// Cartesi rollup HTTP shim's wire contract.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{}}
}

// Finish reports the verdict of the previous request and retrieves the
// next one. A 202 response means the host has no pending request; Finish
// returns (nil, nil) in that case.
func (c *Client) Finish(ctx context.Context, status string) (*Request, error) {
	body, err := json.Marshal(map[string]string{"status": status})
	if err != nil {
		return nil, lerrors.InternalError("host: marshal finish body: %s", err)
	}
	resp, err := c.post(ctx, "/finish", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusAccepted {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, lerrors.InternalError("host: /finish returned %d", resp.StatusCode)
	}
	var req Request
	if err := json.NewDecoder(resp.Body).Decode(&req); err != nil {
		return nil, lerrors.InternalError("host: decode /finish response: %s", err)
	}
	return &req, nil
}

// Notice records a notice attributable to the current advance request.
func (c *Client) Notice(ctx context.Context, payload []byte) error {
	return c.postHexPayload(ctx, "/notice", payload)
}

// Report records a diagnostic or inspect response.
func (c *Client) Report(ctx context.Context, payload []byte) error {
	return c.postHexPayload(ctx, "/report", payload)
}

// Voucher records a voucher intent for an L1 contract call. destination
// is a 20-byte address; payload is ABI-encoded calldata, typically built
// by the voucher helper (SPEC_FULL §4.10).
func (c *Client) Voucher(ctx context.Context, destination [20]byte, payload []byte) error {
	body, err := json.Marshal(map[string]string{
		"destination": "0x" + hex.EncodeToString(destination[:]),
		"payload":     "0x" + hex.EncodeToString(payload),
	})
	if err != nil {
		return lerrors.InternalError("host: marshal voucher body: %s", err)
	}
	resp, err := c.post(ctx, "/voucher", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return lerrors.InternalError("host: /voucher returned %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) postHexPayload(ctx context.Context, path string, payload []byte) error {
	body, err := json.Marshal(map[string]string{"payload": "0x" + hex.EncodeToString(payload)})
	if err != nil {
		return lerrors.InternalError("host: marshal %s body: %s", path, err)
	}
	resp, err := c.post(ctx, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return lerrors.InternalError("host: %s returned %d", path, resp.StatusCode)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, lerrors.InternalError("host: build request for %s: %s", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, lerrors.InternalError("host: %s: %s", path, err)
	}
	return resp, nil
}

// DecodePayload hex-decodes the payload field of a Request.
func DecodePayload(r *Request) ([]byte, error) {
	hexStr := r.Data.Payload
	if len(hexStr) >= 2 && hexStr[:2] == "0x" {
		hexStr = hexStr[2:]
	}
	raw, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, lerrors.BadRequestError("host: malformed hex payload: %s", err)
	}
	return raw, nil
}
