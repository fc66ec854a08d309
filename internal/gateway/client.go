package gateway

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

	"github.com/ehr/patientor/internal/domain/diagnosis"
	"github.com/ehr/patientor/internal/domain/patient"
	"github.com/ehr/patientor/internal/platform/auth"
)

const defaultTimeout = 10 * time.Second

// APIError is a non-2xx response. Message is the server's "error" text and
// is meant to be shown as is.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout. A client given through
// WithHTTPClient is copied first and never modified.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		hc := *c.http
		hc.Timeout = d
		c.http = &hc
	}
}

// WithSigner attaches a bearer token from s to every request.
func WithSigner(s *auth.Signer) ClientOption {
	return func(c *Client) { c.signer = s }
}

// Client talks to the patient API rooted at baseURL, e.g.
// "http://localhost:3001/api".
type Client struct {
	baseURL string
	http    *http.Client
	signer  *auth.Signer
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) FetchPatientList(ctx context.Context) ([]patient.Patient, error) {
	var out []patient.Patient
	if err := c.do(ctx, http.MethodGet, "/patients", nil, &out); err != nil {
		return nil, fmt.Errorf("fetch patient list: %w", err)
	}
	return out, nil
}

func (c *Client) FetchPatientDetail(ctx context.Context, id string) (patient.DetailedPatientInfo, error) {
	var out patient.DetailedPatientInfo
	if err := c.do(ctx, http.MethodGet, "/patients/"+url.PathEscape(id), nil, &out); err != nil {
		return patient.DetailedPatientInfo{}, fmt.Errorf("fetch patient %s: %w", id, err)
	}
	return out, nil
}

func (c *Client) FetchDiagnoses(ctx context.Context) ([]diagnosis.Diagnosis, error) {
	var out []diagnosis.Diagnosis
	if err := c.do(ctx, http.MethodGet, "/diagnoses", nil, &out); err != nil {
		return nil, fmt.Errorf("fetch diagnoses: %w", err)
	}
	return out, nil
}

// SubmitEntry posts ne and returns the stored entry with its assigned id.
func (c *Client) SubmitEntry(ctx context.Context, patientID string, ne patient.NewEntry) (patient.Entry, error) {
	var raw json.RawMessage
	path := "/patients/" + url.PathEscape(patientID) + "/entries"
	if err := c.do(ctx, http.MethodPost, path, ne, &raw); err != nil {
		return nil, fmt.Errorf("submit entry: %w", err)
	}
	e, err := patient.DecodeEntry(raw)
	if err != nil {
		return nil, fmt.Errorf("submit entry: %w", err)
	}
	return e, nil
}

func (c *Client) AddPatient(ctx context.Context, np patient.NewPatient) (patient.Patient, error) {
	var out patient.Patient
	if err := c.do(ctx, http.MethodPost, "/patients", np, &out); err != nil {
		return patient.Patient{}, fmt.Errorf("add patient: %w", err)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.signer != nil {
		tok, err := c.signer.Token()
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(status int, data []byte) *APIError {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		return &APIError{Status: status, Message: body.Error}
	}
	msg := strings.TrimSpace(string(data))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{Status: status, Message: msg}
}
