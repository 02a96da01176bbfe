package store

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

	"billed-backend/models"
)

// APIError is a non-2xx answer of the bills API
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bills api: %d %s: %s", e.Status, e.Code, e.Message)
}

// HTTPStore is a BillStore talking to the bills API over HTTP
type HTTPStore struct {
	baseURL string
	client  *http.Client
}

// NewHTTPStore creates a client for the API rooted at baseURL
func NewHTTPStore(baseURL string, client *http.Client) *HTTPStore {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Create posts the attachment and email as multipart form data
func (s *HTTPStore) Create(ctx context.Context, req CreateRequest) (*models.UploadResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if req.File != nil {
		part, err := mw.CreateFormFile("file", req.File.Name)
		if err != nil {
			return nil, fmt.Errorf("build multipart: %w", err)
		}
		if _, err := io.Copy(part, req.File.Content); err != nil {
			return nil, fmt.Errorf("read attachment: %w", err)
		}
	}
	if err := mw.WriteField("email", req.Email); err != nil {
		return nil, fmt.Errorf("build multipart: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build multipart: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/bills", &body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	var result models.UploadResult
	if err := s.do(httpReq, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Update sends the bill record as JSON to the selector's resource
func (s *HTTPStore) Update(ctx context.Context, req UpdateRequest) (*models.Bill, error) {
	if req.Bill == nil {
		return nil, ErrMissingBill
	}

	payload, err := json.Marshal(req.Bill)
	if err != nil {
		return nil, fmt.Errorf("encode bill: %w", err)
	}

	endpoint := s.baseURL + "/api/bills"
	if req.Selector != "" {
		endpoint += "/" + url.PathEscape(req.Selector)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var bill models.Bill
	if err := s.do(httpReq, &bill); err != nil {
		return nil, err
	}
	return &bill, nil
}

func (s *HTTPStore) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 300 {
			return &APIError{Status: resp.StatusCode, Code: "UNKNOWN", Message: resp.Status}
		}
		return fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode >= 300 || !env.Success {
		apiErr := &APIError{Status: resp.StatusCode, Code: "UNKNOWN", Message: resp.Status}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}
