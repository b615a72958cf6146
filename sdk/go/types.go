package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// HealthStatus describes the /healthz response.
type HealthStatus struct {
	Status string                 `json:"status"`
	Checks map[string]interface{} `json:"checks"`
}

// APIError is the decoded error body of a failed request.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("request failed: status %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("request failed: status %d", e.Status)
}

func decodeJSON(resp *http.Response, target any) error {
	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		body, _ := io.ReadAll(resp.Body)
		_ = json.Unmarshal(body, apiErr)
		return apiErr
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

// ErrEmptyUserID is returned when user id is empty.
var ErrEmptyUserID = errors.New("user id is required")
