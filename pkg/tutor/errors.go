package tutor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoID is returned when a success response carries no usable id
var ErrNoID = errors.New("response did not contain an id")

// APIError is a non-2xx response from the LMS API. Details holds the
// response's data.details verbatim.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details json.RawMessage
	Body    string
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "tutor api error: status %d", e.Status)
	if e.Code != "" {
		fmt.Fprintf(&b, " [%s]", e.Code)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if len(e.Details) > 0 && !bytes.Equal(e.Details, []byte("null")) {
		fmt.Fprintf(&b, " details: %s", e.Details)
	}
	return b.String()
}

// IsValidation reports whether the API rejected the request body
func (e *APIError) IsValidation() bool {
	return e.Status == 400 || e.Status == 422
}

// Mentions reports whether the code, message or details refer to term
func (e *APIError) Mentions(term string) bool {
	term = strings.ToLower(term)
	for _, s := range []string{e.Code, e.Message, string(e.Details)} {
		if strings.Contains(strings.ToLower(s), term) {
			return true
		}
	}
	return false
}

type errorBody struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type errorData struct {
	Status  int             `json:"status"`
	Details json.RawMessage `json:"details"`
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Body: string(body)}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
		return apiErr
	}
	apiErr.Code = eb.Code
	apiErr.Message = eb.Message
	var data errorData
	if json.Unmarshal(eb.Data, &data) == nil {
		apiErr.Details = data.Details
	}
	return apiErr
}
