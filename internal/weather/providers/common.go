package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"
)

var (
	errServerError  = errors.New("server error")
	errRateLimited  = errors.New("rate limited")
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

// doRequest executes an HTTP request through a circuit breaker. Network
// errors, 429s and 5xx responses trip the breaker; any other response is
// handed back to the caller, which owns body parsing and status policy.
// There is no retry loop: every retry in this system is user-initiated.
func doRequest(ctx context.Context, client *http.Client, cb *gobreaker.CircuitBreaker, req *http.Request) (*http.Response, error) {
	if client == nil {
		return nil, errNoHTTPClient
	}

	req = req.WithContext(ctx)

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			return nil, errRateLimited
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		return nil, err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return resp, nil
}

// flexStatus is OpenWeather's "cod" field, which arrives as a JSON number
// or as the string form of the same number depending on endpoint and
// outcome. The zero value means the field was absent.
type flexStatus string

func (s *flexStatus) UnmarshalJSON(data []byte) error {
	str := strings.TrimSpace(string(data))
	if str == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(str); err == nil {
		str = unquoted
	}
	*s = flexStatus(str)
	return nil
}

// ok reports success: an absent status or a 200 in either encoding.
func (s flexStatus) ok() bool {
	return s == "" || s == "200"
}

// status returns the numeric status, or 0 when absent or non-numeric.
func (s flexStatus) status() int {
	n, err := strconv.Atoi(string(s))
	if err != nil {
		return 0
	}
	return n
}

// errorBody is the provider's error payload shape.
type errorBody struct {
	Cod     flexStatus `json:"cod"`
	Message string     `json:"message"`
}

// decodeErrorMessage best-effort extracts a provider message from a
// response body already read into raw.
func decodeErrorMessage(raw []byte) string {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return body.Message
}
