package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"unicode/utf8"
)

// ErrorKind groups transport failures by the remediation they call for
type ErrorKind string

const (
	KindConnectivity ErrorKind = "connectivity"
	KindCORS         ErrorKind = "cors"
	KindNetwork      ErrorKind = "network"
	KindHTTPStatus   ErrorKind = "http_status"
	KindUnknown      ErrorKind = "unknown"
)

const maxDetailLen = 512

var statusPattern = regexp.MustCompile(`status:?\s*(\d{3})`)

// TransportError is a failed call to an inference backend
type TransportError struct {
	Provider   string
	Kind       ErrorKind
	StatusCode int
	Detail     string
	Err        error
}

func (e *TransportError) Error() string {
	provider := e.Provider
	if provider == "" {
		provider = "inference server"
	}
	if e.Kind == KindHTTPStatus && e.StatusCode != 0 {
		msg := fmt.Sprintf("%s returned status %d", provider, e.StatusCode)
		if e.Detail != "" {
			msg += ", details: " + e.Detail
		}
		return msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s request failed: %v", provider, e.Err)
	}
	return fmt.Sprintf("%s request failed", provider)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError builds the error for a non-2xx response
func StatusError(provider string, status int, body []byte) *TransportError {
	detail := strings.TrimSpace(string(body))
	if len(detail) > maxDetailLen {
		cut := maxDetailLen
		for cut > 0 && !utf8.RuneStart(detail[cut]) {
			cut--
		}
		detail = detail[:cut] + "..."
	}
	return &TransportError{
		Provider:   provider,
		Kind:       KindHTTPStatus,
		StatusCode: status,
		Detail:     detail,
	}
}

// RequestError wraps a failure that happened before any response was read
func RequestError(provider string, err error) *TransportError {
	te := &TransportError{Provider: provider, Kind: kindOf(err), Err: err}
	if te.Kind == KindHTTPStatus {
		te.StatusCode = statusFromText(err.Error())
	}
	return te
}

// Classify returns err as a TransportError, inferring the kind from its text when needed
func Classify(err error) *TransportError {
	if err == nil {
		return nil
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te
	}
	return RequestError("", err)
}

func kindOf(err error) ErrorKind {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return KindConnectivity
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "err_connection_refused"):
		return KindConnectivity
	case strings.Contains(msg, "cors"), strings.Contains(msg, "cross-origin"):
		return KindCORS
	case statusPattern.MatchString(msg):
		return KindHTTPStatus
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return KindNetwork
	}
	for _, sig := range []string{"network", "no such host", "dial tcp", "timeout", "failed to fetch", "eof"} {
		if strings.Contains(msg, sig) {
			return KindNetwork
		}
	}
	return KindUnknown
}

func statusFromText(msg string) int {
	m := statusPattern.FindStringSubmatch(strings.ToLower(msg))
	if m == nil {
		return 0
	}
	code, _ := strconv.Atoi(m[1])
	return code
}

// Hint returns a remediation suggestion for the failure, or "" when none applies
func (e *TransportError) Hint(host string) string {
	where := ""
	if host != "" {
		where = " (" + host + ")"
	}

	switch e.Kind {
	case KindConnectivity:
		return "Connection refused: make sure the server is running and no firewall blocks the connection" + where + "."
	case KindCORS:
		return "The request was blocked by cross-origin policy: allow this origin on the server (for Ollama set OLLAMA_ORIGINS) or go through the proxy" + where + "."
	case KindNetwork:
		return "Network error: check the network connection and the server address" + where + "."
	case KindHTTPStatus:
		switch {
		case e.StatusCode == http.StatusForbidden:
			return "Access forbidden: check the server configuration or firewall rules" + where + "."
		case e.StatusCode == http.StatusNotFound:
			return "Not found: check that the server is running normally and the model is installed" + where + "."
		case e.StatusCode >= 500:
			return "The server failed to handle the request; check its logs" + where + "."
		}
	}
	return ""
}

// Diagnose renders the user-facing diagnostic for a failed call
func Diagnose(err error, host string) string {
	te := Classify(err)
	if te == nil {
		return ""
	}
	msg := "Error: " + te.Error()
	if hint := te.Hint(host); hint != "" {
		msg += "\n" + hint
	}
	return msg
}
