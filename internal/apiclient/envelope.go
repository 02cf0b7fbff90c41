package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Envelope is the uniform wrapper the API puts around every payload.
type Envelope struct {
	Success    *bool           `json:"success"`
	StatusCode int             `json:"status_code"`
	Message    json.RawMessage `json:"message"`
	Data       json.RawMessage `json:"data"`
}

func parseEnvelope(body []byte) (Envelope, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Envelope{}, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return Envelope{}, false
	}
	_, hasSuccess := fields["success"]
	_, hasData := fields["data"]
	_, hasMessage := fields["message"]
	if !hasSuccess && !(hasData && hasMessage) {
		return Envelope{}, false
	}
	var env Envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return Envelope{}, false
	}
	return env, true
}

// responseError classifies a response. It returns nil for successful
// responses, including those whose envelope reports success.
func responseError(path string, status int, body []byte) *Error {
	env, isEnvelope := parseEnvelope(body)
	failed := status >= http.StatusMultipleChoices
	if isEnvelope && env.Success != nil && !*env.Success {
		failed = true
		if status < http.StatusMultipleChoices && env.StatusCode >= http.StatusMultipleChoices {
			status = env.StatusCode
		}
	}
	if !failed {
		return nil
	}

	out := &Error{Code: codeForStatus(status), Status: status, Path: path}
	switch {
	case isEnvelope:
		out.Payload = env.Message
	default:
		out.Payload, out.Detail = bareErrorPayload(body)
	}
	return out
}

// bareErrorPayload handles bodies written without the envelope: framework
// {"detail": ...} objects, field error objects, JSON strings and short
// plain text.
func bareErrorPayload(body []byte) (json.RawMessage, string) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, ""
	}
	if json.Valid(trimmed) {
		var detail struct {
			Detail string `json:"detail"`
		}
		if trimmed[0] == '{' && json.Unmarshal(trimmed, &detail) == nil && detail.Detail != "" {
			return nil, detail.Detail
		}
		return json.RawMessage(trimmed), ""
	}
	text := strings.TrimSpace(string(trimmed))
	if strings.HasPrefix(text, "<") || len(text) > 200 {
		return nil, ""
	}
	return nil, text
}

func decodeData(path string, body []byte, out any) error {
	if out == nil {
		return nil
	}
	env, ok := parseEnvelope(body)
	if !ok {
		return &Error{Code: ErrCodeDecode, Path: path, Err: fmt.Errorf("response is not an envelope")}
	}
	if len(bytes.TrimSpace(env.Data)) == 0 || string(bytes.TrimSpace(env.Data)) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &Error{Code: ErrCodeDecode, Path: path, Err: err}
	}
	return nil
}
