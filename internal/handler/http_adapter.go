package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
)

// HTTPTriggerRequest is the Functions host envelope around an HTTP request.
type HTTPTriggerRequest struct {
	Data struct {
		Req struct {
			URL             string              `json:"Url"`
			Method          string              `json:"Method"`
			Query           map[string]string   `json:"Query"`
			Headers         map[string][]string `json:"Headers"`
			Params          map[string]string   `json:"Params"`
			Body            string              `json:"Body"`
			IsBase64Encoded bool                `json:"isBase64Encoded"`
		} `json:"req"`
	} `json:"Data"`
	Metadata map[string]any `json:"Metadata"`
}

// HTTPTriggerResponse is the envelope the host expects back.
type HTTPTriggerResponse struct {
	Outputs struct {
		Res struct {
			StatusCode int               `json:"statusCode"`
			Headers    map[string]string `json:"headers"`
			Body       string            `json:"body"`
		} `json:"res"`
	} `json:"Outputs"`
	Logs        []string `json:"Logs,omitempty"`
	ReturnValue any      `json:"ReturnValue,omitempty"`
}

// body returns the wrapped request body, decoded when the host flags it as
// base64. Some hosts forward multipart purchase forms encoded without the
// flag, so those are decoded when they are valid base64.
func (t *HTTPTriggerRequest) body() []byte {
	raw := t.Data.Req.Body
	if raw == "" {
		return nil
	}
	flagged := t.Data.Req.IsBase64Encoded
	if flagged || t.isMultipart() {
		if decoded, err := base64.StdEncoding.DecodeString(raw); err == nil {
			return decoded
		}
		if flagged {
			slog.Warn("body flagged as base64 but could not be decoded")
		}
	}
	return []byte(raw)
}

func (t *HTTPTriggerRequest) isMultipart() bool {
	for k, values := range t.Data.Req.Headers {
		if !strings.EqualFold(k, "Content-Type") {
			continue
		}
		for _, v := range values {
			if strings.HasPrefix(strings.ToLower(strings.TrimSpace(v)), "multipart/") {
				return true
			}
		}
	}
	return false
}

// toRequest rebuilds the wrapped request.
func (t *HTTPTriggerRequest) toRequest(ctx context.Context) (*http.Request, error) {
	req := t.Data.Req

	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, err
	}
	if u.RawQuery == "" && len(req.Query) > 0 {
		q := url.Values{}
		for k, v := range req.Query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	var body io.Reader = http.NoBody
	if b := t.body(); b != nil {
		body = bytes.NewReader(b)
	}

	newReq, err := http.NewRequestWithContext(ctx, strings.ToUpper(req.Method), u.String(), body)
	if err != nil {
		return nil, err
	}
	for k, v := range req.Headers {
		for _, val := range v {
			newReq.Header.Add(k, val)
		}
	}
	return newReq, nil
}

// HandleHttpTrigger adapts the Functions JSON envelope to a plain HTTP
// request, serves it with next and wraps the response back.
func (d *Dependencies) HandleHttpTrigger(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var invokeReq HTTPTriggerRequest
		if err := json.NewDecoder(r.Body).Decode(&invokeReq); err != nil {
			slog.Error("failed to unmarshal HTTP trigger request", "error", err)
			http.Error(w, "Failed to unmarshal request", http.StatusBadRequest)
			return
		}

		newReq, err := invokeReq.toRequest(r.Context())
		if err != nil {
			slog.Error("failed to create internal request", "error", err)
			http.Error(w, "Failed to create internal request", http.StatusBadRequest)
			return
		}
		slog.Info("processing wrapped HTTP request",
			"method", newReq.Method,
			"path", newReq.URL.Path,
			"content_type", newReq.Header.Get("Content-Type"),
		)

		rec := httptest.NewRecorder()
		next.ServeHTTP(rec, newReq)

		result := rec.Result()
		respBody, _ := io.ReadAll(result.Body)
		result.Body.Close()

		var resp HTTPTriggerResponse
		resp.Outputs.Res.StatusCode = result.StatusCode
		resp.Outputs.Res.Headers = make(map[string]string, len(result.Header))
		for k, v := range result.Header {
			resp.Outputs.Res.Headers[k] = strings.Join(v, ", ")
		}
		resp.Outputs.Res.Body = string(respBody)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.Error("failed to encode HTTP trigger response", "error", err)
		}
	}
}
