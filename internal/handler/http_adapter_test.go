package handler

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTrigger(method, url, body string, query map[string]string) HTTPTriggerRequest {
	var req HTTPTriggerRequest
	req.Data.Req.Method = method
	req.Data.Req.URL = url
	req.Data.Req.Body = body
	req.Data.Req.Query = query
	req.Data.Req.Headers = map[string][]string{"Content-Type": {"text/plain"}}
	return req
}

func encodeTrigger(t *testing.T, req HTTPTriggerRequest) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(req)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func triggerBody(t *testing.T, method, url, body string, query map[string]string) *bytes.Buffer {
	t.Helper()
	return encodeTrigger(t, newTrigger(method, url, body, query))
}

func echoBody(t *testing.T, deps *Dependencies, envelope *bytes.Buffer) string {
	t.Helper()
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Write(body)
	})
	w := httptest.NewRecorder()
	deps.HandleHttpTrigger(inner)(w, httptest.NewRequest(http.MethodPost, "/HttpTrigger", envelope))
	require.Equal(t, http.StatusOK, w.Code)

	var resp HTTPTriggerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Outputs.Res.Body
}

func TestHandleHttpTrigger_WrapsResponse(t *testing.T) {
	deps := newTestDeps(t)
	inner := http.NewServeMux()
	inner.HandleFunc("POST /api/echo", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Card", r.URL.Query().Get("card"))
		w.Header().Set("X-Type", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusAccepted)
		w.Write(body)
	})

	payload := base64.StdEncoding.EncodeToString([]byte("hello"))
	trigger := newTrigger("post", "http://localhost:7071/api/echo", payload, map[string]string{"card": "Inter"})
	trigger.Data.Req.IsBase64Encoded = true
	req := httptest.NewRequest(http.MethodPost, "/HttpTrigger", encodeTrigger(t, trigger))
	w := httptest.NewRecorder()

	deps.HandleHttpTrigger(inner)(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp HTTPTriggerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusAccepted, resp.Outputs.Res.StatusCode)
	assert.Equal(t, "hello", resp.Outputs.Res.Body)
	assert.Equal(t, "Inter", resp.Outputs.Res.Headers["X-Card"])
	assert.Equal(t, "text/plain", resp.Outputs.Res.Headers["X-Type"])
}

func TestHandleHttpTrigger_RawBody(t *testing.T) {
	deps := newTestDeps(t)
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Write(body)
	})

	req := httptest.NewRequest(http.MethodPost, "/HttpTrigger",
		triggerBody(t, "POST", "http://localhost/api/x?card=a", `{"a":1}`, nil))
	w := httptest.NewRecorder()
	deps.HandleHttpTrigger(inner)(w, req)

	var resp HTTPTriggerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, `{"a":1}`, resp.Outputs.Res.Body)
}

func TestHandleHttpTrigger_BadEnvelope(t *testing.T) {
	deps := newTestDeps(t)
	w := httptest.NewRecorder()
	deps.HandleHttpTrigger(http.NotFoundHandler())(w, httptest.NewRequest(http.MethodPost, "/HttpTrigger", bytes.NewBufferString("nope")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleHttpTrigger_PlainBodyNotDecoded(t *testing.T) {
	deps := newTestDeps(t)

	// "abcd" is valid base64 but arrives unflagged as plain text.
	body := echoBody(t, deps, triggerBody(t, "POST", "http://localhost/api/x", "abcd", nil))

	assert.Equal(t, "abcd", body)
}

func TestHandleHttpTrigger_UnflaggedMultipartDecoded(t *testing.T) {
	deps := newTestDeps(t)
	form := "--b\r\nContent-Disposition: form-data; name=\"card\"\r\n\r\nInter\r\n--b--\r\n"
	trigger := newTrigger("POST", "http://localhost/api/purchases", base64.StdEncoding.EncodeToString([]byte(form)), nil)
	trigger.Data.Req.Headers = map[string][]string{"content-type": {"multipart/form-data; boundary=b"}}

	body := echoBody(t, deps, encodeTrigger(t, trigger))

	assert.Equal(t, form, body)
}

func TestHandleHttpTrigger_FlaggedBodyDecoded(t *testing.T) {
	deps := newTestDeps(t)
	trigger := newTrigger("POST", "http://localhost/api/x", base64.StdEncoding.EncodeToString([]byte("abcd")), nil)
	trigger.Data.Req.IsBase64Encoded = true

	assert.Equal(t, "abcd", echoBody(t, deps, encodeTrigger(t, trigger)))
}
