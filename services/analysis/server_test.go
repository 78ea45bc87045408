package analysis

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(t *testing.T, server *httptest.Server, path, body string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := http.Post(server.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out), string(data))
	return resp.StatusCode, out
}

func TestIngestEndpoint(t *testing.T) {
	client := &MockClient{answer: `[{"region": "Kota Bandung", "harga": 14500, "kualitas": "Medium"}]`}
	server := httptest.NewServer(NewHandler(NewService(client, testGazetteer(t))))
	defer server.Close()

	status, out := post(t, server, "/api/ingest-file", `{"rows": [{"lokasi": "Bandung", "harga": 145000, "satuan": "10 kg"}], "prompt": ""}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, out["ok"])

	data := out["data"].([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, "medium", data[0].(map[string]interface{})["kualitas"])

	meta := out["meta"].(map[string]interface{})
	assert.Equal(t, float64(1), meta["received"])
	assert.Equal(t, float64(1), meta["final"])
}

func TestIngestEndpointRejectsNonArray(t *testing.T) {
	client := &MockClient{}
	server := httptest.NewServer(NewHandler(NewService(client, nil)))
	defer server.Close()

	status, out := post(t, server, "/api/ingest-file", `{"rows": {"region": "Bandung"}}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, out["ok"])
	assert.Contains(t, out["error"], "array")

	status, _ = post(t, server, "/api/analyze-sentiment", `not json`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Empty(t, client.prompts)
}

func TestAnalyzeEndpoint(t *testing.T) {
	client := &MockClient{answer: `{"svg": "<svg></svg>", "sentiments": {"positive": 1, "neutral": 0, "negative": 0}, "summary": "stabil"}`}
	server := httptest.NewServer(NewHandler(NewService(client, nil)))
	defer server.Close()

	status, out := post(t, server, "/api/analyze-sentiment", `{"rows": [{"title": "harga stabil"}], "by": "harga"}`)
	assert.Equal(t, http.StatusOK, status)
	data := out["data"].(map[string]interface{})
	assert.Equal(t, "stabil", data["summary"])
	assert.Contains(t, client.lastPrompt(), byContext[ByHarga])

	client.answer = "bukan json"
	status, out = post(t, server, "/api/analyze-sentiment", `{"rows": []}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "bukan json", out["raw"])
	assert.NotNil(t, out["meta"])
	assert.Nil(t, out["data"])
}

func TestPromptEndpoint(t *testing.T) {
	client := &MockClient{answer: `{"jawaban": 42}`}
	server := httptest.NewServer(NewHandler(NewService(client, nil)))
	defer server.Close()

	_, out := post(t, server, "/api/prompt", `{"prompt": "Berapa?", "data": {"harga": [1, 2]}}`)
	assert.Equal(t, map[string]interface{}{"jawaban": float64(42)}, out["data"])
	assert.Contains(t, client.lastPrompt(), "Data:\n```json")

	_, out = post(t, server, "/api/prompt", `{"prompt": "Berapa?", "responseAsJson": false}`)
	assert.Equal(t, `{"jawaban": 42}`, out["text"])
	assert.Equal(t, "Berapa?", client.lastPrompt())
}

func TestEndpointClientError(t *testing.T) {
	server := httptest.NewServer(NewHandler(NewService(&MockClient{err: errors.New("quota exceeded")}, nil)))
	defer server.Close()

	status, out := post(t, server, "/api/prompt", `{"prompt": "halo"}`)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "quota exceeded", out["error"])
}

func TestCORSPreflight(t *testing.T) {
	server := httptest.NewServer(NewHandler(NewService(&MockClient{}, nil)))
	defer server.Close()

	req, err := http.NewRequest(http.MethodOptions, server.URL+"/api/ingest-file", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
