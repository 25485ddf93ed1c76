package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightpdf/insightpdf/internal/domain"
	"github.com/insightpdf/insightpdf/internal/observability"
)

func testPage() *domain.Page {
	return &domain.Page{
		Index:    1,
		Image:    []byte{0xFF, 0xD8, 0xFF, 0xE0},
		Document: "doc.pdf",
	}
}

func testConfig(baseURL string) domain.ModelConfig {
	return domain.ModelConfig{
		Provider:    "openai",
		Model:       "gpt-4o",
		BaseURL:     baseURL,
		APIKey:      "sk-test",
		Timeout:     5 * time.Second,
		MaxAttempts: 3,
	}
}

func testClient() *Client {
	c := NewClient(observability.Nop())
	c.retryBackoff = time.Millisecond
	return c
}

func completionBody(content string) string {
	resp := Response{
		ID: "cmpl-1",
		Choices: []Choice{
			{Message: ChoiceMessage{Role: "assistant", Content: content}},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestAnalyzeSuccess(t *testing.T) {
	var gotReq Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte(completionBody(`{"questions": []}`)))
	}))
	defer srv.Close()

	got, err := testClient().Analyze(context.Background(), testPage(), testConfig(srv.URL+"/v1"), "extract questions")
	require.NoError(t, err)
	assert.Equal(t, `{"questions": []}`, got)

	assert.Equal(t, "gpt-4o", gotReq.Model)
	assert.Equal(t, maxTokens, gotReq.MaxTokens)
	assert.Equal(t, temperature, gotReq.Temperature)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, "user", gotReq.Messages[0].Role)
	assert.Nil(t, gotReq.ResponseFormat)
}

func TestAnalyzeQwenRequestShape(t *testing.T) {
	var gotReq Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte(completionBody("{}")))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Provider = "qwen"
	cfg.Model = "qwen-vl-max"

	_, err := testClient().Analyze(context.Background(), testPage(), cfg, "extract questions")
	require.NoError(t, err)

	require.NotNil(t, gotReq.ResponseFormat)
	assert.Equal(t, "json_object", gotReq.ResponseFormat.Type)
	assert.Equal(t, 0.0, gotReq.Temperature)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "user", gotReq.Messages[1].Role)
}

func TestAnalyzeMissingAPIKey(t *testing.T) {
	cfg := testConfig("http://unused")
	cfg.APIKey = ""

	_, err := testClient().Analyze(context.Background(), testPage(), cfg, "p")
	assert.Equal(t, domain.ErrModelAuthError, domain.CodeOf(err))
}

func TestAnalyzeUnauthorizedFailsWithoutRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error": "invalid api key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := testClient().Analyze(context.Background(), testPage(), testConfig(srv.URL), "p")
	assert.Equal(t, domain.ErrModelAuthError, domain.CodeOf(err))
	assert.Equal(t, int32(1), calls.Load(), "credential rejections are not retried")
}

func TestAnalyzeRetriesRateLimitThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(completionBody("recovered")))
	}))
	defer srv.Close()

	got, err := testClient().Analyze(context.Background(), testPage(), testConfig(srv.URL), "p")
	require.NoError(t, err)
	assert.Equal(t, "recovered", got)
	assert.Equal(t, int32(3), calls.Load())
}

func TestAnalyzeExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := testClient().Analyze(context.Background(), testPage(), testConfig(srv.URL), "p")
	assert.Equal(t, domain.ErrModelUnavailable, domain.CodeOf(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestAnalyzeNonRetryableStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient().Analyze(context.Background(), testPage(), testConfig(srv.URL), "p")
	assert.Equal(t, domain.ErrModelUnavailable, domain.CodeOf(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestAnalyzeAttemptTimeoutMapsToModelTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server's background read can observe the
		// client disconnect and cancel the request context.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Timeout = 20 * time.Millisecond
	cfg.MaxAttempts = 2

	_, err := testClient().Analyze(context.Background(), testPage(), cfg, "p")
	assert.Equal(t, domain.ErrModelTimeout, domain.CodeOf(err))
}

func TestAnalyzeCallerCancellation(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := testClient().Analyze(ctx, testPage(), testConfig(srv.URL), "p")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeMalformedEnvelope(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "internal proxy error"},
		{"no choices", `{"id": "cmpl-1", "choices": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := testClient().Analyze(context.Background(), testPage(), testConfig(srv.URL), "p")
			assert.Equal(t, domain.ErrMalformedModelResponse, domain.CodeOf(err))
		})
	}
}

func TestBuildPromptCustomOverride(t *testing.T) {
	custom := BuildPrompt("doc.pdf", "just list the page numbers")
	assert.Equal(t, "just list the page numbers", custom)

	deflt := BuildPrompt("doc.pdf", "")
	assert.Contains(t, deflt, "doc.pdf", "default prompt carries the source citation")
	assert.Contains(t, deflt, "questions")
}
