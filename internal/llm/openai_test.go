package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asaoka-ai/asaoka-linebot-go/internal/config"
	"github.com/asaoka-ai/asaoka-linebot-go/internal/logger"
	"github.com/asaoka-ai/asaoka-linebot-go/internal/metrics"
	"github.com/asaoka-ai/asaoka-linebot-go/internal/stage"
)

// completionServer serves canned chat-completion contents in order and
// counts upstream calls.
type completionServer struct {
	mu       sync.Mutex
	contents []string
	calls    int
	srv      *httptest.Server
}

func newCompletionServer(t *testing.T, contents ...string) *completionServer {
	t.Helper()

	cs := &completionServer{contents: contents}
	cs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cs.mu.Lock()
		idx := cs.calls
		cs.calls++
		cs.mu.Unlock()

		content := ""
		if idx < len(cs.contents) {
			content = cs.contents[idx]
		}

		w.Header().Set("Content-Type", "application/json")
		body := map[string]any{
			"id":     fmt.Sprintf("chatcmpl-test-%d", idx),
			"object": "chat.completion",
			"model":  "gpt-4o-mini",
			"choices": []map[string]any{
				{
					"index":         0,
					"message":       map[string]any{"role": "assistant", "content": content},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]any{"prompt_tokens": 5, "completion_tokens": 5, "total_tokens": 10},
		}
		if err := json.NewEncoder(w).Encode(body); err != nil {
			t.Errorf("encode completion response: %v", err)
		}
	}))
	t.Cleanup(cs.srv.Close)
	return cs
}

func (cs *completionServer) callCount() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.calls
}

func newTestOpenAIClient(t *testing.T, baseURL string) *OpenAIClient {
	t.Helper()

	cfg := &config.Config{
		OpenAIAPIKey:  "test-key",
		OpenAIModel:   "gpt-4o-mini",
		OpenAIBaseURL: baseURL,
		LLMEnabled:    true,
	}
	log := logger.NewWithWriter("error", io.Discard)
	m := metrics.New(prometheus.NewRegistry())
	return NewOpenAIClient(cfg, log, m)
}

func TestCompleteStructuredSuccessMakesOneCall(t *testing.T) {
	t.Parallel()

	cs := newCompletionServer(t,
		`{"message":"状況を整理しましょう","next_stage":"S2","questions":["期限はいつですか？"],"tags":[],"label":"職場"}`,
	)
	client := newTestOpenAIClient(t, cs.srv.URL)

	reply, err := client.Complete(context.Background(), Request{
		System:   "テスト用プロフィール",
		Stage:    stage.S1,
		UserText: "上司に仕事を押し付けられています",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, cs.callCount())
	assert.False(t, reply.Freeform)
	assert.Equal(t, stage.S2, reply.NextStage)
	assert.Equal(t, "状況を整理しましょう", reply.Message)
}

func TestCompleteUnparsableFallsBackExactlyOnce(t *testing.T) {
	t.Parallel()

	cs := newCompletionServer(t,
		"すみません、JSONではなく普通の文章で答えてしまいました。",
		"整理すると、負荷の偏りが問題の核心のようです。",
	)
	client := newTestOpenAIClient(t, cs.srv.URL)

	reply, err := client.Complete(context.Background(), Request{
		System:   "テスト用プロフィール",
		Stage:    stage.S2,
		UserText: "何から手をつければいいかわかりません",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, cs.callCount())
	assert.True(t, reply.Freeform)
	assert.Equal(t, stage.S3, reply.NextStage)
	assert.Equal(t, "整理すると、負荷の偏りが問題の核心のようです。", reply.Message)
}

func TestCompleteDoubleFailureMakesNoThirdCall(t *testing.T) {
	t.Parallel()

	// First response is unparsable prose, second is empty. Both upstream
	// calls fail, and no further attempt follows.
	cs := newCompletionServer(t,
		"JSONのない文章です。",
		"",
	)
	client := newTestOpenAIClient(t, cs.srv.URL)

	_, err := client.Complete(context.Background(), Request{
		System:   "テスト用プロフィール",
		Stage:    stage.S1,
		UserText: "相談があります",
	})
	require.Error(t, err)
	assert.Equal(t, 2, cs.callCount())
}

func TestCompleteDisabledMakesNoCalls(t *testing.T) {
	t.Parallel()

	cs := newCompletionServer(t)
	client := newTestOpenAIClient(t, cs.srv.URL)
	client.enabled = false

	_, err := client.Complete(context.Background(), Request{Stage: stage.S1, UserText: "hi"})
	require.Error(t, err)
	assert.Equal(t, 0, cs.callCount())
}
