package extractor

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/voxinv/voxinv/internal/upstream"
)

func TestNewCompleter(t *testing.T) {
	c, err := NewCompleter(Config{Provider: "openai", APIKey: "sk-test", Model: "gpt-4o-mini"})
	if err != nil {
		t.Fatalf("failed to create openai completer: %v", err)
	}
	if _, ok := c.(*OpenAIAdapter); !ok {
		t.Error("expected OpenAIAdapter type")
	}

	if _, err = NewCompleter(Config{Provider: "openai"}); !upstream.IsConfig(err) {
		t.Errorf("expected ConfigError for missing key, got %v", err)
	}

	if _, err = NewCompleter(Config{Provider: "anthropic", APIKey: "key"}); err == nil {
		t.Error("expected error for unsupported provider")
	}
}

func completionResponse(content string) string {
	return `{"choices":[{"message":{"role":"assistant","content":` + mustJSON(content) + `}}]}`
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestCompleteSendsMessagesAndOptions(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Errorf("request body is not JSON: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionResponse(`[{"id":1,"name":"tournevis"}]`)))
	}))
	defer server.Close()

	adapter := newOpenAIAdapter(Config{APIKey: "sk-test", Model: "gpt-4o-mini"}, server.URL)

	var temp float32
	reply, err := adapter.Complete(context.Background(),
		[]Message{{Role: RoleSystem, Content: "sys"}, {Role: RoleUser, Content: "user"}},
		Options{JSONObject: true, Temperature: &temp})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if reply != `[{"id":1,"name":"tournevis"}]` {
		t.Errorf("reply = %q", reply)
	}

	if payload["model"] != "gpt-4o-mini" {
		t.Errorf("model = %v", payload["model"])
	}
	msgs, ok := payload["messages"].([]any)
	if !ok || len(msgs) != 2 {
		t.Fatalf("messages = %v", payload["messages"])
	}
	first := msgs[0].(map[string]any)
	if first["role"] != "system" || first["content"] != "sys" {
		t.Errorf("first message = %v", first)
	}
	rf, ok := payload["response_format"].(map[string]any)
	if !ok || rf["type"] != "json_object" {
		t.Errorf("response_format = %v", payload["response_format"])
	}
	if _, ok := payload["temperature"]; !ok {
		t.Error("pinned temperature should be present in the payload")
	}
}

func TestCompleteDefaultOptionsOmitted(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &payload)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionResponse("ok")))
	}))
	defer server.Close()

	adapter := newOpenAIAdapter(Config{APIKey: "sk-test", Model: "gpt-4o-mini"}, server.URL)
	if _, err := adapter.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, Options{}); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}

	if _, ok := payload["response_format"]; ok {
		t.Error("response_format should be omitted by default")
	}
	if _, ok := payload["temperature"]; ok {
		t.Error("temperature should be omitted by default")
	}
}

func TestCompleteNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	adapter := newOpenAIAdapter(Config{APIKey: "sk-test", Model: "gpt-4o-mini"}, server.URL)
	reply, err := adapter.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, Options{})
	if err != nil {
		t.Fatalf("empty choices should not be an error, got: %v", err)
	}
	if reply != "" {
		t.Errorf("reply = %q, want empty", reply)
	}
}

func TestCompleteErrorTaxonomy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"invalid model","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	adapter := newOpenAIAdapter(Config{APIKey: "sk-test", Model: "nope"}, server.URL)
	_, err := adapter.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, Options{})
	if !upstream.IsUpstream(err) {
		t.Fatalf("expected UpstreamError, got %T: %v", err, err)
	}

	server.Close()
	_, err = adapter.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, Options{})
	if !upstream.IsConnectivity(err) {
		t.Errorf("expected ConnectivityError after server close, got %T: %v", err, err)
	}
}
