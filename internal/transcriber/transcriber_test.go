package transcriber

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/voxinv/voxinv/internal/upstream"
)

func writeTestAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := os.WriteFile(path, []byte("RIFF fake audio"), 0o600); err != nil {
		t.Fatalf("write test audio: %v", err)
	}
	return path
}

func TestNewAdapter(t *testing.T) {
	adapter, err := NewAdapter(Config{Provider: "openai", APIKey: "sk-test", Model: "gpt-4o-transcribe"})
	if err != nil {
		t.Fatalf("failed to create openai adapter: %v", err)
	}
	if _, ok := adapter.(*OpenAIAdapter); !ok {
		t.Error("expected OpenAIAdapter type")
	}

	adapter, err = NewAdapter(Config{Provider: "groq", APIKey: "gsk-test", Model: "whisper-large-v3"})
	if err != nil {
		t.Fatalf("failed to create groq adapter: %v", err)
	}
	if _, ok := adapter.(*OpenAIAdapter); !ok {
		t.Error("expected OpenAIAdapter type")
	}

	if _, err = NewAdapter(Config{Provider: "deepgram", APIKey: "key"}); err == nil {
		t.Error("expected error for unsupported provider")
	}
}

func TestNewAdapterMissingKey(t *testing.T) {
	_, err := NewAdapter(Config{Provider: "openai"})
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
	if !upstream.IsConfig(err) {
		t.Errorf("expected ConfigError, got %T: %v", err, err)
	}
}

func TestTranscribeSuccess(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("expected multipart body: %v", err)
		}
		if model := r.FormValue("model"); model != "gpt-4o-transcribe" {
			t.Errorf("model field = %q, want gpt-4o-transcribe", model)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"emprunte le tournevis"}`))
	}))
	defer server.Close()

	adapter := newOpenAIAdapter(Config{APIKey: "sk-test", Model: "gpt-4o-transcribe"}, server.URL)
	text, err := adapter.Transcribe(context.Background(), writeTestAudio(t), "audio/wav")
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if text != "emprunte le tournevis" {
		t.Errorf("transcript = %q, want %q", text, "emprunte le tournevis")
	}
	if gotPath != "/audio/transcriptions" {
		t.Errorf("request path = %q, want /audio/transcriptions", gotPath)
	}
}

func TestTranscribeEmptyTextIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":""}`))
	}))
	defer server.Close()

	adapter := newOpenAIAdapter(Config{APIKey: "sk-test", Model: "gpt-4o-transcribe"}, server.URL)
	text, err := adapter.Transcribe(context.Background(), writeTestAudio(t), "audio/wav")
	if err != nil {
		t.Fatalf("empty transcript should not be an error, got: %v", err)
	}
	if text != "" {
		t.Errorf("transcript = %q, want empty", text)
	}
}

func TestTranscribeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"upstream exploded","type":"server_error"}}`))
	}))
	defer server.Close()

	adapter := newOpenAIAdapter(Config{APIKey: "sk-test", Model: "gpt-4o-transcribe"}, server.URL)
	_, err := adapter.Transcribe(context.Background(), writeTestAudio(t), "audio/wav")
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if !upstream.IsUpstream(err) {
		t.Fatalf("expected UpstreamError, got %T: %v", err, err)
	}
}

func TestTranscribeConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listening anymore

	adapter := newOpenAIAdapter(Config{APIKey: "sk-test", Model: "gpt-4o-transcribe"}, server.URL)
	_, err := adapter.Transcribe(context.Background(), writeTestAudio(t), "audio/wav")
	if err == nil {
		t.Fatal("expected error when upstream is unreachable")
	}
	if !upstream.IsConnectivity(err) {
		t.Errorf("expected ConnectivityError, got %T: %v", err, err)
	}
}
