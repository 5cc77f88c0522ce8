package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newGenerateServer(t *testing.T, chunks []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model == "" || req.Prompt == "" {
			t.Errorf("missing model/prompt: %+v", req)
		}
		enc := json.NewEncoder(w)
		for i, c := range chunks {
			enc.Encode(generateChunk{Response: c, Done: i == len(chunks)-1})
		}
	}))
}

func TestClientGenerateAccumulatesChunks(t *testing.T) {
	srv := newGenerateServer(t, []string{"The patient ", "was admitted ", "with fever."})
	defer srv.Close()

	c := NewClient(srv.URL)
	got, err := c.Generate(context.Background(), "summary-model", "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "The patient was admitted with fever." {
		t.Errorf("got %q", got)
	}
}

func TestClientGenerateStreamWritesChunks(t *testing.T) {
	srv := newGenerateServer(t, []string{"a", "b", "c"})
	defer srv.Close()

	c := NewClient(srv.URL)
	var out strings.Builder
	if err := c.GenerateStream(context.Background(), "m", "p", &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "abc" {
		t.Errorf("got %q", out.String())
	}
}

func TestClientGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Generate(context.Background(), "m", "p"); err == nil {
		t.Fatal("expected error")
	}
}

func TestClientGenerateChunkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"error": "out of memory"}`+"\n")
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Generate(context.Background(), "m", "p")
	if err == nil || !strings.Contains(err.Error(), "out of memory") {
		t.Fatalf("err = %v", err)
	}
}

func TestClientListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, `{"models": [{"name": "gemma3n:e4b"}, {"name": "qwen:7b"}]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	models, err := c.ListModels(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(models) != 2 || models[0].Name != "gemma3n:e4b" {
		t.Errorf("models = %+v", models)
	}
	if !c.Healthy(context.Background()) {
		t.Error("expected healthy")
	}
}

func TestAudioClientTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/generate/audio-text" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret-key" {
			t.Errorf("Authorization = %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		f, hdr, err := r.FormFile("audio_file")
		if err != nil {
			t.Fatalf("audio_file: %v", err)
		}
		defer f.Close()
		if hdr.Filename != "note.wav" {
			t.Errorf("filename = %q", hdr.Filename)
		}
		if got := r.FormValue("instruction"); got != "transcribe the handoff" {
			t.Errorf("instruction = %q", got)
		}
		io.WriteString(w, `{"generated_text": "patient resting comfortably", "processing_time": 1.2}`)
	}))
	defer srv.Close()

	c := NewAudioClient(srv.URL, "secret-key")
	got, err := c.Transcribe(context.Background(), TranscribeRequest{
		Filename:    "note.wav",
		Audio:       strings.NewReader("RIFFfakeaudio"),
		Instruction: "transcribe the handoff",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.GeneratedText != "patient resting comfortably" {
		t.Errorf("text = %q", got.GeneratedText)
	}
}
