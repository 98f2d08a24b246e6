package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dailymemedigest/memefactory/pkg/integrations"
)

func newTestClient(url string) *Client {
	c := NewClient("sk-test").WithBaseURL(url)
	c.SetRetry(2, time.Millisecond)
	return c
}

func chatAnswer(w http.ResponseWriter, content string) {
	json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}}},
	})
}

func TestChatJSON(t *testing.T) {
	var got chatRequest
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&got)
		chatAnswer(w, `{"top_text": "Old AI", "bottom_text": "New AI"}`)
	}))
	defer server.Close()

	var caption map[string]string
	err := newTestClient(server.URL).ChatJSON(context.Background(), "be funny", "drake meme", &caption)
	if err != nil {
		t.Fatalf("ChatJSON() error: %v", err)
	}
	if caption["top_text"] != "Old AI" || caption["bottom_text"] != "New AI" {
		t.Errorf("caption = %v", caption)
	}
	if auth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", auth)
	}
	if got.Model != DefaultChatModel || len(got.Messages) != 2 || got.Messages[0].Role != "system" {
		t.Errorf("request = %+v", got)
	}
}

func TestChatJSONStripsFence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chatAnswer(w, "```json\n{\"caption\": \"This is fine\"}\n```")
	}))
	defer server.Close()

	var caption map[string]string
	if err := newTestClient(server.URL).ChatJSON(context.Background(), "", "", &caption); err != nil {
		t.Fatalf("ChatJSON() error: %v", err)
	}
	if caption["caption"] != "This is fine" {
		t.Errorf("caption = %v", caption)
	}
}

func TestChatJSONRejectsProse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chatAnswer(w, "Sure! Here is your meme.")
	}))
	defer server.Close()

	var caption map[string]string
	err := newTestClient(server.URL).ChatJSON(context.Background(), "", "", &caption)
	if err == nil || !strings.Contains(err.Error(), "not JSON") {
		t.Errorf("ChatJSON() error = %v, want decode failure", err)
	}
}

func TestChatEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL).Chat(context.Background(), "", ""); err == nil {
		t.Error("Chat() should fail on an empty choice list")
	}
}

func TestChatUnauthorized(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Chat(context.Background(), "", "")
	if !errors.Is(err, integrations.ErrUnauthorized) {
		t.Errorf("Chat() error = %v, want ErrUnauthorized", err)
	}
	if calls != 1 {
		t.Errorf("unauthorized request retried: %d calls", calls)
	}
}

func TestGenerateImage(t *testing.T) {
	want := []byte("\x89PNG fake")
	var got imageRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/images/generations" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{"b64_json": base64.StdEncoding.EncodeToString(want)}},
		})
	}))
	defer server.Close()

	img, err := newTestClient(server.URL).GenerateImage(context.Background(), "a dog", "")
	if err != nil {
		t.Fatalf("GenerateImage() error: %v", err)
	}
	if string(img) != string(want) {
		t.Errorf("image = %q", img)
	}
	if got.Size != Size1024 || got.Prompt != "a dog" || got.N != 1 {
		t.Errorf("request = %+v", got)
	}
	if got.ResponseFormat != "" {
		t.Errorf("response_format = %q, want omitted for %s", got.ResponseFormat, DefaultImageModel)
	}
}

func TestGenerateImageRequestsBase64ForOtherModels(t *testing.T) {
	var got imageRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"data": [{"b64_json": "aGk="}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL).WithModels("", "dall-e-3")
	if _, err := client.GenerateImage(context.Background(), "x", Size1536x1024); err != nil {
		t.Fatalf("GenerateImage() error: %v", err)
	}
	if got.Model != "dall-e-3" || got.ResponseFormat != "b64_json" || got.Size != Size1536x1024 {
		t.Errorf("request = %+v", got)
	}
}

func TestGenerateImageRetriesServerErrors(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"data": [{"b64_json": "aGk="}]}`))
	}))
	defer server.Close()

	img, err := newTestClient(server.URL).GenerateImage(context.Background(), "x", "")
	if err != nil {
		t.Fatalf("GenerateImage() error: %v", err)
	}
	if string(img) != "hi" || calls != 2 {
		t.Errorf("image = %q after %d calls", img, calls)
	}
}

func TestGenerateImageNoData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL).GenerateImage(context.Background(), "x", ""); err == nil {
		t.Error("GenerateImage() should fail without data")
	}
}
