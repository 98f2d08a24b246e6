package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/dailymemedigest/memefactory/pkg/integrations"
)

// DefaultBaseURL is the public OpenAI API endpoint.
const DefaultBaseURL = "https://api.openai.com/v1"

// Default models.
const (
	DefaultChatModel  = "gpt-3.5-turbo"
	DefaultImageModel = "gpt-image-1"
)

// Image sizes the generation endpoint accepts.
const (
	Size1024      = "1024x1024"
	Size1024x1536 = "1024x1536"
	Size1536x1024 = "1536x1024"
)

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

type imageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	Size           string `json:"size"`
	N              int    `json:"n"`
	ResponseFormat string `json:"response_format,omitempty"`
}

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// Client provides access to the OpenAI API.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL     string
	chatModel   string
	imageModel  string
	temperature float64
	maxTokens   int
}

// NewClient creates an OpenAI client authenticated with apiKey.
func NewClient(apiKey string) *Client {
	headers := map[string]string{"Authorization": "Bearer " + apiKey}
	return &Client{
		Client:      integrations.NewClient(nil, "openai", 0, headers),
		baseURL:     DefaultBaseURL,
		chatModel:   DefaultChatModel,
		imageModel:  DefaultImageModel,
		temperature: 0.8,
		maxTokens:   200,
	}
}

// WithBaseURL points the client at another server.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimRight(u, "/")
	return c
}

// WithModels overrides the chat and image models. Empty values keep the
// current model.
func (c *Client) WithModels(chat, image string) *Client {
	if chat != "" {
		c.chatModel = chat
	}
	if image != "" {
		c.imageModel = image
	}
	return c
}

// Chat sends a system and a user message and returns the first answer.
func (c *Client) Chat(ctx context.Context, system, user string) (string, error) {
	req := chatRequest{
		Model: c.chatModel,
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}
	var resp chatResponse
	if err := c.DoWithRetry(ctx, http.MethodPost, c.baseURL+"/chat/completions", nil, req, &resp); err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat: empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// ChatJSON is [Client.Chat] for prompts that ask for a JSON answer. The
// answer, with any code fence removed, is decoded into v.
func (c *Client) ChatJSON(ctx context.Context, system, user string, v any) error {
	answer, err := c.Chat(ctx, system, user)
	if err != nil {
		return err
	}
	body := integrations.StripCodeFences(answer)
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return fmt.Errorf("openai chat: answer is not JSON: %w (%s)", err, integrations.Truncate(body, 80))
	}
	return nil
}

// GenerateImage renders prompt and returns the decoded image bytes. An
// empty size means [Size1024].
func (c *Client) GenerateImage(ctx context.Context, prompt, size string) ([]byte, error) {
	if size == "" {
		size = Size1024
	}
	req := imageRequest{
		Model:  c.imageModel,
		Prompt: prompt,
		Size:   size,
		N:      1,
	}
	// gpt-image-1 always answers in base64 and rejects the parameter.
	if c.imageModel != DefaultImageModel {
		req.ResponseFormat = "b64_json"
	}
	var resp imageResponse
	if err := c.DoWithRetry(ctx, http.MethodPost, c.baseURL+"/images/generations", nil, req, &resp); err != nil {
		return nil, fmt.Errorf("openai image: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("openai image: no image data")
	}
	img, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("openai image: decode: %w", err)
	}
	return img, nil
}
