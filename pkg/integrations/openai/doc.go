// Package openai provides a small client for the OpenAI chat completions and
// image generation endpoints.
//
// The meme pipeline needs exactly two things from the API: a caption as a
// JSON object, and an image for a prompt.
//
//	client := openai.NewClient(apiKey)
//
//	var caption map[string]string
//	err := client.ChatJSON(ctx, system, prompt, &caption)
//
//	png, err := client.GenerateImage(ctx, "a calm dog in a burning room", openai.Size1024)
//
// Models occasionally wrap JSON answers in a markdown code fence; ChatJSON
// strips it before decoding. Transient failures (5xx, 429, network) are
// retried by the shared integrations client.
package openai
