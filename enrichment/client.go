package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/artazzen/gallerybackend/config"
)

const (
	ProviderName = "openai"

	defaultBaseURL     = "https://api.openai.com/v1"
	defaultVisionModel = "gpt-4o-mini"
)

// Attempt outcome classification. Exactly one status applies per attempt.
const (
	StatusSuccess            = "success"
	StatusSkippedNoAPIKey    = "skipped_no_api_key"
	StatusErrorImageEncoding = "error_image_encoding"
	StatusErrorHTTP          = "error_http"
	StatusErrorParse         = "error_parse"
	StatusNoJSON             = "no_json"
)

// Attempt describes one enrichment attempt, successful or not. It is written
// wholesale into the sidecar's ai_details field.
type Attempt struct {
	Provider     string
	Model        string
	Prompt       string
	ResponseID   string
	FinishReason string
	Status       string
	Error        string
	AttemptedAt  float64
}

// Details renders the attempt in the sidecar ai_details layout.
func (a Attempt) Details() map[string]interface{} {
	return map[string]interface{}{
		"provider":      a.Provider,
		"model":         a.Model,
		"prompt":        a.Prompt,
		"response_id":   a.ResponseID,
		"finish_reason": a.FinishReason,
		"status":        a.Status,
		"error":         a.Error,
		"attempted_at":  a.AttemptedAt,
	}
}

// Request asks the client to fill the Missing fields of one image, given the
// fields the caller already knows.
type Request struct {
	ImageName string
	ImagePath string
	Known     map[string]string
	Missing   []string
	Settings  config.AISettings
}

// Result carries the attempt record plus any filled values. Fields only ever
// contains keys that were requested as missing; values the caller already had
// are never returned.
type Result struct {
	Status  string
	Fields  map[string]interface{}
	Attempt Attempt
}

// Client calls the provider's vision-capable chat completion endpoint. All
// failures are classified into the attempt record, never returned as errors.
type Client struct {
	baseURL     string
	credentials *CredentialSource
	httpClient  *http.Client
}

func NewClient(baseURL string, credentials *CredentialSource) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		credentials: credentials,
		httpClient:  &http.Client{},
	}
}

// request/response wire types for the chat completions endpoint

type chatMessage struct {
	Role    string        `json:"role"`
	Content []chatContent `json:"content"`
}

type chatContent struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model               string          `json:"model"`
	Messages            []chatMessage   `json:"messages"`
	MaxCompletionTokens int             `json:"max_completion_tokens,omitempty"`
	Temperature         *float64        `json:"temperature,omitempty"`
	ResponseFormat      *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *jsonSchema `json:"json_schema,omitempty"`
}

type jsonSchema struct {
	Name   string          `json:"name"`
	Strict bool            `json:"strict"`
	Schema json.RawMessage `json:"schema"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Error   *apiError    `json:"error,omitempty"`
}

type chatChoice struct {
	Message      chatMessageOut `json:"message"`
	FinishReason string         `json:"finish_reason"`
}

type chatMessageOut struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// ResolveModel applies the auto-aware model selection: an explicit configured
// value wins, then the environment default, then the built-in default.
func ResolveModel(configured string) string {
	if configured != "" && configured != "auto" {
		return configured
	}
	if env := strings.TrimSpace(os.Getenv("OPENAI_MODEL")); env != "" && env != "auto" {
		return env
	}
	return defaultVisionModel
}

// modelOmitsTemperature reports whether the model family is known to reject
// the temperature parameter.
func modelOmitsTemperature(model string) bool {
	for _, prefix := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

// responseSchema builds the strict JSON schema constraining the completion to
// exactly the requested fields.
func responseSchema(fields []string) json.RawMessage {
	props := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		if f == "tags" {
			props[f] = map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "string"},
			}
			continue
		}
		props[f] = map[string]interface{}{"type": "string"}
	}
	doc := map[string]interface{}{
		"type":                 "object",
		"properties":           props,
		"required":             fields,
		"additionalProperties": false,
	}
	raw, _ := json.Marshal(doc)
	return raw
}

func (c *Client) attempt(model, prompt string) Attempt {
	return Attempt{
		Provider:    ProviderName,
		Model:       model,
		Prompt:      prompt,
		AttemptedAt: float64(time.Now().Unix()),
	}
}

// Enrich performs one enrichment attempt for one image. It never returns an
// error: every outcome is classified into the result's attempt record.
func (c *Client) Enrich(ctx context.Context, req Request) Result {
	model := ResolveModel(req.Settings.Model)
	missing := orderFields(req.Missing)
	prompt := BuildPrompt(req.ImageName, req.Known, missing)
	att := c.attempt(model, prompt)

	key := c.credentials.Resolve()
	if key == "" {
		att.Status = StatusSkippedNoAPIKey
		return Result{Status: att.Status, Attempt: att}
	}

	payload, err := EncodeImagePayload(req.ImagePath)
	if err != nil {
		att.Status = StatusErrorImageEncoding
		att.Error = err.Error()
		return Result{Status: att.Status, Attempt: att}
	}

	chatReq := chatRequest{
		Model: model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []chatContent{
				{Type: "text", Text: prompt},
				{Type: "image_url", ImageURL: &imageURL{URL: payload}},
			},
		}},
		MaxCompletionTokens: req.Settings.MaxTokens,
		ResponseFormat: &responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchema{
				Name:   "artwork_metadata",
				Strict: true,
				Schema: responseSchema(missing),
			},
		},
	}
	if !modelOmitsTemperature(model) {
		temp := req.Settings.Temperature
		chatReq.Temperature = &temp
	}

	body, err := json.Marshal(chatReq)
	if err != nil {
		att.Status = StatusErrorHTTP
		att.Error = fmt.Sprintf("failed to marshal request: %v", err)
		return Result{Status: att.Status, Attempt: att}
	}

	timeout := time.Duration(req.Settings.TimeoutSeconds) * time.Second
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		att.Status = StatusErrorHTTP
		att.Error = err.Error()
		return Result{Status: att.Status, Attempt: att}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+key)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		att.Status = StatusErrorHTTP
		att.Error = err.Error()
		return Result{Status: att.Status, Attempt: att}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		att.Status = StatusErrorHTTP
		att.Error = fmt.Sprintf("failed to read response: %v", err)
		return Result{Status: att.Status, Attempt: att}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		att.Status = StatusErrorHTTP
		att.Error = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, truncate(string(respBody), 500))
		return Result{Status: att.Status, Attempt: att}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		att.Status = StatusErrorParse
		att.Error = fmt.Sprintf("invalid response body: %v", err)
		return Result{Status: att.Status, Attempt: att}
	}
	if chatResp.Error != nil {
		att.Status = StatusErrorHTTP
		att.Error = chatResp.Error.Message
		return Result{Status: att.Status, Attempt: att}
	}
	att.ResponseID = chatResp.ID
	if len(chatResp.Choices) == 0 {
		att.Status = StatusErrorParse
		att.Error = "response contained no choices"
		return Result{Status: att.Status, Attempt: att}
	}
	att.FinishReason = chatResp.Choices[0].FinishReason

	obj, status := ExtractJSONObject(chatResp.Choices[0].Message.Content)
	if status != StatusSuccess {
		att.Status = status
		att.Error = "no JSON object in completion content"
		return Result{Status: att.Status, Attempt: att}
	}

	fields := make(map[string]interface{}, len(missing))
	for _, f := range missing {
		value, ok := obj[f]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case string:
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				fields[f] = trimmed
			}
		case []interface{}:
			if len(v) > 0 {
				fields[f] = v
			}
		}
	}

	att.Status = StatusSuccess
	return Result{Status: att.Status, Fields: fields, Attempt: att}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
