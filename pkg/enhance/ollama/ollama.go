package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"prompt-polish-be/pkg/enhance"
)

const systemPrompt = "You are a prompt-enhancement assistant. Rewrite the user's prompt so it is " +
	"specific, well-structured and ready to send to an AI model. Keep the user's intent, add missing " +
	"detail about task, format and constraints. Answer with the rewritten prompt only."

type OllamaProvider struct {
	BaseURL   string
	ModelName string
	Client    *http.Client
}

var _ enhance.Provider = &OllamaProvider{}

func NewOllamaProvider(baseURL, modelName string) *OllamaProvider {
	return &OllamaProvider{
		BaseURL:   baseURL,
		ModelName: modelName,
		Client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// --- Request/Response structs (Internal to this package) ---

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatResponse struct {
	Model           string        `json:"model"`
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
}

// --- Interface Implementation ---

func (o *OllamaProvider) Enhance(ctx context.Context, req enhance.Request) (*enhance.Result, error) {
	messages := []ollamaMessage{{Role: "system", Content: systemPrompt}}

	if req.Context != "" {
		messages = append(messages, ollamaMessage{
			Role:    "system",
			Content: "Use this conversation context when rewriting:\n" + req.Context,
		})
	}
	for _, t := range req.History {
		role := t.Role
		if role == "model" {
			role = "assistant"
		}
		messages = append(messages, ollamaMessage{Role: role, Content: t.Content})
	}
	messages = append(messages, ollamaMessage{Role: "user", Content: req.Prompt})

	resp, err := o.chat(ctx, messages)
	if err != nil {
		return nil, err
	}

	return &enhance.Result{
		EnhancedText: resp.Message.Content,
		InputTokens:  resp.PromptEvalCount,
		OutputTokens: resp.EvalCount,
		Model:        resp.Model,
	}, nil
}

func (o *OllamaProvider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := o.chat(ctx, []ollamaMessage{{Role: "user", Content: prompt}})
	if err != nil {
		return "", err
	}
	return resp.Message.Content, nil
}

func (o *OllamaProvider) chat(ctx context.Context, messages []ollamaMessage) (*ollamaChatResponse, error) {
	payload := ollamaChatRequest{
		Model:    o.ModelName,
		Messages: messages,
		Stream:   false,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := o.BaseURL + "/api/chat"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var chatResp ollamaChatResponse
	if err := json.Unmarshal(bodyBytes, &chatResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &chatResp, nil
}
