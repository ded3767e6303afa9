package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

var ErrEmptyResponse = errors.New("empty completion")

// OpenAI writes short article summaries using the Chat Completions API.
type OpenAI struct {
	client *openai.Client
	model  string
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string // optional
}

func NewOpenAI(cfg Config) *OpenAI {
	cc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL
	}
	return &OpenAI{client: openai.NewClientWithConfig(cc), model: cfg.Model}
}

func (o *OpenAI) Summarize(ctx context.Context, title, content, language string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	content = strings.TrimSpace(content)
	if content == "" {
		content = title
	}
	if r := []rune(content); len(r) > 1000 {
		content = string(r[:1000])
	}

	sys := fmt.Sprintf("Summarize the news article in %s in two or three sentences. "+
		"State the key facts only, no opinions, no links.", langOrDefault(language))
	user := fmt.Sprintf("Title: %s\nContent: %s", title, content)

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: sys},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}

func langOrDefault(lang string) string {
	switch l := strings.ToLower(strings.TrimSpace(lang)); l {
	case "":
		return "English"
	case "ja":
		return "Japanese"
	case "en":
		return "English"
	default:
		return l
	}
}
