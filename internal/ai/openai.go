package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/aharnip2705/studylab-sub000/internal/chat"
)

// OpenAI talks to any OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	client openai.Client
	model  string
	logger *slog.Logger
}

func NewOpenAI(apiKey, baseURL, model string, timeout time.Duration, logger *slog.Logger) *OpenAI {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if model == "" {
		model = "gpt-4o-mini"
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}

	return &OpenAI{
		client: openai.NewClient(opts...),
		model:  model,
		logger: logger,
	}
}

func (o *OpenAI) params(req Request) openai.ChatCompletionNewParams {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	msgs = append(msgs, openai.SystemMessage(req.System))
	for _, t := range req.Messages {
		if t.Role == chat.RoleAssistant {
			msgs = append(msgs, openai.AssistantMessage(t.Text))
		} else {
			msgs = append(msgs, openai.UserMessage(t.Text))
		}
	}

	p := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.model),
		Messages:    msgs,
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		p.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	return p
}

func (o *OpenAI) Complete(ctx context.Context, req Request, onDelta func(string)) (string, error) {
	o.logger.Debug("sending completion request",
		"model", o.model,
		"messages", len(req.Messages),
		"system_prompt_len", len(req.System),
		"temperature", req.Temperature,
		"max_tokens", req.MaxTokens,
		"stream", onDelta != nil,
	)

	start := time.Now()
	var (
		text string
		err  error
	)
	if onDelta != nil {
		text, err = o.stream(ctx, req, onDelta)
	} else {
		text, err = o.once(ctx, req)
	}
	if err != nil {
		o.logger.Error("completion failed", "error", err, "elapsed", time.Since(start))
		return text, upstreamError(err)
	}

	o.logger.Debug("completion finished",
		"elapsed", time.Since(start),
		"reply_len", len(text),
		"reply", truncateStr(text, 2000),
	)
	return text, nil
}

func (o *OpenAI) once(ctx context.Context, req Request) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, o.params(req))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAI) stream(ctx context.Context, req Request, onDelta func(string)) (string, error) {
	stream := o.client.Chat.Completions.NewStreaming(ctx, o.params(req))
	defer stream.Close()

	var sb strings.Builder
	for stream.Next() {
		chunk := stream.Current()
		for _, c := range chunk.Choices {
			if c.Index != 0 || c.Delta.Content == "" {
				continue
			}
			sb.WriteString(c.Delta.Content)
			onDelta(c.Delta.Content)
		}
	}
	if err := stream.Err(); err != nil {
		return sb.String(), err
	}
	return sb.String(), nil
}

func upstreamError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = apiErr.Error()
		}
		return fmt.Errorf("%w: status %d: %s", ErrUpstreamUnavailable, apiErr.StatusCode, msg)
	}
	return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
}

// truncateStr cuts s to at most maxLen bytes without splitting a rune.
func truncateStr(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	for maxLen > 0 && !utf8.RuneStart(s[maxLen]) {
		maxLen--
	}
	return s[:maxLen] + "..."
}
