package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/aharnip2705/studylab-sub000/internal/chat"
)

// cleanEnv returns os.Environ() with Claude Code session vars removed
// so the subprocess doesn't get blocked by the nested-session check.
func cleanEnv() []string {
	blocked := map[string]bool{
		"CLAUDECODE":                           true,
		"CLAUDE_CODE_ENTRYPOINT":               true,
		"CLAUDE_CODE_EXPERIMENTAL_AGENT_TEAMS": true,
	}
	var env []string
	for _, e := range os.Environ() {
		key, _, _ := strings.Cut(e, "=")
		if !blocked[key] {
			env = append(env, e)
		}
	}
	return env
}

// ClaudeCLI runs completions through the local `claude` binary. Sampling
// parameters are not exposed by the CLI and are ignored.
type ClaudeCLI struct {
	Model  string
	Binary string
	logger *slog.Logger
}

func NewClaudeCLI(model string, logger *slog.Logger) *ClaudeCLI {
	if model == "" {
		model = "sonnet"
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ClaudeCLI{Model: model, Binary: "claude", logger: logger}
}

// transcript flattens the turn window into one prompt; the CLI only takes a
// single user prompt per invocation.
func transcript(turns []chat.Turn) string {
	if len(turns) == 1 {
		return turns[0].Text
	}
	var sb strings.Builder
	sb.WriteString("Conversation so far:\n\n")
	for _, t := range turns {
		label := "Student"
		if t.Role == chat.RoleAssistant {
			label = "Coach"
		}
		fmt.Fprintf(&sb, "%s: %s\n\n", label, t.Text)
	}
	sb.WriteString("Reply to the student's last message.")
	return sb.String()
}

func (c *ClaudeCLI) Complete(ctx context.Context, req Request, onDelta func(string)) (string, error) {
	userPrompt := transcript(req.Messages)

	args := []string{
		"-p", userPrompt,
		"--output-format", "json",
		"--model", c.Model,
		"--system-prompt", req.System,
		"--no-session-persistence",
	}
	if req.Schema != "" {
		args = append(args, "--json-schema", req.Schema)
	}

	c.logger.Debug("invoking claude CLI",
		"model", c.Model,
		"messages", len(req.Messages),
		"system_prompt_len", len(req.System),
		"user_prompt_len", len(userPrompt),
		"schema_len", len(req.Schema),
		"stream", onDelta != nil,
	)

	var (
		result string
		err    error
	)
	if onDelta != nil {
		result, err = c.runStreamingCLI(ctx, args, onDelta)
	} else {
		result, err = c.runBufferedCLI(ctx, args)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	return result, nil
}

// runBufferedCLI runs the CLI and captures all output at once.
func (c *ClaudeCLI) runBufferedCLI(ctx context.Context, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, c.Binary, args...)
	cmd.Env = cleanEnv()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	startTime := time.Now()
	err := cmd.Run()
	elapsed := time.Since(startTime)

	c.logger.Debug("claude CLI finished",
		"elapsed", elapsed,
		"stdout_bytes", stdout.Len(),
		"stderr_bytes", stderr.Len(),
		"error", err,
	)

	if err != nil {
		c.logger.Error("claude CLI failed",
			"error", err,
			"elapsed", elapsed,
			"stderr", stderr.String(),
		)
		if ctx.Err() != nil {
			return "", fmt.Errorf("claude CLI timed out after %s", elapsed.Truncate(time.Second))
		}
		return "", fmt.Errorf("running claude CLI: %w (stderr: %s)", err, stderr.String())
	}

	return unwrapEnvelope(stdout.Bytes(), c.logger)
}

// cliError is returned when the CLI exits cleanly but flags its result as an
// error (rate limits, overload, auth).
func cliError(subtype, text string) error {
	if text == "" {
		text = "no details"
	}
	if subtype != "" {
		return fmt.Errorf("claude CLI reported %s: %s", subtype, text)
	}
	return fmt.Errorf("claude CLI reported an error: %s", text)
}

// resultText decodes a result field that is either a JSON string or a raw
// document.
func resultText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// unwrapEnvelope pulls the reply out of the --output-format json envelope.
// structured_output (from --json-schema) wins over result; anything that is
// not an envelope is returned as is. An envelope with is_error set is an
// error carrying the result text.
func unwrapEnvelope(raw []byte, logger *slog.Logger) (string, error) {
	var env struct {
		Type             string          `json:"type"`
		Subtype          string          `json:"subtype"`
		IsError          bool            `json:"is_error"`
		Result           json.RawMessage `json:"result"`
		StructuredOutput json.RawMessage `json:"structured_output"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Debug("envelope parse failed, treating as raw output", "error", err)
		return string(raw), nil
	}

	if env.IsError {
		return "", cliError(env.Subtype, resultText(env.Result))
	}
	if len(env.StructuredOutput) > 0 && env.StructuredOutput[0] == '{' {
		return string(env.StructuredOutput), nil
	}
	if len(env.Result) > 0 {
		var s string
		if err := json.Unmarshal(env.Result, &s); err == nil {
			return s, nil
		}
		if env.Result[0] == '{' || env.Result[0] == '[' {
			return string(env.Result), nil
		}
	}

	logger.Debug("envelope without usable result", "type", env.Type, "subtype", env.Subtype)
	return "", nil
}

// streamEvent represents a single event in the stream-json output.
type streamEvent struct {
	Type             string          `json:"type"`
	Subtype          string          `json:"subtype,omitempty"`
	IsError          bool            `json:"is_error,omitempty"`
	Result           json.RawMessage `json:"result,omitempty"`
	StructuredOutput json.RawMessage `json:"structured_output,omitempty"`
	Delta            struct {
		Type string `json:"type,omitempty"`
		Text string `json:"text,omitempty"`
	} `json:"delta"`
	Message struct {
		Content []struct {
			Type string `json:"type,omitempty"`
			Text string `json:"text,omitempty"`
		} `json:"content,omitempty"`
	} `json:"message"`
}

// runStreamingCLI runs the CLI with stream-json output, passing text chunks
// to onDelta as they arrive.
func (c *ClaudeCLI) runStreamingCLI(ctx context.Context, args []string, onDelta func(string)) (string, error) {
	streamArgs := make([]string, len(args))
	copy(streamArgs, args)
	for i, a := range streamArgs {
		if a == "json" && i > 0 && streamArgs[i-1] == "--output-format" {
			streamArgs[i] = "stream-json"
		}
	}
	streamArgs = append(streamArgs, "--verbose")

	cmd := exec.CommandContext(ctx, c.Binary, streamArgs...)
	cmd.Env = cleanEnv()

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("creating stdout pipe: %w", err)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	startTime := time.Now()
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("starting claude CLI: %w", err)
	}

	result, streamed, streamErr := consumeStream(stdout, onDelta, c.logger)
	elapsed := time.Since(startTime)

	if err := cmd.Wait(); err != nil {
		c.logger.Error("claude CLI failed (streaming)",
			"error", err,
			"elapsed", elapsed,
			"stderr", stderr.String(),
		)
		if ctx.Err() != nil {
			return "", fmt.Errorf("claude CLI timed out after %s", elapsed.Truncate(time.Second))
		}
		return "", fmt.Errorf("running claude CLI: %w (stderr: %s)", err, stderr.String())
	}

	if streamErr != nil {
		return "", streamErr
	}

	c.logger.Debug("claude CLI streaming finished", "elapsed", elapsed, "result_len", len(result))

	if result == "" {
		return streamed, nil
	}
	return result, nil
}

// consumeStream reads stream-json lines. It returns the final result event
// text and the concatenation of all streamed fragments, or an error when the
// result event is flagged is_error.
func consumeStream(r io.Reader, onDelta func(string), logger *slog.Logger) (string, string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var result string
	var resultErr error
	var streamed strings.Builder
	emit := func(s string) {
		streamed.WriteString(s)
		onDelta(s)
	}

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var event streamEvent
		if err := json.Unmarshal(line, &event); err != nil {
			logger.Debug("skipping unparseable stream line",
				"error", err,
				"line", truncateStr(string(line), 200),
			)
			continue
		}

		switch event.Type {
		case "content_block_delta":
			if event.Delta.Text != "" {
				emit(event.Delta.Text)
			}
		case "assistant":
			for _, block := range event.Message.Content {
				if block.Type == "text" && block.Text != "" {
					emit(block.Text)
				}
			}
		case "result":
			switch {
			case event.IsError:
				resultErr = cliError(event.Subtype, resultText(event.Result))
			case len(event.StructuredOutput) > 0 && event.StructuredOutput[0] == '{':
				result = string(event.StructuredOutput)
			default:
				result = resultText(event.Result)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		logger.Debug("stream read stopped", "error", err)
	}
	return result, streamed.String(), resultErr
}
