package ai

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aharnip2705/studylab-sub000/internal/chat"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestUnwrapEnvelope(t *testing.T) {
	for raw, want := range map[string]string{
		`{"type":"result","result":"hello"}`:                             "hello",
		`{"type":"result","result":"x","structured_output":{"plan":[]}}`: `{"plan":[]}`,
		"plain text":                                                     "plain text",
	} {
		got, err := unwrapEnvelope([]byte(raw), discard)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
}

func TestUnwrapEnvelope_IsError(t *testing.T) {
	got, err := unwrapEnvelope([]byte(`{"type":"result","subtype":"success","is_error":true,"result":"API Error: 529 Overloaded"}`), discard)
	require.Error(t, err)
	assert.Empty(t, got)
	assert.Contains(t, err.Error(), "529 Overloaded")
}

func TestConsumeStream(t *testing.T) {
	in := strings.Join([]string{
		`{"type":"content_block_delta","delta":{"type":"text_delta","text":"Su"}}`,
		`not json`,
		`{"type":"content_block_delta","delta":{"type":"text_delta","text":"re"}}`,
		`{"type":"result","result":"Sure"}`,
	}, "\n")

	var got []string
	result, streamed, err := consumeStream(strings.NewReader(in), func(s string) { got = append(got, s) }, discard)
	require.NoError(t, err)
	assert.Equal(t, "Sure", result)
	assert.Equal(t, "Sure", streamed)
	assert.Equal(t, []string{"Su", "re"}, got)
}

func TestTranscript(t *testing.T) {
	assert.Equal(t, "only", transcript([]chat.Turn{{Role: chat.RoleUser, Text: "only"}}))

	out := transcript([]chat.Turn{
		{Role: chat.RoleUser, Text: "plan?"},
		{Role: chat.RoleAssistant, Text: "want one?"},
		{Role: chat.RoleUser, Text: "yes"},
	})
	assert.Contains(t, out, "Student: plan?")
	assert.Contains(t, out, "Coach: want one?")
	assert.True(t, strings.HasSuffix(out, "Reply to the student's last message."))
}

func TestConsumeStream_IsError(t *testing.T) {
	in := strings.Join([]string{
		`{"type":"content_block_delta","delta":{"type":"text_delta","text":"partial"}}`,
		`{"type":"result","subtype":"error_during_execution","is_error":true,"result":"rate limited"}`,
	}, "\n")

	result, _, err := consumeStream(strings.NewReader(in), func(string) {}, discard)
	require.Error(t, err)
	assert.Empty(t, result)
	assert.Contains(t, err.Error(), "rate limited")
}

// fakeClaude writes a script that prints out and exits 0, standing in for
// the claude binary.
func fakeClaude(t *testing.T, out string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "claude")
	script := "#!/bin/sh\ncat <<'EOF'\n" + out + "\nEOF\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

func TestClaudeCLI_ReportedErrorIsUpstreamUnavailable(t *testing.T) {
	out := `{"type":"result","is_error":true,"result":"API Error: 529 Overloaded"}`
	req := Request{System: "sys", Messages: []chat.Turn{{Role: chat.RoleUser, Text: "hi"}}}

	for name, onDelta := range map[string]func(string){
		"buffered":  nil,
		"streaming": func(string) {},
	} {
		t.Run(name, func(t *testing.T) {
			c := NewClaudeCLI("sonnet", nil)
			c.Binary = fakeClaude(t, out)

			got, err := c.Complete(context.Background(), req, onDelta)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUpstreamUnavailable))
			assert.Contains(t, err.Error(), "529 Overloaded")
			assert.Empty(t, got)
		})
	}
}

func TestClaudeCLI_SuccessfulEnvelope(t *testing.T) {
	c := NewClaudeCLI("sonnet", nil)
	c.Binary = fakeClaude(t, `{"type":"result","is_error":false,"result":"Merhaba!"}`)

	got, err := c.Complete(context.Background(), Request{Messages: []chat.Turn{{Role: chat.RoleUser, Text: "selam"}}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Merhaba!", got)
}

func TestTruncateStrKeepsRunesWhole(t *testing.T) {
	require.Equal(t, "kısa", truncateStr("kısa", 10))
	require.Equal(t, "ab...", truncateStr("abcdef", 2))

	// "ş" is two bytes; a cut at byte 3 would land inside it.
	got := truncateStr("aaşbb", 3)
	require.Equal(t, "aa...", got)
	require.True(t, utf8.ValidString(got))
}
