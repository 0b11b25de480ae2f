package stream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

// sseLine wraps a text fragment the way streamGenerateContent?alt=sse does.
func sseLine(t *testing.T, text string) string {
	t.Helper()
	chunk := map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{
				"parts": []any{map[string]any{"text": text}},
				"role":  "model",
			}},
		},
	}
	b, err := json.Marshal(chunk)
	if err != nil {
		t.Fatal(err)
	}
	return "data: " + string(b) + "\r\n\r\n"
}

const mathAnswer = `{"solution":{"ans":"4","steps":["Add"]},"quiz":{"q":"1+1?","opt":["1","2","3","4"],"correct":1,"reason":"basic"}}`

func TestReadTwoChunks(t *testing.T) {
	body := sseLine(t, mathAnswer[:40]) + sseLine(t, mathAnswer[40:])

	res, err := Read(context.Background(), strings.NewReader(body))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if res.FinalAnswer != "4" {
		t.Fatalf("final answer = %q", res.FinalAnswer)
	}
	if len(res.Steps) != 1 || res.Steps[0] != "Add" {
		t.Fatalf("steps = %v", res.Steps)
	}
	if res.Quiz.CorrectIndex != 1 || res.Quiz.Question != "1+1?" || len(res.Quiz.Options) != 4 || res.Quiz.Explanation != "basic" {
		t.Fatalf("quiz = %+v", res.Quiz)
	}
}

func TestReadSplitAcrossReads(t *testing.T) {
	body := sseLine(t, mathAnswer[:10]) + sseLine(t, mathAnswer[10:70]) + sseLine(t, mathAnswer[70:])

	// one byte per Read: every SSE line is split across read boundaries
	res, err := Read(context.Background(), iotest.OneByteReader(strings.NewReader(body)))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if res.FinalAnswer != "4" {
		t.Fatalf("final answer = %q", res.FinalAnswer)
	}
}

func TestReadTruncatedFails(t *testing.T) {
	body := sseLine(t, mathAnswer[:50])

	res, err := Read(context.Background(), strings.NewReader(body))
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("err = %v, want ErrInvalidFormat", err)
	}
	if res.FinalAnswer != "" || res.Steps != nil || res.Quiz.Question != "" {
		t.Fatalf("partial result leaked: %+v", res)
	}
	if err.Error() != "AI returned an invalid format" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestReadIgnoresNoise(t *testing.T) {
	body := ": keep-alive\n" +
		"event: message\n" +
		"data: \n" +
		"data:    \n" +
		"data: {not json\n" +
		"id: 7\n" +
		sseLine(t, mathAnswer) +
		"data: {\"candidates\":[]}\n" +
		"retry: 1000\n"

	res, err := Read(context.Background(), strings.NewReader(body))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if res.FinalAnswer != "4" {
		t.Fatalf("final answer = %q", res.FinalAnswer)
	}
}

func TestReadEmptyStream(t *testing.T) {
	if _, err := Read(context.Background(), strings.NewReader("")); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("err = %v", err)
	}
}

func TestReadWithoutTrailingNewline(t *testing.T) {
	body := strings.TrimRight(sseLine(t, mathAnswer), "\r\n")
	if _, err := Read(context.Background(), strings.NewReader(body)); err != nil {
		t.Fatalf("read: %v", err)
	}
}

func TestDecodeRequiresSolution(t *testing.T) {
	if _, err := Decode(`{"quiz":{"q":"x"}}`); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("err = %v", err)
	}
	res, err := Decode(`{"solution":{"ans":"42"}}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Steps == nil || len(res.Steps) != 0 {
		t.Fatalf("steps = %#v, want empty non-nil", res.Steps)
	}
	if res.Quiz.Valid() {
		t.Fatal("missing quiz must not be valid")
	}
}

func TestAccumulate(t *testing.T) {
	var buf []byte
	for _, line := range []string{
		"data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"ab\"}]}}]}",
		"garbage",
		"data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":",
		"",
		"data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"cd\"}]}}]}",
	} {
		buf = Accumulate(buf, line)
	}
	if string(buf) != "abcd" {
		t.Fatalf("buf = %q", buf)
	}
}

func TestOnChunkAndLimit(t *testing.T) {
	body := sseLine(t, "aaaa") + sseLine(t, "bbbb") + sseLine(t, "cccc")

	var calls []int
	ra := &Reassembler{OnChunk: func(n int) { calls = append(calls, n) }}
	text, err := ra.Collect(context.Background(), strings.NewReader(body))
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if text != "aaaabbbbcccc" {
		t.Fatalf("text = %q", text)
	}
	if len(calls) != 3 || calls[2] != 3 {
		t.Fatalf("OnChunk calls = %v", calls)
	}

	ra = &Reassembler{MaxBytes: 10}
	if _, err := ra.Read(context.Background(), strings.NewReader(body)); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("err = %v, want ErrTooLarge", err)
	}
}

func TestReadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Read(ctx, strings.NewReader(sseLine(t, mathAnswer))); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestReadLineWithoutNewlineIsBounded(t *testing.T) {
	// одна бесконечная строка без '\n' не должна копиться в памяти
	endless := io.MultiReader(strings.NewReader("data: "), iotest.OneByteReader(strings.NewReader(strings.Repeat("x", 200<<10))))
	ra := &Reassembler{MaxBytes: 1024}
	if _, err := ra.Read(context.Background(), endless); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("err = %v, want ErrTooLarge", err)
	}
}
