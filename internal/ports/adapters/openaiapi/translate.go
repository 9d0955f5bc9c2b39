package openaiapi

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"golang.org/x/text/language/display"
)

func (a *Adapter) Translate(ctx context.Context, texts []string) ([]string, error) {
	out := make([]string, len(texts))
	for lo := 0; lo < len(texts); lo += a.batchSize {
		hi := lo + a.batchSize
		if hi > len(texts) {
			hi = len(texts)
		}
		if err := a.translateBatch(ctx, texts[lo:hi], out[lo:hi]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// translateBatch fills dst with translations of src. A reply of the wrong
// shape falls back to one request per line; lines that still fail are left
// empty. Only errors that would affect every request are returned.
func (a *Adapter) translateBatch(ctx context.Context, src, dst []string) error {
	idx := make([]int, 0, len(src))
	lines := make([]string, 0, len(src))
	for i, s := range src {
		if t := strings.TrimSpace(s); t != "" {
			idx = append(idx, i)
			lines = append(lines, t)
		}
	}
	if len(lines) == 0 {
		return nil
	}

	got, err := a.requestTranslations(ctx, lines)
	if err == nil && len(got) == len(lines) {
		for k, i := range idx {
			dst[i] = strings.TrimSpace(got[k])
		}
		return nil
	}
	if err != nil && isFatal(err) {
		return err
	}
	if err != nil {
		a.logf("warning: translation batch of %d failed, retrying per line: %v", len(lines), err)
	} else {
		a.logf("warning: translation batch returned %d lines for %d, retrying per line", len(got), len(lines))
	}

	for k, i := range idx {
		if err := ctx.Err(); err != nil {
			return err
		}
		one, err := a.requestTranslations(ctx, lines[k:k+1])
		if err != nil {
			if isFatal(err) {
				return err
			}
			a.logf("warning: translation of line %q failed: %v", truncate(lines[k], 60), err)
			continue
		}
		if len(one) != 1 {
			a.logf("warning: translation of line %q returned %d items", truncate(lines[k], 60), len(one))
			continue
		}
		dst[i] = strings.TrimSpace(one[0])
	}
	return nil
}

func (a *Adapter) requestTranslations(ctx context.Context, lines []string) ([]string, error) {
	in, err := json.Marshal(lines)
	if err != nil {
		return nil, fmt.Errorf("marshal lines: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.client.Chat.Completions.New(reqCtx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(a.translateModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(a.systemPrompt()),
			openai.UserMessage(string(in)),
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		return nil, a.wrapErr("translation", reqCtx, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai translation: no choices")
	}

	clean, err := extractJSONArray(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	var out []string
	if err := json.Unmarshal([]byte(clean), &out); err != nil {
		return nil, fmt.Errorf("decode translation: %w", err)
	}
	return out, nil
}

func (a *Adapter) systemPrompt() string {
	name := display.English.Tags().Name(a.target)
	if name == "" {
		name = a.target.String()
	}
	return "You translate English video subtitle lines into " + name + " (" + a.target.String() + "). " +
		"The user message is a JSON array of strings. " +
		"Reply with only a JSON array of strings: the same length and order, one translation per element. " +
		"Translate each element on its own, keep it short enough for a subtitle, and do not merge or split lines. " +
		"No markdown, no code fences, no commentary."
}
