package openaiapi

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go"

	"github.com/forPelevin/vmasub/internal/types"
)

// verboseTranscription is the verbose_json body. The SDK's typed response
// only exposes the text, so segments are decoded from the raw JSON.
type verboseTranscription struct {
	Text     string          `json:"text"`
	Language string          `json:"language"`
	Segments []types.Segment `json:"segments"`
}

func (a *Adapter) Transcribe(ctx context.Context, wavPath string) (types.Transcript, error) {
	f, err := os.Open(wavPath)
	if err != nil {
		return types.Transcript{}, fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	params := openai.AudioTranscriptionNewParams{
		File:           f,
		Model:          openai.AudioModel(a.asrModel),
		ResponseFormat: openai.AudioResponseFormatVerboseJSON,
	}
	if a.asrLanguage != "" {
		params.Language = openai.String(a.asrLanguage)
	}

	reqCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	res, err := a.client.Audio.Transcriptions.New(reqCtx, params)
	if err != nil {
		return types.Transcript{}, a.wrapErr("transcription", reqCtx, err)
	}
	return decodeTranscription(res.RawJSON(), res.Text)
}

func decodeTranscription(raw, fallbackText string) (types.Transcript, error) {
	var v verboseTranscription
	if strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return types.Transcript{}, fmt.Errorf("decode transcription: %w", err)
		}
	}
	if v.Text == "" {
		v.Text = fallbackText
	}
	tr := types.Transcript{
		Text:     strings.TrimSpace(v.Text),
		Language: v.Language,
		Segments: v.Segments,
	}
	for i := range tr.Segments {
		tr.Segments[i].Text = strings.TrimSpace(tr.Segments[i].Text)
	}
	return tr, nil
}
