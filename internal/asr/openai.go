package asr

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/packages/param"

	"github.com/hubenschmidt/presentation-copilot/internal/audio"
	"github.com/hubenschmidt/presentation-copilot/internal/metrics"
)

// OpenAIClient transcribes via the OpenAI audio transcriptions endpoint.
// Used as an alternate ASR backend alongside the default HTTP server
// client; selected through the same engine-name router.
type OpenAIClient struct {
	client openai.Client
	model  string
}

// NewOpenAIClient creates an OpenAI-backed transcriber. model is typically
// "whisper-1" or "gpt-4o-transcribe".
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Transcribe uploads the PCM buffer as a WAV file and returns the resulting
// transcript as a single word hypothesis; OpenAI's transcription endpoint
// does not expose per-word end times, so EndS is left at 0 and the
// stabilizer does not trim the buffer on confirmations from this backend.
func (c *OpenAIClient) Transcribe(ctx context.Context, samples []float32, hotwords string) ([]WordHypothesis, error) {
	start := time.Now()

	wavData := audio.SamplesToWAV(samples, 16000)

	params := openai.AudioTranscriptionNewParams{
		Model: c.model,
		File:  bytes.NewReader(wavData),
	}
	if hotwords != "" {
		params.Prompt = param.NewOpt(hotwords)
	}

	resp, err := c.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		metrics.Errors.WithLabelValues("asr", "openai").Inc()
		return nil, fmt.Errorf("openai transcribe: %w", err)
	}

	metrics.StageDuration.WithLabelValues("asr").Observe(time.Since(start).Seconds())

	if resp.Text == "" {
		return nil, nil
	}
	return []WordHypothesis{{Text: resp.Text, EndS: 0}}, nil
}
