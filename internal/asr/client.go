// Package asr wraps the ASR model behind a small transcription contract:
// a float32 PCM buffer at 16kHz in, timed word hypotheses out.
package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/hubenschmidt/presentation-copilot/internal/audio"
	"github.com/hubenschmidt/presentation-copilot/internal/metrics"
	"github.com/hubenschmidt/presentation-copilot/internal/netutil"
)

// WordHypothesis is a single timed word returned by the ASR model.
type WordHypothesis struct {
	Text string
	EndS float64
}

// Transcriber is the contract the stabilizer needs from an ASR backend.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []float32, hotwords string) ([]WordHypothesis, error)
}

// Client talks to a whisper.cpp-server-alike HTTP endpoint: multipart WAV
// upload, word timestamps, no cross-request context.
type Client struct {
	url    string
	client *http.Client
}

// NewClient creates a Client pointing at an ASR server URL.
func NewClient(url string, poolSize int) *Client {
	return &Client{
		url:    url,
		client: netutil.NewPooledHTTPClient(poolSize, 30*time.Second),
	}
}

type serverWord struct {
	Word string  `json:"word"`
	End  float64 `json:"end"`
}

type serverSegment struct {
	Words []serverWord `json:"words"`
}

type serverResponse struct {
	Segments []serverSegment `json:"segments"`
}

// Transcribe posts the PCM buffer as a WAV file and returns word hypotheses.
// The call is made with beam_size=1, word timestamps on, VAD filtering on,
// and no carry-over context between calls, matching a streaming
// re-transcription pass over the whole sliding buffer.
func (c *Client) Transcribe(ctx context.Context, samples []float32, hotwords string) ([]WordHypothesis, error) {
	start := time.Now()

	body, contentType, err := buildMultipartAudio(samples, hotwords)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url+"/inference", body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.Errors.WithLabelValues("asr", "http").Inc()
		return nil, fmt.Errorf("asr request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		metrics.Errors.WithLabelValues("asr", "status").Inc()
		return nil, fmt.Errorf("asr status %d: %s", resp.StatusCode, string(respBody))
	}

	var sr serverResponse
	if err = json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode asr response: %w", err)
	}

	metrics.StageDuration.WithLabelValues("asr").Observe(time.Since(start).Seconds())

	var words []WordHypothesis
	for _, seg := range sr.Segments {
		for _, w := range seg.Words {
			words = append(words, WordHypothesis{Text: w.Word, EndS: w.End})
		}
	}
	return words, nil
}

func buildMultipartAudio(samples []float32, hotwords string) (*bytes.Buffer, string, error) {
	wavData := audio.SamplesToWAV(samples, 16000)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err = part.Write(wavData); err != nil {
		return nil, "", fmt.Errorf("write wav data: %w", err)
	}

	_ = writer.WriteField("language", "en")
	_ = writer.WriteField("beam_size", strconv.Itoa(1))
	_ = writer.WriteField("word_timestamps", "true")
	_ = writer.WriteField("vad_filter", "true")
	_ = writer.WriteField("condition_on_previous_text", "false")
	if hotwords != "" {
		_ = writer.WriteField("hotwords", hotwords)
	}

	if err = writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close writer: %w", err)
	}

	return &body, writer.FormDataContentType(), nil
}
