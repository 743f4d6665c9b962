// Package stabilizer implements the LocalAgreement streaming transcription
// algorithm: it turns overlapping re-transcriptions of a sliding PCM buffer
// into a monotone stream of confirmed words plus a volatile partial tail.
package stabilizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/hubenschmidt/presentation-copilot/internal/asr"
	"github.com/hubenschmidt/presentation-copilot/internal/audio"
)

const (
	fuzzyMinLen    = 3
	minWordLength  = 2
	hotwordCap     = 50
)

// EncodingError wraps a failure from the ASR backend; the buffer is left
// untrimmed when this is returned.
type EncodingError struct {
	Err error
}

func (e *EncodingError) Error() string { return fmt.Sprintf("stabilizer encoding: %v", e.Err) }
func (e *EncodingError) Unwrap() error { return e.Err }

// Stabilizer owns the sliding PCM buffer and the previous transcription
// pass, applying LocalAgreement at each Process call.
type Stabilizer struct {
	transcriber asr.Transcriber
	buffer      *audio.Buffer
	sampleRate  int
	hotwords    string

	prev []asr.WordHypothesis
}

// New creates a Stabilizer over the given transcriber with a buffer capped
// at bufferSeconds*sampleRate samples.
func New(transcriber asr.Transcriber, sampleRate, bufferSeconds int) *Stabilizer {
	return &Stabilizer{
		transcriber: transcriber,
		buffer:      audio.NewBuffer(sampleRate, bufferSeconds),
		sampleRate:  sampleRate,
	}
}

// SetHotwords updates the hint string forwarded to the ASR backend; up to
// hotwordCap comma-joined keywords. Changing hotwords does not invalidate
// the buffer.
func (s *Stabilizer) SetHotwords(words []string) {
	if len(words) > hotwordCap {
		words = words[:hotwordCap]
	}
	s.hotwords = strings.Join(words, ",")
}

// SetBufferSeconds resizes the sliding buffer cap, preserving already
// buffered samples (trimming from the front if the new cap is smaller).
func (s *Stabilizer) SetBufferSeconds(bufferSeconds int) {
	s.buffer.Resize(s.sampleRate * bufferSeconds)
}

// AddAudio decodes little-endian int16 PCM and appends it to the sliding
// buffer, dropping leading samples once the cap is exceeded.
func (s *Stabilizer) AddAudio(pcm []byte) {
	s.buffer.Add(pcm)
}

// Process runs the ASR over the current buffer (if it holds at least one
// second of audio) and applies LocalAgreement against the previous pass,
// returning confirmed and partial word lists.
func (s *Stabilizer) Process(ctx context.Context) (confirmed, partial []string, err error) {
	if s.buffer.Len() < s.sampleRate {
		return nil, nil, nil
	}

	curr, err := s.transcriber.Transcribe(ctx, s.buffer.Samples(), s.hotwords)
	if err != nil {
		return nil, nil, &EncodingError{Err: err}
	}

	matched := 0
	if len(s.prev) > 0 && len(curr) > 0 {
		for matched < len(s.prev) && matched < len(curr) {
			if !fuzzyMatch(s.prev[matched].Text, curr[matched].Text) {
				break
			}
			matched++
		}
	}

	if matched > 0 {
		lastEnd := curr[matched-1].EndS
		if lastEnd > 0 {
			trim := int(lastEnd * float64(s.sampleRate))
			if trim > 0 && trim < s.buffer.Len() {
				s.buffer.TrimFront(trim)
			}
		}
	}

	for i := 0; i < matched; i++ {
		confirmed = append(confirmed, curr[i].Text)
	}
	for i := matched; i < len(curr); i++ {
		partial = append(partial, curr[i].Text)
	}

	s.prev = curr

	return filterGarbage(confirmed), filterGarbage(partial), nil
}

// Reset clears the buffer and the previous-pass memory.
func (s *Stabilizer) Reset() {
	s.buffer.Reset()
	s.prev = nil
}

// fuzzyMatch compares two ASR word hypotheses case-insensitively, allowing
// prefix matches and a single-character Hamming distance for near-length
// words, to tolerate re-transcription jitter between passes.
func fuzzyMatch(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	if a == b {
		return true
	}
	if len(a) < fuzzyMinLen || len(b) < fuzzyMinLen {
		return false
	}

	shorter := len(a)
	if len(b) < shorter {
		shorter = len(b)
	}
	if a[:shorter] == b[:shorter] {
		return true
	}

	diff := len(a) - len(b)
	if diff < -1 || diff > 1 {
		return false
	}
	if len(a) < fuzzyMinLen+1 || len(b) < fuzzyMinLen+1 {
		return false
	}
	return hammingPrefix(a, b) <= 1
}

// hammingPrefix counts character mismatches over the aligned common prefix.
func hammingPrefix(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	mismatches := 0
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			mismatches++
		}
	}
	return mismatches
}

var noisePhraseRunes = "[](){}*"

// filterGarbage drops words with no letters, words shorter than
// minWordLength (except "i"/"a"), words starting with punctuation,
// bracket/paren/asterisk-wrapped noise markers (e.g. "[inaudible]"), and
// consecutive case-insensitive duplicates.
func filterGarbage(words []string) []string {
	out := make([]string, 0, len(words))
	var lastLower string
	for _, w := range words {
		trimmed := strings.TrimSpace(w)
		if trimmed == "" {
			continue
		}
		if isNoisePhrase(trimmed) {
			continue
		}
		if !hasLetter(trimmed) {
			continue
		}
		lower := strings.ToLower(trimmed)
		if len(trimmed) < minWordLength && lower != "i" && lower != "a" {
			continue
		}
		if strings.ContainsRune("-.,;:!?", rune(trimmed[0])) {
			continue
		}
		if lower == lastLower {
			continue
		}
		out = append(out, trimmed)
		lastLower = lower
	}
	return out
}

func hasLetter(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}

// isNoisePhrase recognizes bracket/paren/asterisk-wrapped hallucination
// markers ASR models commonly emit for non-speech audio, e.g.
// "[inaudible]", "(background noise)", "*static*".
func isNoisePhrase(s string) bool {
	if len(s) < 2 {
		return false
	}
	pairs := map[byte]byte{'[': ']', '(': ')', '{': '}'}
	first, last := s[0], s[len(s)-1]
	if close, ok := pairs[first]; ok {
		return last == close
	}
	if first == '*' && last == '*' {
		return true
	}
	return false
}
