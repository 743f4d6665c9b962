package main

import (
	"encoding/json"
	"log/slog"
	"os"

	"github.com/hubenschmidt/presentation-copilot/internal/env"
)

// config holds every knob of the co-pilot pipeline: deployment-level
// settings read from the environment, and matcher/stabilizer tuning
// overridable via a copilot.json file.
type config struct {
	metricsPort      string
	asrURL           string
	asrEngine        string
	embedURL         string
	embedEngine      string
	openAIAPIKey     string
	asrPoolSize      int
	embedPoolSize    int
	asrHotwordPrompt string

	sampleRate    int
	bufferSeconds int

	tuning
}

// tuning holds matcher/stabilizer knobs that may eventually move to a
// database; for now a JSON file keeps them out of env vars.
type tuning struct {
	WindowWords int `json:"window_words"`

	MatchThreshold     float64 `json:"match_threshold"`
	MatchDiff          float64 `json:"match_diff"`
	MatchCooldownWords int     `json:"match_cooldown_words"`
	StayBias           float64 `json:"stay_bias"`
	ForwardBiasMargin  float64 `json:"forward_bias_margin"`
	BackBiasMargin     float64 `json:"back_bias_margin"`

	AllowNonAdjacent     bool    `json:"allow_non_adjacent"`
	NonAdjacentThreshold float64 `json:"non_adjacent_threshold"`
	NonAdjacentBoost     float64 `json:"non_adjacent_boost"`

	KeywordBoost     float64 `json:"keyword_boost"`
	KeywordMinTokens int     `json:"keyword_min_tokens"`
	TitleBoost       float64 `json:"title_boost"`
	TitleMinTokens   int     `json:"title_min_tokens"`

	SentenceMinChars    int `json:"sentence_min_chars"`
	SentenceMinWords    int `json:"sentence_min_words"`
	SentenceMaxPerSlide int `json:"sentence_max_per_slide"`

	RecentWordsCount      int `json:"recent_words_count"`
	RecentWordsMultiplier int `json:"recent_words_multiplier"`

	TriggerCooldownMs      int `json:"trigger_cooldown_ms"`
	TriggerTailWords       int `json:"trigger_tail_words"`
	TriggerMinWordsBetween int `json:"trigger_min_words_between"`

	PartialFinalizeMs      int  `json:"partial_finalize_ms"`
	PartialMatchEnabled    bool `json:"partial_match_enabled"`
	PartialMatchStableMs   int  `json:"partial_match_stable_ms"`
	PartialMatchCooldownMs int  `json:"partial_match_cooldown_ms"`

	QAMode           bool    `json:"qa_mode"`
	QAMatchThreshold float64 `json:"qa_match_threshold"`
	QAMatchDiff      float64 `json:"qa_match_diff"`
	QABufferSeconds  int     `json:"qa_buffer_seconds"`
}

// defaultTuning returns the default matcher/stabilizer knobs.
func defaultTuning() tuning {
	return tuning{
		WindowWords: 20,

		MatchThreshold:     0.55,
		MatchDiff:          0.10,
		MatchCooldownWords: 8,
		StayBias:           0.03,
		ForwardBiasMargin:  0.05,
		BackBiasMargin:     0.03,

		AllowNonAdjacent:     false,
		NonAdjacentThreshold: 0.75,
		NonAdjacentBoost:     0.15,

		KeywordBoost:     0.08,
		KeywordMinTokens: 4,
		TitleBoost:       0.08,
		TitleMinTokens:   3,

		SentenceMinChars:    20,
		SentenceMinWords:    4,
		SentenceMaxPerSlide: 12,

		RecentWordsCount:      8,
		RecentWordsMultiplier: 2,

		TriggerCooldownMs:      1500,
		TriggerTailWords:       6,
		TriggerMinWordsBetween: 4,

		PartialFinalizeMs:      2000,
		PartialMatchEnabled:    true,
		PartialMatchStableMs:   300,
		PartialMatchCooldownMs: 1000,

		QAMode:           false,
		QAMatchThreshold: 0.45,
		QAMatchDiff:      0.05,
		QABufferSeconds:  25,
	}
}

// loadTuning reads path if present, otherwise returns defaults.
func loadTuning(path string) tuning {
	t := defaultTuning()
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Info("no config file, using defaults", "path", path)
		return t
	}
	if err = json.Unmarshal(data, &t); err != nil {
		slog.Warn("bad config file, using defaults", "path", path, "error", err)
		return defaultTuning()
	}
	slog.Info("loaded config", "path", path)
	return t
}

func loadConfig() config {
	return config{
		metricsPort:      env.Str("COPILOT_METRICS_PORT", "9090"),
		asrURL:           env.Str("ASR_URL", "http://localhost:8081"),
		asrEngine:        env.Str("ASR_ENGINE", "http"),
		embedURL:         env.Str("EMBED_URL", "http://localhost:11434"),
		embedEngine:      env.Str("EMBED_ENGINE", "http"),
		openAIAPIKey:     env.Str("OPENAI_API_KEY", ""),
		asrPoolSize:      env.Int("ASR_POOL_SIZE", 10),
		embedPoolSize:    env.Int("EMBED_POOL_SIZE", 10),
		asrHotwordPrompt: env.Str("ASR_HOTWORD_PROMPT", ""),

		sampleRate:    env.Int("SAMPLE_RATE", 16000),
		bufferSeconds: env.Int("BUFFER_SECONDS", 15),

		tuning: loadTuning(env.Str("COPILOT_CONFIG_FILE", "copilot.json")),
	}
}
