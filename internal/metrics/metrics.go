package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "copilot_sessions_active",
		Help: "Currently active controller sessions",
	})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "copilot_stage_duration_seconds",
		Help:    "Per-stage latency (asr, embed)",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.2, 0.3, 0.5, 0.8, 1.0},
	}, []string{"stage"})

	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "copilot_errors_total",
		Help: "Error counts by stage and error type",
	}, []string{"stage", "error_type"})

	AudioChunks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "copilot_audio_chunks_processed_total",
		Help: "Total audio messages received",
	})

	WordsConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "copilot_words_confirmed_total",
		Help: "Words confirmed by the LocalAgreement stabilizer",
	})

	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "copilot_slide_transitions_total",
		Help: "Slide transitions by intent",
	}, []string{"intent"})

	CooldownBlocked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "copilot_cooldown_blocked_total",
		Help: "Match evaluations suppressed by the cooldown gate",
	})

	TriggersFired = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "copilot_triggers_fired_total",
		Help: "Voice commands recognized by action",
	}, []string{"action"})

	EmbeddingCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "copilot_embedding_cache_hits_total",
		Help: "Speech-embedding LRU cache hits",
	})

	EmbeddingCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "copilot_embedding_cache_misses_total",
		Help: "Speech-embedding LRU cache misses",
	})
)
