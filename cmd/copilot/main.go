package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hubenschmidt/presentation-copilot/internal/asr"
	"github.com/hubenschmidt/presentation-copilot/internal/embed"
	"github.com/hubenschmidt/presentation-copilot/internal/logx"
	"github.com/hubenschmidt/presentation-copilot/internal/session"
	"github.com/hubenschmidt/presentation-copilot/internal/slides"
	"github.com/hubenschmidt/presentation-copilot/internal/stabilizer"
)

func main() {
	base := logx.NewHandler(os.Stderr, "copilot", slog.LevelInfo)
	slog.SetDefault(slog.New(base))

	cfg := loadConfig()

	transcriber, err := initASR(cfg)
	if err != nil {
		slog.Error("asr backend", "error", err)
		os.Exit(1)
	}
	embedder, err := initEmbed(cfg)
	if err != nil {
		slog.Error("embed backend", "error", err)
		os.Exit(1)
	}

	stab := stabilizer.New(transcriber, cfg.sampleRate, cfg.bufferSeconds)
	if cfg.asrHotwordPrompt != "" {
		stab.SetHotwords(strings.Fields(cfg.asrHotwordPrompt))
	}

	ctrl := session.New(stab, embedder, session.Config{
		SampleRate:      cfg.sampleRate,
		BufferSeconds:   cfg.bufferSeconds,
		QABufferSeconds: cfg.QABufferSeconds,

		WindowWords: cfg.WindowWords,

		RecentWordsCount:      cfg.RecentWordsCount,
		RecentWordsMultiplier: cfg.RecentWordsMultiplier,

		TriggerCooldownMs:      cfg.TriggerCooldownMs,
		TriggerTailWords:       cfg.TriggerTailWords,
		TriggerMinWordsBetween: cfg.TriggerMinWordsBetween,

		PartialFinalizeMs:      cfg.PartialFinalizeMs,
		PartialMatchEnabled:    cfg.PartialMatchEnabled,
		PartialMatchStableMs:   cfg.PartialMatchStableMs,
		PartialMatchCooldownMs: cfg.PartialMatchCooldownMs,

		Matcher: slides.Config{
			MatchThreshold:     cfg.MatchThreshold,
			MatchDiff:          cfg.MatchDiff,
			MatchCooldownWords: cfg.MatchCooldownWords,
			StayBias:           cfg.StayBias,
			ForwardBiasMargin:  cfg.ForwardBiasMargin,
			BackBiasMargin:     cfg.BackBiasMargin,

			AllowNonAdjacent:     cfg.AllowNonAdjacent,
			NonAdjacentThreshold: cfg.NonAdjacentThreshold,
			NonAdjacentBoost:     cfg.NonAdjacentBoost,

			KeywordBoost:     cfg.KeywordBoost,
			KeywordMinTokens: cfg.KeywordMinTokens,
			TitleBoost:       cfg.TitleBoost,
			TitleMinTokens:   cfg.TitleMinTokens,

			SentenceMatchEnabled: true,

			QAMode:           cfg.QAMode,
			QAMatchThreshold: cfg.QAMatchThreshold,
			QAMatchDiff:      cfg.QAMatchDiff,
		},
	}, os.Stdout)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{Addr: ":" + cfg.metricsPort, Handler: mux}

	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server failed", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("copilot starting", "metrics_addr", metricsSrv.Addr, "sample_rate", cfg.sampleRate)

	ctrl.Run(ctx, os.Stdin)

	slog.Info("copilot stopped")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
}

// initASR wires the ASR backend router: the HTTP whisper.cpp-server-alike
// client is always registered as the fallback; an OpenAI transcription
// backend is added when an API key is configured.
func initASR(cfg config) (asr.Transcriber, error) {
	backends := map[string]asr.Transcriber{
		"http": asr.NewClient(cfg.asrURL, cfg.asrPoolSize),
	}
	if cfg.openAIAPIKey != "" {
		backends["openai"] = asr.NewOpenAIClient(cfg.openAIAPIKey, "whisper-1")
	}
	return asr.NewRouter(backends, "http").Route(cfg.asrEngine)
}

// initEmbed wires the embedding backend router: Ollama-style HTTP is the
// fallback; an OpenAI embeddings backend is added when an API key is
// configured.
func initEmbed(cfg config) (embed.Embedder, error) {
	backends := map[string]embed.Embedder{
		"http": embed.NewClient(cfg.embedURL, "nomic-embed-text", cfg.embedPoolSize),
	}
	if cfg.openAIAPIKey != "" {
		backends["openai"] = embed.NewOpenAIClient(cfg.openAIAPIKey, "text-embedding-3-small")
	}
	return embed.NewRouter(backends, "http").Route(cfg.embedEngine)
}
