// Package telemetry exposes prometheus collectors for the chat engine.
// Collaborator failures that are hidden from end users (degraded answers,
// retrieval fallbacks, skipped chunks) all surface here.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TurnsTotal counts chat turns by outcome ("ok" or "degraded").
	TurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tastebud_chat_turns_total",
		Help: "Chat turns processed, by outcome.",
	}, []string{"outcome"})

	// TurnDuration observes end-to-end turn latency.
	TurnDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tastebud_chat_turn_duration_seconds",
		Help:    "End-to-end chat turn latency.",
		Buckets: prometheus.DefBuckets,
	})

	// GenerationFailures counts language-model call failures that produced
	// a degraded answer.
	GenerationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tastebud_generation_failures_total",
		Help: "Language model call failures converted to degraded answers.",
	})

	// RetrievalFallbacks counts queries answered via the lexical fallback
	// or with empty context because embedding or search failed.
	RetrievalFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tastebud_retrieval_fallbacks_total",
		Help: "Retrievals that fell back to lexical search or empty context.",
	})

	// ChunksSkipped counts chunks dropped during ingestion because their
	// embedding call failed.
	ChunksSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tastebud_ingest_chunks_skipped_total",
		Help: "Chunks skipped during knowledge base builds.",
	})

	// RecordFailures counts turns whose answer was delivered but could not
	// be written to the session store.
	RecordFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tastebud_session_record_failures_total",
		Help: "Chat turns answered but not recorded in the session store.",
	})

	// SessionsEvicted counts idle sessions removed by the TTL janitor.
	SessionsEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tastebud_sessions_evicted_total",
		Help: "Sessions evicted after exceeding the idle TTL.",
	})
)
