// Copyright (C) 2025 Meridian Intelligence (oss@meridianintel.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package pipeline orchestrates one compile cycle end to end: load the
// pack's documents, run inference, verify evidence, assemble the run record,
// and persist it. One run, one pack, one trip through the state machine.
//
// Failure policy in one line: inference failures fall back to the cached
// run, persistence failures are logged and swallowed, everything before
// inference is fatal.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/MeridianIntel/MeridianDesk/services/compiler/catalog"
	"github.com/MeridianIntel/MeridianDesk/services/compiler/datatypes"
	"github.com/MeridianIntel/MeridianDesk/services/compiler/evidence"
	"github.com/MeridianIntel/MeridianDesk/services/compiler/run"
	"github.com/MeridianIntel/MeridianDesk/services/compiler/store"
	"github.com/MeridianIntel/MeridianDesk/services/compiler/telemetry"
	"github.com/MeridianIntel/MeridianDesk/services/compiler/verify"
	"github.com/MeridianIntel/MeridianDesk/services/llm"
)

var tracer = otel.Tracer("meridian.pipeline")

// defaultInferTimeout bounds the inference call. Large PDF bundles on a cold
// model routinely take over a minute.
const defaultInferTimeout = 2 * time.Minute

type state string

const (
	stateLoadingInputs  state = "LOADING_INPUTS"
	stateInferring      state = "INFERRING"
	stateVerifying      state = "VERIFYING"
	stateAssembling     state = "ASSEMBLING"
	statePersisting     state = "PERSISTING"
	stateFallbackLookup state = "FALLBACK_LOOKUP"
	stateDone           state = "DONE"
)

// Orchestrator runs compile cycles. Construct with New; the zero value is not
// usable. Safe for concurrent Compile calls; concurrent compiles of the same
// pack resolve to last-writer-wins in the store.
type Orchestrator struct {
	catalog *catalog.Catalog
	store   store.RunStore
	client  llm.LLMClient
	prompt  string

	inferTimeout time.Duration
	metrics      *telemetry.Metrics
	now          func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithInferTimeout overrides the inference deadline.
func WithInferTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.inferTimeout = d }
}

// WithMetrics attaches the telemetry instrument set.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithClock overrides the time source. Test hook.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New builds an Orchestrator over the given catalog, run store, inference
// client, and prompt text.
func New(cat *catalog.Catalog, st store.RunStore, client llm.LLMClient, prompt string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		catalog:      cat,
		store:        st,
		client:       client,
		prompt:       prompt,
		inferTimeout: defaultInferTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Compile runs one full cycle for packID and returns the resulting signal
// pack. When inference fails but a cached run exists, the cached pack is
// returned with Cached set and a nil error; the caller cannot tell a live
// run from a cached one except by that marker, which is the point.
func (o *Orchestrator) Compile(ctx context.Context, packID string) (datatypes.SignalPack, error) {
	started := o.now()
	ctx, span := tracer.Start(ctx, "pipeline.Compile",
		trace.WithAttributes(attribute.String("pack.id", packID)))
	defer span.End()

	pack, err := o.catalog.Resolve(packID)
	if err != nil {
		return o.fail(ctx, span, started, Errf(KindUnknownPack, err, "pack %q not in catalog", packID))
	}

	o.logState(packID, stateLoadingInputs)
	inputs, docs, err := o.loadInputs(pack)
	if err != nil {
		return o.fail(ctx, span, started, err)
	}
	span.SetAttributes(attribute.Int("pack.documents", len(docs)))

	o.logState(packID, stateInferring)
	cand, inferErr := o.infer(ctx, docs)
	if inferErr != nil {
		o.logState(packID, stateFallbackLookup)
		pk, fbErr := o.fallback(ctx, packID, inferErr)
		if fbErr != nil {
			return o.fail(ctx, span, started, fbErr)
		}
		o.metrics.RecordCompile(ctx, "cached", o.now().Sub(started).Seconds())
		return pk, nil
	}

	o.logState(packID, stateVerifying)
	res := verify.Verify(cand.Signals, cand.Drops)
	entries := evidence.Index(res.Accepted, cand.Conflicts)

	o.logState(packID, stateAssembling)
	rec, err := run.Assemble(run.Params{
		PackID:     packID,
		Inputs:     inputs,
		Signals:    res.Accepted,
		Conflicts:  cand.Conflicts,
		Drops:      res.Drops,
		NextChecks: cand.NextChecks,
		Evidence:   entries,
		Model:      o.client.Model(),
		PromptText: o.prompt,
		Now:        o.now(),
	})
	if err != nil {
		return o.fail(ctx, span, started, fmt.Errorf("assemble run for pack %s: %w", packID, err))
	}

	o.logState(packID, statePersisting)
	if err := o.store.Save(ctx, packID, rec); err != nil {
		// The signal pack in hand is still valid; losing the cache copy
		// must not fail the request.
		slog.Error("Run persistence failed, serving result anyway",
			"pack_id", packID, "run_id", rec.RunMeta.RunID, "error", err)
		o.metrics.RecordPersistFailure(ctx)
	}

	o.logState(packID, stateDone)
	slog.Info("Compile cycle complete",
		"pack_id", packID,
		"run_id", rec.RunMeta.RunID,
		"signals", len(rec.Signals),
		"drops", len(rec.Drops),
		"conflicts", len(rec.Conflicts))
	o.metrics.RecordCompile(ctx, "ok", o.now().Sub(started).Seconds())
	return datatypes.PackFromRun(rec), nil
}

func (o *Orchestrator) fail(ctx context.Context, span trace.Span, started time.Time, err error) (datatypes.SignalPack, error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	o.metrics.RecordCompile(ctx, "failed", o.now().Sub(started).Seconds())
	return datatypes.SignalPack{}, err
}

// loadInputs reads every declared document of the pack. An unreadable
// document is skipped with a warning; zero readable documents is fatal.
func (o *Orchestrator) loadInputs(pack catalog.Pack) ([]datatypes.DocumentInput, []llm.Document, error) {
	var inputs []datatypes.DocumentInput
	var docs []llm.Document

	for _, f := range pack.Files {
		path, err := o.catalog.ResolvePath(f)
		if err != nil {
			slog.Warn("Skipping unresolvable document", "pack_id", pack.ID, "doc_id", f.DocID, "error", err)
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("Skipping unreadable document", "pack_id", pack.ID, "doc_id", f.DocID, "error", err)
			continue
		}

		mt := mediaTypeFor(f.Path)
		inputs = append(inputs, datatypes.DocumentInput{
			DocID:    f.DocID,
			Filename: filepath.Base(f.Path),
			SHA256:   run.HashBytes(data),
			Type:     mt,
		})
		docs = append(docs, llm.Document{DocID: f.DocID, Bytes: data, MediaType: mt})
	}

	if len(docs) == 0 {
		return nil, nil, Errf(KindNoArtifacts, nil,
			"none of the %d declared documents for pack %s could be read", len(pack.Files), pack.ID)
	}
	return inputs, docs, nil
}

// infer runs the deadline-bounded model call and parses the response. Every
// error out of here is a pipeline *Error with an inference kind.
func (o *Orchestrator) infer(ctx context.Context, docs []llm.Document) (*datatypes.CandidateResponse, error) {
	inferCtx, cancel := context.WithTimeout(ctx, o.inferTimeout)
	defer cancel()

	started := o.now()
	raw, err := o.client.Generate(inferCtx, o.prompt, docs, llm.GenerationParams{})
	elapsed := o.now().Sub(started).Seconds()

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || inferCtx.Err() == context.DeadlineExceeded {
			o.metrics.RecordInference(ctx, "timeout", elapsed)
			return nil, Errf(KindInferenceTimeout, err, "inference exceeded %s deadline", o.inferTimeout)
		}
		o.metrics.RecordInference(ctx, "error", elapsed)
		return nil, Errf(KindInferenceTransport, err, "inference call failed")
	}

	cand, err := datatypes.ParseCandidates(raw)
	if err != nil {
		o.metrics.RecordInference(ctx, "malformed", elapsed)
		return nil, Errf(KindInferenceMalformed, err, "inference response unusable")
	}
	o.metrics.RecordInference(ctx, "ok", elapsed)
	return cand, nil
}

// fallback serves the latest cached run after an inference failure. The
// cached pack is marked so the client knows it is looking at stale data; a
// cache miss surfaces the original inference error, not the miss.
func (o *Orchestrator) fallback(ctx context.Context, packID string, inferErr error) (datatypes.SignalPack, error) {
	rec, err := o.store.LoadLatest(ctx, packID)
	if err != nil {
		if !errors.Is(err, store.ErrRunNotFound) {
			slog.Error("Fallback lookup failed", "pack_id", packID, "error", err)
		}
		o.metrics.RecordFallback(ctx, "miss")
		return datatypes.SignalPack{}, Errf(KindNoCachedRun, inferErr,
			"inference failed and no cached run exists for pack %s", packID)
	}

	slog.Warn("Serving cached run after inference failure",
		"pack_id", packID,
		"run_id", rec.RunMeta.RunID,
		"cached_at", rec.RunMeta.CreatedAt,
		"inference_error", inferErr)
	o.metrics.RecordFallback(ctx, "hit")

	pk := datatypes.PackFromRun(rec)
	pk.Cached = true
	return pk, nil
}

func (o *Orchestrator) logState(packID string, s state) {
	slog.Debug("Pipeline state", "pack_id", packID, "state", string(s))
}
