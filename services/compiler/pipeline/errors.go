// Copyright (C) 2025 Meridian Intelligence (oss@meridianintel.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pipeline

import (
	"errors"
	"fmt"
)

// ErrorKind classifies compile failures so callers can map them to HTTP
// status codes and operators can grep logs by kind.
type ErrorKind string

const (
	// KindUnknownPack means the requested pack id is not in the catalog.
	KindUnknownPack ErrorKind = "unknown_pack"

	// KindNoArtifacts means none of the pack's declared input files could
	// be read. Compiling an empty bundle would produce a signal pack that
	// looks authoritative while grounded in nothing, so this is fatal.
	KindNoArtifacts ErrorKind = "no_artifacts"

	// KindInferenceTimeout means the model call exceeded its deadline.
	KindInferenceTimeout ErrorKind = "inference_timeout"

	// KindInferenceTransport means the model call failed at the transport
	// layer (connection refused, 5xx, closed stream).
	KindInferenceTransport ErrorKind = "inference_transport"

	// KindInferenceMalformed means the model responded but the payload was
	// not a decodable signal pack candidate.
	KindInferenceMalformed ErrorKind = "inference_malformed"

	// KindNoCachedRun means inference failed and no prior run exists to
	// fall back to. The wrapped cause is the original inference error.
	KindNoCachedRun ErrorKind = "no_cached_run"

	// KindPersistence marks a run-store write failure. Never fatal on the
	// compile path, but surfaced in logs and metrics.
	KindPersistence ErrorKind = "persistence_failed"
)

// Error is the compile pipeline's failure type. It carries the kind, a
// human-readable detail, and the underlying cause for errors.Is / errors.As
// chains.
type Error struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// Errf builds an *Error with a formatted detail message.
func Errf(kind ErrorKind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf extracts the ErrorKind from err, or "" when err is not a pipeline
// error.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
