// Copyright (C) 2025 Meridian Intelligence (oss@meridianintel.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MeridianIntel/MeridianDesk/services/compiler/catalog"
	"github.com/MeridianIntel/MeridianDesk/services/compiler/datatypes"
	"github.com/MeridianIntel/MeridianDesk/services/compiler/pipeline"
)

// Compiler is the slice of the orchestrator the HTTP layer needs.
type Compiler interface {
	Compile(ctx context.Context, packID string) (datatypes.SignalPack, error)
}

// HandleCompile runs a compile cycle for the pack in the path and returns
// the resulting signal pack. A cached fallback result is a 200 with the
// "_cached" marker set; the client decides whether stale is acceptable.
func HandleCompile(comp Compiler) gin.HandlerFunc {
	return func(c *gin.Context) {
		packID, ok := packIDParam(c)
		if !ok {
			return
		}

		pk, err := comp.Compile(c.Request.Context(), packID)
		if err != nil {
			status, body := compileErrorResponse(packID, err)
			c.JSON(status, body)
			return
		}
		c.JSON(http.StatusOK, pk)
	}
}

// compileErrorResponse maps pipeline error kinds onto HTTP statuses. Client
// mistakes are 4xx, upstream inference trouble is 502, deadline expiry 504.
func compileErrorResponse(packID string, err error) (int, gin.H) {
	kind := pipeline.KindOf(err)
	body := gin.H{"error": err.Error(), "kind": string(kind)}

	switch kind {
	case pipeline.KindUnknownPack:
		var unknown *catalog.UnknownPackError
		if errors.As(err, &unknown) {
			body["known_packs"] = unknown.Known
		}
		return http.StatusBadRequest, body
	case pipeline.KindNoArtifacts:
		return http.StatusUnprocessableEntity, body
	case pipeline.KindNoCachedRun:
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout, body
		}
		return http.StatusBadGateway, body
	default:
		slog.Error("Compile failed with unclassified error", "pack_id", packID, "error", err)
		return http.StatusInternalServerError, body
	}
}
