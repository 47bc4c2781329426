// Copyright (C) 2025 Meridian Intelligence (oss@meridianintel.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MeridianIntel/MeridianDesk/services/compiler/report"
	"github.com/MeridianIntel/MeridianDesk/services/compiler/store"
)

// GetReport renders the latest run for a pack as a Markdown briefing.
func GetReport(st store.RunStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		packID, ok := packIDParam(c)
		if !ok {
			return
		}

		rec, err := st.LoadLatest(c.Request.Context(), packID)
		if err != nil {
			if errors.Is(err, store.ErrRunNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "no run recorded for pack " + packID})
				return
			}
			slog.Error("Run record load failed", "pack_id", packID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load run record"})
			return
		}

		c.Header("Content-Disposition", `inline; filename="`+packID+`-report.md"`)
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(report.RenderMarkdown(rec)))
	}
}
