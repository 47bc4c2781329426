// Copyright (C) 2025 Meridian Intelligence (oss@meridianintel.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MeridianIntel/MeridianDesk/pkg/validation"
)

// packIDParam extracts and sanitizes the pack id from the request path. The
// id ends up as a store key and a file name, so anything outside the
// identifier grammar is rejected here with a 400 before it reaches storage.
// Returns false after writing the error response.
func packIDParam(c *gin.Context) (string, bool) {
	packID, err := validation.SanitizePackID(c.Param("packId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return packID, true
}
