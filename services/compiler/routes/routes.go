// Copyright (C) 2025 Meridian Intelligence (oss@meridianintel.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MeridianIntel/MeridianDesk/services/compiler/catalog"
	"github.com/MeridianIntel/MeridianDesk/services/compiler/handlers"
	"github.com/MeridianIntel/MeridianDesk/services/compiler/middleware"
	"github.com/MeridianIntel/MeridianDesk/services/compiler/store"
)

// Options carries the wired dependencies and per-deployment knobs for the
// HTTP surface.
type Options struct {
	Catalog  *catalog.Catalog
	Store    store.RunStore
	Compiler handlers.Compiler

	// APIKey guards the /v1 group when non-empty.
	APIKey string
	// RateRPS and RateBurst bound the /v1 request rate.
	RateRPS   float64
	RateBurst int
}

// SetupRoutes mounts the service's endpoints on router. Health and metrics
// stay outside the authenticated group so probes and scrapers need no key.
func SetupRoutes(router *gin.Engine, opts Options) {
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	v1.Use(middleware.RequestID())
	v1.Use(middleware.AuthMiddleware(opts.APIKey))
	if opts.RateRPS > 0 {
		v1.Use(middleware.RateLimit(opts.RateRPS, opts.RateBurst))
	}
	{
		v1.GET("/packs", handlers.ListPacks(opts.Catalog))
		v1.POST("/packs/:packId/compile", handlers.HandleCompile(opts.Compiler))
		v1.GET("/packs/:packId/runs/latest", handlers.GetLatestRun(opts.Store))
		v1.GET("/packs/:packId/report.md", handlers.GetReport(opts.Store))
	}
}
