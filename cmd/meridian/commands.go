// Copyright (C) 2025 Meridian Intelligence (oss@meridianintel.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var (
		serverURL string
		apiKey    string
		timeout   time.Duration
	)

	root := &cobra.Command{
		Use:   "meridian",
		Short: "Client for the Meridian document compile service",
		Long: `meridian talks to a running compile service: list document packs,
trigger compile cycles, and fetch the resulting signal packs and reports.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&serverURL, "server", defaultServerURL(),
		"base URL of the compile service")
	root.PersistentFlags().StringVar(&apiKey, "api-key", os.Getenv("MERIDIAN_API_KEY"),
		"bearer key for the /v1 API (defaults to MERIDIAN_API_KEY)")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute,
		"overall request timeout; compiles can take minutes")

	client := func() *apiClient { return newAPIClient(serverURL, apiKey, timeout) }

	root.AddCommand(
		newHealthCmd(client),
		newPacksCmd(client),
		newCompileCmd(client),
		newExportCmd(client),
		newReportCmd(client),
	)
	return root
}

func defaultServerURL() string {
	if v := os.Getenv("MERIDIAN_SERVER_URL"); v != "" {
		return v
	}
	return "http://localhost:12340"
}

func newHealthCmd(client func() *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the compile service is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client().health(cmd.Context()); err != nil {
				return err
			}
			cmd.Println("ok")
			return nil
		},
	}
}

func newPacksCmd(client func() *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "packs",
		Short: "List the document packs the service knows about",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := client().listPacks(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Println(indentJSON(body))
			return nil
		},
	}
}

func newCompileCmd(client func() *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "compile <pack-id>",
		Short: "Run a compile cycle for a pack and print the signal pack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := client().compile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cmd.Println(indentJSON(body))
			return nil
		},
	}
}

func newExportCmd(client func() *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "export <pack-id>",
		Short: "Print the latest persisted run record for a pack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := client().latestRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cmd.Println(indentJSON(body))
			return nil
		},
	}
}

func newReportCmd(client func() *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "report <pack-id>",
		Short: "Print the latest Markdown briefing for a pack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := client().report(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cmd.Println(string(body))
			return nil
		},
	}
}
