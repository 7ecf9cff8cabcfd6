// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"cryptopan/anonymizer"
	"cryptopan/common/daemon"
	"cryptopan/common/httpserver"
	"cryptopan/common/reporter"
)

// ServeConfiguration represents the configuration file for the serve command.
type ServeConfiguration struct {
	Reporting  reporter.Configuration
	HTTP       httpserver.Configuration
	Anonymizer anonymizer.Configuration
}

// Reset resets the configuration for the serve command to its default value.
func (c *ServeConfiguration) Reset() {
	*c = ServeConfiguration{
		Reporting:  reporter.DefaultConfiguration(),
		HTTP:       httpserver.DefaultConfiguration(),
		Anonymizer: anonymizer.DefaultConfiguration(),
	}
}

type serveOptions struct {
	ConfigRelatedOptions
	CheckMode bool
}

// ServeOptions stores the command-line option values for the serve command.
var ServeOptions serveOptions

var serveCmd = &cobra.Command{
	Use:   "serve CONFIG",
	Short: "Start the anonymization service",
	Long: `Expose the anonymizer through an HTTP API. Addresses can be
anonymized with GET /api/v0/anonymizer/anonymize?address=... or by
posting a JSON list to the same endpoint.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config := ServeConfiguration{}
		ServeOptions.Path = args[0]
		if err := ServeOptions.Parse(cmd.OutOrStdout(), "serve", &config); err != nil {
			return err
		}

		r, err := reporter.New(config.Reporting)
		if err != nil {
			return fmt.Errorf("unable to initialize reporter: %w", err)
		}
		return serveStart(r, config, ServeOptions.CheckMode)
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVarP(&ServeOptions.ConfigRelatedOptions.Dump, "dump", "D", false,
		"Dump configuration before starting")
	serveCmd.Flags().BoolVarP(&ServeOptions.CheckMode, "check", "C", false,
		"Check configuration, but does not start")
}

func serveStart(r *reporter.Reporter, config ServeConfiguration, checkOnly bool) error {
	// Initialize the various components
	daemonComponent, err := daemon.New(r)
	if err != nil {
		return fmt.Errorf("unable to initialize daemon component: %w", err)
	}
	httpComponent, err := httpserver.New(r, config.HTTP, httpserver.Dependencies{
		Daemon: daemonComponent,
	})
	if err != nil {
		return fmt.Errorf("unable to initialize http component: %w", err)
	}
	anonymizerComponent, err := anonymizer.New(r, config.Anonymizer, anonymizer.Dependencies{
		Daemon: daemonComponent,
		HTTP:   httpComponent,
	})
	if err != nil {
		return fmt.Errorf("unable to initialize anonymizer component: %w", err)
	}

	// If we only asked for a check, stop here.
	if checkOnly {
		return nil
	}

	// Expose some information and metrics
	addCommonHTTPHandlers(r, "anonymizer", httpComponent)
	versionMetrics(r)

	// Start all the components.
	components := []any{
		httpComponent,
		anonymizerComponent,
	}
	return StartStopComponents(r, daemonComponent, components)
}
