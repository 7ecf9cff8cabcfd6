// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package cmd

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

type healthcheckOptions struct {
	HTTP    string
	Timeout time.Duration
}

// HealthcheckOptions stores the command-line option values for the healthcheck
// command.
var HealthcheckOptions healthcheckOptions

func init() {
	RootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().StringVarP(&HealthcheckOptions.HTTP, "http", "", "localhost:8080",
		"HTTP host:port for health check")
	healthcheckCmd.Flags().DurationVarP(&HealthcheckOptions.Timeout, "timeout", "t", 5*time.Second,
		"Timeout for health check")
}

var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check healthness",
	Long:  `Check if cryptopan is alive using the builtin HTTP endpoint.`,
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, _ []string) error {
		client := http.Client{Timeout: HealthcheckOptions.Timeout}
		resp, err := client.Get(fmt.Sprintf("http://%s/api/v0/healthcheck", HealthcheckOptions.HTTP))
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			return fmt.Errorf("unhealthy (status %d): %s", resp.StatusCode, body)
		}
		cmd.Println("ok")
		return nil
	},
}
