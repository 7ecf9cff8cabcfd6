// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package cmd

import (
	"net/http"
	"runtime"
	runtimedebug "runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"cryptopan/common/reporter"
	"cryptopan/scrambler"
)

// Version is the version of cryptopan. It is set at build time with
// -ldflags "-X cryptopan/cmd.Version=...".
var Version = "dev"

func init() {
	RootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Long:  `Display version and build information about cryptopan.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cmd.Printf("cryptopan %s\n", Version)
		cmd.Printf("  Built with: %s\n", runtime.Version())
		if info, ok := runtimedebug.ReadBuildInfo(); ok {
			for _, setting := range info.Settings {
				if strings.HasPrefix(setting.Key, "GO") {
					cmd.Printf("  Build setting %s=%s\n", setting.Key, setting.Value)
				}
			}
		}
		cmd.Println()

		cmd.Println("Available ciphers:")
		for _, name := range scrambler.Backends() {
			cmd.Printf("- %s\n", name)
		}
		return nil
	},
}

func versionHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":  Version,
		"compiler": runtime.Version(),
	})
}

func versionMetrics(r *reporter.Reporter) {
	r.GaugeVec(reporter.GaugeOpts{
		Name: "info",
		Help: "Cryptopan build information.",
	}, []string{"version", "compiler"}).
		WithLabelValues(Version, runtime.Version()).Set(1)
}
