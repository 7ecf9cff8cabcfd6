// SPDX-FileCopyrightText: 2025 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"cryptopan/capture"
	"cryptopan/common/daemon"
	"cryptopan/common/reporter"
)

type pcapOptions struct {
	ConfigRelatedOptions
	CheckMode bool
}

// PcapOptions stores the command-line option values for the pcap command.
var PcapOptions pcapOptions

var pcapCmd = &cobra.Command{
	Use:   "pcap CONFIG INPUT OUTPUT",
	Short: "Anonymize a packet capture",
	Long: `Anonymize the IP addresses of a pcap or pcapng capture. The result is
a pcap capture. Use "-" to read from standard input or to write to
standard output.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		config := AnonymizeConfiguration{}
		PcapOptions.Path = args[0]
		if err := PcapOptions.Parse(cmd.ErrOrStderr(), "pcap", &config); err != nil {
			return err
		}

		r, err := reporter.New(config.Reporting)
		if err != nil {
			return fmt.Errorf("unable to initialize reporter: %w", err)
		}
		daemonComponent, anonymizerComponent, err := newAnonymizer(r, config.Anonymizer)
		if err != nil {
			return err
		}
		if PcapOptions.CheckMode {
			return nil
		}
		if err := anonymizerComponent.Start(); err != nil {
			return fmt.Errorf("unable to start anonymizer component: %w", err)
		}
		defer anonymizerComponent.Stop()
		// The daemon stops the rewrite on signal or if the anonymizer dies.
		if err := daemonComponent.Start(); err != nil {
			return fmt.Errorf("unable to start daemon component: %w", err)
		}
		defer daemonComponent.Stop()

		ctx, cancel := daemon.Context(cmd.Context(), daemonComponent)
		defer cancel()
		return rewriteCapture(ctx, capture.New(r, anonymizerComponent),
			args[1], args[2], cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	RootCmd.AddCommand(pcapCmd)
	pcapCmd.Flags().BoolVarP(&PcapOptions.ConfigRelatedOptions.Dump, "dump", "D", false,
		"Dump configuration before starting")
	pcapCmd.Flags().BoolVarP(&PcapOptions.CheckMode, "check", "C", false,
		"Check configuration, but does not start")
}

// rewriteCapture anonymizes the input capture into the output capture. The
// output file is removed on error.
func rewriteCapture(ctx context.Context, rewriter *capture.Rewriter, input, output string, stdin io.Reader, stdout io.Writer) (err error) {
	in := stdin
	if input != "-" {
		f, err := os.Open(input)
		if err != nil {
			return fmt.Errorf("unable to open input capture: %w", err)
		}
		defer f.Close()
		in = f
	}
	out := stdout
	if output != "-" {
		f, createErr := os.Create(output)
		if createErr != nil {
			return fmt.Errorf("unable to create output capture: %w", createErr)
		}
		defer func() {
			if closeErr := f.Close(); err == nil && closeErr != nil {
				err = fmt.Errorf("unable to write output capture: %w", closeErr)
			}
			if err != nil {
				os.Remove(output)
			}
		}()
		out = f
	}
	if _, err := rewriter.Rewrite(ctx, in, out); err != nil {
		return fmt.Errorf("unable to anonymize capture: %w", err)
	}
	return nil
}
