// SPDX-FileCopyrightText: 2025 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"cryptopan/anonymizer"
	"cryptopan/common/daemon"
	"cryptopan/common/reporter"
)

// AnonymizeConfiguration represents the configuration file for the anonymize
// and pcap commands.
type AnonymizeConfiguration struct {
	Reporting  reporter.Configuration
	Anonymizer anonymizer.Configuration
}

// Reset resets the configuration for the anonymize command to its default
// value.
func (c *AnonymizeConfiguration) Reset() {
	*c = AnonymizeConfiguration{
		Reporting:  reporter.DefaultConfiguration(),
		Anonymizer: anonymizer.DefaultConfiguration(),
	}
}

type anonymizeOptions struct {
	ConfigRelatedOptions
	CheckMode bool
	WithInput bool
	Strict    bool
}

// AnonymizeOptions stores the command-line option values for the anonymize
// command.
var AnonymizeOptions anonymizeOptions

var anonymizeCmd = &cobra.Command{
	Use:   "anonymize CONFIG [ADDRESS...]",
	Short: "Anonymize IP addresses",
	Long: `Anonymize the IP addresses or prefixes provided as arguments. When
none is provided, they are read from standard input, one per line. Empty
lines and lines starting with "#" are ignored.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config := AnonymizeConfiguration{}
		AnonymizeOptions.Path = args[0]
		if err := AnonymizeOptions.Parse(cmd.ErrOrStderr(), "anonymize", &config); err != nil {
			return err
		}

		r, err := reporter.New(config.Reporting)
		if err != nil {
			return fmt.Errorf("unable to initialize reporter: %w", err)
		}
		_, anonymizerComponent, err := newAnonymizer(r, config.Anonymizer)
		if err != nil {
			return err
		}
		if AnonymizeOptions.CheckMode {
			return nil
		}
		if err := anonymizerComponent.Start(); err != nil {
			return fmt.Errorf("unable to start anonymizer component: %w", err)
		}
		defer anonymizerComponent.Stop()
		return anonymizeInputs(anonymizerComponent, args[1:],
			cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(),
			AnonymizeOptions)
	},
}

func init() {
	RootCmd.AddCommand(anonymizeCmd)
	anonymizeCmd.Flags().BoolVarP(&AnonymizeOptions.ConfigRelatedOptions.Dump, "dump", "D", false,
		"Dump configuration before starting")
	anonymizeCmd.Flags().BoolVarP(&AnonymizeOptions.CheckMode, "check", "C", false,
		"Check configuration, but does not start")
	anonymizeCmd.Flags().BoolVarP(&AnonymizeOptions.WithInput, "with-input", "i", false,
		"Prefix each result with its input")
	anonymizeCmd.Flags().BoolVarP(&AnonymizeOptions.Strict, "strict", "s", false,
		"Stop on the first invalid input")
}

// newAnonymizer creates the daemon and anonymizer components for a command
// running once.
func newAnonymizer(r *reporter.Reporter, config anonymizer.Configuration) (daemon.Component, *anonymizer.Component, error) {
	daemonComponent, err := daemon.New(r)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to initialize daemon component: %w", err)
	}
	anonymizerComponent, err := anonymizer.New(r, config, anonymizer.Dependencies{
		Daemon: daemonComponent,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("unable to initialize anonymizer component: %w", err)
	}
	return daemonComponent, anonymizerComponent, nil
}

type stringAnonymizer interface {
	AnonymizeString(string) (string, error)
}

// anonymizeInputs anonymizes the provided inputs, or each line of in when
// there are none.
func anonymizeInputs(a stringAnonymizer, inputs []string, in io.Reader, out, errOut io.Writer, options anonymizeOptions) error {
	w := bufio.NewWriter(out)
	defer w.Flush()
	process := func(input string) error {
		output, err := a.AnonymizeString(input)
		if err != nil {
			if options.Strict {
				return fmt.Errorf("cannot anonymize %q: %w", input, err)
			}
			fmt.Fprintf(errOut, "%s: %s\n", input, err)
			return nil
		}
		if options.WithInput {
			fmt.Fprintf(w, "%s\t%s\n", input, output)
		} else {
			fmt.Fprintln(w, output)
		}
		return nil
	}

	if len(inputs) > 0 {
		for _, input := range inputs {
			if err := process(input); err != nil {
				return err
			}
		}
		return nil
	}
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input == "" || strings.HasPrefix(input, "#") {
			continue
		}
		if err := process(input); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("cannot read input: %w", err)
	}
	return nil
}
