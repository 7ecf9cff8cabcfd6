// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package metrics

// Configuration tells which runtime collectors are registered along the
// metrics of the components.
type Configuration struct {
	// GoCollector exports metrics about the Go runtime.
	GoCollector bool
	// ProcessCollector exports metrics about the process (CPU, memory,
	// file descriptors).
	ProcessCollector bool
}

// DefaultConfiguration is the default metrics configuration.
func DefaultConfiguration() Configuration {
	return Configuration{
		GoCollector:      true,
		ProcessCollector: true,
	}
}
