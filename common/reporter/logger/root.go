// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

// Package logger handles logging for cryptopan.
//
// This is a thin wrapper around zerolog. Each event gets a "caller" and a
// "module" field. The module is the first package of our own module found in
// the call stack. This makes it possible to filter logs by component.
package logger

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"cryptopan/common/reporter/stack"
)

// Logger is a logger instance. It is compatible with the interface
// from zerolog by design.
type Logger struct {
	zerolog.Logger
}

// New creates a new logger
func New(config Configuration) (Logger, error) {
	logger := log.Logger.Hook(contextHook{})
	return Logger{logger}, nil
}

type contextHook struct{}

// Run adds "module" and "caller" to an event.
func (h contextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	callStack := stack.Callers()
	callStack = callStack[3:] // Trial and error, there is a test to check it works
	e.Str("caller", callStack[0].SourceFile(true))
	for _, call := range callStack {
		module := call.FunctionName()
		if !strings.HasPrefix(module, stack.ModuleName) {
			continue
		}
		module, _, _ = strings.Cut(module, ".")
		e.Str("module", module)
		break
	}
}
