// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

// Package stack inspects the call stack. It is used to attach a caller and a
// module to logs and to prefix metrics.
package stack

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
)

// Call is a program counter from a goroutine stack.
type Call uintptr

// Trace is a list of calls, innermost first.
type Trace []Call

var pcStackPool = sync.Pool{
	New: func() any {
		pcs := make([]uintptr, 512)
		return &pcs
	},
}

// Callers returns the calls from the current stack, starting with the caller
// of Callers.
func Callers() Trace {
	ptr := pcStackPool.Get().(*[]uintptr)
	defer pcStackPool.Put(ptr)
	pcs := *ptr
	n := runtime.Callers(2, pcs)
	cs := make(Trace, n)
	for i, pc := range pcs[:n] {
		cs[i] = Call(pc)
	}
	return cs
}

func (pc Call) function() (*runtime.Func, uintptr) {
	// The program counter is the return address, one past the call.
	pcFix := uintptr(pc) - 1
	return runtime.FuncForPC(pcFix), pcFix
}

// FunctionName returns the fully qualified name of the function of the call,
// like "cryptopan/anonymizer.(*Component).AnonymizeAddr".
func (pc Call) FunctionName() string {
	fn, _ := pc.function()
	if fn == nil {
		return "(nofunc)"
	}
	return fn.Name()
}

// SourceFile returns the source file of the call, relative to its module
// (and including the module name), optionally followed by the line number.
func (pc Call) SourceFile(withLine bool) string {
	fn, pcFix := pc.function()
	if fn == nil {
		return "(nosource)"
	}
	file, line := fn.FileLine(pcFix)
	name := fn.Name()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	slash := strings.LastIndex(name, "/") + 1
	pkg, _, ok := strings.Cut(name[slash:], ".")
	if !ok {
		return "(nosource)"
	}
	pkg = name[:slash] + pkg
	// Keep as many path elements from the file as there are in the
	// package path after the module, plus the file itself.
	module, _, _ := strings.Cut(pkg, "/")
	depth := strings.Count(pkg, "/") + 1
	elements := strings.Split(file, "/")
	if len(elements) > depth {
		elements = elements[len(elements)-depth:]
	}
	file = module + "/" + strings.Join(elements, "/")
	if withLine {
		return fmt.Sprintf("%s:%d", file, line)
	}
	return file
}

var (
	ownPackage = func() string {
		name := Callers()[0].FunctionName()
		pkg, _, _ := strings.Cut(name, ".")
		return pkg
	}() // cryptopan/common/reporter/stack

	// ModuleName is the name of the current module. This can be used to prefix stuff.
	ModuleName = strings.TrimSuffix(ownPackage, "/common/reporter/stack") // cryptopan
)
