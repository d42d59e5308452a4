/*
 * GraphEngine
 *
 * Copyright 2024 The GraphEngine Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

/*
Package script wraps github.com/krotik/ecal as the embedded script
interpreter used by the custom-function algorithm: a fresh
CLIInterpreter per run, a scratch entry file holding the
caller-supplied body, and a registered stdlib package exposing a
read-only view of the graph. ECAL is rule/event oriented rather than
expression-return oriented, so results are exposed via an
explicitly-called stdlib function rather than a program return value:
the script calls graph.result(ref, value) once per vertex it wants to
report, and Run collects those calls.
*/
package script

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"github.com/krotik/ecal/cli/tool"
	ecalconfig "github.com/krotik/ecal/config"
	"github.com/krotik/ecal/parser"
	"github.com/krotik/ecal/stdlib"

	"github.com/arangoanalytics/graphengine/internal/engineerr"
)

// GraphAccessor is the read-only view of a sealed graph handed to
// scripts. No method allows mutation.
type GraphAccessor interface {
	NumVertices() int
	Successors(idx int32) []int32
	Predecessors(idx int32) []int32
	Column(name string, idx int32) interface{}
	Key(idx int32) string
	IndexByKey(key string) (int32, bool)
}

// Run interprets body against accessor and returns the vertex_index ->
// numeric mapping the script reported via graph.result(...). workDir
// is a scratch directory the caller owns and may remove afterwards.
func Run(workDir string, body string, accessor GraphAccessor) (map[int32]float64, error) {
	if err := os.MkdirAll(workDir, 0700); err != nil {
		return nil, engineerr.New(engineerr.InterpreterError, "cannot create script workdir: %v", err)
	}

	entry := filepath.Join(workDir, "entry.ecal")
	if err := ioutil.WriteFile(entry, []byte(body), 0600); err != nil {
		return nil, engineerr.New(engineerr.InterpreterError, "cannot write script entry file: %v", err)
	}

	collector := &resultCollector{accessor: accessor, values: make(map[int32]float64)}

	stdlib.AddStdlibPkg("graph", "Read-only graph accessor functions for custom algorithms")
	stdlib.AddStdlibFunc("graph", "numVertices", &numVerticesFunc{accessor})
	stdlib.AddStdlibFunc("graph", "successors", &successorsFunc{accessor})
	stdlib.AddStdlibFunc("graph", "predecessors", &predecessorsFunc{accessor})
	stdlib.AddStdlibFunc("graph", "column", &columnFunc{accessor})
	stdlib.AddStdlibFunc("graph", "key", &keyFunc{accessor})
	stdlib.AddStdlibFunc("graph", "result", collector)

	dir := workDir
	logFile := filepath.Join(workDir, "interpreter.log")
	logLevel := "Error"

	i := tool.NewCLIInterpreter()
	i.Dir = &dir
	i.LogFile = &logFile
	i.LogLevel = &logLevel
	i.EntryFile = entry
	i.LoadPlugins = false

	ecalconfig.Config[ecalconfig.WorkerCount] = "1"

	i.CreateRuntimeProvider("graphengine-custom-function")

	var runErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				runErr = engineerr.New(engineerr.InterpreterError, "script panicked: %v", r)
			}
		}()
		runErr = i.Interpret(false)
	}()

	if runErr != nil {
		return nil, engineerr.New(engineerr.InterpreterError, "%v", runErr)
	}

	return collector.values, nil
}

/*
resultCollector backs the graph.result(ref, value) stdlib function. ref
may be a vertex index (int/float) or a key (string); value must be
numeric. Calls are serialized by mu since ECAL may run rule actions
concurrently across worker goroutines.
*/
type resultCollector struct {
	accessor GraphAccessor
	mu       sync.Mutex
	values   map[int32]float64
}

func (c *resultCollector) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("graph.result requires 2 parameters: vertex reference and value")
	}

	idx, err := resolveVertexArg(c.accessor, args[0])
	if err != nil {
		return nil, err
	}

	val, ok := toFloat(args[1])
	if !ok {
		return nil, fmt.Errorf("graph.result value must be numeric, got %T", args[1])
	}

	c.mu.Lock()
	c.values[idx] = val
	c.mu.Unlock()

	return nil, nil
}

func (c *resultCollector) DocString() (string, error) {
	return "Reports the numeric result for a vertex.", nil
}

type numVerticesFunc struct{ a GraphAccessor }

func (f *numVerticesFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	return float64(f.a.NumVertices()), nil
}
func (f *numVerticesFunc) DocString() (string, error) { return "Returns the vertex count.", nil }

type successorsFunc struct{ a GraphAccessor }

func (f *successorsFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	idx, err := resolveVertexArg(f.a, arg0(args))
	if err != nil {
		return nil, err
	}
	return toInterfaceSlice(f.a.Successors(idx)), nil
}
func (f *successorsFunc) DocString() (string, error) { return "Returns a vertex's successors.", nil }

type predecessorsFunc struct{ a GraphAccessor }

func (f *predecessorsFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	idx, err := resolveVertexArg(f.a, arg0(args))
	if err != nil {
		return nil, err
	}
	return toInterfaceSlice(f.a.Predecessors(idx)), nil
}
func (f *predecessorsFunc) DocString() (string, error) { return "Returns a vertex's predecessors.", nil }

type columnFunc struct{ a GraphAccessor }

func (f *columnFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("graph.column requires 2 parameters: column name and vertex reference")
	}
	name, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("graph.column name must be a string")
	}
	idx, err := resolveVertexArg(f.a, args[1])
	if err != nil {
		return nil, err
	}
	return f.a.Column(name, idx), nil
}
func (f *columnFunc) DocString() (string, error) { return "Returns a column value for a vertex.", nil }

type keyFunc struct{ a GraphAccessor }

func (f *keyFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	idx, err := resolveVertexArg(f.a, arg0(args))
	if err != nil {
		return nil, err
	}
	return f.a.Key(idx), nil
}
func (f *keyFunc) DocString() (string, error) { return "Returns the stored key for a vertex.", nil }

func arg0(args []interface{}) interface{} {
	if len(args) == 0 {
		return nil
	}
	return args[0]
}

func resolveVertexArg(a GraphAccessor, v interface{}) (int32, error) {
	if idx, ok := toFloat(v); ok {
		return int32(idx), nil
	}
	if key, ok := v.(string); ok {
		if idx, ok := a.IndexByKey(key); ok {
			return idx, nil
		}
		return 0, fmt.Errorf("unknown vertex key %q", key)
	}
	return 0, fmt.Errorf("vertex reference must be an index or a key, got %T", v)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func toInterfaceSlice(idxs []int32) []interface{} {
	out := make([]interface{}, len(idxs))
	for i, idx := range idxs {
		out[i] = float64(idx)
	}
	return out
}
