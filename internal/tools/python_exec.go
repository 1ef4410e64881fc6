package tools

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// pythonExecHarness is injected as the program that actually runs
// under python3; it reproduces the restricted globals/builtins and
// the safe_import hook from original_source's
// nexous/tools/python_exec.py _create_restricted_globals, then execs
// the user's code and reports the output the same way: stdout
// followed by a "[stderr]" section, or "(no output)" when both are
// empty. This must be a real CPython process — no Go-native
// interpreter in the corpus speaks Python's builtins/exception-name
// surface closely enough to satisfy the spec's edge cases.
const pythonExecHarness = `
import sys, builtins as _builtins
from io import StringIO

_ALLOWED_BUILTINS = {
    "int": int, "float": float, "str": str, "bool": bool,
    "list": list, "dict": dict, "set": set, "tuple": tuple,
    "print": print, "len": len, "range": range,
    "enumerate": enumerate, "zip": zip, "map": map,
    "filter": filter, "sorted": sorted, "reversed": reversed,
    "sum": sum, "min": min, "max": max,
    "abs": abs, "round": round, "pow": pow,
    "isinstance": isinstance, "type": type,
    "hasattr": hasattr, "getattr": getattr, "setattr": setattr,
    "Exception": Exception, "ValueError": ValueError,
    "TypeError": TypeError, "KeyError": KeyError, "IndexError": IndexError,
}
_ALLOWED_MODULES = {
    "math", "statistics", "random", "datetime",
    "json", "re", "collections", "itertools", "functools",
}

def _safe_import(name, *args, **kwargs):
    if name not in _ALLOWED_MODULES:
        raise ImportError("Module '%s' not allowed" % name)
    return _builtins.__import__(name, *args, **kwargs)

_restricted = dict(_ALLOWED_BUILTINS)
_restricted["__import__"] = _safe_import

_code = sys.stdin.read()

_old_stdout, _old_stderr = sys.stdout, sys.stderr
sys.stdout, sys.stderr = StringIO(), StringIO()
try:
    try:
        exec(compile(_code, "<python_exec>", "exec"), {"__builtins__": _restricted, "__name__": "__main__"}, {})
        _out, _err = sys.stdout.getvalue(), sys.stderr.getvalue()
        sys.stdout, sys.stderr = _old_stdout, _old_stderr
        print("__NEXOUS_OK__")
        sys.stdout.write(_out)
        if _err:
            sys.stdout.write("\n[stderr]\n" + _err)
    except SyntaxError as e:
        sys.stdout, sys.stderr = _old_stdout, _old_stderr
        print("__NEXOUS_ERR__")
        print("SyntaxError: %s" % e)
    except Exception as e:
        sys.stdout, sys.stderr = _old_stdout, _old_stderr
        print("__NEXOUS_ERR__")
        print("%s: %s" % (type(e).__name__, e))
finally:
    sys.stdout, sys.stderr = _old_stdout, _old_stderr
`

// DefaultPythonTimeout mirrors PythonExecTool.DEFAULT_TIMEOUT.
const DefaultPythonTimeout = 30 * time.Second

// PythonExecTool runs code in a restricted python3 subprocess.
type PythonExecTool struct {
	interpreter string
	timeout     time.Duration
}

// NewPythonExecTool constructs the python_exec tool. interpreter is
// typically "python3"; timeout defaults to DefaultPythonTimeout when zero.
func NewPythonExecTool(interpreter string, timeout time.Duration) *PythonExecTool {
	if interpreter == "" {
		interpreter = "python3"
	}
	if timeout <= 0 {
		timeout = DefaultPythonTimeout
	}
	return &PythonExecTool{interpreter: interpreter, timeout: timeout}
}

func (t *PythonExecTool) Name() string        { return "python_exec" }
func (t *PythonExecTool) Description() string { return "Execute Python code in a restricted environment" }

// Run executes args["code"] and returns its captured stdout (and any
// stderr, appended under a "[stderr]" marker), or "(no output)" when
// the code produces nothing.
func (t *PythonExecTool) Run(ctx context.Context, args map[string]any) Result {
	code, _ := args["code"].(string)
	if strings.TrimSpace(code) == "" {
		return makeResult(false, "", "code is required", nil)
	}

	runCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(runCtx, t.interpreter, "-c", pythonExecHarness)
	cmd.Stdin = strings.NewReader(code)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	latencyMS := time.Since(start).Milliseconds()

	if runCtx.Err() != nil {
		return makeResult(false, "", fmt.Sprintf("TimeoutError: execution exceeded %s", t.timeout), map[string]any{"latency_ms": latencyMS})
	}
	if err != nil {
		msg := stderr.String()
		if msg == "" {
			msg = err.Error()
		}
		return makeResult(false, "", fmt.Sprintf("InterpreterError: %s", strings.TrimSpace(msg)), map[string]any{"latency_ms": latencyMS})
	}

	out := stdout.String()
	switch {
	case strings.HasPrefix(out, "__NEXOUS_OK__\n"):
		body := strings.TrimPrefix(out, "__NEXOUS_OK__\n")
		body = strings.TrimRight(body, "\n")
		if body == "" {
			body = "(no output)"
		}
		return makeResult(true, body, "", map[string]any{"latency_ms": latencyMS})
	case strings.HasPrefix(out, "__NEXOUS_ERR__\n"):
		errMsg := strings.TrimSpace(strings.TrimPrefix(out, "__NEXOUS_ERR__\n"))
		return makeResult(false, "", errMsg, map[string]any{"latency_ms": latencyMS})
	default:
		return makeResult(false, "", fmt.Sprintf("unexpected interpreter output: %q", out), map[string]any{"latency_ms": latencyMS})
	}
}
