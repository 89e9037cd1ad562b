// Package goja runs the ECMAScript bodies of module patterns.
package goja

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xStarless-Skyx/skparse/core"

	"github.com/dop251/goja"
	"github.com/gorhill/cronexpr"
	"go.uber.org/zap"
)

var (
	// InterruptedMessage is the string value of Interrupted.
	InterruptedMessage = "RuntimeError: timeout"

	// Interrupted is returned by Exec if the execution is
	// interrupted.
	Interrupted = errors.New(InterruptedMessage)
)

// Interpreter compiles and runs script bodies using Goja, which is a
// Go implementation of ECMAScript 5.1+.
//
// See https://github.com/dop251/goja.
type Interpreter struct {
	// Testing exposes sleep(ms).
	Testing bool

	Logger *zap.Logger

	// LibraryProvider resolves the names in "requires" and in
	// top-level require() calls.  When nil, DefaultLibraryProvider
	// is used.
	LibraryProvider func(ctx context.Context, i *Interpreter, libraryName string) (string, error)
}

// NewInterpreter makes a new Interpreter.
func NewInterpreter() *Interpreter {
	return &Interpreter{
		Logger: zap.NewNop(),
	}
}

// ProvideLibrary resolves the library name into source.
func (i *Interpreter) ProvideLibrary(ctx context.Context, name string) (string, error) {
	if i.LibraryProvider != nil {
		return i.LibraryProvider(ctx, i, name)
	}
	return DefaultLibraryProvider(ctx, i, name)
}

var DefaultLibraryProvider = MakeFileLibraryProvider(".")

// MakeFileLibraryProvider resolves names like "file://lib.js"
// relative to the given directory.
func MakeFileLibraryProvider(dir string) func(context.Context, *Interpreter, string) (string, error) {
	return func(ctx context.Context, i *Interpreter, name string) (string, error) {
		parts := strings.SplitN(name, "://", 2)
		if 2 != len(parts) {
			return "", fmt.Errorf("bad link '%s'", name)
		}
		if parts[0] != "file" {
			return "", fmt.Errorf("unknown protocol '%s'", parts[0])
		}
		filename := filepath.Clean(parts[1])
		if filepath.IsAbs(filename) || strings.HasPrefix(filename, "..") {
			return "", fmt.Errorf("library '%s' is outside %s", name, dir)
		}
		bs, err := os.ReadFile(filepath.Join(dir, filename))
		if err != nil {
			return "", err
		}
		return string(bs), nil
	}
}

func MakeMapLibraryProvider(srcs map[string]string) func(context.Context, *Interpreter, string) (string, error) {
	return func(ctx context.Context, i *Interpreter, name string) (string, error) {
		src, have := srcs[name]
		if !have {
			return "", fmt.Errorf("undefined library '%s'", name)
		}
		return src, nil
	}
}

func wrapSrc(src string) string {
	return fmt.Sprintf("(function() {\n%s\n}());\n", src)
}

// parseSource looks for "code" and "requires" properties.
func parseSource(vv map[string]interface{}) (code string, libs []string, err error) {
	x := vv["code"]
	if s, is := x.(string); is {
		code = s
	} else {
		err = errors.New("bad script code")
		return
	}

	switch vv := vv["requires"].(type) {
	case nil:
	case string:
		libs = []string{vv}
	case []string:
		libs = vv
	case []interface{}:
		libs = make([]string, 0, len(vv))
		for _, x := range vv {
			s, is := x.(string)
			if !is {
				err = errors.New("bad library")
				return
			}
			libs = append(libs, s)
		}
	default:
		err = fmt.Errorf("bad requires (%T)", vv)
	}

	return
}

// AsSource accepts either plain code or a map with "code" and
// "requires".
//
// The map can be a map[interface{}]interface{} as produced by some
// YAML parsers.
func AsSource(src interface{}) (code string, libs []string, err error) {
	switch vv := src.(type) {
	case string:
		code = vv
		return
	case map[interface{}]interface{}:
		m := make(map[string]interface{})
		for k, v := range vv {
			str, ok := k.(string)
			if !ok {
				err = fmt.Errorf("bad src key (%T)", k)
				return
			}
			m[str] = v
		}
		return parseSource(m)
	case map[string]interface{}:
		return parseSource(vv)
	default:
		err = fmt.Errorf("bad script source (%T)", src)
		return
	}
}

// Compile resolves libraries and compiles the source as the body of
// a function.
//
// This method can block if the interpreter's LibraryProvider blocks.
func (i *Interpreter) Compile(ctx context.Context, src interface{}) (*goja.Program, error) {
	code, libs, err := AsSource(src)
	if err != nil {
		return nil, err
	}

	provide := func(ctx context.Context, name string) (string, error) {
		return i.ProvideLibrary(ctx, name)
	}
	if code, err = InlineRequires(ctx, code, provide); err != nil {
		return nil, err
	}
	code = wrapSrc(code)

	var libsSrc string
	for _, lib := range libs {
		libSrc, err := i.ProvideLibrary(ctx, lib)
		if err != nil {
			return nil, err
		}
		libsSrc += libSrc + "\n"
	}

	return goja.Compile("", libsSrc+code, true)
}

// Call is what a script sees.
type Call struct {
	// Args are the values of the placeholders, nil for absent
	// ones.
	Args []core.Value

	// Tags are the tags the match activated.
	Tags []string

	// Now is also the base for cronNext.
	Now time.Time

	// Vars, if not nil, gives the script getVar(name) and
	// setVar(name, value) for global variables.  Setting a
	// variable to null or undefined deletes it.
	Vars Vars
}

// Vars is the global variable access a script can have.
type Vars interface {
	Get(name string) (core.Value, error)
	Set(name string, v core.Value) error
}

func protest(o *goja.Runtime, x interface{}) {
	panic(o.ToValue(x))
}

// Exec runs a compiled script.
//
// The runtime has these globals:
//
//	args: the argument values.
//	tags: the activated tags.
//	now: the current time as an RFC 3339 string.
//	cronNext(spec): the next time after now the cron spec fires.
//	log(x): write x to the debug log.
//	getVar(name), setVar(name, x): global variables, if call.Vars is set.
//
// With Testing set, sleep(ms) sleeps.
//
// Cancelling the context interrupts the script.
func (i *Interpreter) Exec(ctx context.Context, p *goja.Program, call *Call) (core.Value, error) {
	if call == nil {
		call = &Call{}
	}
	now := call.Now
	if now.IsZero() {
		now = time.Now()
	}
	logger := i.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	o := goja.New()

	args := make([]interface{}, len(call.Args))
	for j, a := range call.Args {
		args[j] = a
	}
	tags := make([]interface{}, len(call.Tags))
	for j, t := range call.Tags {
		tags[j] = t
	}
	o.Set("args", args)
	o.Set("tags", tags)
	o.Set("now", core.Timestamp(now))

	o.Set("cronNext", func(x goja.Value) interface{} {
		spec, is := x.Export().(string)
		if !is {
			protest(o, "not a string")
		}
		c, err := cronexpr.Parse(spec)
		if err != nil {
			protest(o, err.Error())
		}
		next := c.Next(now)
		if next.IsZero() {
			return nil
		}
		return core.Timestamp(next)
	})

	o.Set("log", func(x goja.Value) interface{} {
		v := x.Export()
		logger.Debug("script log", zap.Any("value", v))
		return v
	})

	if call.Vars != nil {
		o.Set("getVar", func(name string) interface{} {
			v, err := call.Vars.Get(name)
			if err != nil {
				protest(o, err.Error())
			}
			return v
		})
		o.Set("setVar", func(name string, x goja.Value) {
			var v core.Value
			if x != nil && !goja.IsUndefined(x) && !goja.IsNull(x) {
				var err error
				if v, err = export(x); err != nil {
					protest(o, err.Error())
				}
			}
			if err := call.Vars.Set(name, v); err != nil {
				protest(o, err.Error())
			}
		})
	}

	if i.Testing {
		o.Set("sleep", func(ms int) {
			time.Sleep(time.Duration(ms) * time.Millisecond)
		})
	}

	// We want to make sure that the following goroutine is
	// terminated as soon as possible.
	ictx, cancel := context.WithCancel(ctx)
	go func() {
		<-ictx.Done()
		// If Exec calls cancel() after RunProgram returns, the
		// interrupt is harmless.
		o.Interrupt(InterruptedMessage)
	}()

	v, err := o.RunProgram(p)
	cancel()

	if err != nil {
		var ie *goja.InterruptedError
		if errors.As(err, &ie) {
			return nil, Interrupted
		}
		return nil, err
	}

	return export(v)
}

// export turns a script result into a Value.  Whole numbers are
// int64s.
func export(v goja.Value) (core.Value, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, nil
	}
	switch x := v.Export().(type) {
	case int64, string, bool, time.Time:
		return x, nil
	case int:
		return int64(x), nil
	case float64:
		return x, nil
	case nil:
		return nil, nil
	default:
		// Anything else gets the JSON treatment.
		return core.Canonicalize(x)
	}
}
