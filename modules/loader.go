package modules

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xStarless-Skyx/skparse/core"
	"github.com/xStarless-Skyx/skparse/interpreters/goja"
	"github.com/xStarless-Skyx/skparse/match"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"
)

// DefaultTimeout is the default Loader.Timeout.
var DefaultTimeout = time.Second

// Module is a loaded module.
type Module struct {
	*Manifest

	Owner   string
	Handles []core.Handle

	// Skipped has the errors for patterns that didn't compile.
	Skipped []error
}

// ModuleError occurs when a module can't be loaded.  Nothing from
// the module is registered.
type ModuleError struct {
	Module string
	Err    error
}

func (e *ModuleError) Error() string {
	return fmt.Sprintf("module %s: %s", e.Module, e.Err)
}

func (e *ModuleError) Unwrap() error {
	return e.Err
}

// Loader loads modules into a Registry.
type Loader struct {
	Registry    *core.Registry
	Interpreter *goja.Interpreter
	Logger      *zap.Logger

	// Timeout caps each script execution.
	Timeout time.Duration

	// Settle is how long Watch waits after a change before
	// reloading.
	Settle time.Duration

	schema *jsonschema.Schema

	sync.Mutex
	modules map[string]*Module
	files   map[string]string
}

// NewLoader makes a Loader.  The interpreter and logger can be nil.
func NewLoader(reg *core.Registry, interp *goja.Interpreter, logger *zap.Logger) (*Loader, error) {
	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}
	if interp == nil {
		interp = goja.NewInterpreter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		Registry:    reg,
		Interpreter: interp,
		Logger:      logger,
		Timeout:     DefaultTimeout,
		Settle:      100 * time.Millisecond,
		schema:      schema,
		modules:     make(map[string]*Module),
		files:       make(map[string]string),
	}, nil
}

func (l *Loader) timeout() time.Duration {
	if l.Timeout <= 0 {
		return DefaultTimeout
	}
	return l.Timeout
}

// Owner is the registry owner for a module's entries.
func Owner(name string) string {
	return "module:" + name
}

// Parse parses and validates a manifest.
func (l *Loader) Parse(filename string, bs []byte) (*Manifest, error) {
	return ParseManifest(l.schema, filename, bs)
}

// LoadFile reads, parses, and loads a manifest file.
func (l *Loader) LoadFile(ctx context.Context, filename string) (*Module, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	m, err := l.Parse(filename, bs)
	if err != nil {
		return nil, err
	}
	return l.Load(ctx, m)
}

// LoadDir loads every manifest in the directory.  A module that
// fails to load doesn't stop the others; the errors are joined.
func (l *Loader) LoadDir(ctx context.Context, dir string) ([]*Module, error) {
	filenames, err := filepath.Glob(filepath.Join(dir, "*"+Suffix))
	if err != nil {
		return nil, err
	}
	sort.Strings(filenames)

	var (
		acc  []*Module
		errs []error
	)
	for _, filename := range filenames {
		mod, err := l.LoadFile(ctx, filename)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		acc = append(acc, mod)
	}
	return acc, errors.Join(errs...)
}

// Load compiles and registers a module's patterns.
//
// A pattern that doesn't compile is skipped and reported in
// Module.Skipped.  Any other problem, including a duplicate handle,
// is a *ModuleError, and then nothing from the module stays
// registered.
//
// Loading a module with the name of a loaded module replaces it.
func (l *Loader) Load(ctx context.Context, m *Manifest) (*Module, error) {
	l.Lock()
	defer l.Unlock()

	if _, have := l.modules[m.Name]; have {
		l.unload(m.Name)
	}

	mod := &Module{
		Manifest: m,
		Owner:    Owner(m.Name),
	}
	fail := func(err error) (*Module, error) {
		l.Registry.UnregisterOwner(mod.Owner)
		l.Logger.Warn("module failed",
			zap.String("module", m.Name),
			zap.String("filename", m.Filename),
			zap.Error(err))
		return nil, &ModuleError{Module: m.Name, Err: err}
	}

	if err := l.defineTypes(m); err != nil {
		return fail(err)
	}

	interp := *l.Interpreter
	if m.Filename != "" {
		interp.LibraryProvider = goja.MakeFileLibraryProvider(filepath.Dir(m.Filename))
	}

	for _, syn := range m.Syntax {
		reg, err := l.registration(ctx, m, syn, &interp)
		if err != nil {
			return fail(err)
		}
		h, err := l.Registry.Register(reg)
		if err != nil {
			var pce *match.PatternCompileError
			if errors.As(err, &pce) {
				l.Logger.Warn("skipping pattern",
					zap.String("module", m.Name),
					zap.String("pattern", syn.Pattern),
					zap.Error(err))
				mod.Skipped = append(mod.Skipped, err)
				continue
			}
			return fail(err)
		}
		mod.Handles = append(mod.Handles, h)
	}

	l.modules[m.Name] = mod
	if m.Filename != "" {
		l.files[m.Filename] = m.Name
	}

	l.Logger.Info("loaded module",
		zap.String("module", m.Name),
		zap.String("version", m.Version),
		zap.Int("patterns", len(mod.Handles)),
		zap.Int("skipped", len(mod.Skipped)))

	return mod, nil
}

func (l *Loader) defineTypes(m *Manifest) error {
	tt := l.Registry.Types()
	for _, td := range m.Types {
		if tt.Get(td.Name) != nil {
			continue
		}
		if _, err := tt.Define(td.Name, td.Plural, td.Supers...); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) registration(ctx context.Context, m *Manifest, syn Syntax, interp *goja.Interpreter) (core.Registration, error) {
	var reg core.Registration

	kind, err := core.ParseKind(syn.Kind)
	if err != nil {
		return reg, err
	}

	var returns *core.Type
	if syn.Returns != "" {
		if returns = l.Registry.Types().Get(syn.Returns); returns == nil {
			return reg, &core.UnknownType{Name: syn.Returns}
		}
	}

	priority := syn.Priority
	if priority == 0 {
		priority = core.PriorityCombined
	}

	s := &script{
		module: m.Name,
		syntax: syn,
		kind:   kind,
		interp: interp,
		loader: l,
	}
	src := func(code string) map[string]interface{} {
		return map[string]interface{}{
			"code":     code,
			"requires": m.Requires,
		}
	}
	if s.code, err = interp.Compile(ctx, src(syn.Code)); err != nil {
		return reg, fmt.Errorf("code for %q: %w", syn.Pattern, err)
	}
	if strings.TrimSpace(syn.Init) != "" {
		if s.init, err = interp.Compile(ctx, src(syn.Init)); err != nil {
			return reg, fmt.Errorf("init for %q: %w", syn.Pattern, err)
		}
	}

	return core.Registration{
		Owner:    Owner(m.Name),
		Kind:     kind,
		Pattern:  syn.Pattern,
		Priority: priority,
		Returns:  returns,
		Doc:      syn.Doc,
		New: func() core.Element {
			return &element{s: s}
		},
	}, nil
}

// Unload removes a module's patterns.  Returns the number of entries
// removed, or -1 if there was no such module.
func (l *Loader) Unload(name string) int {
	l.Lock()
	defer l.Unlock()
	return l.unload(name)
}

func (l *Loader) unload(name string) int {
	mod, have := l.modules[name]
	if !have {
		return -1
	}
	delete(l.modules, name)
	if mod.Filename != "" {
		delete(l.files, mod.Filename)
	}
	n := l.Registry.UnregisterOwner(mod.Owner)
	l.Logger.Info("unloaded module", zap.String("module", name), zap.Int("patterns", n))
	return n
}

// Modules returns the loaded modules sorted by name.
func (l *Loader) Modules() []*Module {
	l.Lock()
	defer l.Unlock()
	acc := make([]*Module, 0, len(l.modules))
	for _, mod := range l.modules {
		acc = append(acc, mod)
	}
	sort.Slice(acc, func(i, j int) bool {
		return acc[i].Name < acc[j].Name
	})
	return acc
}

// Get returns the loaded module with the given name.
func (l *Loader) Get(name string) (*Module, bool) {
	l.Lock()
	defer l.Unlock()
	mod, have := l.modules[name]
	return mod, have
}
