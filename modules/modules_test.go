package modules_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xStarless-Skyx/skparse/core"
	"github.com/xStarless-Skyx/skparse/modules"
	"github.com/xStarless-Skyx/skparse/storage"
	"github.com/xStarless-Skyx/skparse/storage/mem"
	"github.com/xStarless-Skyx/skparse/syntax"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

const doubling = `
name: doubling
version: 1.0.0
doc: Doubling and friends.
types:
  - name: widget
    plural: widgets
syntax:
  - pattern: "%number% doubled"
    returns: number
    code: "return args[0] * 2;"
  - pattern: "%number% is big"
    kind: condition
    code: "return args[0] > 10;"
  - pattern: "bump %text%"
    kind: effect
    code: |
      setVar(args[0], (getVar(args[0]) || 0) + 1);
      return "ignored";
  - pattern: "picky %number%"
    returns: number
    init: "return args[0] === null || args[0] < 100;"
    code: "return args[0];"
  - pattern: "fussy %number%"
    returns: number
    init: |
      if (args[0] === 13) { return "unlucky"; }
      return true;
    code: "return args[0];"
`

func setup(t *testing.T) (*core.Parser, *modules.Loader) {
	t.Helper()
	p, err := syntax.NewParser(zaptest.NewLogger(t))
	require.NoError(t, err)
	l, err := modules.NewLoader(p.Registry, nil, zaptest.NewLogger(t))
	require.NoError(t, err)
	return p, l
}

func load(t *testing.T, l *modules.Loader, src string) *modules.Module {
	t.Helper()
	m, err := l.Parse("", []byte(src))
	require.NoError(t, err)
	mod, err := l.Load(context.Background(), m)
	require.NoError(t, err)
	return mod
}

func newEnv() *storage.Env {
	e := storage.NewEnv(mem.NewStorage())
	e.Clock = func() time.Time {
		return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return e
}

func TestLoad(t *testing.T) {
	p, l := setup(t)
	mod := load(t, l, doubling)

	assert.Equal(t, "doubling", mod.Name)
	assert.Equal(t, "module:doubling", mod.Owner)
	assert.Len(t, mod.Handles, 5)
	assert.Empty(t, mod.Skipped)
	assert.NotNil(t, p.Registry.Types().Get("widget"))

	ctx := context.Background()
	env := newEnv()

	n, err := p.Parse("3 doubled", core.TypeNumber)
	require.NoError(t, err)
	assert.Equal(t, "%number% doubled(3)", n.String())
	v, err := core.Evaluate(ctx, n, env)
	require.NoError(t, err)
	assert.Equal(t, int64(6), v)

	n, err = p.Parse("(3 doubled) + 1")
	require.NoError(t, err)
	v, err = core.Evaluate(ctx, n, env)
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)

	for text, want := range map[string]bool{"12 is big": true, "2 is big": false} {
		c, err := p.ParseCondition(text)
		require.NoError(t, err, text)
		got, err := core.Test(ctx, c, env)
		require.NoError(t, err, text)
		assert.Equal(t, want, got, text)
	}

	e, err := p.ParseEffect(`bump "hits"`)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		v, err = core.Evaluate(ctx, e, env)
		require.NoError(t, err)
		assert.Nil(t, v)
	}
	hits, err := env.Get(ctx, "hits", core.Global)
	require.NoError(t, err)
	assert.Equal(t, int64(2), hits)
}

func TestInit(t *testing.T) {
	p, l := setup(t)
	load(t, l, doubling)

	_, err := p.Parse("picky 5")
	assert.NoError(t, err)

	_, err = p.Parse("picky {x}")
	assert.NoError(t, err)

	_, err = p.Parse("picky 500")
	var pf *core.ParseFailure
	assert.True(t, errors.As(err, &pf), "%v", err)

	_, err = p.Parse("fussy 12")
	assert.NoError(t, err)

	_, err = p.Parse("fussy 13")
	assert.True(t, errors.As(err, &pf), "%v", err)
}

func TestSkipBadPattern(t *testing.T) {
	obs, logs := observer.New(zap.WarnLevel)
	p, err := syntax.NewParser(nil)
	require.NoError(t, err)
	l, err := modules.NewLoader(p.Registry, nil, zap.New(obs))
	require.NoError(t, err)

	mod := load(t, l, `
name: broken
version: 0.1.0
syntax:
  - pattern: "%number% (twice"
    code: "return 1;"
  - pattern: "%number% thrice"
    code: "return args[0] * 3;"
`)
	assert.Len(t, mod.Handles, 1)
	assert.Len(t, mod.Skipped, 1)
	assert.Equal(t, 1, logs.FilterMessage("skipping pattern").Len())

	_, err = p.Parse("2 thrice")
	assert.NoError(t, err)
}

func TestAbort(t *testing.T) {
	p, l := setup(t)
	before := p.Registry.Snapshot().Len()

	tests := map[string]string{
		"duplicate": `
name: dup
version: 1.0.0
syntax:
  - pattern: "%number% again"
    code: "return 1;"
  - pattern: "%number% again"
    code: "return 2;"
`,
		"compile": `
name: bad-code
version: 1.0.0
syntax:
  - pattern: "%number% fine"
    code: "return 1;"
  - pattern: "%number% bad"
    code: "return (;"
`,
		"returns": `
name: bad-returns
version: 1.0.0
syntax:
  - pattern: "%number% gadget"
    returns: gadget
    code: "return 1;"
`,
	}

	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			m, err := l.Parse("", []byte(src))
			require.NoError(t, err)
			_, err = l.Load(context.Background(), m)
			var me *modules.ModuleError
			require.True(t, errors.As(err, &me), "%v", err)
			assert.Equal(t, m.Name, me.Module)
			assert.Equal(t, before, p.Registry.Snapshot().Len())
			_, have := l.Get(m.Name)
			assert.False(t, have)
		})
	}

	m, err := l.Parse("", []byte(tests["duplicate"]))
	require.NoError(t, err)
	_, err = l.Load(context.Background(), m)
	assert.True(t, errors.Is(err, core.ErrDuplicateHandle), "%v", err)
}

func TestUnload(t *testing.T) {
	p, l := setup(t)
	before := p.Registry.Snapshot().Len()
	load(t, l, doubling)
	assert.Equal(t, before+5, p.Registry.Snapshot().Len())

	// Reloading replaces.
	load(t, l, doubling)
	assert.Equal(t, before+5, p.Registry.Snapshot().Len())
	require.Len(t, l.Modules(), 1)

	assert.Equal(t, 5, l.Unload("doubling"))
	assert.Equal(t, -1, l.Unload("doubling"))
	assert.Equal(t, before, p.Registry.Snapshot().Len())
	assert.Empty(t, l.Modules())

	_, err := p.Parse("3 doubled", core.TypeNumber)
	assert.Error(t, err)
}

func TestInvalidManifest(t *testing.T) {
	_, l := setup(t)

	tests := map[string]string{
		"version": `
name: x
version: one
syntax: []
`,
		"field": `
name: x
version: 1.0.0
colour: red
syntax: []
`,
		"name": `
name: Bad Name
version: 1.0.0
syntax: []
`,
		"kind": `
name: x
version: 1.0.0
syntax:
  - pattern: "a"
    kind: statement
    code: "return 1;"
`,
		"code": `
name: x
version: 1.0.0
syntax:
  - pattern: "a"
`,
		"yaml": "name: [",
	}

	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := l.Parse("x.sk.yaml", []byte(src))
			var im *modules.InvalidManifest
			require.True(t, errors.As(err, &im), "%v", err)
			assert.Equal(t, "x.sk.yaml", im.Filename)
		})
	}

	m, err := l.Parse("x.sk.yaml", []byte("name: x\nversion: v2.1.0-rc.1\nsyntax: []\n"))
	require.NoError(t, err)
	assert.Equal(t, "v2.1.0-rc.1", m.Version)
}

func TestLoadDir(t *testing.T) {
	p, l := setup(t)
	dir := t.TempDir()

	lib := `function triple(x) { return x * 3; }`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib.js"), []byte(lib), 0644))

	good := `
name: tripling
version: 1.0.0
requires:
  - file://lib.js
syntax:
  - pattern: "%number% tripled"
    code: "return triple(args[0]);"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good"+modules.Suffix), []byte(good), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad"+modules.Suffix), []byte("name: ["), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.yaml"), []byte("name: ["), 0644))

	mods, err := l.LoadDir(context.Background(), dir)
	assert.Error(t, err)
	require.Len(t, mods, 1)
	assert.Equal(t, "tripling", mods[0].Name)

	n, err := p.Parse("4 tripled")
	require.NoError(t, err)
	v, err := core.Evaluate(context.Background(), n, newEnv())
	require.NoError(t, err)
	assert.Equal(t, int64(12), v)
}

func TestWatch(t *testing.T) {
	p, l := setup(t)
	l.Settle = 10 * time.Millisecond
	dir := t.TempDir()
	filename := filepath.Join(dir, "w"+modules.Suffix)

	manifest := func(version, word string) []byte {
		return []byte(`
name: watched
version: ` + version + `
syntax:
  - pattern: "%number% ` + word + `"
    code: "return args[0];"
`)
	}
	require.NoError(t, os.WriteFile(filename, manifest("1.0.0", "first"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- l.Watch(ctx, dir)
	}()
	defer func() {
		cancel()
		assert.NoError(t, <-done)
	}()

	version := func() string {
		if mod, have := l.Get("watched"); have {
			return mod.Version
		}
		return ""
	}
	require.Eventually(t, func() bool { return version() == "1.0.0" }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filename, manifest("1.1.0", "second"), 0644))
	require.Eventually(t, func() bool { return version() == "1.1.0" }, 5*time.Second, 10*time.Millisecond)

	_, err := p.Parse("2 second")
	assert.NoError(t, err)
	_, err = p.Parse("2 first")
	assert.Error(t, err)

	require.NoError(t, os.Remove(filename))
	require.Eventually(t, func() bool { return version() == "" }, 5*time.Second, 10*time.Millisecond)
}
