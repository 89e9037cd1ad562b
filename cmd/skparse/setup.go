package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xStarless-Skyx/skparse/core"
	"github.com/xStarless-Skyx/skparse/interpreters/goja"
	"github.com/xStarless-Skyx/skparse/match"
	"github.com/xStarless-Skyx/skparse/modules"
	"github.com/xStarless-Skyx/skparse/storage"
	"github.com/xStarless-Skyx/skparse/storage/bolt"
	"github.com/xStarless-Skyx/skparse/storage/mem"
	"github.com/xStarless-Skyx/skparse/syntax"

	"go.uber.org/zap"
)

// newParser makes a parser with the standard syntax and whatever
// modules the configuration names.  The loader is nil when there's
// no modules directory.
func newParser(ctx context.Context) (*core.Parser, *modules.Loader, error) {
	p, err := syntax.NewParser(logger)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Parser.MaxDepth > 0 {
		p.MaxDepth = cfg.Parser.MaxDepth
	}
	p.Matcher = &match.Matcher{
		MaxFrames: cfg.Parser.MaxFrames,
	}

	if cfg.Modules.Dir == "" {
		return p, nil, nil
	}

	interp := goja.NewInterpreter()
	interp.Logger = logger.Named("goja")
	l, err := modules.NewLoader(p.Registry, interp, logger.Named("modules"))
	if err != nil {
		return nil, nil, err
	}
	l.Timeout = cfg.Modules.Timeout.Duration
	if _, err = l.LoadDir(ctx, cfg.Modules.Dir); err != nil {
		// Modules that loaded stay loaded.
		logger.Warn("loading modules", zap.String("dir", cfg.Modules.Dir), zap.Error(err))
	}
	return p, l, nil
}

// newCodec knows the value types the standard syntax produces.
func newCodec() *storage.Codec {
	c := storage.NewCodec()
	c.Register("schedule", (*syntax.Schedule)(nil), func(s string) (interface{}, error) {
		return syntax.ParseSchedule(s)
	})
	return c
}

func newStorage() (storage.Storage, error) {
	switch cfg.Storage.Driver {
	case "", "mem":
		return mem.NewStorage(), nil
	case "bolt":
		s := bolt.NewStorage(cfg.Storage.Path, newCodec(), logger.Named("bolt"))
		if err := s.Open(); err != nil {
			return nil, fmt.Errorf("opening %s: %w", cfg.Storage.Path, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// textArg joins the args, or reads stdin when there are none.
func textArg(args []string) (string, error) {
	if 0 < len(args) {
		return strings.Join(args, " "), nil
	}
	bs, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(bs)), nil
}

// parseText parses with the given kind name and optional expected
// type name.
func parseText(p *core.Parser, kindName, expect, text string) (core.Node, error) {
	kind, err := core.ParseKind(kindName)
	if err != nil {
		return nil, err
	}
	var expected []*core.Type
	if expect != "" {
		t := p.Registry.Types().Get(expect)
		if t == nil {
			return nil, &core.UnknownType{Name: expect}
		}
		expected = append(expected, t)
	}
	return p.ParseKind(kind, text, expected...)
}
