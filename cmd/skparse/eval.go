package main

import (
	"fmt"
	"strings"

	"github.com/xStarless-Skyx/skparse/core"
	"github.com/xStarless-Skyx/skparse/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	evalKind   string
	evalLocals []string
)

var evalCmd = &cobra.Command{
	Use:   "eval [text...]",
	Short: "Parse and evaluate a statement",
	Long: `Parse and evaluate a statement.

Local variables are given as --local name=value, where the value is
itself parsed as an expression.  Global variables live in the
configured storage.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		text, err := textArg(args)
		if err != nil {
			return err
		}
		p, _, err := newParser(ctx)
		if err != nil {
			return err
		}
		st, err := newStorage()
		if err != nil {
			return err
		}
		defer st.Close()

		env := storage.NewEnv(st)
		locals := make(map[string]core.Value, len(evalLocals))
		for _, kv := range evalLocals {
			name, src, ok := strings.Cut(kv, "=")
			if !ok {
				return fmt.Errorf("bad local %q: want name=value", kv)
			}
			n, err := p.Parse(src)
			if err != nil {
				return fmt.Errorf("local %s: %w", name, err)
			}
			if locals[name], err = core.Evaluate(ctx, n, env); err != nil {
				return fmt.Errorf("local %s: %w", name, err)
			}
		}
		env.SetLocals(locals)

		n, err := parseText(p, evalKind, "", text)
		if err != nil {
			return err
		}
		logger.Debug("parsed", zap.Stringer("node", n))

		v, err := core.Evaluate(ctx, n, env)
		if err != nil {
			return err
		}
		if kind, _ := core.ParseKind(evalKind); kind == core.Effect {
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), core.FormatValue(v))
		return nil
	},
}

func init() {
	evalCmd.Flags().StringVarP(&evalKind, "kind", "k", "expression", "expression, condition, or effect")
	evalCmd.Flags().StringArrayVarP(&evalLocals, "local", "l", nil, "local variable as name=value")
}
