package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/xStarless-Skyx/skparse/tools/expect"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var checkCmd = &cobra.Command{
	Use:   "check SESSION...",
	Short: "Run expectation sessions",
	Long: `Run expectation sessions.

A session is a YAML (or JSON) file of cases.  Each case gives text to
parse and optionally the expected tree, evaluated value, or error.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		p, _, err := newParser(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		failed := 0
		for _, filename := range args {
			bs, err := os.ReadFile(filename)
			if err != nil {
				return err
			}
			s, err := expect.Parse(bs)
			if err != nil {
				return fmt.Errorf("%s: %w", filename, err)
			}
			s.Logger = logger.With(zap.String("session", filename))
			err = s.Run(ctx, p)
			if err == nil {
				fmt.Fprintf(out, "ok   %s (%d cases)\n", filename, len(s.Cases))
				continue
			}

			var f *expect.Failure
			if !errors.As(err, &f) {
				return fmt.Errorf("%s: %w", filename, err)
			}
			failed++
			fmt.Fprintf(out, "FAIL %s\n", filename)
			for _, e := range unjoin(err) {
				fmt.Fprintf(out, "     %s\n", e)
			}
		}
		if 0 < failed {
			return fmt.Errorf("%d of %d sessions failed", failed, len(args))
		}
		return nil
	},
}

func unjoin(err error) []error {
	if j, is := err.(interface{ Unwrap() []error }); is {
		return j.Unwrap()
	}
	return []error{err}
}
