package main

import (
	"fmt"
	"strings"

	"github.com/xStarless-Skyx/skparse/match"
	"github.com/xStarless-Skyx/skparse/tools"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

var (
	combosLimit  int
	analyzeLimit int
)

var patternCmd = &cobra.Command{
	Use:   "pattern",
	Short: "Look at patterns and the registry",
}

var combosCmd = &cobra.Command{
	Use:   "combos PATTERN",
	Short: "List the literal forms a pattern can take",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := match.Compile(args[0])
		if err != nil {
			return err
		}
		for _, s := range p.Combinations(combosLimit) {
			fmt.Fprintln(cmd.OutOrStdout(), s)
		}
		return nil
	},
}

var matchCmd = &cobra.Command{
	Use:   "match PATTERN TEXT...",
	Short: "Match text against a pattern and show the bindings",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := match.Compile(args[0])
		if err != nil {
			return err
		}
		text := strings.Join(args[1:], " ")
		m := &match.Matcher{MaxFrames: cfg.Parser.MaxFrames}
		rs, err := m.Matches(p, text)
		if err != nil {
			return err
		}
		if len(rs) == 0 {
			furthest, _ := m.Furthest(p, text)
			return fmt.Errorf("no match; got as far as offset %d", furthest)
		}
		out := cmd.OutOrStdout()
		for i, r := range rs {
			fmt.Fprintf(out, "match %d", i)
			if tags := r.Tags(); 0 < len(tags) {
				fmt.Fprintf(out, " tags %s", strings.Join(tags, ","))
			}
			fmt.Fprintln(out)
			for j, ph := range p.Placeholders {
				s, ok := r.Text(j)
				if !ok {
					fmt.Fprintf(out, "  %%%s%% absent\n", strings.Join(ph.Types, "/"))
					continue
				}
				fmt.Fprintf(out, "  %%%s%% %q\n", strings.Join(ph.Types, "/"), s)
			}
		}
		return nil
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Summarize the registry and report overlapping patterns",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, _, err := newParser(cmd.Context())
		if err != nil {
			return err
		}
		a := tools.Analyze(p.Registry, analyzeLimit)
		bs, err := yaml.Marshal(a)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(bs)
		return err
	},
}

func init() {
	combosCmd.Flags().IntVarP(&combosLimit, "limit", "n", 256, "maximum forms")
	analyzeCmd.Flags().IntVarP(&analyzeLimit, "limit", "n", 256, "maximum forms compared per pattern")

	patternCmd.AddCommand(combosCmd)
	patternCmd.AddCommand(matchCmd)
	patternCmd.AddCommand(analyzeCmd)
}
