package main

import (
	"encoding/json"
	"fmt"

	"github.com/xStarless-Skyx/skparse/tools"

	"github.com/spf13/cobra"
)

var (
	parseKind   string
	parseExpect string
	parseFormat string
)

var parseCmd = &cobra.Command{
	Use:   "parse [text...]",
	Short: "Parse a statement and print its tree",
	Long: `Parse a statement and print its tree.

Formats: text (the simplified source form), yaml, json, dot (Graphviz),
and mermaid.  Without args, the text is read from stdin.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := textArg(args)
		if err != nil {
			return err
		}
		p, _, err := newParser(cmd.Context())
		if err != nil {
			return err
		}
		n, err := parseText(p, parseKind, parseExpect, text)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch parseFormat {
		case "text":
			_, err = fmt.Fprintln(out, n.String())
		case "yaml":
			var bs []byte
			if bs, err = tools.DumpYAML(n); err == nil {
				_, err = out.Write(bs)
			}
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			err = enc.Encode(tools.Dump(n))
		case "dot":
			err = tools.Dot(n, out)
		case "mermaid":
			err = tools.Mermaid(n, out, nil)
		default:
			err = fmt.Errorf("unknown format %q", parseFormat)
		}
		return err
	},
}

func init() {
	parseCmd.Flags().StringVarP(&parseKind, "kind", "k", "expression", "expression, condition, or effect")
	parseCmd.Flags().StringVarP(&parseExpect, "expect", "e", "", "expected type name")
	parseCmd.Flags().StringVarP(&parseFormat, "format", "f", "text", "text, yaml, json, dot, or mermaid")
}
