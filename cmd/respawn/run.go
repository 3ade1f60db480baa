package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/danielpatrickdp/persona-respawn/internal/respawn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/do"
	"github.com/spf13/cobra"
)

// #region run

type runFlags struct {
	input         string
	boardID       string
	personaID     string
	minReputation float64
	reason        string
	personaSetID  string
	lookback      int
}

func newRunCmd(root *rootFlags) *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one respawn request and print the response or error envelope",
		Example: `  respawn run --board b1 --min-reputation 0.12
  respawn run --input request.json
  echo '{"board_id":"b1"}' | respawn run --input -`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := flags.request(cmd)
			if err != nil {
				return err
			}

			di, err := root.load()
			if err != nil {
				return err
			}
			defer di.Shutdown()

			svc, err := do.Invoke[*respawn.Service](di)
			if err != nil {
				return err
			}
			out := svc.Run(cmd.Context(), raw)
			logMetrics(do.MustInvoke[*prometheus.Registry](di))

			if err := printJSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			if !out.OK() {
				return fmt.Errorf("respawn failed: %s", out.Code())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.input, "input", "", `request JSON file, "-" for stdin`)
	cmd.Flags().StringVar(&flags.boardID, "board", "", "board id")
	cmd.Flags().StringVar(&flags.personaID, "persona", "", "replace this persona id")
	cmd.Flags().Float64Var(&flags.minReputation, "min-reputation", 0, "replace the weakest persona at or below this reputation")
	cmd.Flags().StringVar(&flags.reason, "reason", "", "trigger reason")
	cmd.Flags().StringVar(&flags.personaSetID, "persona-set", "", "persona set id (default latest)")
	cmd.Flags().IntVar(&flags.lookback, "lookback", 0, "decisions to scan")
	cmd.MarkFlagsMutuallyExclusive("input", "board")
	cmd.MarkFlagsOneRequired("input", "board")
	return cmd
}

// request builds the raw request. Only flags the user set are included, so
// implicit defaults stay implicit and hash the same as a bare request.
func (f *runFlags) request(cmd *cobra.Command) (any, error) {
	if f.input != "" {
		var r io.Reader = cmd.InOrStdin()
		if f.input != "-" {
			file, err := os.Open(f.input)
			if err != nil {
				return nil, fmt.Errorf("open input: %w", err)
			}
			defer file.Close()
			r = file
		}
		dec := json.NewDecoder(r)
		dec.UseNumber()
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode input: %w", err)
		}
		return raw, nil
	}

	raw := map[string]any{"board_id": f.boardID}
	trigger := map[string]any{}
	if cmd.Flags().Changed("persona") {
		trigger["persona_id"] = f.personaID
	}
	if cmd.Flags().Changed("min-reputation") {
		trigger["min_reputation"] = f.minReputation
	}
	if cmd.Flags().Changed("reason") {
		trigger["reason"] = f.reason
	}
	if len(trigger) > 0 {
		raw["trigger"] = trigger
	}
	if cmd.Flags().Changed("persona-set") {
		raw["persona_set_id"] = f.personaSetID
	}
	if cmd.Flags().Changed("lookback") {
		raw["lookback_decisions"] = f.lookback
	}
	return raw, nil
}

// #endregion run

// #region helpers

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// logMetrics writes every non-zero counter at debug level; a one-shot CLI has
// no scrape endpoint.
func logMetrics(reg *prometheus.Registry) {
	families, err := reg.Gather()
	if err != nil {
		slog.Warn("gather metrics", "error", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			v := m.GetCounter().GetValue()
			if v == 0 {
				continue
			}
			attrs := []any{"metric", mf.GetName(), "value", v}
			for _, lp := range m.GetLabel() {
				attrs = append(attrs, lp.GetName(), lp.GetValue())
			}
			slog.Debug("metric", attrs...)
		}
	}
}

// #endregion helpers
