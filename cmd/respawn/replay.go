package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/danielpatrickdp/persona-respawn/internal/artifact"
	"github.com/danielpatrickdp/persona-respawn/internal/config"
	"github.com/danielpatrickdp/persona-respawn/internal/fixture"
	"github.com/danielpatrickdp/persona-respawn/internal/replay"
	"github.com/danielpatrickdp/persona-respawn/internal/respawn"
	"github.com/samber/do"
	"github.com/spf13/cobra"
)

// #region replay

func newReplayCmd(root *rootFlags) *cobra.Command {
	var inPlace bool
	cmd := &cobra.Command{
		Use:   "replay <fixture.json>",
		Short: "Seed a fixture into a scratch store and check its requests' expectations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := fixture.LoadFixture(args[0])
			if err != nil {
				return err
			}

			scratch := ""
			if !inPlace {
				scratch, err = os.MkdirTemp("", "respawn-replay-")
				if err != nil {
					return fmt.Errorf("create scratch dir: %w", err)
				}
				defer os.RemoveAll(scratch)
			}

			di, err := root.load()
			if err != nil {
				return err
			}
			defer di.Shutdown()
			if scratch != "" {
				do.MustInvoke[*config.Config](di).Store.StateFile = filepath.Join(scratch, "replay.db")
			}

			store, err := do.Invoke[*artifact.Store](di)
			if err != nil {
				return err
			}
			svc, err := do.Invoke[*respawn.Service](di)
			if err != nil {
				return err
			}

			results, err := replay.ReplayFixture(cmd.Context(), store, svc, f)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-4s  %-24s  %-6s  %-16s  %s\n", "#", "Outcome", "Match", "Replaced", "Reason")
			for _, r := range results {
				fmt.Fprintf(w, "%-4d  %-24s  %-6v  %-16s  %s\n", r.Index, r.Outcome, r.Match, r.ReplacedPersonaID, r.Reason)
			}
			s := replay.Summarize(results)
			fmt.Fprintf(w, "\n%d requests: %d commits, %d replays, %d errors, %d mismatches\n",
				s.Total, s.Commits, s.Replays, s.Errors, s.Mismatches)
			if s.Mismatches > 0 {
				return fmt.Errorf("%d expectations not met", s.Mismatches)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&inPlace, "in-place", false, "replay into the configured state file instead of a scratch store")
	return cmd
}

// #endregion replay
