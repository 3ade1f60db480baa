package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/danielpatrickdp/persona-respawn/internal/artifact"
	"github.com/danielpatrickdp/persona-respawn/internal/identity"
	"github.com/danielpatrickdp/persona-respawn/internal/logging"
	"github.com/samber/do"
	"github.com/spf13/cobra"
)

// #region inspect

type inspectFlags struct {
	boardID    string
	jsonOut    bool
	provenance int
}

func newInspectCmd(root *rootFlags) *cobra.Command {
	flags := &inspectFlags{}
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List a board's artifacts in write order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			di, err := root.load()
			if err != nil {
				return err
			}
			defer di.Shutdown()

			store, err := do.Invoke[*artifact.Store](di)
			if err != nil {
				return err
			}

			var st artifact.State
			if flags.boardID == "" {
				st, err = store.State(cmd.Context())
			} else {
				st, err = store.BoardState(cmd.Context(), flags.boardID)
			}
			if err != nil {
				return err
			}

			var entries []logging.ProvenanceEntry
			if flags.provenance > 0 && flags.boardID != "" {
				entries, err = logging.NewProvenanceLog(store.DB()).Recent(cmd.Context(), flags.boardID, flags.provenance)
				if err != nil {
					return err
				}
			}

			w := cmd.OutOrStdout()
			if flags.jsonOut {
				return printJSON(w, struct {
					artifact.State
					Provenance []logging.ProvenanceEntry `json:"provenance,omitempty"`
				}{st, entries})
			}
			printSubmissions(w, st)
			printProvenance(w, entries)
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.boardID, "board", "", "only this board (default all boards)")
	cmd.Flags().BoolVar(&flags.jsonOut, "json", false, "output as JSON instead of table")
	cmd.Flags().IntVar(&flags.provenance, "provenance", 0, "also show the N most recent provenance rows (needs --board)")
	return cmd
}

// #endregion inspect

// #region table

func printSubmissions(w io.Writer, st artifact.State) {
	if len(st.Submissions) == 0 {
		fmt.Fprintln(w, "no artifacts found")
		return
	}
	fmt.Fprintf(w, "%-24s  %-12s  %-16s  %-12s  %s\n", "Ref", "Board", "Type", "ID", "Time")
	fmt.Fprintf(w, "%-24s+-%-12s+-%-16s+-%-12s+-%s\n",
		"------------------------", "------------", "----------------", "------------", "--------------------")
	for _, sub := range st.Submissions {
		fmt.Fprintf(w, "%-24s  %-12s  %-16s  %-12s  %s\n",
			sub.Ref,
			identity.Short(sub.Artifacts.BoardID, 12),
			sub.Artifacts.Type,
			identity.Short(payloadID(sub.Artifacts.Payload), 12),
			sub.CreatedAt.Format("2006-01-02T15:04:05Z"))
	}
}

func printProvenance(w io.Writer, entries []logging.ProvenanceEntry) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(w, "\nProvenance (newest first):\n")
	for _, e := range entries {
		fmt.Fprintf(w, "  %s  %-16s  %-10s  %-12s  %s\n",
			e.CreatedAt.Format("2006-01-02T15:04:05Z"),
			e.Decision,
			e.TriggerType,
			identity.Short(e.RespawnID, 12),
			e.Reason)
	}
}

// payloadID picks the first identifying field present in a payload.
func payloadID(payload json.RawMessage) string {
	var ids struct {
		RespawnID    string `json:"respawn_id"`
		PersonaSetID string `json:"persona_set_id"`
		DecisionID   string `json:"decision_id"`
	}
	if json.Unmarshal(payload, &ids) != nil {
		return "-"
	}
	for _, id := range []string{ids.RespawnID, ids.PersonaSetID, ids.DecisionID} {
		if id != "" {
			return id
		}
	}
	return "-"
}

// #endregion table
