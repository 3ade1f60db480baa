package main

import (
	"fmt"

	"github.com/danielpatrickdp/persona-respawn/internal/artifact"
	"github.com/danielpatrickdp/persona-respawn/internal/fixture"
	"github.com/samber/do"
	"github.com/spf13/cobra"
)

// #region seed

func newSeedCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <fixture.json>",
		Short: "Write a fixture's persona set and decisions to its board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := fixture.LoadFixture(args[0])
			if err != nil {
				return err
			}

			di, err := root.load()
			if err != nil {
				return err
			}
			defer di.Shutdown()

			store, err := do.Invoke[*artifact.Store](di)
			if err != nil {
				return err
			}
			refs, err := fixture.Apply(cmd.Context(), store, f)
			if err != nil {
				return err
			}
			for _, ref := range refs {
				fmt.Fprintln(cmd.OutOrStdout(), ref)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "seeded %s with %d artifacts\n", f.BoardID, len(refs))
			return nil
		},
	}
}

// #endregion seed
