package ctl

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newKeyCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the master encryption key",
	}
	cmd.AddCommand(newKeyInitCmd(o), newKeyStatusCmd(o))
	return cmd
}

func newKeyInitCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the master key if it does not exist yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.load(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			km, err := e.keyManager(ctx)
			if err != nil {
				return err
			}
			before, err := km.Status(ctx)
			if err != nil {
				return err
			}
			if _, err := km.Obtain(ctx); err != nil {
				return err
			}

			if before.Present {
				e.info("Key already present at %s", color.YellowString(before.Location))
				return nil
			}
			e.success("Generated new key at %s", color.YellowString(before.Location))
			e.warn("Back this key up: encrypted tasks cannot be read without it")
			return nil
		},
	}
}

func newKeyStatusCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where the key lives and whether it exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.load(cmd)
			if err != nil {
				return err
			}
			km, err := e.keyManager(cmd.Context())
			if err != nil {
				return err
			}
			st, err := km.Status(cmd.Context())
			if err != nil {
				return err
			}

			e.info("Location: %s", st.Location)
			e.info("Algorithm: %s", e.cfg.Algorithm)
			if st.Present {
				e.success("Key present")
			} else {
				e.warn("Key missing; run %s", color.YellowString("todovaultctl key init"))
			}
			return nil
		},
	}
}
