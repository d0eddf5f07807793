package ctl

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newEncryptCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt <text>",
		Short: "Print the envelope for a field value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.load(cmd)
			if err != nil {
				return err
			}
			c, _, err := e.cipher(cmd.Context())
			if err != nil {
				return err
			}
			envelope, err := c.Encrypt(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(e.out, envelope)
			return nil
		},
	}
}

func newDecryptCmd(o *options) *cobra.Command {
	var showKind bool
	cmd := &cobra.Command{
		Use:   "decrypt <value>",
		Short: "Print the plaintext of a stored field value",
		Long:  "Decrypts an envelope. Values without the envelope prefix are legacy plaintext and are printed unchanged.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.load(cmd)
			if err != nil {
				return err
			}
			c, _, err := e.cipher(cmd.Context())
			if err != nil {
				return err
			}
			opened, err := c.Open(args[0])
			if err != nil {
				return err
			}
			if showKind {
				fmt.Fprintf(e.out, "%s\t%s\n", opened.Kind, opened.Plaintext)
				return nil
			}
			fmt.Fprintln(e.out, opened.Plaintext)
			return nil
		},
	}
	cmd.Flags().BoolVar(&showKind, "show-kind", false, "prefix the output with envelope or legacy")
	return cmd
}
