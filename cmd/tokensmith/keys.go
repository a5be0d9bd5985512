package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/tokensmith/internal/security/secretbox"
)

func newKeysCmd(opts *rootOptions) *cobra.Command {
	keysCmd := &cobra.Command{
		Use:   "keys",
		Short: "Administra las claves de firma del store configurado",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Lista las claves (la activa marcada con *)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(commandContext(cmd), opts, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			keys, _, err := a.ring.Keys()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ACTIVE\tKID\tALG\tCREATED")
			for _, k := range keys {
				mark := ""
				if k.Active {
					mark = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", mark, k.ID, k.Algorithm, k.CreatedAt.UTC().Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}

	rotateCmd := &cobra.Command{
		Use:   "rotate",
		Short: "Genera una clave nueva y la activa; las anteriores siguen verificando",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(commandContext(cmd), opts, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			kid, err := a.ring.Rotate(commandContext(cmd))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), kid)
			return nil
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <kid>",
		Short: "Borra una clave no activa; sus tokens dejan de verificar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(commandContext(cmd), opts, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.ring.Remove(commandContext(cmd), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}

	genMasterCmd := &cobra.Command{
		Use:   "gen-master",
		Short: "Genera una master key (base64, 32 bytes) para security.master_key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := secretbox.GenerateKey()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), k)
			return nil
		},
	}

	keysCmd.AddCommand(listCmd, rotateCmd, removeCmd, genMasterCmd)
	return keysCmd
}
