package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/tokensmith/internal/jwt"
)

func newJWKSCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "jwks",
		Short: "Imprime el JWKS público del ring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(commandContext(cmd), opts, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			raw, err := jwt.NewPublisher(a.ring).JWKSJSON()
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := json.Indent(&buf, raw, "", "  "); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), buf.String())
			return nil
		},
	}
}
