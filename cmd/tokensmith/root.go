package main

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	envFile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "tokensmith",
		Short:         "Emisión y verificación de JWT con rotación de claves",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", envOr("TOKENSMITH_CONFIG", ""), "Archivo YAML de configuración (env TOKENSMITH_CONFIG)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Archivo .env a cargar si existe")

	root.AddCommand(
		newServeCmd(opts),
		newKeysCmd(opts),
		newTokenCmd(opts),
		newJWKSCmd(opts),
		newRemoteCmd(),
	)
	return root
}
