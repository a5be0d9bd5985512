package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/tokensmith/internal/jwt"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Emite y verifica tokens sin pasar por la API",
	}

	var (
		ttl       time.Duration
		rawClaims []string
	)
	issueCmd := &cobra.Command{
		Use:   "issue <subject>",
		Short: "Firma un token con la clave activa",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			claims, err := parseClaims(rawClaims)
			if err != nil {
				return err
			}
			a, err := openApp(commandContext(cmd), opts, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			token, err := a.tokens.CreateToken(args[0], claims, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	issueCmd.Flags().DurationVar(&ttl, "ttl", 0, "Vida del token (default jwt.token_duration_seconds)")
	issueCmd.Flags().StringArrayVar(&rawClaims, "claim", nil, "Claim extra k=v; v se interpreta como JSON si puede (repetible)")

	var (
		audience   string
		issuer     string
		ignoreExp  bool
		toleration time.Duration
	)
	verifyCmd := &cobra.Command{
		Use:   "verify <token>",
		Short: "Verifica firma y claims e imprime el payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(commandContext(cmd), opts, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			payload, err := a.tokens.VerifyToken(strings.TrimSpace(args[0]), &jwt.VerifyOptions{
				Audience:         audience,
				Issuer:           issuer,
				IgnoreExpiration: ignoreExp,
				ClockTolerance:   toleration,
			})
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(payload)
		},
	}
	verifyCmd.Flags().StringVar(&audience, "audience", "", "Audience esperada (default jwt.audience)")
	verifyCmd.Flags().StringVar(&issuer, "issuer", "", "Issuer esperado (default jwt.issuer)")
	verifyCmd.Flags().BoolVar(&ignoreExp, "ignore-exp", false, "No validar exp")
	verifyCmd.Flags().DurationVar(&toleration, "clock-tolerance", 0, "Tolerancia de reloj para exp/nbf")

	tokenCmd.AddCommand(issueCmd, verifyCmd)
	return tokenCmd
}

// parseClaims convierte "k=v" en Claims. v se decodifica como JSON (número, bool,
// objeto, string entre comillas) y si no es JSON válido queda como string.
func parseClaims(raw []string) (jwt.Claims, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(jwt.Claims, len(raw))
	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("claim %q: expected k=v", kv)
		}
		if jwt.IsReserved(k) {
			return nil, fmt.Errorf("claim %q is reserved", k)
		}
		var decoded any
		if err := json.Unmarshal([]byte(v), &decoded); err != nil {
			out[k] = jwt.StringClaim(v)
			continue
		}
		cv, err := jwt.ClaimFromAny(decoded)
		if err != nil {
			return nil, fmt.Errorf("claim %q: %w", k, err)
		}
		out[k] = cv
	}
	return out, nil
}
