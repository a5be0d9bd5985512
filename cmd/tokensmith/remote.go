package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// client habla con el admin API de un tokensmith corriendo.
type client struct {
	BaseURL   string
	APIKey    string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) do(method, path string, body []byte) (int, []byte, error) {
	req, err := http.NewRequest(method, strings.TrimRight(c.BaseURL, "/")+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	if c.APIKey != "" {
		req.Header.Set("X-Admin-Key", c.APIKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) print(w io.Writer, status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Fprintln(w, string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Fprintln(w, strings.TrimSpace(string(body)))
	} else {
		fmt.Fprintf(w, "status=%d\n", status)
	}
}

// call ejecuta la request y falla si el status no es 2xx.
func (c *client) call(cmd *cobra.Command, name, method, path string, body []byte) error {
	status, resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	if status/100 != 2 {
		return fmt.Errorf("%s fallo: status=%d body=%s", name, status, strings.TrimSpace(string(resp)))
	}
	c.print(cmd.OutOrStdout(), status, resp)
	return nil
}

func newRemoteCmd() *cobra.Command {
	cl := &client{
		BaseURL:   envOr("TOKENSMITH_URL", "http://localhost:3000"),
		APIKey:    envOr("TOKENSMITH_ADMIN_KEY", ""),
		OutFormat: envOr("TOKENSMITH_OUT", "text"),
		HTTP:      &http.Client{Timeout: 30 * time.Second},
	}

	remote := &cobra.Command{
		Use:   "remote",
		Short: "Operaciones contra un servidor tokensmith vía HTTP",
	}
	remote.PersistentFlags().StringVar(&cl.BaseURL, "url", cl.BaseURL, "URL base del servidor (env TOKENSMITH_URL)")
	remote.PersistentFlags().StringVar(&cl.APIKey, "admin-key", cl.APIKey, "API key de admin (env TOKENSMITH_ADMIN_KEY)")
	remote.PersistentFlags().StringVar(&cl.OutFormat, "out", cl.OutFormat, "Formato de salida: json|text")

	requireKey := func(cmd *cobra.Command, args []string) error {
		if cl.APIKey == "" {
			return fmt.Errorf("falta admin key (flag --admin-key o env TOKENSMITH_ADMIN_KEY)")
		}
		return nil
	}

	pingCmd := &cobra.Command{
		Use:   "ping",
		Short: "Chequea /health/ready",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do(http.MethodGet, "/health/ready", nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("ping fallo: status=%d body=%s", status, strings.TrimSpace(string(body)))
			}
			if cl.OutFormat == "text" {
				fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return nil
			}
			cl.print(cmd.OutOrStdout(), status, body)
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:     "keys",
		Short:   "Lista las claves del servidor (GET /admin/keys)",
		Args:    cobra.NoArgs,
		PreRunE: requireKey,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call(cmd, "keys", http.MethodGet, "/admin/keys", nil)
		},
	}

	rotateCmd := &cobra.Command{
		Use:     "rotate",
		Short:   "Rota la clave activa (POST /admin/keys/rotate)",
		Args:    cobra.NoArgs,
		PreRunE: requireKey,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call(cmd, "rotate", http.MethodPost, "/admin/keys/rotate", nil)
		},
	}

	removeCmd := &cobra.Command{
		Use:     "remove <kid>",
		Short:   "Borra una clave no activa (DELETE /admin/keys/{kid})",
		Args:    cobra.ExactArgs(1),
		PreRunE: requireKey,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call(cmd, "remove", http.MethodDelete, "/admin/keys/"+url.PathEscape(args[0]), nil)
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate <token>",
		Short: "Valida un token contra el servidor (POST /api/tokens/validate)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, _ := json.Marshal(map[string]string{"token": args[0]})
			return cl.call(cmd, "validate", http.MethodPost, "/api/tokens/validate", b)
		},
	}

	remote.AddCommand(pingCmd, listCmd, rotateCmd, removeCmd, validateCmd)
	return remote
}
