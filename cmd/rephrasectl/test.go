package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"Rephraser/internal/ai"
	"Rephraser/internal/service/prompt"
)

func newTestCmd(e *env) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "test [text]",
		Short: "Переписать текст без буфера обмена (без аргумента читается stdin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := strings.Join(args, " ")
			if raw == "" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				raw = string(b)
			}

			p := e.prefs.Snapshot()
			req, err := prompt.Build(raw, prompt.Settings{DefaultTone: p.DefaultTone, Seniority: p.Seniority, Aliases: p.ToneAliases})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if dryRun {
				fmt.Fprintf(out, "tone: %s\nseniority: %s\n", req.Tone, req.Seniority)
				if req.HasContext {
					fmt.Fprintf(out, "context: %s\n", req.Context)
				}
				fmt.Fprintf(out, "--- system\n%s\n--- user\n%s\n", req.System, req.UserText)
				return nil
			}

			key, _, ok, _ := e.creds.Credential()
			if !ok && e.cfg.Provider != ai.ProviderStub {
				return &ai.ServiceError{Kind: ai.KindNotConfigured, Provider: e.cfg.Provider}
			}
			client, err := e.clients.Client(cmd.Context(), e.cfg.Provider, key)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeoutCause(cmd.Context(), e.cfg.RequestTimeout, ai.ErrRequestTimeout)
			defer cancel()
			res, err := client.Complete(ctx, ai.Request{Model: p.Model, System: req.System, User: req.UserText})
			if err != nil {
				var se *ai.ServiceError
				if errors.As(err, &se) {
					return errors.New(se.UserMessage())
				}
				return err
			}
			fmt.Fprintln(out, res)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "только показать собранный запрос")
	return cmd
}
