package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"Rephraser/internal/service/credentials"
)

func newKeyCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Ключ API в системном хранилище",
	}

	set := &cobra.Command{
		Use:   "set [key]",
		Short: "Сохранить ключ (без аргумента читается из stdin)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) == 1 {
				key = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read key: %w", err)
				}
				key = line
			}
			if err := e.creds.Set(strings.TrimSpace(key)); err != nil {
				return err
			}
			e.clients.Reset()
			fmt.Fprintln(cmd.OutOrStdout(), "Ключ сохранён")
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete",
		Short: "Удалить ключ",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.creds.Delete(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Ключ удалён")
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Показать, задан ли ключ",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, src, ok, err := e.creds.Credential()
			out := cmd.OutOrStdout()
			if !ok {
				fmt.Fprintf(out, "Ключ не задан (%s)\n", e.creds.Account())
				if err != nil {
					fmt.Fprintf(out, "Хранилище недоступно: %v\n", err)
				}
				return nil
			}
			fmt.Fprintf(out, "Ключ задан: %s (источник: %s)\n", credentials.Mask(key), src)
			return nil
		},
	}

	cmd.AddCommand(set, del, status)
	return cmd
}
