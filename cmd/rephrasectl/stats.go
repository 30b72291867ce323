package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd(e *env) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Статистика замен за 30 дней",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := e.tracker.Summary()
			out := cmd.OutOrStdout()
			if asJSON {
				return json.NewEncoder(out).Encode(s)
			}
			fmt.Fprintf(out, "Сегодня: %d\n", s.Today)
			fmt.Fprintf(out, "За 30 дней: %d\n", s.Total30Days)
			fmt.Fprintf(out, "Активных дней: %d\n", s.DaysActive)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "вывод в JSON")
	return cmd
}
