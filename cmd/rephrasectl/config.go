package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"Rephraser/internal/config"
	"Rephraser/internal/service/prompt"
)

func newConfigCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Пользовательские настройки",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Показать текущие настройки",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %s\n", e.prefs.Path())
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(e.prefs.Snapshot())
		},
	}

	tones := &cobra.Command{
		Use:   "tones",
		Short: "Список тонов и префиксов",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			p := e.prefs.Snapshot()
			for _, key := range prompt.ToneKeys() {
				var aliases []string
				for alias, tone := range p.ToneAliases {
					if tone == key {
						aliases = append(aliases, alias+string(prompt.ToneDelimiter))
					}
				}
				slices.Sort(aliases)
				marker := " "
				if key == p.DefaultTone {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %-13s %-34s %s\n", marker, key, prompt.Tones[key].Name, strings.Join(aliases, " "))
			}
			return nil
		},
	}

	setter := func(use, short string, valid []string, apply func(p *config.Preferences, v string)) *cobra.Command {
		return &cobra.Command{
			Use:       use,
			Short:     short,
			Args:      cobra.ExactArgs(1),
			ValidArgs: valid,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := e.prefs.Update(func(p *config.Preferences) { apply(p, args[0]) }); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Сохранено")
				return nil
			},
		}
	}

	cmd.AddCommand(
		show,
		tones,
		setter("set-tone <tone>", "Тон по умолчанию", prompt.ToneKeys(),
			func(p *config.Preferences, v string) { p.DefaultTone = v }),
		setter("set-model <model>", "Модель", nil,
			func(p *config.Preferences, v string) { p.Model = strings.TrimSpace(v) }),
		setter("set-seniority <level>", "Уровень: none|mid|senior", seniorityNames(),
			func(p *config.Preferences, v string) { p.Seniority = v }),
	)
	return cmd
}

func seniorityNames() []string {
	var out []string
	for _, lvl := range prompt.SeniorityLevels() {
		out = append(out, string(lvl))
	}
	return out
}
