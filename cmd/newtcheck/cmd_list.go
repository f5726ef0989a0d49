package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/newtron-network/newtcheck/pkg/checks"
	"github.com/newtron-network/newtcheck/pkg/cli"
	"github.com/newtron-network/newtcheck/pkg/command"
	"github.com/newtron-network/newtcheck/pkg/unit"
)

func newListCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available test kinds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds := checks.All()
			if category != "" {
				kinds = checks.ByCategory(category)
				if len(kinds) == 0 {
					return fmt.Errorf("no tests in category %q", category)
				}
			}

			t := cli.NewTable("TEST", "CATEGORIES", "COMMANDS", "DESCRIPTION")
			for _, k := range kinds {
				t.Row(k.Name, strings.Join(k.Categories, ","), strings.Join(kindCommands(k), "; "), k.Description)
			}
			t.Flush()
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "only list tests in this category")
	return cmd
}

// kindCommands lists the fixed commands and templates of k.
func kindCommands(k *unit.Kind) []string {
	var out []string
	for _, id := range k.Commands {
		out = append(out, id.String())
	}
	for _, tpl := range k.Templates {
		out = append(out, templateString(tpl))
	}
	return out
}

func templateString(tpl command.Template) string {
	id := command.Identity{Text: tpl.Pattern, Revision: tpl.Revision, Version: tpl.Version}
	return id.String()
}
