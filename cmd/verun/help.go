package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// flagGroup defines a named group of flags for help output.
type flagGroup struct {
	title string
	flags []string
}

// flagGroups defines the logical groupings for CLI flags.
// Flags not listed here appear under "Other Flags".
var flagGroups = []flagGroup{
	{
		title: "Actions",
		flags: []string{"analyze", "reference-doc", "code-review-doc"},
	},
	{
		title: "Report",
		flags: []string{"report", "report-path", "report-format"},
	},
	{
		title: "Installation",
		flags: []string{"install-path", "default-args", "project", "projects-file", "list-timeout"},
	},
	{
		title: "Output",
		flags: []string{"capture", "output-dir", "verbose"},
	},
	{
		title: "Configuration",
		flags: []string{"config", "no-config"},
	},
}

// setGroupedUsage configures the command to display flags in logical groups.
func setGroupedUsage(cmd *cobra.Command) {
	cmd.SetUsageFunc(func(c *cobra.Command) error {
		w := c.OutOrStderr()
		fmt.Fprintf(w, "Usage:\n  %s\n", c.UseLine())

		if c.HasAvailableSubCommands() {
			fmt.Fprintf(w, "\nCommands:\n")
			for _, sub := range c.Commands() {
				if sub.IsAvailableCommand() {
					fmt.Fprintf(w, "  %-12s %s\n", sub.Name(), sub.Short)
				}
			}
		}

		all := pflag.NewFlagSet(c.Name(), pflag.ContinueOnError)
		all.AddFlagSet(c.LocalFlags())
		all.AddFlagSet(c.InheritedFlags())

		grouped := make(map[string]bool)
		for _, group := range flagGroups {
			fs := pflag.NewFlagSet(group.title, pflag.ContinueOnError)
			for _, name := range group.flags {
				if f := all.Lookup(name); f != nil {
					fs.AddFlag(f)
					grouped[name] = true
				}
			}
			if usages := fs.FlagUsages(); strings.TrimSpace(usages) != "" {
				fmt.Fprintf(w, "\n%s:\n%s", group.title, usages)
			}
		}

		other := pflag.NewFlagSet("other", pflag.ContinueOnError)
		all.VisitAll(func(f *pflag.Flag) {
			if !grouped[f.Name] {
				other.AddFlag(f)
			}
		})
		if usages := other.FlagUsages(); strings.TrimSpace(usages) != "" {
			fmt.Fprintf(w, "\nOther Flags:\n%s", usages)
		}

		return nil
	})
}
