package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var (
	listContext string
	listJSON    bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List icons the active theme provides",
	RunE: func(_ *cobra.Command, _ []string) error {
		a := GetApp()
		icons := a.Registry.ListIcons(listContext)
		sort.Strings(icons)
		if listJSON {
			return jsonOut(icons)
		}
		for _, name := range icons {
			fmt.Println(name)
		}
		return nil
	},
}

var contextsCmd = &cobra.Command{
	Use:   "contexts",
	Short: "List the contexts the active theme groups icons into",
	RunE: func(_ *cobra.Command, _ []string) error {
		a := GetApp()
		contexts := a.Registry.ListContexts()
		if listJSON {
			return jsonOut(contexts)
		}
		for _, c := range contexts {
			fmt.Println(c)
		}
		return nil
	},
}

var sizesCmd = &cobra.Command{
	Use:   "sizes <name>",
	Short: "List the sizes an icon is available at",
	Long: `List the nominal sizes the active theme provides the icon at. A size
of -1 marks availability from a scalable directory, meaning any size.`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		a := GetApp()
		sizes := a.Registry.IconSizes(args[0])
		if listJSON {
			return jsonOut(sizes)
		}
		if len(sizes) == 0 {
			fmt.Println(a.Theme.Muted.Render("not provided by the theme"))
			return nil
		}
		parts := make([]string, len(sizes))
		for i, s := range sizes {
			if s == -1 {
				parts[i] = "scalable"
			} else {
				parts[i] = fmt.Sprint(s)
			}
		}
		fmt.Println(strings.Join(parts, " "))
		return nil
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the active theme and search path",
	RunE: func(_ *cobra.Command, _ []string) error {
		a := GetApp()
		t := a.Theme
		fmt.Println(t.KV("theme", a.Registry.ThemeName()))
		if example := a.Registry.ExampleIconName(); example != "" {
			fmt.Println(t.KV("example", example))
		}
		fmt.Println(t.Key.Render("search path:"))
		for _, dir := range a.Registry.SearchPath() {
			marker := t.Muted.Render("absent")
			if _, err := os.Stat(dir); err == nil {
				marker = t.Good.Render("present")
			}
			fmt.Printf("  %s %s\n", t.Path.Render(dir), marker)
		}
		return nil
	},
}

func jsonOut(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	rootCmd.AddCommand(listCmd, contextsCmd, sizesCmd, infoCmd)
	listCmd.Flags().StringVar(&listContext, "context", "", "restrict to one context, e.g. Actions")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
	contextsCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
	sizesCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
}
