// Package cmd provides the Cobra CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bnema/icontheme/internal/cli"
)

var (
	app     *cli.App
	version = "dev"

	flagTheme     string
	flagSize      int
	flagScale     int
	flagNoSVG     bool
	flagFallback  bool
	flagForceSize bool

	rootCmd = &cobra.Command{
		Use:   "icontheme",
		Short: "Resolve and render freedesktop icon themes",
		Long: `icontheme resolves icon names against installed freedesktop icon
themes, honoring theme inheritance, directory size matching, and the
scale factor of hidpi displays.

Use 'icontheme lookup' to see which file a name resolves to,
'icontheme render' to rasterize icons to PNG, or the list commands to
explore what a theme provides.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch cmd.Name() {
			case "help", "completion", "version":
				return nil
			}

			var err error
			app, err = cli.NewApp()
			if err != nil {
				return fmt.Errorf("initialize app: %w", err)
			}
			applyFlagOverrides(cmd)
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if app != nil {
				_ = app.Close()
			}
		},
	}
)

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GetApp returns the initialized app (for use by subcommands).
func GetApp() *cli.App {
	return app
}

// SetVersion sets the version string reported by the version command.
func SetVersion(v string) {
	version = v
}

func applyFlagOverrides(cmd *cobra.Command) {
	if cmd.Flags().Changed("theme") {
		app.Registry.SetCustomTheme(flagTheme)
	}
	if cmd.Flags().Changed("size") {
		app.Config.Render.Size = flagSize
	}
	if cmd.Flags().Changed("scale") {
		app.Config.Render.Scale = flagScale
	}
	if cmd.Flags().Changed("no-svg") {
		app.Config.Lookup.NoSVG = flagNoSVG
	}
	if cmd.Flags().Changed("fallback") {
		app.Config.Lookup.GenericFallback = flagFallback
	}
	if cmd.Flags().Changed("force-size") {
		app.Config.Render.ForceSize = flagForceSize
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println(version)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagTheme, "theme", "", "icon theme name (default: configured or hicolor)")
	pf.IntVar(&flagSize, "size", 0, "icon size in logical pixels")
	pf.IntVar(&flagScale, "scale", 0, "display scale factor")
	pf.BoolVar(&flagNoSVG, "no-svg", false, "ignore vector icons")
	pf.BoolVar(&flagFallback, "fallback", false, "fall back through hyphenated generic names")
	pf.BoolVar(&flagForceSize, "force-size", false, "scale the result to exactly the requested size")

	rootCmd.AddCommand(versionCmd)
}
