package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the search path and report theme changes",
	Long: `Watch the icon search path with inotify and print a line whenever the
installed themes change, for example when a theme is added, removed,
or upgraded. Runs until interrupted.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(_ *cobra.Command, _ []string) error {
	a := GetApp()

	cancel := a.Registry.OnChanged(func() {
		fmt.Printf("%s %s\n",
			a.Theme.Muted.Render(time.Now().Format("15:04:05")),
			a.Theme.Good.Render("themes changed"))
	})
	defer cancel()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println(a.Theme.Muted.Render("watching, ctrl-c to stop"))
	if err := a.Registry.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
