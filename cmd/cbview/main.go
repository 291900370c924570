// cbview: clipboard viewer-chain observer.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"go.klb.dev/cbview/internal/logging"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "cbview",
		Short: "Clipboard viewer-chain observer",
		Long: `cbview joins the clipboard viewer chain, captures every piece of text
copied to the clipboard, and keeps forwarding change notifications so the
other viewers in the chain keep working.

Run "cbview watch" to start observing. While it runs, "cbview list" prints the
captured text and "cbview status" shows the viewer's place in the chain.

Config file search order (first found wins):
  /etc/cbview/cbview.toml
  $HOME/.config/cbview/cbview.toml
  path supplied via --config

All flags can be set via CBVIEW_<FLAG> env vars or config-file keys.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newWatchCmd(),
		newListCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("cbview %s\n", Version)
		},
	}
}

// resolveLogging sets up the global slog logger after flags are parsed.
func resolveLogging(interactive bool, formatStr, levelStr string) {
	format := logging.ParseFormat(formatStr)
	if interactive && format == logging.FormatAuto {
		format = logging.FormatText
	}
	logging.Setup(format, logging.Resolve(interactive, levelStr))
}
