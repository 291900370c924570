package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/cbview/internal/display"
	"go.klb.dev/cbview/internal/message"
)

func newListCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the text captured by the running watcher",
		Long: `Asks the running "cbview watch" for the text it has captured, oldest first.
Newlines and tabs inside entries are escaped so that each entry stays on one line.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runList(v) },
	}

	f := cmd.Flags()
	f.Int("limit", 0, "only the newest N entries (0 = all)")
	f.Bool("json", false, "output raw JSON")
	addConfigFlag(cmd)

	return cmd
}

func runList(v *viper.Viper) error {
	resp, err := request(&message.Message{Type: message.TypeList, Limit: v.GetInt("limit")})
	if err != nil {
		return err
	}

	if v.GetBool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp.Entries)
	}
	printEntries(os.Stdout, resp.Entries)
	return nil
}

func printEntries(w io.Writer, entries []message.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "Nothing captured yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 1, 0, 2, ' ', 0)
	for _, e := range entries {
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", e.CapturedAt.Local().Format("2006-01-02 15:04:05"), display.FormatLine(e.Text))
	}
	_ = tw.Flush()
}
