package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/cbview/internal/message"
)

func newStatusCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the running watcher's place in the viewer chain",
		Long: `Displays whether the running "cbview watch" is registered, its own handle,
the next viewer it forwards to, and notification counters.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runStatus(v) },
	}

	f := cmd.Flags()
	f.Bool("json", false, "output raw JSON")
	addConfigFlag(cmd)

	return cmd
}

func runStatus(v *viper.Viper) error {
	resp, err := request(&message.Message{Type: message.TypeStatus})
	if err != nil {
		return err
	}
	if resp.Status == nil {
		return fmt.Errorf("status: empty response")
	}

	if v.GetBool("json") {
		enc, _ := json.MarshalIndent(resp.Status, "", "  ")
		fmt.Println(string(enc))
		return nil
	}
	printStatus(os.Stdout, resp.Status, time.Now())
	return nil
}

func printStatus(w io.Writer, st *message.Status, now time.Time) {
	tw := tabwriter.NewWriter(w, 1, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Host:\t%s\n", st.Host)
	fmt.Fprintf(tw, "Backend:\t%s\n", st.Backend)
	fmt.Fprintf(tw, "Registered:\t%t\n", st.Registered)
	fmt.Fprintf(tw, "Self:\t%s\n", st.Self)
	fmt.Fprintf(tw, "Next:\t%s\n", st.Next)
	if !st.StartedAt.IsZero() {
		fmt.Fprintf(tw, "Started:\t%s (%s)\n", st.StartedAt.UTC().Format(time.RFC3339), fmtAge(st.StartedAt, now))
	}
	fmt.Fprintf(tw, "Entries:\t%d\n", st.Entries)
	fmt.Fprintln(tw)

	c := st.Counters
	fmt.Fprintf(tw, "Notifications:\t%d\n", c.Received)
	fmt.Fprintf(tw, "Captured:\t%d\n", c.Captured)
	fmt.Fprintf(tw, "Fetch failures:\t%d\n", c.FetchFailures)
	fmt.Fprintf(tw, "Relayed:\t%d\n", c.Relayed)
	fmt.Fprintf(tw, "Relay failures:\t%d\n", c.RelayFailures)
	fmt.Fprintf(tw, "Chain repairs:\t%d\n", c.Absorbed)
	fmt.Fprintf(tw, "Ignored:\t%d\n", c.Ignored)
	_ = tw.Flush()
}
