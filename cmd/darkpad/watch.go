package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream gesture, display and group events from the daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")

		ctx, cancel := signalContext()
		defer cancel()

		return client.Watch(ctx, func(topic string, event json.RawMessage) {
			if asJSON {
				fmt.Printf("{\"topic\":%q,\"event\":%s}\n", topic, event)
				return
			}
			var fields map[string]interface{}
			if err := json.Unmarshal(event, &fields); err != nil {
				fmt.Printf("%s %s\n", topic, event)
				return
			}
			fmt.Printf("%s %-18s %s\n", time.Now().Format("15:04:05.000"), topic, summarize(fields))
		})
	},
}

func init() {
	watchCmd.Flags().Bool("json", false, "print raw JSON lines")
}

// summarize prints the interesting fields of an event, skipping its timestamp.
func summarize(fields map[string]interface{}) string {
	out := ""
	for _, key := range []string{"action", "group", "active", "session", "off"} {
		if v, ok := fields[key]; ok {
			if out != "" {
				out += " "
			}
			out += fmt.Sprintf("%s=%v", key, v)
		}
	}
	return out
}
