package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

const callTimeout = 5 * time.Second

var getCmd = &cobra.Command{
	Use:   "get [attribute]",
	Short: "Read one control attribute, or all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()

		if len(args) == 1 {
			v, err := client.Get(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Println(v)
			return nil
		}

		all, err := client.List(ctx)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(all)
		}
		names := make([]string, 0, len(all))
		for name := range all {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("%-24s %s\n", name, all[name])
		}
		return nil
	},
}

func init() {
	getCmd.Flags().Bool("json", false, "print all attributes as a JSON object")
}

var setCmd = &cobra.Command{
	Use:   "set <attribute> <value>",
	Short: "Write a control attribute",
	Example: `  darkpad set tap_enabled 1
  darkpad set swipe_temporary_enabled 1
  darkpad set auto_off_delay_ms 8000`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()

		v, err := client.Set(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("%s = %s\n", args[0], v)
		return nil
	},
}

var displayCmd = &cobra.Command{
	Use:       "display <off|on>",
	Short:     "Report a display power change to the daemon",
	Long:      `For hosts without a display power watcher: tell the daemon the display blanked or woke.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"off", "on"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var off bool
		switch args[0] {
		case "off":
			off = true
		case "on":
		default:
			return fmt.Errorf("expected off or on, got %q", args[0])
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()

		if err := client.SetDisplay(ctx, off); err != nil {
			return err
		}
		fmt.Printf("Display reported %s\n", args[0])
		return nil
	},
}
