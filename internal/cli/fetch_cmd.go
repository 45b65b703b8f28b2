package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jjgarrid/genaigo/internal/joblog"
	"github.com/spf13/cobra"
)

// fetchCmd runs one fetch cycle and exits
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch recent messages from the source mailbox once",
	Run: func(cmd *cobra.Command, args []string) {
		comps := buildComponents()

		result, err := comps.fetcher.FetchRecent(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "fetch failed: %v\n", err)
		}
		if result != nil {
			fetchLog := joblog.Open(cfg.FetchLogPath())
			if logErr := fetchLog.Append(result); logErr != nil {
				fmt.Fprintf(os.Stderr, "failed to record fetch run: %v\n", logErr)
			}
			printJSON(result)
		}
		if err != nil {
			os.Exit(1)
		}
	},
}

// printJSON writes v to stdout as indented JSON
func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode result: %v\n", err)
		return
	}
	fmt.Println(string(data))
}
