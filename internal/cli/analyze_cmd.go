package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var analyzeIDs []string

// analyzeCmd runs one analysis pass and exits
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze stored messages once",
	Long: `Analyze runs the analysis pipeline over everything unanalyzed, or
over specific messages when --id flags are given.`,
	Run: func(cmd *cobra.Command, args []string) {
		comps := buildComponents()
		ctx := context.Background()

		if len(analyzeIDs) > 0 {
			result, err := comps.processor.ProcessSpecific(ctx, analyzeIDs)
			if err != nil {
				fmt.Fprintf(os.Stderr, "analyze failed: %v\n", err)
				os.Exit(1)
			}
			printJSON(result)
			return
		}

		result := comps.processor.ProcessUnanalyzed(ctx)
		printJSON(result)
		if result.Status == "error" {
			os.Exit(1)
		}
	},
}

func init() {
	analyzeCmd.Flags().StringArrayVar(&analyzeIDs, "id", nil, "message id to analyze (repeatable)")
}
