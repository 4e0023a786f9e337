package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/FCM-Registry/pkg/errors"
)

var (
	rangeFrom int
	rangeTo   int
)

// NewRangeCmd creates the range command.
func NewRangeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "range",
		Short: "List substances in an FCA number range",
		Long: `List every substance whose FCA number falls in the half-open interval
[from, to). Without --to the scan runs through the end of the list.`,
		Example: `  fcmreg range --from 71 --to 200
  fcmreg range --from 800 -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			return runRange(cmd, cliCtx)
		},
	}

	cmd.Flags().IntVar(&rangeFrom, "from", 0, "First FCA number of the range (required)")
	cmd.Flags().IntVar(&rangeTo, "to", 0, "End of the range, exclusive (default: past the last record)")
	cmd.MarkFlagRequired("from")

	return cmd
}

func runRange(cmd *cobra.Command, cliCtx *CLIContext) error {
	if rangeFrom < 1 {
		return errors.Validation("from must be at least 1")
	}
	if rangeTo != 0 && rangeTo <= rangeFrom {
		return errors.Validation("to must be greater than from")
	}

	stack, err := cliCtx.OpenStack()
	if err != nil {
		return err
	}
	defer stack.Close()

	ctx := cmd.Context()
	reg, err := stack.OpenRegistry(ctx)
	if err != nil {
		return err
	}

	stop := rangeTo
	if stop == 0 {
		if _, max, ok := reg.Index().Bounds(); ok {
			stop = max + 1
		} else {
			stop = rangeFrom + 1
		}
	}

	records, err := reg.Range(ctx, rangeFrom, stop)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if cliCtx.Output == OutputJSON {
		return printJSON(w, records)
	}

	fmt.Fprintf(w, "%d records in [%d, %d)\n", len(records), rangeFrom, stop)
	renderRecordTable(w, records)
	return nil
}
