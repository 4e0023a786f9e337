package cli

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/turtacn/FCM-Registry/internal/domain/substance"
)

// NewInfoCmd creates the info command.
func NewInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show registry statistics and build provenance",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			return runInfo(cmd, cliCtx)
		},
	}
}

func runInfo(cmd *cobra.Command, cliCtx *CLIContext) error {
	stack, err := cliCtx.OpenStack()
	if err != nil {
		return err
	}
	defer stack.Close()

	reg, err := stack.OpenRegistry(cmd.Context())
	if err != nil {
		return err
	}
	stats := reg.Stats()

	w := cmd.OutOrStdout()
	switch cliCtx.Output {
	case OutputJSON:
		return printJSON(w, stats)
	case OutputTable:
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Property", "Value"})
		table.SetAutoWrapText(false)
		table.SetBorder(false)
		table.Append([]string{"Records", strconv.Itoa(stats.Records)})
		table.Append([]string{"CAS numbers", strconv.Itoa(stats.CASNumbers)})
		table.Append([]string{"Names", strconv.Itoa(stats.Names)})
		table.Append([]string{"CIDs", strconv.Itoa(stats.CIDs)})
		table.Append([]string{"FCA range", fmt.Sprintf("%d-%d", stats.MinFCA, stats.MaxFCA)})
		table.Append([]string{"Source", stats.CSVFile})
		table.Append([]string{"Built", stats.BuiltAt})
		table.Append([]string{"Refresh ID", stats.RefreshID})
		table.Render()
		return nil
	default:
		fmt.Fprintln(w, color.GreenString("%s registry", substance.Standard))
		fmt.Fprintf(w, "  Records:      %d\n", stats.Records)
		fmt.Fprintf(w, "  CAS numbers:  %d\n", stats.CASNumbers)
		fmt.Fprintf(w, "  Names:        %d\n", stats.Names)
		fmt.Fprintf(w, "  CIDs:         %d\n", stats.CIDs)
		fmt.Fprintf(w, "  FCA range:    %d-%d\n", stats.MinFCA, stats.MaxFCA)
		fmt.Fprintf(w, "  Source:       %s\n", stats.CSVFile)
		fmt.Fprintf(w, "  Built:        %s\n", stats.BuiltAt)
		fmt.Fprintf(w, "  Refresh ID:   %s\n", stats.RefreshID)
		return nil
	}
}
