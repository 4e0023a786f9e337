package cli

import (
	"github.com/spf13/cobra"

	"github.com/turtacn/FCM-Registry/internal/domain/substance"
	"github.com/turtacn/FCM-Registry/pkg/errors"
)

var (
	getName     string
	getCID      int64
	getExtended bool
)

// NewGetCmd creates the get command.
func NewGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get [key...]",
		Short: "Look up substances by FCA number, CAS number, CID, or name",
		Long: `Look up positive-list substances. Positional keys may be FCA numbers in
any spelling (71, 0071, FCA0071) or CAS registry numbers; --name and
--cid select the other two key spaces explicitly.`,
		Example: `  fcmreg get 71
  fcmreg get FCA0163 75-07-0
  fcmreg get --name 乙醛
  fcmreg get --cid 177 --extended`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			return runGet(cmd, cliCtx, args)
		},
	}

	cmd.Flags().StringVar(&getName, "name", "", "Look up by Chinese name instead of keys")
	cmd.Flags().Int64Var(&getCID, "cid", 0, "Look up by compound CID instead of keys")
	cmd.Flags().BoolVar(&getExtended, "extended", false, "Resolve the molar mass from the compound database")

	return cmd
}

func runGet(cmd *cobra.Command, cliCtx *CLIContext, keys []string) error {
	cidSet := cmd.Flags().Changed("cid")

	selectors := 0
	if len(keys) > 0 {
		selectors++
	}
	if getName != "" {
		selectors++
	}
	if cidSet {
		selectors++
	}
	if selectors == 0 {
		return errors.Validation("a key, --name, or --cid is required")
	}
	if selectors > 1 {
		return errors.Validation("positional keys, --name, and --cid are mutually exclusive")
	}
	if cidSet && getCID <= 0 {
		return errors.Validation("cid must be a positive integer")
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

	var records []*substance.Record
	switch {
	case getName != "":
		records, err = reg.ByName(ctx, getName)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return errors.Newf(errors.ErrCodeRecordNotFound, "no substance is named %q.", getName)
		}
	case cidSet:
		rec, cerr := reg.ByCID(ctx, getCID)
		if cerr != nil {
			return cerr
		}
		records = []*substance.Record{rec}
	default:
		records, err = reg.ByKeys(ctx, keys)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return errors.New(errors.ErrCodeKeyNotFound, "none of the given keys matched a registry record.")
		}
	}

	w := cmd.OutOrStdout()

	if getExtended {
		exts := make([]*substance.ExtendedRecord, 0, len(records))
		for _, rec := range records {
			exts = append(exts, reg.Extended(ctx, rec))
		}
		switch cliCtx.Output {
		case OutputJSON:
			return printJSON(w, exts)
		case OutputTable:
			renderExtendedTable(w, exts)
		default:
			for _, ext := range exts {
				renderRecordDetail(w, ext.Record, ext.MolarMass)
			}
		}
		return nil
	}

	switch cliCtx.Output {
	case OutputJSON:
		return printJSON(w, records)
	case OutputTable:
		renderRecordTable(w, records)
	default:
		for _, rec := range records {
			renderRecordDetail(w, rec, nil)
		}
	}
	return nil
}
