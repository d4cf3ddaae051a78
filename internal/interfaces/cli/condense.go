package cli

import (
	"github.com/spf13/cobra"

	"github.com/turtacn/ScaffoldNet/pkg/errors"
	dto "github.com/turtacn/ScaffoldNet/pkg/types/scaffold"
)

// NewCondenseCmd creates the condense command.
func NewCondenseCmd() *cobra.Command {
	req := &dto.CondenseRequest{}
	var maxCoverage float64
	cmd := &cobra.Command{
		Use:   "condense [SMILES]",
		Short: "Replace functional groups with abbreviation labels",
		Long: "Condense a molecule with the abbreviation table.  With --label only the\n" +
			"named abbreviations are tried; --smarts with --as defines a one-off\n" +
			"abbreviation instead.  The result is a CXSMILES with atom labels.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if req.SMILES != "" {
					return errors.InvalidParam("pass the molecule either as argument or with --smiles")
				}
				req.SMILES = args[0]
			}
			if req.SMARTS != "" && req.Label == "" {
				return errors.InvalidParam("--smarts requires --as")
			}
			if cmd.Flags().Changed("max-coverage") {
				req.MaxCoverage = &maxCoverage
			}

			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()
			backend, err := cliCtx.Backend(ctx)
			if err != nil {
				return err
			}
			res, err := backend.Condense(ctx, req)
			if err != nil {
				return err
			}
			return PrintResult(cmd, condenseView{res})
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&req.SMILES, "smiles", "", "input SMILES")
	fs.StringSliceVarP(&req.Labels, "label", "l", nil, "abbreviation label to apply (repeatable)")
	fs.StringVar(&req.SMARTS, "smarts", "", "custom abbreviation SMARTS")
	fs.StringVar(&req.Label, "as", "", "label for --smarts")
	fs.Float64Var(&maxCoverage, "max-coverage", 0, "largest fraction of heavy atoms one abbreviation may cover (0 disables the check)")
	return cmd
}

// NewAbbreviationsCmd lists the abbreviation table.
func NewAbbreviationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "abbreviations",
		Aliases: []string{"abbr"},
		Short:   "List the abbreviation table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()
			backend, err := cliCtx.Backend(ctx)
			if err != nil {
				return err
			}
			res, err := backend.Abbreviations(ctx)
			if err != nil {
				return err
			}
			return PrintResult(cmd, abbreviationsView{res})
		},
	}
}

//Personal.AI order the ending
