package cli

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	appscaffold "github.com/turtacn/ScaffoldNet/internal/application/scaffold"
	"github.com/turtacn/ScaffoldNet/internal/config"
	"github.com/turtacn/ScaffoldNet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScaffoldNet/internal/interfaces/convert"
	"github.com/turtacn/ScaffoldNet/pkg/errors"
	dto "github.com/turtacn/ScaffoldNet/pkg/types/scaffold"
)

// paramFlags are the network parameter flags shared by build and fragments.
type paramFlags struct {
	bondBreakers  []string
	generic       bool
	genericBond   bool
	keepFirst     bool
	noAttachments bool
	stripAttached bool
	maxNodes      int
	maxQueue      int
}

func (p *paramFlags) register(fs *pflag.FlagSet) {
	fs.StringSliceVar(&p.bondBreakers, "bond-breaker", nil, "reaction SMARTS bond breaker (repeatable)")
	fs.BoolVar(&p.generic, "generic", false, "include generic scaffolds")
	fs.BoolVar(&p.genericBond, "generic-bond", false, "include generic-bond scaffolds")
	fs.BoolVar(&p.keepFirst, "keep-first", false, "keep only the first fragment of each split")
	fs.BoolVar(&p.noAttachments, "no-attachments", false, "include scaffolds with attachment points removed")
	fs.BoolVar(&p.stripAttached, "strip-attachments", false, "drop attachment points from every fragment before recording it")
	fs.IntVar(&p.maxNodes, "max-nodes", 0, "stop once the network holds this many nodes (0 = unlimited)")
	fs.IntVar(&p.maxQueue, "max-queue", 0, "cap fragments produced per molecule (0 = unlimited)")
}

var paramFlagNames = []string{
	"bond-breaker", "generic", "generic-bond", "keep-first", "no-attachments", "strip-attachments", "max-nodes", "max-queue",
}

// params returns nil when no parameter flag was given so the backend uses
// its own defaults.  Otherwise the configured defaults are overridden by the
// flags that were set, since a request's params replace the defaults as a
// whole.
func (p *paramFlags) params(fs *pflag.FlagSet, cfg config.ScaffoldConfig) *dto.NetworkParams {
	changed := false
	for _, name := range paramFlagNames {
		if fs.Changed(name) {
			changed = true
			break
		}
	}
	if !changed {
		return nil
	}
	out := convert.ParamsToDTO(appscaffold.ParamsFromConfig(cfg))
	if fs.Changed("bond-breaker") {
		out.BondBreakers = p.bondBreakers
	}
	if fs.Changed("generic") {
		out.IncludeGenericScaffolds = p.generic
	}
	if fs.Changed("generic-bond") {
		out.IncludeGenericBondScaffolds = p.genericBond
	}
	if fs.Changed("keep-first") {
		out.KeepOnlyFirstFragment = p.keepFirst
	}
	if fs.Changed("no-attachments") {
		out.IncludeScaffoldsWithoutAttachments = p.noAttachments
	}
	if fs.Changed("strip-attachments") {
		out.ExcludeScaffoldsWithAttachments = p.stripAttached
	}
	if fs.Changed("max-nodes") {
		out.MaxNodes = p.maxNodes
	}
	if fs.Changed("max-queue") {
		out.MaxQueue = p.maxQueue
	}
	return &out
}

// NewNetworkCmd creates the network command group.
func NewNetworkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "network",
		Short: "Build, fetch and search scaffold networks",
	}
	cmd.AddCommand(newNetworkBuildCmd(), newNetworkGetCmd(), newNetworkListCmd(), newNetworkSearchCmd())
	return cmd
}

type buildOptions struct {
	smiles []string
	file   string
	reuse  bool
	params paramFlags
}

func newNetworkBuildCmd() *cobra.Command {
	opts := &buildOptions{}
	cmd := &cobra.Command{
		Use:   "build [SMILES...]",
		Short: "Build a scaffold network from molecules",
		Long: "Build a scaffold network from SMILES given as arguments, with --smiles,\n" +
			"or one per line in --file (use - for stdin).  Blank lines and lines\n" +
			"starting with # are ignored.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNetworkBuild(cmd, args, opts)
		},
	}
	fs := cmd.Flags()
	fs.StringSliceVar(&opts.smiles, "smiles", nil, "input SMILES (repeatable)")
	fs.StringVarP(&opts.file, "file", "f", "", "file with one SMILES per line")
	fs.BoolVar(&opts.reuse, "reuse", false, "return a stored network built from identical inputs")
	opts.params.register(fs)
	return cmd
}

func runNetworkBuild(cmd *cobra.Command, args []string, opts *buildOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}

	inputs := append(append([]string(nil), args...), opts.smiles...)
	if opts.file != "" {
		fromFile, err := readSMILESFile(cmd, opts.file)
		if err != nil {
			return err
		}
		inputs = append(inputs, fromFile...)
	}
	if len(inputs) == 0 {
		return errors.InvalidParam("no input molecules: pass SMILES arguments, --smiles or --file")
	}

	req := &dto.BuildNetworkRequest{
		SMILES: inputs,
		Params: opts.params.params(cmd.Flags(), cliCtx.Config.Scaffold),
		Reuse:  opts.reuse,
	}

	ctx, cancel := commandContext(cmd, cliCtx)
	defer cancel()
	backend, err := cliCtx.Backend(ctx)
	if err != nil {
		return err
	}

	cliCtx.Logger.Debug("building network", logging.Int("inputs", len(inputs)))
	res, err := backend.BuildNetwork(ctx, req)
	if err != nil {
		return err
	}
	cliCtx.Logger.Info("network built",
		logging.String("id", res.Network.ID),
		logging.Int("nodes", len(res.Network.Network.Nodes)),
		logging.String("source", res.Source))
	return PrintResult(cmd, buildView{res})
}

func readSMILESFile(cmd *cobra.Command, path string) ([]string, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidParam, "cannot open input file").WithDetail(path)
		}
		defer f.Close()
		r = f
	}

	var out []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// SMILES files often carry a name column after whitespace.
		if i := strings.IndexAny(line, " \t"); i > 0 {
			line = line[:i]
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidParam, "cannot read input file").WithDetail(path)
	}
	return out, nil
}

func newNetworkGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Fetch a stored network",
		Args:  cobra.ExactArgs(1),
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
			rec, err := backend.GetNetwork(ctx, args[0])
			if err != nil {
				return err
			}
			return PrintResult(cmd, recordView{rec})
		},
	}
}

func newNetworkListCmd() *cobra.Command {
	req := &dto.ListNetworksRequest{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored networks, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Limit < 0 || req.Offset < 0 {
				return errors.InvalidParam("limit and offset must not be negative")
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
			res, err := backend.ListNetworks(ctx, req)
			if err != nil {
				return err
			}
			return PrintResult(cmd, listView{res})
		},
	}
	cmd.Flags().IntVar(&req.Limit, "limit", 20, "page size")
	cmd.Flags().IntVar(&req.Offset, "offset", 0, "page offset")
	return cmd
}

func newNetworkSearchCmd() *cobra.Command {
	req := &dto.SearchRequest{}
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Find stored networks containing a scaffold",
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
			res, err := backend.Search(ctx, req)
			if err != nil {
				return err
			}
			return PrintResult(cmd, searchView{res})
		},
	}
	cmd.Flags().StringVar(&req.SMILES, "smiles", "", "scaffold SMILES (required)")
	cmd.Flags().IntVar(&req.Limit, "limit", 50, "maximum number of hits")
	cmd.Flags().BoolVar(&req.Children, "children", false, "also list derived scaffolds from the graph store")
	_ = cmd.MarkFlagRequired("smiles")
	return cmd
}

// NewFragmentsCmd lists the raw fragments of one molecule.
func NewFragmentsCmd() *cobra.Command {
	var (
		smiles string
		params paramFlags
	)
	cmd := &cobra.Command{
		Use:   "fragments",
		Short: "List the fragments of a molecule without building a network",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			req := &dto.FragmentsRequest{SMILES: smiles, Params: params.params(cmd.Flags(), cliCtx.Config.Scaffold)}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()
			backend, err := cliCtx.Backend(ctx)
			if err != nil {
				return err
			}
			res, err := backend.Fragments(ctx, req)
			if err != nil {
				return err
			}
			return PrintResult(cmd, fragmentsView{res})
		},
	}
	cmd.Flags().StringVar(&smiles, "smiles", "", "input SMILES (required)")
	params.register(cmd.Flags())
	_ = cmd.MarkFlagRequired("smiles")
	return cmd
}

//Personal.AI order the ending
