package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	appscaffold "github.com/turtacn/ScaffoldNet/internal/application/scaffold"
	dto "github.com/turtacn/ScaffoldNet/pkg/types/scaffold"
)

// The view types wrap API responses for text and table output.  Their JSON
// form is the wrapped response itself.

func writeNetwork(sb *strings.Builder, n dto.Network) {
	fmt.Fprintf(sb, "nodes (%d):\n", len(n.Nodes))
	sb.WriteString(FormatTable(networkHeaders, networkRows(n)))
	fmt.Fprintf(sb, "edges (%d):\n", len(n.Edges))
	rows := make([][]string, 0, len(n.Edges))
	for _, e := range n.Edges {
		rows = append(rows, []string{strconv.Itoa(e.Begin), strconv.Itoa(e.End), colorizeEdgeType(e.Type)})
	}
	sb.WriteString(FormatTable(edgeHeaders, rows))
}

// colorizeEdgeType marks derived edges so fragment edges stand out.
func colorizeEdgeType(t string) string {
	switch t {
	case dto.EdgeFragment:
		return color.GreenString(t)
	case dto.EdgeRemoveAttachment:
		return color.YellowString(t)
	default:
		return t
	}
}

// colorizeSource tells freshly built networks from reused ones.
func colorizeSource(source string) string {
	if source == appscaffold.SourceBuilt {
		return color.GreenString(source)
	}
	return color.YellowString(source)
}

func networkRows(n dto.Network) [][]string {
	rows := make([][]string, 0, len(n.Nodes))
	for i, key := range n.Nodes {
		count := ""
		if i < len(n.Counts) {
			count = strconv.Itoa(n.Counts[i])
		}
		rows = append(rows, []string{strconv.Itoa(i), key, count})
	}
	return rows
}

var (
	networkHeaders = []string{"INDEX", "SCAFFOLD", "COUNT"}
	edgeHeaders    = []string{"BEGIN", "END", "TYPE"}
)

type buildView struct {
	*dto.BuildNetworkResponse
}

func (v buildView) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "network %s (%s, %dms)\n", v.Network.ID, colorizeSource(v.Source), v.DurationMS)
	if v.Artifact != "" {
		fmt.Fprintf(&sb, "artifact: %s\n", v.Artifact)
	}
	writeNetwork(&sb, v.Network.Network)
	return sb.String()
}

func (v buildView) TableHeaders() []string { return networkHeaders }
func (v buildView) TableRows() [][]string  { return networkRows(v.Network.Network) }

type recordView struct {
	*dto.NetworkRecord
}

func (v recordView) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "network %s created %s\n", v.ID, v.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&sb, "inputs: %s\n", strings.Join(v.Inputs, " "))
	writeNetwork(&sb, v.Network)
	return sb.String()
}

func (v recordView) TableHeaders() []string { return networkHeaders }
func (v recordView) TableRows() [][]string  { return networkRows(v.Network) }

type listView struct {
	*dto.ListNetworksResponse
}

func (v listView) TableHeaders() []string {
	return []string{"ID", "INPUTS", "NODES", "EDGES", "CREATED"}
}

func (v listView) TableRows() [][]string {
	rows := make([][]string, 0, len(v.Networks))
	for _, n := range v.Networks {
		rows = append(rows, []string{
			n.ID,
			strconv.Itoa(len(n.Inputs)),
			strconv.Itoa(len(n.Network.Nodes)),
			strconv.Itoa(len(n.Network.Edges)),
			n.CreatedAt.Format(time.RFC3339),
		})
	}
	return rows
}

func (v listView) String() string {
	out := FormatTable(v.TableHeaders(), v.TableRows())
	if v.Page != nil {
		out += fmt.Sprintf("%d-%d of %d\n", v.Page.Offset, v.Page.Offset+len(v.Networks), v.Page.Total)
	}
	return out
}

type fragmentsView struct {
	*dto.FragmentsResponse
}

func (v fragmentsView) TableHeaders() []string { return []string{"PARENT", "FRAGMENT"} }

func (v fragmentsView) TableRows() [][]string {
	rows := make([][]string, 0, len(v.Fragments))
	for _, f := range v.Fragments {
		rows = append(rows, []string{f.Parent, f.Fragment})
	}
	return rows
}

func (v fragmentsView) String() string {
	var sb strings.Builder
	sb.WriteString(FormatTable(v.TableHeaders(), v.TableRows()))
	if v.Truncated {
		sb.WriteString(color.YellowString("(truncated)"))
		sb.WriteString("\n")
	}
	return sb.String()
}

type searchView struct {
	*dto.SearchResponse
}

func (v searchView) TableHeaders() []string {
	return []string{"NETWORK", "INDEX", "COUNT", "ATOMS", "GENERIC"}
}

func (v searchView) TableRows() [][]string {
	rows := make([][]string, 0, len(v.Hits))
	for _, h := range v.Hits {
		rows = append(rows, []string{
			h.NetworkID,
			strconv.Itoa(h.Index),
			strconv.Itoa(h.Count),
			strconv.Itoa(h.NumAtoms),
			strconv.FormatBool(h.Generic),
		})
	}
	return rows
}

func (v searchView) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "scaffold %s: %d hit(s)\n", v.Key, len(v.Hits))
	sb.WriteString(FormatTable(v.TableHeaders(), v.TableRows()))
	if len(v.Children) > 0 {
		sb.WriteString("children:\n")
		for _, c := range v.Children {
			fmt.Fprintf(&sb, "  %s\n", c)
		}
	}
	return sb.String()
}

type condenseView struct {
	*dto.CondenseResponse
}

func (v condenseView) appliedLabels() []string {
	labels := make([]string, 0, len(v.Applied))
	for l := range v.Applied {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

func (v condenseView) TableHeaders() []string { return []string{"LABEL", "APPLIED"} }

func (v condenseView) TableRows() [][]string {
	rows := make([][]string, 0, len(v.Applied))
	for _, l := range v.appliedLabels() {
		rows = append(rows, []string{l, strconv.Itoa(v.Applied[l])})
	}
	return rows
}

func (v condenseView) String() string {
	var sb strings.Builder
	sb.WriteString(v.CXSMILES)
	sb.WriteString("\n")
	if len(v.Applied) > 0 {
		sb.WriteString(FormatTable(v.TableHeaders(), v.TableRows()))
	}
	if v.Skipped > 0 {
		fmt.Fprintf(&sb, "skipped: %s\n", color.YellowString("%d overlapping match(es)", v.Skipped))
	}
	if len(v.Gated) > 0 {
		fmt.Fprintf(&sb, "gated: %s\n", color.RedString(strings.Join(v.Gated, ", ")))
	}
	return sb.String()
}

type abbreviationsView struct {
	*dto.AbbreviationsResponse
}

func (v abbreviationsView) TableHeaders() []string {
	return []string{"LABEL", "RIGHT", "SMILES", "ATOMS"}
}

func (v abbreviationsView) TableRows() [][]string {
	rows := make([][]string, 0, len(v.Abbreviations))
	for _, a := range v.Abbreviations {
		rows = append(rows, []string{a.Label, a.RightLabel, a.SMILES, strconv.Itoa(a.NonDummyAtoms)})
	}
	return rows
}

func (v abbreviationsView) String() string {
	return FormatTable(v.TableHeaders(), v.TableRows())
}

//Personal.AI order the ending
