package octree

import (
	"bytes"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
)

// Octree build statistics.
type Stats struct {
	Nodes          int
	Leaves         int
	OccupiedLeaves int
	MaxDepth       int

	// Total number of facet references stored in leaves. A facet that
	// overlaps several leaves is counted once per leaf.
	LeafFacetRefs int

	MaxFacetsPerLeaf int
	AvgFacetsPerLeaf float64

	BuildTime time.Duration
}

// Get the statistics collected while building the index.
func (idx *Index) Stats() Stats {
	return idx.stats
}

func (idx *Index) collectStats(buildTime time.Duration) Stats {
	st := Stats{
		Nodes:          len(idx.nodes),
		Leaves:         len(idx.leaves),
		OccupiedLeaves: len(idx.occupied),
		BuildTime:      buildTime,
	}

	for _, box := range idx.nodes {
		if box.Depth() > st.MaxDepth {
			st.MaxDepth = box.Depth()
		}
	}

	for _, box := range idx.leaves {
		st.LeafFacetRefs += len(box.Facets)
		if len(box.Facets) > st.MaxFacetsPerLeaf {
			st.MaxFacetsPerLeaf = len(box.Facets)
		}
	}

	if st.OccupiedLeaves > 0 {
		st.AvgFacetsPerLeaf = float64(st.LeafFacetRefs) / float64(st.OccupiedLeaves)
	}

	return st
}

// Build a tabular representation of the index statistics.
func (idx *Index) StatsTable() string {
	st := idx.stats

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"Facets", fmt.Sprintf("%d", idx.facetCount)})
	table.Append([]string{"Nodes", fmt.Sprintf("%d", st.Nodes)})
	table.Append([]string{"Leaves", fmt.Sprintf("%d", st.Leaves)})
	table.Append([]string{"Occupied leaves", fmt.Sprintf("%d", st.OccupiedLeaves)})
	table.Append([]string{"Max depth", fmt.Sprintf("%d", st.MaxDepth)})
	table.Append([]string{"Leaf facet refs", fmt.Sprintf("%d", st.LeafFacetRefs)})
	table.Append([]string{"Max facets/leaf", fmt.Sprintf("%d", st.MaxFacetsPerLeaf)})
	table.Append([]string{"Avg facets/leaf", fmt.Sprintf("%.2f", st.AvgFacetsPerLeaf)})
	table.SetFooter([]string{"Build time", st.BuildTime.String()})

	table.Render()
	return buf.String()
}
