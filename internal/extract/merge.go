package extract

import (
	"sort"

	"github.com/jmylchreest/tinct-cosmic/internal/colour"
)

// weighted is an extracted colour with its share of the sampled pixels.
type weighted struct {
	c      colour.RGB
	weight float64
}

// sortByWeight orders colours by descending weight. Ties are broken on the hex
// value so the order never depends on map iteration.
func sortByWeight(ws []weighted) {
	sort.SliceStable(ws, func(i, j int) bool {
		if ws[i].weight != ws[j].weight {
			return ws[i].weight > ws[j].weight
		}
		return ws[i].c.Hex() < ws[j].c.Hex()
	})
}

// mergeSimilar drops every colour whose ΔE to an already kept, heavier colour is
// below threshold. The weight of a dropped colour is added to the colour that
// absorbed it. Input must be sorted by weight.
func mergeSimilar(ws []weighted, threshold float64) []weighted {
	kept := make([]weighted, 0, len(ws))
	for _, w := range ws {
		absorbed := false
		for i := range kept {
			if kept[i].c.Distance(w.c) < threshold {
				kept[i].weight += w.weight
				absorbed = true
				break
			}
		}
		if !absorbed {
			kept = append(kept, w)
		}
	}
	sortByWeight(kept)
	return kept
}
