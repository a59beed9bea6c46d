package export

// Group is one physical asset and every icon that aliases it. However
// many icon ids share an export id, the asset is downloaded once and
// the buffer fanned out.
type Group struct {
	ExportID string
	IconIDs  []string
	NodeIDs  []string
}

// GroupByExportID collapses icons onto their export ids, preserving the
// order in which export ids first appear in the input. Iterating a Go
// map here would make batch composition nondeterministic, so the result
// is an explicitly ordered slice.
func GroupByExportID(icons []Icon) []Group {
	index := make(map[string]int, len(icons))
	groups := make([]Group, 0, len(icons))

	for _, icon := range icons {
		exportID := icon.Node.ExportID
		if exportID == "" {
			exportID = icon.Node.NodeID
		}
		i, seen := index[exportID]
		if !seen {
			i = len(groups)
			index[exportID] = i
			groups = append(groups, Group{ExportID: exportID})
		}
		groups[i].IconIDs = append(groups[i].IconIDs, icon.ID)
		groups[i].NodeIDs = append(groups[i].NodeIDs, icon.Node.NodeID)
	}

	return groups
}

// chunkGroups splits groups into batches of at most size, keeping order.
func chunkGroups(groups []Group, size int) [][]Group {
	if size <= 0 {
		size = 1
	}
	var batches [][]Group
	for start := 0; start < len(groups); start += size {
		end := start + size
		if end > len(groups) {
			end = len(groups)
		}
		batches = append(batches, groups[start:end])
	}
	return batches
}
