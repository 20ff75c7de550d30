// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package attribute

import (
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/agext/levenshtein"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// publicGroups are the groups the standard data dictionary defines
// elements in. The dicom library looks tags up but does not list them, so
// the keyword list is built by looking up every element of these groups.
var publicGroups = []uint16{
	0x0000, 0x0002, 0x0004, 0x0008, 0x0010, 0x0012, 0x0014, 0x0018,
	0x0020, 0x0022, 0x0024, 0x0028, 0x0032, 0x0038, 0x003A, 0x0040,
	0x0042, 0x0044, 0x0046, 0x0048, 0x0050, 0x0052, 0x0054, 0x0060,
	0x0062, 0x0064, 0x0066, 0x0068, 0x0070, 0x0072, 0x0074, 0x0076,
	0x0078, 0x007A, 0x007C, 0x0080, 0x0082, 0x0088, 0x0100, 0x0400,
	0x1000, 0x1010, 0x2000, 0x2010, 0x2020, 0x2030, 0x2040, 0x2050,
	0x2100, 0x2110, 0x2120, 0x2130, 0x2200, 0x3002, 0x3004, 0x3006,
	0x3008, 0x300A, 0x300C, 0x300E, 0x4000, 0x4008, 0x4010, 0x4FFE,
	0x5000, 0x5200, 0x5400, 0x5600, 0x6000, 0x7FE0, 0xFFFA, 0xFFFC,
	0xFFFE,
}

// keywords is built once, one goroutine per group.
var keywords = sync.OnceValue(func() []string {
	found := make([][]string, len(publicGroups))
	var wg sync.WaitGroup
	for i, group := range publicGroups {
		i, group := i, group
		wg.Add(1)
		go func() {
			defer wg.Done()
			for elem := 0; elem <= 0xFFFF; elem++ {
				info, err := tag.Find(tag.Tag{Group: group, Element: uint16(elem)})
				if err == nil && info.Name != "" {
					found[i] = append(found[i], info.Name)
				}
			}
		}()
	}
	wg.Wait()

	var all []string
	for _, f := range found {
		all = append(all, f...)
	}
	slices.Sort(all)
	return slices.Compact(all)
})

// Keywords returns every dictionary keyword, sorted.
func Keywords() []string {
	return slices.Clone(keywords())
}

// Suggest returns up to n dictionary keywords closest to query. Keywords
// containing the query rank first, shortest first; the rest are ranked by
// case-insensitive Levenshtein distance.
func Suggest(query string, n int) []string {
	type scored struct {
		name      string
		substring bool
		dist      int
	}
	q := strings.ToLower(strings.TrimSpace(query))
	// Past roughly half the query length the match is noise.
	maxDist := len(q)/2 + 1

	var candidates []scored
	for _, name := range keywords() {
		lower := strings.ToLower(name)
		if q != "" && strings.Contains(lower, q) {
			candidates = append(candidates, scored{name, true, len(lower) - len(q)})
			continue
		}
		if d := levenshtein.Distance(q, lower, nil); d <= maxDist {
			candidates = append(candidates, scored{name, false, d})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].substring != candidates[j].substring {
			return candidates[i].substring
		}
		return candidates[i].dist < candidates[j].dist
	})

	var out []string
	for _, c := range candidates {
		if len(out) == n {
			break
		}
		out = append(out, c.name)
	}
	return out
}
