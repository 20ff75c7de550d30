// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/pdiddy/dicom-stats/internal/attribute"
	"github.com/pdiddy/dicom-stats/internal/discover"
	"github.com/pdiddy/dicom-stats/pkg/types"
)

var (
	tagAcquiredImageAreaDoseProduct = tag.Tag{Group: 0x0018, Element: 0x9473}
	tagImagesInAcquisition          = tag.Tag{Group: 0x0020, Element: 0x1002}
)

// Morita units write the dose-area product only into ImageComments, e.g.
// "... DAP:1234mGycm2 ...".
var dapPattern = regexp.MustCompile(`DAP:\s*([-+]?\d*\.?\d+)\s*mGycm2`)

// applyVendorRules corrects the dose and slice count that some CBCT units
// store in non-standard places:
//
//   - Morita: AcquiredImageAreaDoseProduct is parsed from ImageComments.
//   - Planmeca: ImagesInAcquisition is the number of files in the series
//     directory, and AcquiredImageAreaDoseProduct is stored in 1/100 mGycm2.
//
// A value that cannot be derived is left as read.
func (e *Extractor) applyVendorRules(path string, ds *dicom.Dataset, rec *types.Record) {
	manufacturer := e.fold.String(attribute.Lookup(ds, tag.Manufacturer))
	switch {
	case strings.Contains(manufacturer, "morita"):
		m := dapPattern.FindStringSubmatch(attribute.Lookup(ds, tag.ImageComments))
		if m == nil {
			e.logger.Debug("no DAP in ImageComments", "path", path)
			return
		}
		dap, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return
		}
		e.setTag(rec, tagAcquiredImageAreaDoseProduct, formatFloat(dap))

	case strings.Contains(manufacturer, "planmeca"):
		dir := filepath.Dir(path)
		count, ok := e.dirCounts[dir]
		if !ok {
			n, err := discover.CountFiles(dir)
			if err != nil {
				e.logger.Warn("counting series files", "dir", dir, "error", err)
			} else {
				count, ok = n, true
				e.dirCounts[dir] = n
			}
		}
		if ok {
			e.setTag(rec, tagImagesInAcquisition, strconv.Itoa(count))
		}

		raw := attribute.Lookup(ds, tagAcquiredImageAreaDoseProduct)
		if first, _, _ := strings.Cut(raw, `\`); first != "" {
			if dap, err := strconv.ParseFloat(strings.TrimSpace(first), 64); err == nil {
				e.setTag(rec, tagAcquiredImageAreaDoseProduct, formatFloat(dap*100))
			}
		}
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
