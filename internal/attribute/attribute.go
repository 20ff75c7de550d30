// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package attribute maps field names onto DICOM tags and renders element
// values as table cells. Parsing, the data dictionary and character set
// decoding come from github.com/suyashkumar/dicom; this package adds the
// naming and formatting rules of the extract table.
package attribute

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// ErrNotDICOM is returned by ReadFile when the file lacks the "DICM" magic
// after the preamble.
var ErrNotDICOM = errors.New("not a DICOM file")

// ReadFile parses the file meta information and data set of path. Pixel
// data is skipped.
func ReadFile(path string) (dicom.Dataset, error) {
	ds, err := dicom.ParseFile(path, nil, dicom.SkipPixelData())
	if errors.Is(err, dicom.ErrorMagicWord) {
		return ds, fmt.Errorf("%w: %w", ErrNotDICOM, err)
	}
	return ds, err
}

// Lookup renders the top-level element t of ds, or "" when it is absent.
func Lookup(ds *dicom.Dataset, t tag.Tag) string {
	elem, err := ds.FindElementByTag(t)
	if err != nil {
		return ""
	}
	return Render(elem)
}

// Strings returns the individual values of the top-level element t.
func Strings(ds *dicom.Dataset, t tag.Tag) []string {
	elem, err := ds.FindElementByTag(t)
	if err != nil {
		return nil
	}
	return Values(elem)
}

// Dump writes one line per element, "(gggg,eeee)[Keyword] VR value", with
// the elements of sequence items indented below their sequence.
func Dump(w io.Writer, ds dicom.Dataset) {
	for _, elem := range ds.Elements {
		dumpElement(w, elem, 0)
	}
}

func dumpElement(w io.Writer, elem *dicom.Element, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%s%s %s %s\n", indent, Describe(elem.Tag), elem.RawValueRepresentation, Render(elem))
	if elem.Value == nil || elem.Value.ValueType() != dicom.Sequences {
		return
	}
	items, _ := elem.Value.GetValue().([]*dicom.SequenceItemValue)
	for i, item := range items {
		fmt.Fprintf(w, "%s  item %d\n", indent, i+1)
		children, _ := item.GetValue().([]*dicom.Element)
		for _, child := range children {
			dumpElement(w, child, depth+2)
		}
	}
}
