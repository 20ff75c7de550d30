// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dicomtest builds small DICOM Part 10 files for tests, so no binary
// fixtures need to be checked in.
package dicomtest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Transfer syntaxes the builder can write.
const (
	ImplicitVRLittleEndian = "1.2.840.10008.1.2"
	ExplicitVRLittleEndian = "1.2.840.10008.1.2.1"
	ExplicitVRBigEndian    = "1.2.840.10008.1.2.2"
)

// CTImageStorage is the SOP class written into the file meta information.
const CTImageStorage = "1.2.840.10008.5.1.4.1.1.2"

// Builder accumulates elements for one file.
type Builder struct {
	transferSyntax string
	sopInstanceUID string
	elements       []*dicom.Element
}

// New returns a builder for an explicit VR little endian file.
func New() *Builder {
	return &Builder{
		transferSyntax: ExplicitVRLittleEndian,
		sopInstanceUID: "1.2.826.0.1.3680043.10.1433.99.1",
	}
}

// TransferSyntax sets the transfer syntax UID of the file.
func (b *Builder) TransferSyntax(uid string) *Builder {
	b.transferSyntax = uid
	return b
}

// Set adds an element by dictionary keyword with the dictionary VR. Values
// are strings, integers or floats; mixing kinds panics, as do unknown
// keywords.
func (b *Builder) Set(keyword string, values ...any) *Builder {
	info, err := tag.FindByName(keyword)
	if err != nil {
		panic(err)
	}
	data, err := normalize(values)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", keyword, err))
	}
	elem, err := dicom.NewElement(info.Tag, data)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", keyword, err))
	}
	return b.add(elem)
}

// Element adds an element with an explicit tag and VR, so a file can carry
// private tags or a VR that disagrees with the dictionary. data is a
// []string, []int, []float64 or []byte.
func (b *Builder) Element(t tag.Tag, vr string, data any) *Builder {
	value, err := dicom.NewValue(data)
	if err != nil {
		panic(fmt.Sprintf("%04X,%04X: %v", t.Group, t.Element, err))
	}
	return b.add(&dicom.Element{
		Tag:                    t,
		ValueRepresentation:    tag.GetVRKind(t, vr),
		RawValueRepresentation: vr,
		Value:                  value,
	})
}

// add replaces any earlier element with the same tag.
func (b *Builder) add(elem *dicom.Element) *Builder {
	for i, e := range b.elements {
		if e.Tag == elem.Tag {
			b.elements[i] = elem
			return b
		}
	}
	b.elements = append(b.elements, elem)
	return b
}

// Bytes encodes the file: preamble, file meta information, then the data
// set in ascending tag order.
func (b *Builder) Bytes() ([]byte, error) {
	meta := []struct {
		t    tag.Tag
		data any
	}{
		{tag.FileMetaInformationVersion, []byte{0x00, 0x01}},
		{tag.MediaStorageSOPClassUID, []string{CTImageStorage}},
		{tag.MediaStorageSOPInstanceUID, []string{b.sopInstanceUID}},
		{tag.TransferSyntaxUID, []string{b.transferSyntax}},
	}
	var ds dicom.Dataset
	for _, m := range meta {
		elem, err := dicom.NewElement(m.t, m.data)
		if err != nil {
			return nil, fmt.Errorf("building meta element %v: %w", m.t, err)
		}
		ds.Elements = append(ds.Elements, elem)
	}

	body := slices.Clone(b.elements)
	slices.SortFunc(body, func(x, y *dicom.Element) int {
		if x.Tag.Group != y.Tag.Group {
			return int(x.Tag.Group) - int(y.Tag.Group)
		}
		return int(x.Tag.Element) - int(y.Tag.Element)
	})
	ds.Elements = append(ds.Elements, body...)

	var buf bytes.Buffer
	if err := dicom.Write(&buf, ds, dicom.SkipVRVerification(), dicom.SkipValueTypeVerification()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile encodes the file to dir/name, creating parent directories, and
// returns its path.
func (b *Builder) WriteFile(t testing.TB, dir, name string) string {
	t.Helper()
	data, err := b.Bytes()
	require.NoError(t, err)
	return WriteRaw(t, dir, name, data)
}

// WriteRaw writes arbitrary bytes to dir/name, for files that must not parse.
func WriteRaw(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// normalize turns loose test values into the slice kinds dicom.NewValue
// accepts.
func normalize(values []any) (any, error) {
	if len(values) == 0 {
		return []string{""}, nil
	}
	switch values[0].(type) {
	case string:
		out := make([]string, 0, len(values))
		for _, v := range values {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("mixed value kinds: %T", v)
			}
			out = append(out, s)
		}
		return out, nil
	case int, int16, int32, uint16, uint32:
		out := make([]int, 0, len(values))
		for _, v := range values {
			switch v := v.(type) {
			case int:
				out = append(out, v)
			case int16:
				out = append(out, int(v))
			case int32:
				out = append(out, int(v))
			case uint16:
				out = append(out, int(v))
			case uint32:
				out = append(out, int(v))
			default:
				return nil, fmt.Errorf("mixed value kinds: %T", v)
			}
		}
		return out, nil
	case float32, float64:
		out := make([]float64, 0, len(values))
		for _, v := range values {
			switch v := v.(type) {
			case float32:
				out = append(out, float64(v))
			case float64:
				out = append(out, v)
			default:
				return nil, fmt.Errorf("mixed value kinds: %T", v)
			}
		}
		return out, nil
	case []byte:
		if len(values) != 1 {
			return nil, fmt.Errorf("binary value takes one []byte")
		}
		return values[0], nil
	}
	return nil, fmt.Errorf("unsupported value kind %T", values[0])
}
