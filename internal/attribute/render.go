// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package attribute

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Render formats an element value as one cell: multiple values joined with
// a backslash, numbers in their shortest form, binary data and sequences
// summarised by size.
func Render(elem *dicom.Element) string {
	return strings.Join(Values(elem), `\`)
}

// Values returns the individual values of elem as text. Padding spaces and
// NULs are trimmed. An element read with VR UN is decoded again with the
// dictionary VR of its tag, since files commonly carry UN for elements a
// sender did not know.
func Values(elem *dicom.Element) []string {
	if elem == nil || elem.Value == nil {
		return nil
	}
	switch elem.Value.ValueType() {
	case dicom.Strings:
		vs, _ := elem.Value.GetValue().([]string)
		return trimStrings(vs, elem.RawValueRepresentation)
	case dicom.Ints:
		vs, _ := elem.Value.GetValue().([]int)
		out := make([]string, len(vs))
		for i, v := range vs {
			out[i] = strconv.Itoa(v)
		}
		return out
	case dicom.Floats:
		vs, _ := elem.Value.GetValue().([]float64)
		bits := 64
		if elem.RawValueRepresentation == "FL" || elem.RawValueRepresentation == "OF" {
			bits = 32
		}
		out := make([]string, len(vs))
		for i, v := range vs {
			out[i] = strconv.FormatFloat(v, 'f', -1, bits)
		}
		return out
	case dicom.Bytes:
		raw, _ := elem.Value.GetValue().([]byte)
		if elem.RawValueRepresentation == "UN" {
			if vs, ok := decodeUN(elem.Tag, raw); ok {
				return vs
			}
		}
		return []string{fmt.Sprintf("[%d bytes]", len(raw))}
	case dicom.Sequences:
		items, _ := elem.Value.GetValue().([]*dicom.SequenceItemValue)
		return []string{fmt.Sprintf("[%d items]", len(items))}
	case dicom.SequenceItem:
		children, _ := elem.Value.GetValue().([]*dicom.Element)
		return []string{fmt.Sprintf("[%d elements]", len(children))}
	case dicom.PixelData:
		info, _ := elem.Value.GetValue().(dicom.PixelDataInfo)
		return []string{fmt.Sprintf("[%d frames]", len(info.Frames))}
	}
	return []string{elem.Value.String()}
}

// Text VRs hold a single value that may start with spaces.
func isTextVR(vr string) bool {
	switch vr {
	case "LT", "ST", "UT", "UR":
		return true
	}
	return false
}

func trimStrings(vs []string, vr string) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		v = strings.TrimRight(v, " \x00")
		if !isTextVR(vr) {
			v = strings.TrimLeft(v, " ")
		}
		out[i] = v
	}
	return out
}

// dictionaryVR returns the first VR the dictionary lists for t, or "" for
// private and unknown tags.
func dictionaryVR(t tag.Tag) string {
	if IsPrivate(t) {
		return ""
	}
	info, err := tag.Find(t)
	if err != nil {
		return ""
	}
	if fields := strings.Fields(info.VR); len(fields) > 0 && fields[0] != "UN" {
		return fields[0]
	}
	return ""
}

// decodeUN decodes raw UN bytes as implicit VR little endian using the
// dictionary VR of t. Bytes of a tag the dictionary does not know are
// returned as text when they are printable ASCII.
func decodeUN(t tag.Tag, raw []byte) ([]string, bool) {
	vr := dictionaryVR(t)
	switch vr {
	case "AE", "AS", "CS", "DA", "DS", "DT", "IS", "LO", "PN", "SH", "TM", "UC", "UI":
		return trimStrings(strings.Split(string(raw), `\`), vr), true
	case "LT", "ST", "UT", "UR":
		return trimStrings([]string{string(raw)}, vr), true
	case "US", "SS", "UL", "SL", "FL", "FD", "AT":
		return decodeNumbers(vr, raw)
	case "":
		if isPrintable(raw) {
			return trimStrings(strings.Split(string(raw), `\`), "LO"), true
		}
	}
	return nil, false
}

func decodeNumbers(vr string, raw []byte) ([]string, bool) {
	size := 2
	switch vr {
	case "UL", "SL", "FL", "AT":
		size = 4
	case "FD":
		size = 8
	}
	if len(raw) == 0 || len(raw)%size != 0 {
		return nil, false
	}
	le := binary.LittleEndian
	out := make([]string, 0, len(raw)/size)
	for b := raw; len(b) > 0; b = b[size:] {
		var s string
		switch vr {
		case "US":
			s = strconv.FormatUint(uint64(le.Uint16(b)), 10)
		case "SS":
			s = strconv.FormatInt(int64(int16(le.Uint16(b))), 10)
		case "UL":
			s = strconv.FormatUint(uint64(le.Uint32(b)), 10)
		case "SL":
			s = strconv.FormatInt(int64(int32(le.Uint32(b))), 10)
		case "FL":
			s = strconv.FormatFloat(float64(math.Float32frombits(le.Uint32(b))), 'f', -1, 32)
		case "FD":
			s = strconv.FormatFloat(math.Float64frombits(le.Uint64(b)), 'f', -1, 64)
		case "AT":
			s = TagString(tag.Tag{Group: le.Uint16(b), Element: le.Uint16(b[2:])})
		}
		out = append(out, s)
	}
	return out, true
}

// isPrintable reports whether raw is non-empty ASCII text, allowing
// trailing NUL padding.
func isPrintable(raw []byte) bool {
	text := strings.TrimRight(string(raw), "\x00")
	if text == "" {
		return false
	}
	for i := 0; i < len(text); i++ {
		if text[i] < 0x20 || text[i] > 0x7E {
			return false
		}
	}
	return true
}
