// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package attribute

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom/pkg/tag"
)

// ErrUnknownField is returned by Resolve for names that are neither a
// dictionary keyword nor tag notation.
var ErrUnknownField = errors.New("unknown field")

// Field is a column name resolved to a tag.
type Field struct {
	Name string
	Tag  tag.Tag
	VR   string
}

// Resolve maps a column name to a tag. It accepts a dictionary keyword
// ("KVP") or tag notation ("(0018,0060)", "0018,0060", "00180060"). Tags
// missing from the dictionary, such as private tags, resolve with VR "UN"
// and keep name as given.
func Resolve(name string) (Field, error) {
	name = strings.TrimSpace(name)
	if info, err := tag.FindByName(name); err == nil {
		return Field{Name: info.Name, Tag: info.Tag, VR: info.VR}, nil
	}
	t, err := ParseTag(name)
	if err != nil {
		return Field{}, fmt.Errorf("%q: %w", name, ErrUnknownField)
	}
	if info, err := tag.Find(t); err == nil {
		return Field{Name: info.Name, Tag: t, VR: info.VR}, nil
	}
	return Field{Name: name, Tag: t, VR: "UN"}, nil
}

// ParseTag parses the textual forms "(0018,0060)", "0018,0060" and "00180060".
func ParseTag(s string) (tag.Tag, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	var gs, es string
	if parts := strings.Split(s, ","); len(parts) == 2 {
		gs, es = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	} else if len(s) == 8 {
		gs, es = s[:4], s[4:]
	} else {
		return tag.Tag{}, fmt.Errorf("malformed tag %q", s)
	}
	if len(gs) != 4 || len(es) != 4 {
		return tag.Tag{}, fmt.Errorf("malformed tag %q", s)
	}
	group, err := strconv.ParseUint(gs, 16, 16)
	if err != nil {
		return tag.Tag{}, fmt.Errorf("malformed tag group %q: %w", gs, err)
	}
	elem, err := strconv.ParseUint(es, 16, 16)
	if err != nil {
		return tag.Tag{}, fmt.Errorf("malformed tag element %q: %w", es, err)
	}
	return tag.Tag{Group: uint16(group), Element: uint16(elem)}, nil
}

// TagString formats t as "(GGGG,EEEE)".
func TagString(t tag.Tag) string {
	return fmt.Sprintf("(%04X,%04X)", t.Group, t.Element)
}

// Describe formats t with its keyword, "(0018,0060)[KVP]", or "[??]" when
// the dictionary does not know it.
func Describe(t tag.Tag) string {
	name := "??"
	if info, err := tag.Find(t); err == nil && info.Name != "" {
		name = info.Name
	}
	return TagString(t) + "[" + name + "]"
}

// IsPrivate reports whether t belongs to an odd, vendor-defined group.
func IsPrivate(t tag.Tag) bool {
	return t.Group%2 == 1
}
