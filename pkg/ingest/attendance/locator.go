package attendance

import (
	aterrors "github.com/otherjamesbrown/attend-cli/pkg/errors"
)

// SectionOffsets maps each located section to the row index of its first
// data row. The zero value has no sections. It is not modified after Locate
// returns it.
type SectionOffsets struct {
	offsets map[SectionLabel]int
}

// Locate scans rows once and records, for every row whose first field is a
// known heading, the offset of that section's data. A heading that appears
// more than once keeps its last occurrence.
func Locate(rows [][]string, headings HeadingMapping) SectionOffsets {
	offsets := make(map[SectionLabel]int, len(headings))
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		if label, ok := headings[row[0]]; ok {
			offsets[label] = dataOffset(i)
		}
	}
	return SectionOffsets{offsets: offsets}
}

// Offset returns the data offset for label and whether it was located.
func (o SectionOffsets) Offset(label SectionLabel) (int, bool) {
	off, ok := o.offsets[label]
	return off, ok
}

// Require returns the data offset for label or a MissingSection error.
func (o SectionOffsets) Require(label SectionLabel) (int, error) {
	off, ok := o.offsets[label]
	if !ok {
		return 0, aterrors.MissingSection(label.String())
	}
	return off, nil
}

// Len returns the number of located sections.
func (o SectionOffsets) Len() int {
	return len(o.offsets)
}

// Map returns a copy of the offsets.
func (o SectionOffsets) Map() map[SectionLabel]int {
	out := make(map[SectionLabel]int, len(o.offsets))
	for k, v := range o.offsets {
		out[k] = v
	}
	return out
}
