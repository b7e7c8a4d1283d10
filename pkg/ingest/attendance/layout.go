package attendance

// Fixed row layout of the export format.
//
// A section looks like:
//
//	<heading>            <- row i
//	<column header>      <- row i+1
//	<data> ...           <- row i+HeaderSkipRows
//	<blank>
//	<next heading>
//	<next column header>
//	<next data>          <- next section's offset
//
// The last data row of a section therefore sits SectionTrailerRows before
// the next section's offset. These are properties of the source format,
// not detected boundaries.
const (
	// HeaderSkipRows is the distance from a heading row to its first data row.
	HeaderSkipRows = 2

	// SectionTrailerRows is the number of rows between the end of one
	// section's data and the next section's first data row.
	SectionTrailerRows = 3
)

// Minimum field counts per section row.
const (
	startTimeFields   = 2
	participantFields = 7
	activityFields    = 6
)

// dataOffset returns the first data row for a heading found at headingRow.
func dataOffset(headingRow int) int {
	return headingRow + HeaderSkipRows
}

// dataEnd returns the exclusive end of a section's data given the offset
// of the section that follows it.
func dataEnd(nextOffset int) int {
	return nextOffset - SectionTrailerRows
}
