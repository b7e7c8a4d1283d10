package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLayoutConstants(t *testing.T) {
	// heading row + column header row
	assert.Equal(t, 2, HeaderSkipRows)
	// blank separator + next heading + next column header
	assert.Equal(t, 3, SectionTrailerRows)
}

func TestDataOffset(t *testing.T) {
	assert.Equal(t, 2, dataOffset(0))
	assert.Equal(t, 11, dataOffset(9))
}

func TestDataEnd(t *testing.T) {
	// The next heading sits at nextOffset-2 and the blank row before it at
	// nextOffset-3, so the section's last data row is nextOffset-4.
	next := dataOffset(9)
	end := dataEnd(next)
	assert.Equal(t, 8, end)
	assert.Equal(t, 9-1, end, "end is the blank separator row, exclusive")
}
