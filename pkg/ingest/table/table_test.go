package table

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	aterrors "github.com/otherjamesbrown/attend-cli/pkg/errors"
)

const teamsExport = "1. Summary\n" +
	"Start time\t03/21/24, 02:15:07 PM\n" +
	"\n" +
	"2. Participants\n" +
	"Name\tFirst Join\tEmail\n" +
	"Alice\t03/21/24, 02:14:00 PM\talice@example.com\n"

func TestRead_KeepsBlankLines(t *testing.T) {
	rows, err := Read(context.Background(), strings.NewReader(teamsExport), Options{Delimiter: `\t`})
	require.NoError(t, err)

	require.Len(t, rows, 6)
	assert.Equal(t, []string{"1. Summary"}, rows[0])
	assert.Equal(t, []string{"Start time", "03/21/24, 02:15:07 PM"}, rows[1])
	assert.Empty(t, rows[2])
	assert.Equal(t, []string{"Alice", "03/21/24, 02:14:00 PM", "alice@example.com"}, rows[5])
}

func TestRead_CommaWithQuotes(t *testing.T) {
	input := "Start time,\"03/21/24, 02:15:07 PM\"\r\n\r\nName,Email\r\n"

	rows, err := Read(context.Background(), strings.NewReader(input), DefaultOptions())
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Start time", "03/21/24, 02:15:07 PM"}, rows[0])
	assert.Empty(t, rows[1])
	assert.Equal(t, []string{"Name", "Email"}, rows[2])
}

func TestRead_UTF16WithBOM(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	encoded, err := enc.String(teamsExport)
	require.NoError(t, err)

	rows, err := Read(context.Background(), strings.NewReader(encoded), Options{Encoding: "utf-16", Delimiter: "tab"})
	require.NoError(t, err)

	require.Len(t, rows, 6)
	assert.Equal(t, "1. Summary", rows[0][0], "BOM must not leak into the first field")
	assert.Equal(t, "alice@example.com", rows[5][2])
}

func TestRead_UTF8BOMStripped(t *testing.T) {
	rows, err := Read(context.Background(), strings.NewReader("\ufeffStart time,x\n"), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "Start time", rows[0][0])
}

func TestRead_Windows1252(t *testing.T) {
	encoded, err := charmap.Windows1252.NewEncoder().String("Zoë,zoe@example.com\n")
	require.NoError(t, err)

	rows, err := Read(context.Background(), strings.NewReader(encoded), Options{Encoding: "windows-1252", Delimiter: ","})
	require.NoError(t, err)
	assert.Equal(t, []string{"Zoë", "zoe@example.com"}, rows[0])
}

func TestRead_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Read(ctx, strings.NewReader(teamsExport), Options{Delimiter: "\t"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attendance.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n\nc\n"), 0o600))

	rows, err := ReadFile(context.Background(), path, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {}, {"c"}}, rows)

	_, err = ReadFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), DefaultOptions())
	require.Error(t, err)
	assert.Equal(t, aterrors.CodeIO, aterrors.CodeOf(err))
}

func TestParseDelimiter(t *testing.T) {
	tests := []struct {
		in      string
		want    rune
		wantErr bool
	}{
		{"", ',', false},
		{",", ',', false},
		{";", ';', false},
		{`\t`, '\t', false},
		{"TAB", '\t', false},
		{"\t", '\t', false},
		{"::", 0, true},
		{`"`, 0, true},
		{"\n", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDelimiter(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, aterrors.IsInvalidConfig(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLookupEncoding(t *testing.T) {
	for _, name := range []string{"", "utf-8", "UTF8", "utf-16", "utf-16le", "utf-16be", "latin1", "windows-1252"} {
		t.Run(name, func(t *testing.T) {
			enc, err := LookupEncoding(name)
			require.NoError(t, err)
			assert.NotNil(t, enc)
		})
	}

	_, err := LookupEncoding("klingon")
	require.Error(t, err)
	assert.True(t, aterrors.IsInvalidConfig(err))
}
