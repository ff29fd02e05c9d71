package fits

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAsciiTForm(t *testing.T) {
	code, w, d, err := ParseAsciiTForm("A8")
	require.NoError(t, err)
	assert.Equal(t, byte('A'), code)
	assert.Equal(t, 8, w)
	assert.Equal(t, 0, d)

	code, w, d, err = ParseAsciiTForm("F10.3")
	require.NoError(t, err)
	assert.Equal(t, byte('F'), code)
	assert.Equal(t, 10, w)
	assert.Equal(t, 3, d)
}

func TestParseAsciiTFormRejectsUnknownCode(t *testing.T) {
	_, _, _, err := ParseAsciiTForm("Z8")
	assert.Error(t, err)
}

// buildAsciiTableScenarioD builds spec.md §8 scenario D: an ASCII table
// with one A8 field and one I5 field, laid out at columns 1 and 10.
func buildAsciiTableScenarioD(names []string, ids []int64) []byte {
	naxis1 := 14
	cl := NewCardList()
	cl.Append(strCard("XTENSION", "TABLE"))
	cl.Append(intCard("BITPIX", 8))
	cl.Append(intCard("NAXIS", 2))
	cl.Append(intCard("NAXIS1", int64(naxis1)))
	cl.Append(intCard("NAXIS2", int64(len(names))))
	cl.Append(intCard("PCOUNT", 0))
	cl.Append(intCard("GCOUNT", 1))
	cl.Append(intCard("TFIELDS", 2))
	cl.Append(intCard("TBCOL1", 1))
	cl.Append(strCard("TFORM1", "A8"))
	cl.Append(strCard("TTYPE1", "NAME"))
	cl.Append(intCard("TBCOL2", 10))
	cl.Append(strCard("TFORM2", "I5"))
	cl.Append(strCard("TTYPE2", "ID"))
	header := buildHeaderBlock(cl)

	rows := make([]byte, 0, naxis1*len(names))
	for i, name := range names {
		row := make([]byte, naxis1)
		for j := range row {
			row[j] = ' '
		}
		copy(row[0:8], leftJustify(truncate(name, 8), 8))
		idField := rightJustify(strconv.FormatInt(ids[i], 10), 5)
		copy(row[9:14], idField)
		rows = append(rows, row...)
	}
	body := padTo(rows, PadNUL)

	return append(append([]byte(nil), header...), body...)
}

func TestParseScenarioDAsciiTable(t *testing.T) {
	raw := buildAsciiTableScenarioD([]string{"alpha", "beta"}, []int64{1, 42})
	f, err := Parse(raw)
	require.NoError(t, err)

	hdu := f.HDUs[0]
	assert.Equal(t, KindASCIITable, hdu.Kind)

	names, err := ReadAsciiColumn(hdu, raw, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, names.Strings)

	ids, err := ReadAsciiColumn(hdu, raw, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 42}, ids.Ints)
}

func TestAsciiColumnOverlapRejected(t *testing.T) {
	cl := NewCardList()
	cl.Append(strCard("XTENSION", "TABLE"))
	cl.Append(intCard("BITPIX", 8))
	cl.Append(intCard("NAXIS", 2))
	cl.Append(intCard("NAXIS1", 10))
	cl.Append(intCard("NAXIS2", 1))
	cl.Append(intCard("PCOUNT", 0))
	cl.Append(intCard("GCOUNT", 1))
	cl.Append(intCard("TFIELDS", 2))
	cl.Append(intCard("TBCOL1", 1))
	cl.Append(strCard("TFORM1", "A5"))
	cl.Append(intCard("TBCOL2", 3))
	cl.Append(strCard("TFORM2", "A5"))

	_, err := parseAsciiTableColumns(cl)
	assert.Error(t, err)
}

func TestAsciiColumnNullField(t *testing.T) {
	cl := NewCardList()
	cl.Append(strCard("XTENSION", "TABLE"))
	cl.Append(intCard("BITPIX", 8))
	cl.Append(intCard("NAXIS", 2))
	cl.Append(intCard("NAXIS1", 5))
	cl.Append(intCard("NAXIS2", 1))
	cl.Append(intCard("PCOUNT", 0))
	cl.Append(intCard("GCOUNT", 1))
	cl.Append(intCard("TFIELDS", 1))
	cl.Append(intCard("TBCOL1", 1))
	cl.Append(strCard("TFORM1", "I5"))
	header := buildHeaderBlock(cl)

	body := padTo([]byte("     "), PadNUL) // blank field, block-tail padded with NUL
	raw := append(append([]byte(nil), header...), body...)

	f, err := Parse(raw)
	require.NoError(t, err)

	col, err := ReadAsciiColumn(f.HDUs[0], raw, 0)
	require.NoError(t, err)
	require.Len(t, col.Null, 1)
	assert.True(t, col.Null[0])
}

func TestWriteAsciiTableRoundTrip(t *testing.T) {
	cols := []AsciiTableWriteColumn{
		{Name: "NAME", Form: "A8", TBCol: 1, Strings: []string{"alpha", "beta"}},
		{Name: "ID", Form: "I5", TBCol: 10, Ints: []int64{1, 42}},
	}
	out, err := WriteAsciiTable(cols, 2, nil)
	require.NoError(t, err)

	// The row bytes themselves (NAXIS1*NAXIS2 = 14*2 = 28, TBCol2+width-1
	// sets NAXIS1 to 14) fall well short of one block; everything from
	// there to the block boundary must be NUL, not the ASCII space used
	// to fill unused in-row field bytes.
	rowBytes := 14 * 2
	for i := rowBytes; i < len(out)-Block; i++ {
		require.Equalf(t, byte(0), out[Block+i], "block-tail pad byte %d is %q, want NUL", i, out[Block+i])
	}

	f, err := Parse(out)
	require.NoError(t, err)

	names, err := ReadAsciiColumn(f.HDUs[0], out, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, names.Strings)
}
