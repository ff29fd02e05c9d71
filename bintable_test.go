package fits

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBinTFormSimple(t *testing.T) {
	col, err := ParseBinTForm("1J")
	require.NoError(t, err)
	assert.Equal(t, byte('J'), col.Code)
	assert.Equal(t, 1, col.Repeat)
	assert.Equal(t, 4, col.Width())
}

func TestParseBinTFormRepeatAndVLA(t *testing.T) {
	col, err := ParseBinTForm("10E")
	require.NoError(t, err)
	assert.Equal(t, 10, col.Repeat)
	assert.Equal(t, 40, col.Width())

	vla, err := ParseBinTForm("1PJ")
	require.NoError(t, err)
	assert.Equal(t, byte('P'), vla.Code)
	assert.Equal(t, byte('J'), vla.VLACode)
	assert.Equal(t, 8, vla.Width())
}

func TestParseBinTFormRejectsUnknownCode(t *testing.T) {
	_, err := ParseBinTForm("1Z")
	assert.Error(t, err)
	var ute *UnsupportedTFormError
	assert.ErrorAs(t, err, &ute)
}

// buildBinTableScenarioC builds spec.md §8 scenario C: a single-column
// binary table, TFORM1="1J", holding 3 rows.
func buildBinTableScenarioC(values []int32) []byte {
	cl := NewCardList()
	cl.Append(strCard("XTENSION", "BINTABLE"))
	cl.Append(intCard("BITPIX", 8))
	cl.Append(intCard("NAXIS", 2))
	cl.Append(intCard("NAXIS1", 4))
	cl.Append(intCard("NAXIS2", int64(len(values))))
	cl.Append(intCard("PCOUNT", 0))
	cl.Append(intCard("GCOUNT", 1))
	cl.Append(intCard("TFIELDS", 1))
	cl.Append(strCard("TFORM1", "1J"))
	cl.Append(strCard("TTYPE1", "VALUE"))
	header := buildHeaderBlock(cl)

	body := encodeInt32BE(values)
	body = padTo(body, PadNUL)

	return append(append([]byte(nil), header...), body...)
}

func TestParseScenarioCBinTable(t *testing.T) {
	raw := buildBinTableScenarioC([]int32{10, -20, 30})
	f, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, f.HDUs, 1)

	hdu := f.HDUs[0]
	assert.Equal(t, KindBinTable, hdu.Kind)

	col, err := ReadBinColumn(hdu, raw, 0)
	require.NoError(t, err)
	assert.Equal(t, []int32{10, -20, 30}, col.I32)
}

func TestParseBinTableColumnsWidthMismatchErrors(t *testing.T) {
	cl := NewCardList()
	cl.Append(strCard("XTENSION", "BINTABLE"))
	cl.Append(intCard("BITPIX", 8))
	cl.Append(intCard("NAXIS", 2))
	cl.Append(intCard("NAXIS1", 99)) // deliberately wrong
	cl.Append(intCard("NAXIS2", 1))
	cl.Append(intCard("PCOUNT", 0))
	cl.Append(intCard("GCOUNT", 1))
	cl.Append(intCard("TFIELDS", 1))
	cl.Append(strCard("TFORM1", "1J"))

	_, err := parseBinTableColumns(cl)
	assert.Error(t, err)
}

func TestWriteBinTableRoundTrip(t *testing.T) {
	cols := []BinTableWriteColumn{
		{Name: "VALUE", Form: "1J", Data: encodeInt32BE([]int32{1, 2, 3})},
	}
	out, err := WriteBinTable(cols, 3, nil, nil)
	require.NoError(t, err)

	f, err := Parse(out)
	require.NoError(t, err)

	col, err := ReadBinColumn(f.HDUs[0], out, 0)
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 2, 3}, col.I32)
}

func TestWriteBinTableWithHeapRoundTrip(t *testing.T) {
	// The row region (1 row, TFORM "1PJ" -> 8 bytes) is far short of one
	// block, so the heap's true start (THEAP) lands well past the
	// unpadded row bytes. This exercises the row-region block-pad gap
	// that WriteBinTable's PCOUNT/THEAP must account for.
	heapValues := []int32{7, 8, 9}
	heap := encodeInt32BE(heapValues)

	descriptor := make([]byte, 8)
	writeInt32BE(descriptor[0:4], int32(len(heapValues)))
	writeInt32BE(descriptor[4:8], 0)

	cols := []BinTableWriteColumn{
		{Name: "ARR", Form: "1PJ", Data: descriptor},
	}
	out, err := WriteBinTable(cols, 1, heap, nil)
	require.NoError(t, err)

	// The row region occupies one full block even though it is only 8
	// bytes of actual row data; the heap begins at the next block.
	require.Equal(t, 2*Block, len(out)-Block)

	f, err := Parse(out)
	require.NoError(t, err)
	hdu := f.HDUs[0]

	theap, ok := hdu.Header.GetInt("THEAP")
	require.True(t, ok)
	assert.EqualValues(t, Block, theap)

	col, err := ReadBinColumn(hdu, out, 0)
	require.NoError(t, err)
	require.Len(t, col.VLA, 1)
	assert.EqualValues(t, 3, col.VLA[0].NElem)
	assert.EqualValues(t, 0, col.VLA[0].Offset)

	vals, err := ReadVLA(hdu, out, 0, col.VLA[0])
	require.NoError(t, err)
	assert.Equal(t, heapValues, vals.I32)
}

func TestVLAHeapReadRoundTrip(t *testing.T) {
	// One row whose VLA descriptor points at 3 int32s in the heap.
	heap := encodeInt32BE([]int32{7, 8, 9})
	cl := NewCardList()
	cl.Append(strCard("XTENSION", "BINTABLE"))
	cl.Append(intCard("BITPIX", 8))
	cl.Append(intCard("NAXIS", 2))
	cl.Append(intCard("NAXIS1", 8))
	cl.Append(intCard("NAXIS2", 1))
	cl.Append(intCard("PCOUNT", int64(len(heap))))
	cl.Append(intCard("GCOUNT", 1))
	cl.Append(intCard("TFIELDS", 1))
	cl.Append(strCard("TFORM1", "1PJ"))
	header := buildHeaderBlock(cl)

	descRow := make([]byte, 8)
	writeInt32BE(descRow[0:4], 3)
	writeInt32BE(descRow[4:8], 0)
	body := padTo(append(append([]byte(nil), descRow...), heap...), PadNUL)

	raw := append(append([]byte(nil), header...), body...)
	f, err := Parse(raw)
	require.NoError(t, err)

	col, err := ReadBinColumn(f.HDUs[0], raw, 0)
	require.NoError(t, err)
	require.Len(t, col.VLA, 1)
	assert.EqualValues(t, 3, col.VLA[0].NElem)

	vals, err := ReadVLA(f.HDUs[0], raw, 0, col.VLA[0])
	require.NoError(t, err)
	assert.Equal(t, []int32{7, 8, 9}, vals.I32)
}

func TestHeapOutOfRangeError(t *testing.T) {
	cl := NewCardList()
	cl.Append(strCard("XTENSION", "BINTABLE"))
	cl.Append(intCard("BITPIX", 8))
	cl.Append(intCard("NAXIS", 2))
	cl.Append(intCard("NAXIS1", 8))
	cl.Append(intCard("NAXIS2", 1))
	cl.Append(intCard("PCOUNT", 0))
	cl.Append(intCard("GCOUNT", 1))
	cl.Append(intCard("TFIELDS", 1))
	cl.Append(strCard("TFORM1", "1PJ"))
	header := buildHeaderBlock(cl)

	descRow := make([]byte, 8)
	writeInt32BE(descRow[0:4], 5) // claims 5 elements but heap is empty
	writeInt32BE(descRow[4:8], 0)
	body := padTo(descRow, PadNUL)
	raw := append(append([]byte(nil), header...), body...)

	f, err := Parse(raw)
	require.NoError(t, err)
	col, err := ReadBinColumn(f.HDUs[0], raw, 0)
	require.NoError(t, err)

	_, err = ReadVLA(f.HDUs[0], raw, 0, col.VLA[0])
	assert.Error(t, err)
	var hoe *HeapOutOfRangeError
	assert.ErrorAs(t, err, &hoe)
}
