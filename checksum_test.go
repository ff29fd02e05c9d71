package fits

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataSumCommutesOverConcatenation(t *testing.T) {
	a := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	b := []byte{9, 10, 11, 12}

	whole := DataSum(append(append([]byte(nil), a...), b...))
	incremental := onesComplementSum(b, onesComplementSum(a, 0))
	assert.Equal(t, whole, incremental)
}

func TestDataSumHandlesShortFinalWord(t *testing.T) {
	data := []byte{1, 2, 3}
	sum := DataSum(data)
	assert.NotZero(t, sum)
}

func TestEncodeDecodeChecksumRoundTrip(t *testing.T) {
	s := encodeChecksum(0xDEADBEEF)
	assert.Len(t, s, 16)
	v, ok := decodeChecksum(s)
	require.True(t, ok)
	assert.Equal(t, uint32(0xDEADBEEF), v)
}

func TestVerifyChecksumNoKeywordsIsTrivialPass(t *testing.T) {
	raw := scenarioA([]int16{1, 2, 3, 4})
	f, err := Parse(raw)
	require.NoError(t, err)

	ok, err := VerifyChecksum(f.HDUs[0], raw)
	require.NoError(t, err)
	assert.True(t, ok)
}

// stampChecksum rebuilds hdu's header with DATASUM and CHECKSUM cards
// computed over dataBytes, returning the full file bytes. The
// CHECKSUM value is computed with a placeholder card already in place
// so the set of hashed cards matches what a later VerifyChecksum pass
// (which zeros CHECKSUM in place, not removes it) will see.
func stampChecksum(hdu *HDU, dataBytes []byte) []byte {
	dataSum := DataSum(dataBytes)

	withPlaceholder := NewCardList()
	for _, c := range hdu.Header.Cards() {
		if c.IsEnd() {
			continue
		}
		withPlaceholder.Append(c)
	}
	withPlaceholder.Append(strCard("DATASUM", strconv.FormatUint(uint64(dataSum), 10)))
	withPlaceholder.Append(strCard("CHECKSUM", "0000000000000000"))
	withPlaceholder.Append(NewEndCard())

	checksum := HeaderChecksum(withPlaceholder, dataSum)

	final := NewCardList()
	for _, c := range withPlaceholder.Cards() {
		if c.Keyword == "CHECKSUM" {
			final.Append(strCard("CHECKSUM", checksum))
			continue
		}
		final.Append(c)
	}
	header := serializeHeader(final)

	return append(append([]byte(nil), header...), dataBytes...)
}

func TestVerifyChecksumRoundTrip(t *testing.T) {
	raw := scenarioA([]int16{5, 6, 7, 8})
	f, err := Parse(raw)
	require.NoError(t, err)
	hdu := f.HDUs[0]

	dataBytes := raw[hdu.DataOffset : hdu.DataOffset+BlockCeil(hdu.DataLength)]
	withChecksum := stampChecksum(hdu, dataBytes)

	f2, err := Parse(withChecksum)
	require.NoError(t, err)

	ok, err := VerifyChecksum(f2.HDUs[0], withChecksum)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyChecksumDetectsCorruption(t *testing.T) {
	raw := scenarioA([]int16{5, 6, 7, 8})
	f, err := Parse(raw)
	require.NoError(t, err)
	hdu := f.HDUs[0]

	dataBytes := raw[hdu.DataOffset : hdu.DataOffset+BlockCeil(hdu.DataLength)]
	withChecksum := stampChecksum(hdu, dataBytes)

	corrupted := append([]byte(nil), withChecksum...)
	corrupted[hdu.DataOffset] ^= 0xFF // corrupt one data byte, header untouched

	f2, err := Parse(corrupted)
	require.NoError(t, err)

	ok, err := VerifyChecksum(f2.HDUs[0], corrupted)
	require.NoError(t, err)
	assert.False(t, ok)
}
