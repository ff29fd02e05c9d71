package fits

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func padCard(s string) []byte {
	return []byte(leftJustify(s, CardSize))
}

func TestParseCardValue(t *testing.T) {
	raw := padCard("BITPIX  =                   16 / bits per pixel")
	c, err := ParseCard(raw)
	require.NoError(t, err)
	assert.Equal(t, "BITPIX", c.Keyword)
	assert.True(t, c.HasValue)
	n, ok := c.Value.AsInt()
	assert.True(t, ok)
	assert.EqualValues(t, 16, n)
	assert.Equal(t, "bits per pixel", c.Comment)
}

func TestParseCardCommentary(t *testing.T) {
	raw := padCard("COMMENT this is free text")
	c, err := ParseCard(raw)
	require.NoError(t, err)
	assert.Equal(t, "COMMENT", c.Keyword)
	assert.False(t, c.HasValue)
	assert.Contains(t, c.Commentary, "this is free text")
}

func TestParseCardEnd(t *testing.T) {
	raw := padCard("END")
	c, err := ParseCard(raw)
	require.NoError(t, err)
	assert.True(t, c.IsEnd())
}

func TestParseCardRejectsWrongLength(t *testing.T) {
	_, err := ParseCard([]byte("too short"))
	assert.Error(t, err)
	var ice *InvalidCardBytesError
	assert.ErrorAs(t, err, &ice)
}

func TestParseCardRejectsControlBytes(t *testing.T) {
	raw := padCard("KEY     = 'x'")
	raw[15] = 0x01
	_, err := ParseCard(raw)
	assert.Error(t, err)
}

func TestCardBytesRoundTrip(t *testing.T) {
	c := NewValueCard("NAXIS1", Value{Kind: ValueInt, Int: 100}, "axis length")
	b := c.Bytes()
	assert.Equal(t, CardSize, len(b))

	reparsed, err := ParseCard(b[:])
	require.NoError(t, err)
	assert.Equal(t, "NAXIS1", reparsed.Keyword)
	n, _ := reparsed.Value.AsInt()
	assert.EqualValues(t, 100, n)
	assert.Equal(t, "axis length", reparsed.Comment)
}

func TestEndCardBytesRoundTrip(t *testing.T) {
	c := NewEndCard()
	b := c.Bytes()
	reparsed, err := ParseCard(b[:])
	require.NoError(t, err)
	assert.True(t, reparsed.IsEnd())
}

func TestCardListLookup(t *testing.T) {
	cl := NewCardList()
	cl.Append(NewValueCard("SIMPLE", Value{Kind: ValueLogical, Bool: true}, ""))
	cl.Append(NewValueCard("BITPIX", Value{Kind: ValueInt, Int: 16}, ""))
	cl.Append(NewEndCard())

	v, ok := cl.GetInt("BITPIX")
	assert.True(t, ok)
	assert.EqualValues(t, 16, v)

	b, ok := cl.GetBool("SIMPLE")
	assert.True(t, ok)
	assert.True(t, b)

	_, ok = cl.Get("NOPE")
	assert.False(t, ok)

	assert.Equal(t, 3, cl.Len())
}

func TestNth(t *testing.T) {
	assert.Equal(t, "NAXIS2", Nth("NAXIS", 2))
	assert.Equal(t, "TFORM10", Nth("TFORM", 10))
}

func TestValidateKeyword(t *testing.T) {
	assert.True(t, validateKeyword("NAXIS1"))
	assert.True(t, validateKeyword("HIERARCH"))
	assert.False(t, validateKeyword(""))
	assert.False(t, validateKeyword("123456789"))
	assert.False(t, validateKeyword("lower"))
}
