package fits

// buildHeaderBlock renders cards into a space-padded header block,
// appending the mandatory END card. Shared by every scenario builder in
// this package's tests.
func buildHeaderBlock(cl *CardList) []byte {
	cards := NewCardList()
	for _, c := range cl.Cards() {
		cards.Append(c)
	}
	cards.Append(NewEndCard())
	return serializeHeader(cards)
}

func intCard(name string, v int64) Card {
	return NewValueCard(name, Value{Kind: ValueInt, Int: v}, "")
}

func floatCard(name string, v float64, p Precision) Card {
	return NewValueCard(name, Value{Kind: ValueFloat, Float: v, Precision: p}, "")
}

func boolCard(name string, v bool) Card {
	return NewValueCard(name, Value{Kind: ValueLogical, Bool: v}, "")
}

func strCard(name, v string) Card {
	return NewValueCard(name, Value{Kind: ValueString, Str: v}, "")
}

// scenarioA builds the minimal 2x2 signed 16-bit primary image file from
// spec.md §8 scenario A: header (SIMPLE, BITPIX=16, NAXIS=2, NAXIS1=2,
// NAXIS2=2) followed by 8 bytes of big-endian int16 pixels, block padded.
func scenarioA(pixels []int16) []byte {
	cl := NewCardList()
	cl.Append(boolCard("SIMPLE", true))
	cl.Append(intCard("BITPIX", 16))
	cl.Append(intCard("NAXIS", 2))
	cl.Append(intCard("NAXIS1", 2))
	cl.Append(intCard("NAXIS2", 2))
	header := buildHeaderBlock(cl)

	body := encodeInt16BE(pixels)
	body = padTo(body, PadNUL)

	out := append([]byte(nil), header...)
	out = append(out, body...)
	return out
}

// scenarioB builds a 2x2 unsigned 16-bit image via the canonical
// BZERO=32768/BSCALE=1 recovery pair from spec.md §8 scenario B.
func scenarioB(raw []int16) []byte {
	cl := NewCardList()
	cl.Append(boolCard("SIMPLE", true))
	cl.Append(intCard("BITPIX", 16))
	cl.Append(intCard("NAXIS", 2))
	cl.Append(intCard("NAXIS1", 2))
	cl.Append(intCard("NAXIS2", 2))
	cl.Append(floatCard("BZERO", 32768, Double))
	cl.Append(floatCard("BSCALE", 1, Double))
	header := buildHeaderBlock(cl)

	body := encodeInt16BE(raw)
	body = padTo(body, PadNUL)

	out := append([]byte(nil), header...)
	out = append(out, body...)
	return out
}
