package fits

// File is the parsed, ordered sequence of HDUs making up a FITS file,
// per spec.md §4.7. It holds only header cards and data spans; pixel
// and column data are extracted on demand against the caller's backing
// byte slice.
type File struct {
	HDUs []*HDU
}

// Parse decodes raw into an ordered HDU list, per spec.md §4.7/§4.8: for
// each HDU, read cards until END, classify it, compute its data span,
// record it, and advance to the next block boundary past the (padded)
// data. A clean EOF right after a valid data pad ends parsing; an EOF in
// the middle of a header or data region is UnexpectedEOFError.
func Parse(raw []byte) (*File, error) {
	f := &File{}
	offset := 0
	for offset < len(raw) {
		hdu, next, err := parseOneHDU(raw, offset, len(f.HDUs))
		if err != nil {
			return nil, err
		}
		f.HDUs = append(f.HDUs, hdu)
		offset = next

		if hdu.Kind == KindRandomGroups {
			// Random-groups primary HDUs are read via the generalized
			// data-byte formula but are a terminal structure in this
			// core, matching the teacher's behavior of stopping after
			// the first unsupported-for-further-parsing primary.
			break
		}
	}
	return f, nil
}

// parseOneHDU reads one header (a run of cards terminated by END, the
// block padded with blank cards) starting at byte offset start, then
// computes and validates its data span.
//
// Cards are read 80 bytes at a time rather than a full 2880-byte block
// at a time: END can fall well before a block boundary, and a file
// truncated within the blank padding that follows END must still
// report the truncation as an UnexpectedEOFError against the whole
// HDU's computed byte extent (header blocks plus data span), not
// against the position of the card read itself.
func parseOneHDU(raw []byte, start, index int) (*HDU, int, error) {
	cl := NewCardList()
	pos := start
	seenEnd := false

	for !seenEnd {
		if pos+CardSize > len(raw) {
			headerBlocks := cl.Len()/CardsPerBlock + 1
			return nil, 0, &UnexpectedEOFError{Expected: headerBlocks * Block, Actual: len(raw) - start}
		}
		c, err := ParseCard(raw[pos : pos+CardSize])
		if err != nil {
			if ice, ok := err.(*InvalidCardBytesError); ok {
				ice.Offset = pos
			}
			return nil, 0, err
		}
		cl.Append(c)
		pos += CardSize
		if c.IsEnd() {
			seenEnd = true
		}
	}

	headerBlocks := (cl.Len() + CardsPerBlock - 1) / CardsPerBlock
	headerBytes := headerBlocks * Block

	kind, xten, err := Classify(cl)
	if err != nil {
		return nil, 0, err
	}
	if err := Validate(cl, kind, index); err != nil {
		return nil, 0, err
	}

	hdu := &HDU{Header: cl, Kind: kind, XTension: xten, HeaderOffset: start}
	if err := computeDataSpan(hdu); err != nil {
		return nil, 0, err
	}

	dataSpan := BlockCeil(hdu.DataLength)
	totalExtent := headerBytes + dataSpan
	if start+totalExtent > len(raw) {
		return nil, 0, &UnexpectedEOFError{Expected: totalExtent, Actual: len(raw) - start}
	}

	hdu.DataOffset = start + headerBytes
	return hdu, hdu.DataOffset + dataSpan, nil
}

// ByIndex returns the 0-based i'th HDU; index 0 is always the primary
// HDU, per spec.md §4.7.
func (f *File) ByIndex(i int) (*HDU, bool) {
	if i < 0 || i >= len(f.HDUs) {
		return nil, false
	}
	return f.HDUs[i], true
}

// ByName scans EXTNAME (and, failing that, HDUNAME) case-sensitively
// for the first matching HDU, per spec.md §4.7.
func (f *File) ByName(name string) (*HDU, bool) {
	for _, hdu := range f.HDUs {
		if v, ok := hdu.Header.GetString("EXTNAME"); ok && v == name {
			return hdu, true
		}
		if v, ok := hdu.Header.GetString("HDUNAME"); ok && v == name {
			return hdu, true
		}
	}
	return nil, false
}

// Serialize concatenates each HDU's header block(s) and data region (as
// originally spanned at parse time, or as recorded on an in-memory HDU)
// in order, producing a fresh byte slice, per spec.md §4.7.
//
// Serialize requires raw, the byte slice each HDU's data span refers
// to, for HDUs that were parsed rather than constructed in memory.
func (f *File) Serialize(raw []byte) ([]byte, error) {
	out := make([]byte, 0)
	for _, hdu := range f.HDUs {
		out = append(out, serializeHeader(hdu.Header)...)

		dataSpan := BlockCeil(hdu.DataLength)
		if dataSpan == 0 {
			continue
		}
		if hdu.DataOffset+dataSpan > len(raw) {
			return nil, &UnexpectedEOFError{Expected: dataSpan, Actual: len(raw) - hdu.DataOffset}
		}
		out = append(out, raw[hdu.DataOffset:hdu.DataOffset+dataSpan]...)
	}
	return out, nil
}
