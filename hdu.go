package fits

// HDUKind discriminates an HDU by its mandatory keywords, per spec.md §3.
type HDUKind int

const (
	KindPrimaryImage HDUKind = iota
	KindImageExtension
	KindASCIITable
	KindBinTable
	KindRandomGroups
	KindUnclassified
)

func (k HDUKind) String() string {
	switch k {
	case KindPrimaryImage:
		return "SIMPLE"
	case KindImageExtension:
		return "IMAGE"
	case KindASCIITable:
		return "TABLE"
	case KindBinTable:
		return "BINTABLE"
	case KindRandomGroups:
		return "GROUPS"
	default:
		return "UNKNOWN"
	}
}

// HDU is a Header/Data Unit: an ordered header card list plus the byte
// span of its data region within the backing file buffer. HDU does not
// itself hold a copy of the data; typed extraction (ReadImage, table
// column reads) takes the backing slice explicitly so that read-only
// parses can stay zero-copy, per spec.md §9 "Backing-buffer ownership".
type HDU struct {
	Header *CardList
	Kind   HDUKind

	XTension string // raw XTENSION string value, trimmed, for KindUnclassified/others

	// Naxis[i] is NAXIS(i+1). Empty for a headerless-data HDU (NAXIS=0).
	Naxis  []int
	Bitpix int

	PCount int
	GCount int

	// HeaderOffset/DataOffset/DataLength are byte offsets (and the
	// pre-padding length) within the file slice the HDU was parsed
	// from. They are zero-valued for HDUs constructed in memory rather
	// than parsed.
	HeaderOffset int
	DataOffset   int
	DataLength   int // pre-padding byte count; the on-disk span is BlockCeil(DataLength)
}

// Classify inspects cards' first card and any XTENSION value to
// determine the HDU kind, per spec.md §4.3: SIMPLE=T (any value) is
// always a primary HDU; otherwise the first card must be XTENSION with
// a string value, whose trimmed value selects IMAGE/TABLE/BINTABLE/
// other.
func Classify(cards *CardList) (HDUKind, string, error) {
	all := cards.Cards()
	if len(all) == 0 {
		return 0, "", &InvalidHeaderError{Reason: "empty header"}
	}
	first := all[0]

	if first.Keyword == "SIMPLE" {
		naxis1, _ := cards.GetInt("NAXIS1")
		groups, hasGroups := cards.GetBool("GROUPS")
		pcount, _ := cards.GetInt("PCOUNT")
		if hasGroups && groups && naxis1 == 0 && pcount > 0 {
			return KindRandomGroups, "", nil
		}
		return KindPrimaryImage, "", nil
	}

	if first.Keyword == "XTENSION" {
		xten, ok := first.Value.AsString()
		if !ok {
			return 0, "", &InvalidHeaderError{Reason: "XTENSION value is not a string"}
		}
		switch xten {
		case "IMAGE":
			return KindImageExtension, xten, nil
		case "TABLE":
			return KindASCIITable, xten, nil
		case "BINTABLE":
			return KindBinTable, xten, nil
		default:
			return KindUnclassified, xten, nil
		}
	}

	return 0, "", &InvalidHeaderError{Reason: "first card is neither SIMPLE nor XTENSION"}
}

// Validate checks cards against the mandatory keywords for kind,
// accumulating every violation into a HeaderValidationError instead of
// stopping at the first, per spec.md §4.3/§7. It returns nil if there
// are no violations.
func Validate(cards *CardList, kind HDUKind, hduIndex int) error {
	errs := &HeaderValidationError{HDUIndex: hduIndex}

	bitpix, hasBitpix := cards.GetInt("BITPIX")
	if !hasBitpix {
		errs.Add(&MissingKeywordError{Name: "BITPIX"})
	} else if !validBitpix(bitpix) {
		errs.Add(&InvalidBitpixError{Value: bitpix})
	}

	naxis, hasNaxis := cards.GetInt("NAXIS")
	if !hasNaxis {
		errs.Add(&MissingKeywordError{Name: "NAXIS"})
	} else {
		if naxis < 0 || naxis > 999 {
			errs.Add(&InvalidHeaderError{Reason: "NAXIS out of range [0,999]"})
		}
		for i := 1; i <= int(naxis); i++ {
			if _, ok := cards.GetInt(Nth("NAXIS", i)); !ok {
				errs.Add(&MissingKeywordError{Name: Nth("NAXIS", i)})
			}
		}
	}

	switch kind {
	case KindImageExtension, KindASCIITable, KindBinTable, KindUnclassified:
		if _, ok := cards.GetInt("PCOUNT"); !ok {
			errs.Add(&MissingKeywordError{Name: "PCOUNT"})
		}
		if _, ok := cards.GetInt("GCOUNT"); !ok {
			errs.Add(&MissingKeywordError{Name: "GCOUNT"})
		}
	}

	switch kind {
	case KindImageExtension:
		if pcount, ok := cards.GetInt("PCOUNT"); ok && pcount != 0 {
			errs.Add(&InvalidHeaderError{Reason: "PCOUNT must be 0 in IMAGE extension"})
		}
		if gcount, ok := cards.GetInt("GCOUNT"); ok && gcount != 1 {
			errs.Add(&InvalidHeaderError{Reason: "GCOUNT must be 1 in IMAGE extension"})
		}
	case KindASCIITable, KindBinTable:
		if naxis != 2 {
			errs.Add(&InvalidHeaderError{Reason: "NAXIS must be 2 in TABLE/BINTABLE"})
		}
		tfields, ok := cards.GetInt("TFIELDS")
		if !ok {
			errs.Add(&MissingKeywordError{Name: "TFIELDS"})
		} else {
			for i := 1; i <= int(tfields); i++ {
				if _, ok := cards.GetString(Nth("TFORM", i)); !ok {
					errs.Add(&MissingKeywordError{Name: Nth("TFORM", i)})
				}
				if kind == KindASCIITable {
					if _, ok := cards.GetInt(Nth("TBCOL", i)); !ok {
						errs.Add(&MissingKeywordError{Name: Nth("TBCOL", i)})
					}
				}
			}
		}
	}

	for _, c := range cards.Cards() {
		if c.Keyword == "" {
			continue
		}
		if !validateKeyword(c.Keyword) {
			errs.Add(&InvalidHeaderError{Reason: "keyword " + c.Keyword + " violates [A-Z0-9_-]{1,8}"})
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// ReadOpaqueData returns hdu's data unit verbatim, per spec.md §3
// "Conforming but unclassified: header is preserved verbatim, data is
// an opaque byte span." This is the only typed accessor that accepts a
// KindUnclassified HDU; ReadImage/ReadBinColumn/ReadAsciiColumn all
// reject one with UnsupportedExtensionError, per spec.md §7.
func (hdu *HDU) ReadOpaqueData(raw []byte) ([]byte, error) {
	span := raw[hdu.DataOffset:]
	if len(span) < hdu.DataLength {
		return nil, &UnexpectedEOFError{Expected: hdu.DataLength, Actual: len(span)}
	}
	return span[:hdu.DataLength], nil
}

func validBitpix(v int64) bool {
	switch v {
	case 8, 16, 32, 64, -32, -64:
		return true
	default:
		return false
	}
}

// axes reads NAXIS/NAXISn into a slice, assuming the header has already
// passed Validate.
func axes(cards *CardList) []int {
	naxis, _ := cards.GetInt("NAXIS")
	out := make([]int, naxis)
	for i := range out {
		n, _ := cards.GetInt(Nth("NAXIS", i+1))
		out[i] = int(n)
	}
	return out
}

// dataByteLength computes the pre-padding data-unit byte count per
// spec.md invariant 3: axis-product * |BITPIX|/8 * GCOUNT *
// (PCOUNT + axis-product-without-gcount)... the standard's actual
// formula (FITS 3.0 §3.3.2) is:
//
//	N_bytes = (|BITPIX|/8) * GCOUNT * (PCOUNT + NAXIS1*NAXIS2*...*NAXISm)
//
// which is what this computes; GCOUNT=1, PCOUNT=0 for ordinary images
// and tables, reducing it to (|BITPIX|/8) * product(NAXISn).
func dataByteLength(naxis []int, bitpix int, pcount, gcount int64) int {
	prod := int64(1)
	for _, n := range naxis {
		prod *= int64(n)
	}
	bytesPerElem := int64(bitpix)
	if bytesPerElem < 0 {
		bytesPerElem = -bytesPerElem
	}
	bytesPerElem /= 8
	return int(bytesPerElem * gcount * (pcount + prod))
}

// computeDataSpan computes an HDU's data byte length from its already-
// validated header, filling in Naxis/Bitpix/PCount/GCount on hdu.
func computeDataSpan(hdu *HDU) error {
	bitpix, ok := hdu.Header.GetInt("BITPIX")
	if !ok {
		return &MissingKeywordError{Name: "BITPIX"}
	}
	hdu.Bitpix = int(bitpix)
	hdu.Naxis = axes(hdu.Header)

	pcount, _ := hdu.Header.GetInt("PCOUNT")
	gcount, _ := hdu.Header.GetInt("GCOUNT")
	if gcount == 0 {
		gcount = 1
	}
	hdu.PCount = int(pcount)
	hdu.GCount = int(gcount)

	if len(hdu.Naxis) == 0 {
		hdu.DataLength = 0
		return nil
	}

	for i, n := range hdu.Naxis {
		if n < 0 {
			return wrapIntegrity("negative NAXIS"+Nth("", i+1), nil)
		}
	}

	axesForData := hdu.Naxis
	if hdu.Kind == KindRandomGroups && len(hdu.Naxis) > 0 {
		// NAXIS1 is the random-groups flag value (always 0), not an axis
		// of the per-group image; the true image shape is NAXIS2..NAXISn.
		axesForData = hdu.Naxis[1:]
	}

	hdu.DataLength = dataByteLength(axesForData, hdu.Bitpix, pcount, gcount)
	return nil
}
