package fits

// ImageKind discriminates the typed image vector returned by reads, per
// spec.md §4.4. The three unsigned variants are only ever produced by a
// physical read that recognizes one of the standard's canonical
// unsigned-integer BSCALE/BZERO pairs.
type ImageKind int

const (
	ImgI8 ImageKind = iota
	ImgI16
	ImgI32
	ImgI64
	ImgF32
	ImgF64
	ImgU16
	ImgU32
	ImgU64
)

// Image is the typed, flat, Fortran-ordered (first axis fastest
// varying) pixel vector produced by a raw or physical image read, or
// consumed by a write. Exactly one of the slice fields is populated,
// selected by Kind.
type Image struct {
	Kind ImageKind
	I8   []uint8
	I16  []int16
	I32  []int32
	I64  []int64
	F32  []float32
	F64  []float64
	U16  []uint16
	U32  []uint32
	U64  []uint64
}

// Len reports the number of elements in the populated slice.
func (im Image) Len() int {
	switch im.Kind {
	case ImgI8:
		return len(im.I8)
	case ImgI16:
		return len(im.I16)
	case ImgI32:
		return len(im.I32)
	case ImgI64:
		return len(im.I64)
	case ImgF32:
		return len(im.F32)
	case ImgF64:
		return len(im.F64)
	case ImgU16:
		return len(im.U16)
	case ImgU32:
		return len(im.U32)
	case ImgU64:
		return len(im.U64)
	default:
		return 0
	}
}

func axisProduct(naxis []int) int {
	p := 1
	for _, n := range naxis {
		p *= n
	}
	return p
}

// ReadRawImage extracts hdu's data unit as a typed vector discriminated
// by BITPIX, applying no BSCALE/BZERO calibration, per spec.md §4.4
// "Read". raw is the full backing file buffer the HDU was parsed from.
func ReadRawImage(hdu *HDU, raw []byte) (Image, error) {
	if hdu.Kind == KindUnclassified {
		return Image{}, &UnsupportedExtensionError{XTension: hdu.XTension}
	}
	span := raw[hdu.DataOffset:]
	n := axisProduct(hdu.Naxis)
	need := hdu.DataLength
	if len(span) < need {
		return Image{}, &UnexpectedEOFError{Expected: need, Actual: len(span)}
	}
	data := span[:need]

	switch hdu.Bitpix {
	case 8:
		out := make([]uint8, n)
		copy(out, data)
		return Image{Kind: ImgI8, I8: out}, nil
	case 16:
		return Image{Kind: ImgI16, I16: decodeInt16BE(data, n)}, nil
	case 32:
		return Image{Kind: ImgI32, I32: decodeInt32BE(data, n)}, nil
	case 64:
		return Image{Kind: ImgI64, I64: decodeInt64BE(data, n)}, nil
	case -32:
		return Image{Kind: ImgF32, F32: decodeFloat32BE(data, n)}, nil
	case -64:
		return Image{Kind: ImgF64, F64: decodeFloat64BE(data, n)}, nil
	default:
		return Image{}, &InvalidBitpixError{Value: int64(hdu.Bitpix)}
	}
}

// ReadImage extracts hdu's data unit and, per opts, applies BSCALE/BZERO
// calibration (physical = BZERO + BSCALE*raw) and/or recovers the three
// canonical unsigned-integer representations, per spec.md §4.4
// "Physical values".
func ReadImage(hdu *HDU, raw []byte, opts Options) (Image, error) {
	rawImg, err := ReadRawImage(hdu, raw)
	if err != nil {
		return Image{}, err
	}

	bzero, hasBzero := hdu.Header.GetFloat("BZERO")
	bscale, hasBscale := hdu.Header.GetFloat("BSCALE")
	if !hasBscale {
		bscale = 1
	}
	if !hasBzero {
		bzero = 0
	}

	if !opts.ApplyBscaleBzero || (!hasBzero && !hasBscale) {
		return rawImg, nil
	}

	if opts.RecoverUnsigned {
		if img, ok := recoverUnsigned(hdu.Bitpix, bzero, bscale, rawImg); ok {
			return img, nil
		}
	}

	return applyAffine(rawImg, bzero, bscale), nil
}

// recoverUnsigned implements the three canonical unsigned recoveries
// named in spec.md §4.4: BITPIX=16/BZERO=32768/BSCALE=1 -> U16,
// BITPIX=32/BZERO=2147483648/BSCALE=1 -> U32, and the analogous U64
// case. Any other scale pair returns ok=false so the caller falls back
// to the general F64 affine transform.
func recoverUnsigned(bitpix int, bzero, bscale float64, raw Image) (Image, bool) {
	if bscale != 1 {
		return Image{}, false
	}
	switch {
	case bitpix == 16 && bzero == 32768:
		out := make([]uint16, len(raw.I16))
		for i, v := range raw.I16 {
			out[i] = uint16(v) + 32768
		}
		return Image{Kind: ImgU16, U16: out}, true
	case bitpix == 32 && bzero == 2147483648:
		out := make([]uint32, len(raw.I32))
		for i, v := range raw.I32 {
			out[i] = uint32(v) + 2147483648
		}
		return Image{Kind: ImgU32, U32: out}, true
	case bitpix == 64 && bzero == 9223372036854775808:
		out := make([]uint64, len(raw.I64))
		for i, v := range raw.I64 {
			out[i] = uint64(v) + 9223372036854775808
		}
		return Image{Kind: ImgU64, U64: out}, true
	}
	return Image{}, false
}

// applyAffine computes physical = bzero + bscale*raw elementwise,
// always producing F64 regardless of the source BITPIX, per spec.md
// §4.4.
func applyAffine(raw Image, bzero, bscale float64) Image {
	n := raw.Len()
	out := make([]float64, n)
	switch raw.Kind {
	case ImgI8:
		for i, v := range raw.I8 {
			out[i] = bzero + bscale*float64(v)
		}
	case ImgI16:
		for i, v := range raw.I16 {
			out[i] = bzero + bscale*float64(v)
		}
	case ImgI32:
		for i, v := range raw.I32 {
			out[i] = bzero + bscale*float64(v)
		}
	case ImgI64:
		for i, v := range raw.I64 {
			out[i] = bzero + bscale*float64(v)
		}
	case ImgF32:
		for i, v := range raw.F32 {
			out[i] = bzero + bscale*float64(v)
		}
	case ImgF64:
		for i, v := range raw.F64 {
			out[i] = bzero + bscale*v
		}
	}
	return Image{Kind: ImgF64, F64: out}
}

// Range is a half-open, 0-based coordinate range [Lo, Hi) along one
// axis of a sub-region request, per spec.md §4.4 "Sub-region".
type Range struct {
	Lo, Hi int
}

// ReadRegion reads an axis-aligned sub-region of hdu's raw image data.
// ranges has one entry per axis, in the same Fortran (first axis
// fastest-varying) order as Naxis. The reader walks every combination
// of the non-fastest axes and copies one contiguous stripe per
// combination along axis 0, then converts the byte order of the
// collected stripes in one pass, so pixels outside the region are never
// decoded.
func ReadRegion(hdu *HDU, raw []byte, ranges []Range) (Image, error) {
	if hdu.Kind == KindUnclassified {
		return Image{}, &UnsupportedExtensionError{XTension: hdu.XTension}
	}
	if len(ranges) != len(hdu.Naxis) {
		return Image{}, &InvalidHeaderError{Reason: "region rank does not match NAXIS"}
	}
	for axis, r := range ranges {
		n := hdu.Naxis[axis]
		if r.Lo < 0 || r.Hi < r.Lo || r.Hi > n {
			return Image{}, &RegionOutOfBoundsError{Axis: axis, Lo: r.Lo, Hi: r.Hi, NAxis: n}
		}
	}

	elemSize := bitpixBytes(hdu.Bitpix)
	span := raw[hdu.DataOffset:]
	if len(span) < hdu.DataLength {
		return Image{}, &UnexpectedEOFError{Expected: hdu.DataLength, Actual: len(span)}
	}
	data := span[:hdu.DataLength]

	stripeLen := ranges[0].Hi - ranges[0].Lo
	totalStripes := 1
	for axis := 1; axis < len(ranges); axis++ {
		totalStripes *= ranges[axis].Hi - ranges[axis].Lo
	}

	out := make([]byte, 0, totalStripes*stripeLen*elemSize)
	idx := make([]int, len(ranges))
	for axis := range idx {
		idx[axis] = ranges[axis].Lo
	}
	idx[0] = 0 // axis 0 is copied as a whole stripe below; outer index is unused for it

	for s := 0; s < totalStripes; s++ {
		offset := byteOffset(hdu.Naxis, idx, ranges[0].Lo, elemSize)
		out = append(out, data[offset:offset+stripeLen*elemSize]...)

		for axis := 1; axis < len(idx); axis++ {
			idx[axis]++
			if idx[axis] < ranges[axis].Hi {
				break
			}
			idx[axis] = ranges[axis].Lo
		}
	}

	n := totalStripes * stripeLen
	switch hdu.Bitpix {
	case 8:
		res := make([]uint8, n)
		copy(res, out)
		return Image{Kind: ImgI8, I8: res}, nil
	case 16:
		return Image{Kind: ImgI16, I16: decodeInt16BE(out, n)}, nil
	case 32:
		return Image{Kind: ImgI32, I32: decodeInt32BE(out, n)}, nil
	case 64:
		return Image{Kind: ImgI64, I64: decodeInt64BE(out, n)}, nil
	case -32:
		return Image{Kind: ImgF32, F32: decodeFloat32BE(out, n)}, nil
	case -64:
		return Image{Kind: ImgF64, F64: decodeFloat64BE(out, n)}, nil
	default:
		return Image{}, &InvalidBitpixError{Value: int64(hdu.Bitpix)}
	}
}

// byteOffset computes the byte offset of element idx (with idx[0]
// overridden by axis0Start) within a Fortran-ordered flat array shaped
// naxis.
func byteOffset(naxis []int, idx []int, axis0Start, elemSize int) int {
	flat := 0
	stride := 1
	for axis, n := range naxis {
		coord := idx[axis]
		if axis == 0 {
			coord = axis0Start
		}
		flat += coord * stride
		stride *= n
	}
	return flat * elemSize
}

func bitpixBytes(bitpix int) int {
	if bitpix < 0 {
		bitpix = -bitpix
	}
	return bitpix / 8
}

// WriteImage serializes a complete primary-image HDU: the header cards
// (SIMPLE, BITPIX, NAXIS, each NAXISn, optional BSCALE/BZERO, then extraCards,
// then END), space-padded to a block boundary, followed by the
// big-endian data, NUL-padded to a block boundary, per spec.md §4.4
// "Write". data's element count must equal the product of axes.
func WriteImage(bitpix int, axes []int, data Image, bzero, bscale *float64, extraCards []Card) ([]byte, error) {
	if !validBitpix(int64(bitpix)) {
		return nil, &InvalidBitpixError{Value: int64(bitpix)}
	}
	want := axisProduct(axes)
	if data.Len() != want {
		return nil, &IntegrityViolationError{Reason: "image data length does not match axis product"}
	}

	cl := NewCardList()
	cl.Append(NewValueCard("SIMPLE", Value{Kind: ValueLogical, Bool: true}, ""))
	cl.Append(NewValueCard("BITPIX", Value{Kind: ValueInt, Int: int64(bitpix)}, ""))
	cl.Append(NewValueCard("NAXIS", Value{Kind: ValueInt, Int: int64(len(axes))}, ""))
	for i, n := range axes {
		cl.Append(NewValueCard(Nth("NAXIS", i+1), Value{Kind: ValueInt, Int: int64(n)}, ""))
	}
	if bscale != nil {
		cl.Append(NewValueCard("BSCALE", Value{Kind: ValueFloat, Float: *bscale, Precision: Double}, ""))
	}
	if bzero != nil {
		cl.Append(NewValueCard("BZERO", Value{Kind: ValueFloat, Float: *bzero, Precision: Double}, ""))
	}
	for _, c := range extraCards {
		cl.Append(c)
	}
	cl.Append(NewEndCard())

	header := serializeHeader(cl)

	var body []byte
	switch data.Kind {
	case ImgI8:
		body = append([]byte(nil), data.I8...)
	case ImgI16:
		body = encodeInt16BE(data.I16)
	case ImgI32:
		body = encodeInt32BE(data.I32)
	case ImgI64:
		body = encodeInt64BE(data.I64)
	case ImgF32:
		body = encodeFloat32BE(data.F32)
	case ImgF64:
		body = encodeFloat64BE(data.F64)
	default:
		return nil, &IntegrityViolationError{Reason: "cannot write unsigned-recovered image kind directly; convert to a signed/float Image first"}
	}
	body = padTo(body, PadNUL)

	out := make([]byte, 0, len(header)+len(body))
	out = append(out, header...)
	out = append(out, body...)
	return out, nil
}

// serializeHeader renders cl into space-padded 80-byte cards, block
// padded per spec.md §4.1/§4.4.
func serializeHeader(cl *CardList) []byte {
	out := make([]byte, 0, cl.Len()*CardSize)
	for _, c := range cl.Cards() {
		b := c.Bytes()
		out = append(out, b[:]...)
	}
	return padTo(out, PadSpace)
}
