package fits

// Group is one random-groups record: its PCOUNT leading parameter
// values followed by one GCOUNT-th of the image data, per FITS Standard
// 3.0 §7 and SPEC_FULL.md §4.12. Random-groups primary HDUs are
// read-only in this core, matching spec.md's "read-only in this core"
// for random groups.
type Group struct {
	Params []float64
	Data   Image
}

// ReadGroups decodes every group in a KindRandomGroups HDU. For a
// random-groups primary, NAXIS1 is always 0 and the true per-group
// image shape is NAXIS2..NAXISn (spec.md §3 "Random-groups primary");
// GCOUNT groups follow, each PCOUNT parameter values of the HDU's
// BITPIX type plus one image of that shape.
func (hdu *HDU) ReadGroups(raw []byte) ([]Group, error) {
	if hdu.Kind != KindRandomGroups {
		return nil, &InvalidHeaderError{Reason: "HDU is not a random-groups primary"}
	}
	if len(hdu.Naxis) < 2 {
		return nil, &InvalidHeaderError{Reason: "random-groups HDU needs NAXIS >= 2"}
	}

	imgAxes := hdu.Naxis[1:]
	imgLen := axisProduct(imgAxes)
	elemSize := bitpixBytes(hdu.Bitpix)
	groupLen := hdu.PCount + imgLen

	span := raw[hdu.DataOffset:]
	if len(span) < hdu.DataLength {
		return nil, &UnexpectedEOFError{Expected: hdu.DataLength, Actual: len(span)}
	}
	data := span[:hdu.DataLength]

	groups := make([]Group, hdu.GCount)
	for g := 0; g < hdu.GCount; g++ {
		start := g * groupLen * elemSize
		groupBytes := data[start : start+groupLen*elemSize]

		params, err := decodeGroupScalars(hdu.Bitpix, groupBytes[:hdu.PCount*elemSize], hdu.PCount)
		if err != nil {
			return nil, err
		}

		imgBytes := groupBytes[hdu.PCount*elemSize:]
		img, err := decodeGroupImage(hdu.Bitpix, imgBytes, imgLen)
		if err != nil {
			return nil, err
		}

		groups[g] = Group{Params: params, Data: img}
	}

	return groups, nil
}

func decodeGroupScalars(bitpix int, data []byte, n int) ([]float64, error) {
	out := make([]float64, n)
	switch bitpix {
	case 8:
		for i := 0; i < n; i++ {
			out[i] = float64(data[i])
		}
	case 16:
		for i, v := range decodeInt16BE(data, n) {
			out[i] = float64(v)
		}
	case 32:
		for i, v := range decodeInt32BE(data, n) {
			out[i] = float64(v)
		}
	case 64:
		for i, v := range decodeInt64BE(data, n) {
			out[i] = float64(v)
		}
	case -32:
		for i, v := range decodeFloat32BE(data, n) {
			out[i] = float64(v)
		}
	case -64:
		out = decodeFloat64BE(data, n)
	default:
		return nil, &InvalidBitpixError{Value: int64(bitpix)}
	}
	return out, nil
}

func decodeGroupImage(bitpix int, data []byte, n int) (Image, error) {
	switch bitpix {
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
		return Image{}, &InvalidBitpixError{Value: int64(bitpix)}
	}
}
