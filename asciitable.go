package fits

import (
	"strconv"
	"strings"
)

// AsciiColumn describes one parsed TFORMn/TBCOLn pair for an ASCII
// table, per spec.md §4.6.
type AsciiColumn struct {
	Name  string
	Code  byte // 'A','I','F','E','D'
	Width int
	Decim int // digits after the decimal point, for F/E/D; 0 for A/I
	TBCol int // 1-based starting column
}

// ParseAsciiTForm parses an ASCII-table TFORMn string: Aw, Iw, Fw.d,
// Ew.d, or Dw.d, with optional leading spaces.
func ParseAsciiTForm(raw string) (code byte, width, decim int, err error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, 0, 0, &UnsupportedTFormError{Raw: raw}
	}
	code = s[0]
	if !strings.ContainsRune("AIFED", rune(code)) {
		return 0, 0, 0, &UnsupportedTFormError{Raw: raw}
	}
	rest := s[1:]
	dot := strings.IndexByte(rest, '.')
	wStr := rest
	dStr := ""
	if dot != -1 {
		wStr = rest[:dot]
		dStr = rest[dot+1:]
	}
	w, werr := strconv.Atoi(strings.TrimSpace(wStr))
	if werr != nil {
		return 0, 0, 0, &UnsupportedTFormError{Raw: raw}
	}
	d := 0
	if dStr != "" {
		d, err = strconv.Atoi(strings.TrimSpace(dStr))
		if err != nil {
			return 0, 0, 0, &UnsupportedTFormError{Raw: raw}
		}
	}
	return code, w, d, nil
}

// parseAsciiTableColumns reads TFIELDS/TFORMn/TBCOLn/TTYPEn and
// verifies spec.md invariant 6: TBCOLn + width - 1 <= NAXIS1 and fields
// do not overlap.
func parseAsciiTableColumns(cards *CardList) ([]AsciiColumn, error) {
	tfields, ok := cards.GetInt("TFIELDS")
	if !ok {
		return nil, &MissingKeywordError{Name: "TFIELDS"}
	}
	naxis1, ok := cards.GetInt("NAXIS1")
	if !ok {
		return nil, &MissingKeywordError{Name: "NAXIS1"}
	}

	cols := make([]AsciiColumn, tfields)
	for i := 0; i < int(tfields); i++ {
		form, ok := cards.GetString(Nth("TFORM", i+1))
		if !ok {
			return nil, &MissingKeywordError{Name: Nth("TFORM", i+1)}
		}
		code, w, d, err := ParseAsciiTForm(form)
		if err != nil {
			return nil, err
		}
		tbcol, ok := cards.GetInt(Nth("TBCOL", i+1))
		if !ok {
			return nil, &MissingKeywordError{Name: Nth("TBCOL", i+1)}
		}
		col := AsciiColumn{Code: code, Width: w, Decim: d, TBCol: int(tbcol)}
		if name, ok := cards.GetString(Nth("TTYPE", i+1)); ok {
			col.Name = name
		}
		if int64(col.TBCol+col.Width-1) > naxis1 {
			return nil, &InvalidHeaderError{Reason: Nth("TBCOL", i+1) + " + width - 1 exceeds NAXIS1"}
		}
		cols[i] = col
	}

	sorted := append([]AsciiColumn(nil), cols...)
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			a, b := sorted[i], sorted[j]
			aLo, aHi := a.TBCol, a.TBCol+a.Width-1
			bLo, bHi := b.TBCol, b.TBCol+b.Width-1
			if aLo <= bHi && bLo <= aHi {
				return nil, &InvalidHeaderError{Reason: "ASCII table fields overlap"}
			}
		}
	}

	return cols, nil
}

// AsciiColumnValue is the typed result of reading one ASCII-table
// column. Null carries which rows were all-blank fields, per spec.md
// §4.6 "Empty (all-space) fields yield a typed null per column."
type AsciiColumnValue struct {
	Code    byte
	Strings []string
	Ints    []int64
	Floats  []float64
	Null    []bool
}

// ReadAsciiColumn extracts column index col (0-based) from hdu's ASCII
// table data unit, per spec.md §4.6.
func ReadAsciiColumn(hdu *HDU, raw []byte, col int) (AsciiColumnValue, error) {
	if hdu.Kind != KindASCIITable {
		return AsciiColumnValue{}, &UnsupportedExtensionError{XTension: hdu.XTension}
	}
	cols, err := parseAsciiTableColumns(hdu.Header)
	if err != nil {
		return AsciiColumnValue{}, err
	}
	if col < 0 || col >= len(cols) {
		return AsciiColumnValue{}, &InvalidHeaderError{Reason: "column index out of range"}
	}
	c := cols[col]

	naxis1, naxis2 := hdu.Naxis[0], hdu.Naxis[1]
	span := raw[hdu.DataOffset:]
	if len(span) < hdu.DataLength {
		return AsciiColumnValue{}, &UnexpectedEOFError{Expected: hdu.DataLength, Actual: len(span)}
	}
	data := span[:hdu.DataLength]

	out := AsciiColumnValue{Code: c.Code, Null: make([]bool, naxis2)}
	switch c.Code {
	case 'A':
		out.Strings = make([]string, naxis2)
	case 'I':
		out.Ints = make([]int64, naxis2)
	default:
		out.Floats = make([]float64, naxis2)
	}

	for r := 0; r < naxis2; r++ {
		rowStart := r * naxis1
		field := string(data[rowStart+c.TBCol-1 : rowStart+c.TBCol-1+c.Width])
		trimmed := strings.TrimSpace(field)

		if trimmed == "" {
			out.Null[r] = true
			continue
		}

		switch c.Code {
		case 'A':
			out.Strings[r] = trimmed
		case 'I':
			n, err := strconv.ParseInt(trimmed, 10, 64)
			if err != nil {
				return AsciiColumnValue{}, &InvalidValueError{Raw: trimmed}
			}
			out.Ints[r] = n
		case 'F', 'E', 'D':
			norm := strings.ReplaceAll(strings.ReplaceAll(trimmed, "D", "E"), "d", "e")
			f, err := strconv.ParseFloat(norm, 64)
			if err != nil {
				return AsciiColumnValue{}, &InvalidValueError{Raw: trimmed}
			}
			out.Floats[r] = f
		}
	}

	return out, nil
}

// AsciiTableWriteColumn is one column's worth of input to
// WriteAsciiTable.
type AsciiTableWriteColumn struct {
	Name  string
	Form  string
	TBCol int
	// Exactly one of Strings/Ints/Floats should have length nrows,
	// matching Form's code; Null marks fields to emit blank.
	Strings []string
	Ints    []int64
	Floats  []float64
	Null    []bool
}

// WriteAsciiTable serializes an ASCII table HDU, right-justifying
// numerics and left-justifying strings within each field's width,
// padding rows to NAXIS1 with ASCII space, per spec.md §4.6 "Write".
func WriteAsciiTable(cols []AsciiTableWriteColumn, nrows int, extraCards []Card) ([]byte, error) {
	naxis1 := 0
	parsedCodes := make([]byte, len(cols))
	parsedWidths := make([]int, len(cols))
	parsedDecims := make([]int, len(cols))
	for i, c := range cols {
		code, w, d, err := ParseAsciiTForm(c.Form)
		if err != nil {
			return nil, err
		}
		parsedCodes[i], parsedWidths[i], parsedDecims[i] = code, w, d
		end := c.TBCol + w - 1
		if end > naxis1 {
			naxis1 = end
		}
	}

	rows := make([]byte, naxis1*nrows)
	for i := range rows {
		rows[i] = ' '
	}

	for ci, c := range cols {
		w := parsedWidths[ci]
		d := parsedDecims[ci]
		for r := 0; r < nrows; r++ {
			rowStart := r * naxis1
			dst := rows[rowStart+c.TBCol-1 : rowStart+c.TBCol-1+w]

			isNull := r < len(c.Null) && c.Null[r]
			if isNull {
				continue
			}

			var field string
			switch parsedCodes[ci] {
			case 'A':
				field = leftJustify(truncate(c.Strings[r], w), w)
			case 'I':
				field = rightJustify(strconv.FormatInt(c.Ints[r], 10), w)
			case 'F', 'E', 'D':
				field = rightJustify(strconv.FormatFloat(c.Floats[r], byte(asciiFloatVerb(parsedCodes[ci])), d, 64), w)
			}
			copy(dst, field)
		}
	}

	cl := NewCardList()
	cl.Append(NewValueCard("XTENSION", Value{Kind: ValueString, Str: "TABLE"}, ""))
	cl.Append(NewValueCard("BITPIX", Value{Kind: ValueInt, Int: 8}, ""))
	cl.Append(NewValueCard("NAXIS", Value{Kind: ValueInt, Int: 2}, ""))
	cl.Append(NewValueCard("NAXIS1", Value{Kind: ValueInt, Int: int64(naxis1)}, ""))
	cl.Append(NewValueCard("NAXIS2", Value{Kind: ValueInt, Int: int64(nrows)}, ""))
	cl.Append(NewValueCard("PCOUNT", Value{Kind: ValueInt, Int: 0}, ""))
	cl.Append(NewValueCard("GCOUNT", Value{Kind: ValueInt, Int: 1}, ""))
	cl.Append(NewValueCard("TFIELDS", Value{Kind: ValueInt, Int: int64(len(cols))}, ""))
	for i, c := range cols {
		cl.Append(NewValueCard(Nth("TBCOL", i+1), Value{Kind: ValueInt, Int: int64(c.TBCol)}, ""))
		cl.Append(NewValueCard(Nth("TFORM", i+1), Value{Kind: ValueString, Str: c.Form}, ""))
		if c.Name != "" {
			cl.Append(NewValueCard(Nth("TTYPE", i+1), Value{Kind: ValueString, Str: c.Name}, ""))
		}
	}
	for _, c := range extraCards {
		cl.Append(c)
	}
	cl.Append(NewEndCard())

	header := serializeHeader(cl)
	body := padTo(rows, PadNUL)

	out := make([]byte, 0, len(header)+len(body))
	out = append(out, header...)
	out = append(out, body...)
	return out, nil
}

func asciiFloatVerb(code byte) rune {
	if code == 'F' {
		return 'f'
	}
	return 'E'
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
