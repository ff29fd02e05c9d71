package fits

import (
	"strconv"
	"strings"
)

// Card is an 80-byte FITS header record split into its three zones:
// keyword (bytes 0-7), an indicator recording whether bytes 8-9 were the
// value marker "= ", and the value/comment text (bytes 10-79; commentary
// cards keep it verbatim, trailing spaces included, per spec.md §4.2).
type Card struct {
	Keyword    string
	HasValue   bool // true for "KEY     = value" cards, false for COMMENT/HISTORY/blank
	Value      Value
	Comment    string
	Commentary string // raw bytes 10-79 verbatim, only meaningful when !HasValue
}

// IsEnd reports whether c is the END card.
func (c Card) IsEnd() bool {
	return c.Keyword == "END" && !c.HasValue
}

// ParseCard decodes one 80-byte card. raw must be exactly CardSize (80)
// bytes; callers slicing a header block are responsible for that
// invariant.
func ParseCard(raw []byte) (Card, error) {
	if len(raw) != CardSize {
		return Card{}, &InvalidCardBytesError{Offset: 0}
	}
	if off, bad := hasControlBytes(raw); bad {
		return Card{}, &InvalidCardBytesError{Offset: off}
	}

	keyword := strings.TrimRight(string(raw[0:8]), " ")
	indicator := string(raw[8:10])

	if indicator != "= " {
		return Card{
			Keyword:    keyword,
			HasValue:   false,
			Commentary: string(raw[10:80]),
		}, nil
	}

	zone := string(raw[10:80])
	v, comment, err := parseValue(zone)
	if err != nil {
		if ive, ok := err.(*InvalidValueError); ok {
			ive.Key = keyword
		}
		return Card{}, err
	}

	return Card{
		Keyword:  keyword,
		HasValue: true,
		Value:    v,
		Comment:  comment,
	}, nil
}

// Bytes renders c back into exactly 80 bytes in fixed format.
func (c Card) Bytes() [CardSize]byte {
	var out [CardSize]byte
	for i := range out {
		out[i] = ' '
	}

	kw := leftJustify(c.Keyword, 8)
	copy(out[0:8], kw)

	if !c.HasValue {
		copy(out[8:10], "  ")
		copy(out[10:80], leftJustify(c.Commentary, 70))
		return out
	}

	copy(out[8:10], "= ")
	field := emitValue(c.Value, c.Comment)
	copy(out[10:80], leftJustify(field, 70))
	return out
}

// NewEndCard returns the mandatory END card.
func NewEndCard() Card {
	return Card{Keyword: "END"}
}

// NewValueCard constructs a value card.
func NewValueCard(keyword string, v Value, comment string) Card {
	return Card{Keyword: keyword, HasValue: true, Value: v, Comment: comment}
}

// NewCommentaryCard constructs a COMMENT/HISTORY/blank card.
func NewCommentaryCard(keyword, text string) Card {
	return Card{Keyword: keyword, HasValue: false, Commentary: text}
}

// CardList is an ordered collection of cards for one HDU's header. It
// preserves insertion order and supports first-match lookup by keyword,
// matching spec.md §4.3.
type CardList struct {
	cards []Card
}

// NewCardList returns an empty CardList.
func NewCardList() *CardList { return &CardList{} }

// Append adds c to the end of the list.
func (cl *CardList) Append(c Card) {
	cl.cards = append(cl.cards, c)
}

// Cards returns the ordered card slice; callers must not mutate it.
func (cl *CardList) Cards() []Card {
	return cl.cards
}

// Len reports the number of cards, excluding none implicitly — the END
// card, if present, counts.
func (cl *CardList) Len() int {
	return len(cl.cards)
}

// Get returns the first card with the given keyword, if any.
func (cl *CardList) Get(keyword string) (Card, bool) {
	for _, c := range cl.cards {
		if c.Keyword == keyword {
			return c, true
		}
	}
	return Card{}, false
}

// GetValue returns the first value card's Value for keyword.
func (cl *CardList) GetValue(keyword string) (Value, bool) {
	c, ok := cl.Get(keyword)
	if !ok || !c.HasValue {
		return Value{}, false
	}
	return c.Value, true
}

// GetInt is a convenience accessor returning keyword's value as int64.
func (cl *CardList) GetInt(keyword string) (int64, bool) {
	v, ok := cl.GetValue(keyword)
	if !ok {
		return 0, false
	}
	return v.AsInt()
}

// GetFloat is a convenience accessor returning keyword's value as
// float64.
func (cl *CardList) GetFloat(keyword string) (float64, bool) {
	v, ok := cl.GetValue(keyword)
	if !ok {
		return 0, false
	}
	return v.AsFloat()
}

// GetString is a convenience accessor returning keyword's value as a
// trimmed string.
func (cl *CardList) GetString(keyword string) (string, bool) {
	v, ok := cl.GetValue(keyword)
	if !ok {
		return "", false
	}
	return v.AsString()
}

// GetBool is a convenience accessor returning keyword's value as bool.
func (cl *CardList) GetBool(keyword string) (bool, bool) {
	v, ok := cl.GetValue(keyword)
	if !ok {
		return false, false
	}
	return v.AsBool()
}

// Nth returns prefix concatenated with n, e.g. Nth("NAXIS", 2) ==
// "NAXIS2". Mirrors the teacher's helper of the same name and purpose.
func Nth(prefix string, n int) string {
	return prefix + strconv.Itoa(n)
}

// validateKeyword reports whether name matches the mandatory keyword
// character class [A-Z0-9_-]{1,8} required by spec.md invariant 7.
func validateKeyword(name string) bool {
	if len(name) == 0 || len(name) > 8 {
		return false
	}
	for _, c := range name {
		switch {
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_' || c == '-':
		default:
			return false
		}
	}
	return true
}
