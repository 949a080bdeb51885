package query

import (
	"slices"
	"strings"

	"github.com/Aman-CERP/backdrops/internal/indexer"
)

// Field is the operator a query text uses.
type Field int

const (
	// FieldText is the plain substring fallback.
	FieldText Field = iota
	FieldID
	FieldName
	FieldTag
)

// Query is a normalised search request.
type Query struct {
	Field Field
	// Value is the operator value, trimmed. For FieldText it is lower-cased
	// and for FieldTag it is lower-cased.
	Value   string
	Include []string
	Exclude []string
}

// Parse builds a Query. Text of the form "id:<v>", "name:<v>" or
// "tag:<v>" (keyword case-insensitive) is an exact operator query;
// anything else is a case-insensitive substring query.
func Parse(text string, include, exclude []string) Query {
	q := Query{
		Include: normalizeTags(include),
		Exclude: normalizeTags(exclude),
	}

	text = strings.TrimSpace(text)
	if keyword, value, ok := strings.Cut(text, ":"); ok {
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(keyword)) {
		case "id":
			q.Field, q.Value = FieldID, value
			return q
		case "name":
			q.Field, q.Value = FieldName, value
			return q
		case "tag":
			q.Field, q.Value = FieldTag, strings.ToLower(value)
			return q
		}
	}

	q.Field, q.Value = FieldText, strings.ToLower(text)
	return q
}

func normalizeTags(tags []string) []string {
	out := indexer.NormalizeTags(tags)
	slices.Sort(out)
	return slices.Compact(out)
}

// key identifies q in the result cache.
func (q Query) key() string {
	var b strings.Builder
	b.WriteByte(byte('0' + q.Field))
	b.WriteByte(0)
	b.WriteString(q.Value)
	b.WriteByte(0)
	b.WriteString(strings.Join(q.Include, "\x01"))
	b.WriteByte(0)
	b.WriteString(strings.Join(q.Exclude, "\x01"))
	return b.String()
}
