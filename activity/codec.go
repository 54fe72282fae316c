package activity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/tidwall/pretty"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// encodeOptions matches the tab-indented layout the documents are stored in.
var encodeOptions = &pretty.Options{
	Width:    80,
	Prefix:   "",
	Indent:   "\t",
	SortKeys: false,
}

// object is what a decoded JSON object remembers besides its modelled fields:
// the key order, the keys that were present, and the values of keys the Go
// type does not model.
type object struct {
	keys  []string
	extra map[string]json.RawMessage
	null  map[string]bool
}

func (o object) has(key string) bool {
	return slices.Contains(o.keys, key)
}

// Decode parses a whole activity document.
func Decode(data []byte) (*Activity, error) {
	var a Activity
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode activity: %w", err)
	}
	return &a, nil
}

// Encode serializes the document tab-indented. Every object keeps the key
// order it was decoded with, the keys not modelled here and the keys that
// were present with an empty value.
func (a *Activity) Encode() ([]byte, error) {
	data, err := marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode activity: %w", err)
	}
	return pretty.PrettyOptions(unescapeHTML(data), encodeOptions), nil
}

// Extra returns the raw value of a top-level key not modelled by Activity.
func (a *Activity) Extra(key string) (json.RawMessage, bool) {
	value, ok := a.doc.extra[key]
	return value, ok
}

func (a *Activity) UnmarshalJSON(data []byte) error {
	type plain Activity
	return decodeObject(data, (*plain)(a), &a.doc)
}

func (a Activity) MarshalJSON() ([]byte, error) {
	type plain Activity
	return encodeObject(plain(a), a.doc,
		"id", "name", "description", "location", "images", "relation", "tags", "attestation", "metrics")
}

func (l *Location) UnmarshalJSON(data []byte) error {
	type plain Location
	return decodeObject(data, (*plain)(l), &l.doc)
}

func (l Location) MarshalJSON() ([]byte, error) {
	type plain Location
	return encodeObject(plain(l), l.doc, "points")
}

func (p *Point) UnmarshalJSON(data []byte) error {
	type plain Point
	return decodeObject(data, (*plain)(p), &p.doc)
}

func (p Point) MarshalJSON() ([]byte, error) {
	type plain Point
	return encodeObject(plain(p), p.doc, "description", "map_link")
}

func (i *Image) UnmarshalJSON(data []byte) error {
	type plain Image
	return decodeObject(data, (*plain)(i), &i.doc)
}

func (i Image) MarshalJSON() ([]byte, error) {
	type plain Image
	return encodeObject(plain(i), i.doc)
}

func (r *Relation) UnmarshalJSON(data []byte) error {
	type plain Relation
	return decodeObject(data, (*plain)(r), &r.doc)
}

func (r Relation) MarshalJSON() ([]byte, error) {
	type plain Relation
	return encodeObject(plain(r), r.doc)
}

func (s *Section) UnmarshalJSON(data []byte) error {
	type plain Section
	return decodeObject(data, (*plain)(s), &s.doc)
}

func (s Section) MarshalJSON() ([]byte, error) {
	type plain Section
	return encodeObject(plain(s), s.doc)
}

func (a *Attestation) UnmarshalJSON(data []byte) error {
	type plain Attestation
	return decodeObject(data, (*plain)(a), &a.doc)
}

func (a Attestation) MarshalJSON() ([]byte, error) {
	type plain Attestation
	return encodeObject(plain(a), a.doc, "period", "tokens", "rank", "enabled")
}

// decodeObject decodes the modelled fields of data into dst and records the
// rest of the object in doc.
func decodeObject[T any](data []byte, dst *T, doc *object) error {
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}

	var fields T
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	raw := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(data, raw); err != nil {
		return err
	}

	*dst = fields
	*doc = object{}
	known := fieldKeys(reflect.TypeFor[T]())
	for pair := raw.Oldest(); pair != nil; pair = pair.Next() {
		doc.keys = append(doc.keys, pair.Key)
		switch {
		case !known[pair.Key]:
			if doc.extra == nil {
				doc.extra = make(map[string]json.RawMessage)
			}
			doc.extra[pair.Key] = append(json.RawMessage(nil), pair.Value...)
		case isNull(pair.Value):
			if doc.null == nil {
				doc.null = make(map[string]bool)
			}
			doc.null[pair.Key] = true
		}
	}
	return nil
}

// encodeObject writes the decoded keys first, in their order, then the keys
// added since. An optional key is left out when it is new and empty, or when
// it was decoded non-null and has been cleared.
func encodeObject[T any](fields T, doc object, optional ...string) ([]byte, error) {
	data, err := marshal(fields)
	if err != nil {
		return nil, err
	}
	values := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(data, values); err != nil {
		return nil, err
	}

	skip := func(key string, value json.RawMessage) bool {
		if !slices.Contains(optional, key) {
			return false
		}
		if doc.has(key) {
			return isNull(value) && !doc.null[key]
		}
		return isEmpty(value)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	write := func(key string, value json.RawMessage) error {
		name, err := marshal(key)
		if err != nil {
			return err
		}
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
		return nil
	}

	for _, key := range doc.keys {
		value, ok := values.Get(key)
		if !ok {
			value, ok = doc.extra[key]
		}
		if !ok || skip(key, value) {
			continue
		}
		if err := write(key, value); err != nil {
			return nil, err
		}
	}
	for pair := values.Oldest(); pair != nil; pair = pair.Next() {
		if doc.has(pair.Key) || skip(pair.Key, pair.Value) {
			continue
		}
		if err := write(pair.Key, pair.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// fieldKeys returns the JSON names of the exported fields of a struct type.
func fieldKeys(t reflect.Type) map[string]bool {
	keys := make(map[string]bool, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		keys[name] = true
	}
	return keys
}

// marshal encodes v without escaping &, < and >.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// htmlEscapes are the escapes encoding/json writes for characters that are
// legal as-is in a JSON string. Ordered map values are encoded with them.
var htmlEscapes = map[string]string{
	"u0026": "&",
	"u003c": "<",
	"u003e": ">",
	"u2028": "\u2028",
	"u2029": "\u2029",
}

// unescapeHTML turns the HTML-safe escapes back into the characters they
// stand for. Other escape sequences are copied unchanged.
func unescapeHTML(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u`)) {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		c := data[i]
		if c != '\\' || i+1 >= len(data) {
			out = append(out, c)
			continue
		}
		if i+6 <= len(data) {
			if r, ok := htmlEscapes[strings.ToLower(string(data[i+1:i+6]))]; ok {
				out = append(out, r...)
				i += 5
				continue
			}
		}
		out = append(out, c, data[i+1])
		i++
	}
	return out
}

func isNull(value json.RawMessage) bool {
	return string(bytes.TrimSpace(value)) == "null"
}

func isEmpty(value json.RawMessage) bool {
	switch string(bytes.TrimSpace(value)) {
	case "null", `""`, "false":
		return true
	}
	return false
}
