package petstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// Field is one name/value pair of a document. Values are strings,
// json.Number, bool, nil, []any, or nested Document.
type Field struct {
	Name  string
	Value any
}

// Document is an ordered flat mapping of field names to values. Field order
// survives a decode/encode round trip, the way the upstream store saw it.
// Every document carries a unique integer "id".
type Document struct {
	fields []Field
}

func NewDocument(fields ...Field) Document {
	return Document{fields: fields}
}

func (d Document) Len() int {
	return len(d.fields)
}

func (d Document) Fields() []Field {
	return d.fields
}

func (d Document) Get(name string) (any, bool) {
	for _, f := range d.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Set replaces the value of an existing field in place or appends a new one.
func (d *Document) Set(name string, value any) {
	for i := range d.fields {
		if d.fields[i].Name == name {
			d.fields[i].Value = value
			return
		}
	}
	d.fields = append(d.fields, Field{Name: name, Value: value})
}

// StringField returns a field value only if it is a string.
func (d Document) StringField(name string) (string, bool) {
	v, ok := d.Get(name)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// ID returns the document's integer id.
func (d Document) ID() (int64, error) {
	v, ok := d.Get("id")
	if !ok {
		return 0, fmt.Errorf("%w: id", ErrInvalidDocument)
	}
	switch n := v.(type) {
	case json.Number:
		id, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: id is not an integer", ErrInvalidDocument)
		}
		return id, nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n != float64(int64(n)) {
			return 0, fmt.Errorf("%w: id is not an integer", ErrInvalidDocument)
		}
		return int64(n), nil
	default:
		return 0, fmt.Errorf("%w: id is not an integer", ErrInvalidDocument)
	}
}

// IDString is the id in the decimal form used in store keys and set members.
func (d Document) IDString() (string, error) {
	id, err := d.ID()
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(id, 10), nil
}

// TagNames collects the "name" values from a "tags" array of objects.
// Entries of any other shape are ignored.
func (d Document) TagNames() []string {
	v, ok := d.Get(TagsField)
	if !ok {
		return nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	var names []string
	for _, el := range arr {
		tag, ok := el.(Document)
		if !ok {
			continue
		}
		if name, ok := tag.StringField("name"); ok {
			names = append(names, name)
		}
	}
	return names
}

// requiredField is the per-collection scalar field that must be present and
// is kept in a derived index. Collections without an entry only need an id.
var requiredField = map[string]string{
	"pets":  "status",
	"users": "username",
}

// Validate checks the minimal shape an insert needs: an integer id plus the
// collection's required string field.
func (d Document) Validate(collection string) error {
	if _, err := d.ID(); err != nil {
		return err
	}
	if field, ok := requiredField[collection]; ok {
		if _, ok := d.StringField(field); !ok {
			return fmt.Errorf("%w: %s requires a string %q", ErrInvalidDocument, collection, field)
		}
	}
	return nil
}

func (d Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range d.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (d *Document) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return err
	}
	doc, ok := v.(Document)
	if !ok {
		return fmt.Errorf("document must be a JSON object, got %T", v)
	}
	*d = doc
	return nil
}

// decodeValue reads one JSON value off the decoder, keeping object field
// order and numbers as json.Number.
func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		// string, json.Number, bool or nil
		return tok, nil
	}
	switch delim {
	case '{':
		var doc Document
		for dec.More() {
			nameTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			name, ok := nameTok.(string)
			if !ok {
				return nil, fmt.Errorf("unexpected object key %v", nameTok)
			}
			value, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			doc.fields = append(doc.fields, Field{Name: name, Value: value})
		}
		if _, err := dec.Token(); err != nil { // closing '}'
			return nil, err
		}
		return doc, nil
	case '[':
		arr := []any{}
		for dec.More() {
			value, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, value)
		}
		if _, err := dec.Token(); err != nil { // closing ']'
			return nil, err
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unexpected token %v", delim)
	}
}

// DecodeDocument parses a stored document blob.
func DecodeDocument(blob string) (Document, error) {
	var doc Document
	if err := doc.UnmarshalJSON([]byte(blob)); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return Document{}, err
	}
	return doc, nil
}
