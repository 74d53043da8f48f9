package freqenc

import (
	"encoding/json"
	"fmt"

	"github.com/alekLukanen/errs"
)

// Dictionary maps a categorical field name to its encoding. It is the
// one artifact shared between training and inference runs and is
// treated as immutable once written.
type Dictionary map[string]Encoding

// Apply encodes values for the named field, failing when the field has
// no encoding at all.
func (obj Dictionary) Apply(field string, values []string) ([]float64, error) {
	encoding, found := obj[field]
	if !found {
		return nil, errs.NewStackError(fmt.Errorf("%w: %s", ErrMissingFieldEncoding, field))
	}
	return Apply(field, values, encoding)
}

// Serialize renders the dictionary as an indented JSON document so
// encodings stay inspectable and diffable between model versions.
func (obj Dictionary) Serialize() ([]byte, error) {
	data, err := json.MarshalIndent(obj, "", "    ")
	if err != nil {
		return nil, errs.NewStackError(err)
	}
	return data, nil
}

// Parse reads a serialized dictionary back, rejecting documents with
// encoded values outside (0,1].
func Parse(data []byte) (Dictionary, error) {
	var dictionary Dictionary
	if err := json.Unmarshal(data, &dictionary); err != nil {
		return nil, errs.NewStackError(err)
	}

	for field, encoding := range dictionary {
		for value, encoded := range encoding {
			if encoded <= 0.0 || encoded > 1.0 {
				return nil, errs.NewStackError(fmt.Errorf(
					"%w: field %s, value %q maps to %f", ErrEncodingOutOfRange, field, value, encoded,
				))
			}
		}
	}
	return dictionary, nil
}
