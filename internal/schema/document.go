package schema

import (
	"encoding/json"
	"fmt"

	"upfitter/showroom/internal/cms"
)

// ToDocument converts a typed record into a raw CMS document.
func ToDocument(record any) (cms.Document, error) {
	b, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", record, err)
	}
	var doc cms.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode %T: %w", record, err)
	}
	return doc, nil
}

// FromDocument decodes a raw CMS document into a typed record.
func FromDocument[T any](doc cms.Document) (T, error) {
	var out T
	b, err := json.Marshal(doc)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("failed to decode %s document %s: %w", doc.Type(), doc.ID(), err)
	}
	return out, nil
}

// Document returns the option as a CMS document. Price is stored as a number.
func (o AdditionalOption) Document() (cms.Document, error) {
	o.Type = TypeAdditionalOption
	doc, err := ToDocument(o)
	if err != nil {
		return nil, err
	}
	doc["price"] = o.Price.InexactFloat64()
	return doc, nil
}

// Document returns the manufacturer as a CMS document.
func (m Manufacturer) Document() (cms.Document, error) {
	m.Type = TypeManufacturer
	return ToDocument(m)
}
