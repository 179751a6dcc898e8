package kafka

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tactics-catalog/internal/domain"
)

// RecordDecoder parses and validates catalog records
type RecordDecoder struct {
	v *validator.Validate
}

// NewRecordDecoder creates a decoder reporting fields by their JSON names
func NewRecordDecoder() *RecordDecoder {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return &RecordDecoder{v: v}
}

// Decode parses a JSON catalog record. Every failure wraps domain.ErrInvalidRecord.
func (d *RecordDecoder) Decode(data []byte) (domain.CatalogRecord, error) {
	var record domain.CatalogRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return domain.CatalogRecord{}, fmt.Errorf("%w: %v", domain.ErrInvalidRecord, err)
	}
	if err := d.Validate(record); err != nil {
		return domain.CatalogRecord{}, err
	}
	return record, nil
}

// Validate checks that a record carries the payload its kind names and that
// the payload's fields are well formed
func (d *RecordDecoder) Validate(record domain.CatalogRecord) error {
	var payload interface{}
	switch record.Kind {
	case domain.RecordKindTactic:
		if record.Tactic == nil {
			return fmt.Errorf("%w: tactic record without tactic", domain.ErrInvalidRecord)
		}
		payload = record.Tactic
	case domain.RecordKindPlaylist:
		if record.Playlist == nil {
			return fmt.Errorf("%w: playlist record without playlist", domain.ErrInvalidRecord)
		}
		payload = record.Playlist
	default:
		return fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidRecord, record.Kind)
	}

	if err := d.v.Struct(payload); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidRecord, describe(err))
	}
	return nil
}

// describe flattens validator errors into "field tag" pairs
func describe(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err.Error()
	}
	fields := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		field := e.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		fields = append(fields, field+" "+e.Tag())
	}
	sort.Strings(fields)
	return strings.Join(fields, ", ")
}
