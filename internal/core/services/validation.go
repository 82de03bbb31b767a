package services

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/finrag/internal/core/domain"
	"github.com/custodia-labs/finrag/internal/logger"
)

// RecordValidator checks records against their struct tag contracts.
type RecordValidator struct {
	v *validator.Validate
}

// NewRecordValidator creates a validator.
func NewRecordValidator() *RecordValidator {
	return &RecordValidator{v: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate returns an error wrapping domain.ErrValidation when rec breaks its contract.
func (r *RecordValidator) Validate(rec any) error {
	if err := r.v.Struct(rec); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	return nil
}

// FilterValid keeps the records that pass validation and logs every dropped one.
func FilterValid[T any](r *RecordValidator, kind string, records []T) (valid []T, dropped int) {
	valid = make([]T, 0, len(records))
	for i := range records {
		if err := r.Validate(&records[i]); err != nil {
			dropped++
			logger.WithFields(map[string]any{"kind": kind, "index": i}).Warnf("dropping invalid record: %v", err)
			continue
		}
		valid = append(valid, records[i])
	}
	return valid, dropped
}
