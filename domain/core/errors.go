package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Schema errors: the uploaded header does not satisfy the column
	// conventions. Fatal at ingestion; nothing is persisted.
	ErrSchema             = errors.New("schema error")
	ErrNoLocationColumn   = fmt.Errorf("%w: no location-id column", ErrSchema)
	ErrAmbiguousLocation  = fmt.Errorf("%w: multiple location-id columns", ErrSchema)
	ErrMissingCoordinates = fmt.Errorf("%w: LONGITUDE/LATITUDE columns required", ErrSchema)

	// Transform errors: CLR preconditions violated on the current subset.
	// Checked again on every orchestration call, since a parameter change
	// can re-introduce a non-positive subset.
	ErrTransform           = errors.New("transform error")
	ErrNonPositiveCLRValue = fmt.Errorf("%w: non-positive or missing value in compositional column", ErrTransform)

	// Projection errors: algorithm parameters incompatible with the subset.
	ErrProjection           = errors.New("projection error")
	ErrInsufficientFeatures = fmt.Errorf("%w: at least 2 features required", ErrProjection)
	ErrInsufficientSamples  = fmt.Errorf("%w: not enough rows for neighbor count", ErrProjection)

	// Session errors
	ErrSessionNotFound   = errors.New("session not found")
	ErrQualityGateFailed = errors.New("data quality gate failed")
)

// SchemaErrorf wraps ErrSchema with context.
func SchemaErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSchema, fmt.Sprintf(format, args...))
}

// IsSchemaError reports whether err comes from column classification.
func IsSchemaError(err error) bool {
	return errors.Is(err, ErrSchema)
}

// IsTransformError reports whether err comes from the compositional transform.
func IsTransformError(err error) bool {
	return errors.Is(err, ErrTransform)
}

// IsProjectionError reports whether err comes from a projection run.
func IsProjectionError(err error) bool {
	return errors.Is(err, ErrProjection)
}

// QualityViolation is one finding from the ingestion quality gate.
type QualityViolation struct {
	Check  string `json:"check"` // "lat_lon", "numeric_missing", "clr_positive", "color_codes"
	Detail string `json:"detail"`
}

func (v QualityViolation) String() string {
	return fmt.Sprintf("%s: %s", v.Check, v.Detail)
}

// QualityGateError carries every violation found during ingestion. Any
// violation blocks session creation; the full list is surfaced to the caller.
type QualityGateError struct {
	Violations []QualityViolation
}

func (e *QualityGateError) Error() string {
	return fmt.Sprintf("%v: %d violation(s)", ErrQualityGateFailed, len(e.Violations))
}

func (e *QualityGateError) Unwrap() error {
	return ErrQualityGateFailed
}
