package scope

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/relistr/mediakit/pkg/enums"
	pkgerrors "github.com/relistr/mediakit/pkg/errors"
)

var validate = validator.New()

// Scope is the (entityType, entityId, purpose) tuple within which the
// registry's ordering, single-primary, and quota invariants apply.
type Scope struct {
	EntityType enums.EntityType
	EntityID   int64
	Purpose    string
}

// Key returns a stable string form used for lock keys, journal rows, and
// log fields.
func (s Scope) Key() string {
	return fmt.Sprintf("%s:%d:%s", s.EntityType, s.EntityID, s.Purpose)
}

func (s Scope) Validate() error {
	if !s.EntityType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid entity type %q", s.EntityType))
	}
	if s.EntityID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "entity id must be positive")
	}
	if strings.TrimSpace(s.Purpose) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "purpose is required")
	}
	return nil
}

// UploadConfig is the immutable per-scope configuration supplied by the
// presentation layer when opening a session.
type UploadConfig struct {
	EntityType    enums.EntityType `validate:"required"`
	EntityID      int64            `validate:"required,min=1"`
	Purpose       string           `validate:"required"`
	MaxFiles      int              `validate:"required,min=1"`
	MaxSizeMB     int64            `validate:"required,min=1"`
	AcceptedTypes []string         `validate:"required,min=1,dive,required"`
}

// Scope returns the scope tuple this config describes.
func (c UploadConfig) Scope() Scope {
	return Scope{EntityType: c.EntityType, EntityID: c.EntityID, Purpose: c.Purpose}
}

// MaxSizeBytes converts the configured megabyte cap to bytes.
func (c UploadConfig) MaxSizeBytes() int64 {
	return c.MaxSizeMB * 1024 * 1024
}

// Accepts reports whether the mime type is in the accepted set.
func (c UploadConfig) Accepts(mimeType string) bool {
	for _, candidate := range c.AcceptedTypes {
		if strings.EqualFold(candidate, mimeType) {
			return true
		}
	}
	return false
}

func (c UploadConfig) Validate() error {
	if !c.EntityType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid entity type %q", c.EntityType))
	}
	if err := validate.Struct(c); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid upload config")
	}
	return nil
}
