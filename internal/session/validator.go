package session

import (
	"fmt"

	"github.com/relistr/mediakit/internal/transport"
	pkgerrors "github.com/relistr/mediakit/pkg/errors"
	"github.com/relistr/mediakit/pkg/scope"
)

// Validator applies the per-scope upload rules before any bytes leave
// the process. Size and type checks run per file, so one bad file never
// sinks its siblings; quota is then checked against the files that
// survived, and a remainder that would overflow the scope is rejected
// outright.
type Validator struct {
	cfg scope.UploadConfig
}

func NewValidator(cfg scope.UploadConfig) Validator {
	return Validator{cfg: cfg}
}

// CheckQuota rejects the batch when currentCount plus the number of
// files that passed per-file checks would exceed the scope's file cap.
func (v Validator) CheckQuota(currentCount, incoming int) error {
	if currentCount+incoming > v.cfg.MaxFiles {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("maximum %d files allowed", v.cfg.MaxFiles))
	}
	return nil
}

// Partition splits the batch into files that pass the size and type
// checks and human-readable reasons for the ones that do not. A file
// failing both checks contributes both reasons. Order is preserved on
// both sides.
func (v Validator) Partition(files []transport.File) (accepted []transport.File, rejections []string) {
	for _, file := range files {
		var reasons []string
		if file.Size > v.cfg.MaxSizeBytes() {
			reasons = append(reasons, fmt.Sprintf("%s exceeds %dMB limit", file.Name, v.cfg.MaxSizeMB))
		}
		if !v.cfg.Accepts(file.ContentType) {
			reasons = append(reasons, fmt.Sprintf("%s has invalid type", file.Name))
		}
		if len(reasons) > 0 {
			rejections = append(rejections, reasons...)
			continue
		}
		accepted = append(accepted, file)
	}
	return accepted, rejections
}
