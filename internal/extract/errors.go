package extract

import "errors"

var (
	// ErrMissingFile is returned when a framework-required file is absent
	// or empty after extraction. The wrapping error names the file(s).
	ErrMissingFile = errors.New("required file missing")

	// ErrInvalidWorkflow is returned when a ComfyUI artifact cannot be
	// recovered into valid workflow JSON. These artifacts cannot be
	// partially salvaged.
	ErrInvalidWorkflow = errors.New("invalid workflow JSON")
)
