package usecases

import "errors"

// Error kinds from spec §7. Always wrap with fmt.Errorf("...: %w", ErrX) so
// callers can errors.Is against these sentinels.
var (
	ErrStorage              = errors.New("storage error")
	ErrExtract              = errors.New("extract error")
	ErrEmbed                = errors.New("embed error")
	ErrGeneratorUnavailable = errors.New("generator unavailable")
	ErrGeneratorNotReady    = errors.New("generator not ready")
	ErrGenerate             = errors.New("generate error")
	ErrNoCorpus             = errors.New("no corpus")
	ErrImportFormat         = errors.New("import format error")
)
