package insight

import "errors"

// Sentinel kinds for generation errors.
var (
	ErrGeneratorFault = errors.New("insight generator fault")
)
