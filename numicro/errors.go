package numicro

import "errors"

var (
	ErrorNotHalted       = errors.New("Target is not halted")
	ErrorTimeout         = errors.New("The flash operation did not complete in time")
	ErrorAlignment       = errors.New("Destination breaks the required alignment")
	ErrorNoWorkingArea   = errors.New("No working area of sufficient size available")
	ErrorAlgorithmFailed = errors.New("Programming algorithm failed to execute")
	ErrorUnknownDevice   = errors.New("Unsupported device found")
	ErrorUnknownRegion   = errors.New("Bank base does not match any flash region of the part")
	ErrorNotProbed       = errors.New("Bank has not been probed")
	ErrorBadGeometry     = errors.New("Flash region size is not a nonzero multiple of the sector size")
)
