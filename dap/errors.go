package dap

import "errors"

var (
	ErrorInvalidResponse = errors.New("Received invalid response from probe")
	ErrorConnectFailed   = errors.New("Probe could not connect to the target")
	ErrorTransferFault   = errors.New("SWD transfer failed")
	ErrorTimeout         = errors.New("The operation did not complete in time")
	ErrorNotHalted       = errors.New("Target is not halted")
	ErrorUnaligned       = errors.New("Address or length is not word aligned")
	ErrorNoWorkingArea   = errors.New("Not enough free working area")
)
