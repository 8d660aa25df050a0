package python

import "errors"

var (
	ErrInterpreter = errors.New("interpreter probe failed")
	ErrSetupFile   = errors.New("setup.py not readable")
)
