package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrNoSelection     = errors.New("no cards selected")
	ErrDetectionFailed = errors.New("detection failed")
	ErrCreationFailed  = errors.New("card creation failed")
	ErrCorruptSnapshot = errors.New("corrupt session snapshot")
	ErrBusy            = errors.New("workflow operation already running")
)
