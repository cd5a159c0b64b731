package repository

import "errors"

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrStaleRecord    = errors.New("record changed since it was read")
	ErrPlanNotFound   = errors.New("plan not found or expired")
	ErrRunNotFound    = errors.New("run not found or expired")
)

// storedState describes a record after a conditional write matched nothing.
type storedState int

const (
	stateMissing storedState = iota
	stateChanged
	stateClean
)

func (s storedState) err() error {
	switch s {
	case stateMissing:
		return ErrRecordNotFound
	case stateChanged:
		return ErrStaleRecord
	}
	return nil
}
