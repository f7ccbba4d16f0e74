package reminder

import "errors"

var (
	ErrNotFound      = errors.New("reminder not found")
	ErrUnknownKind   = errors.New("unknown reminder kind")
	ErrCourseInvalid = errors.New("intake course start date is after end date")
)
