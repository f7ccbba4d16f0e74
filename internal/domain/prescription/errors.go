package prescription

import (
	"errors"
	"strings"
)

var ErrRecordNotFound = errors.New("prescription not found")

type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}
