package homework

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

const (
	keyHomeworkName = "homework_name"
	keyStatus       = "status"
)

// Parse turns one element of the "homeworks" list into a Homework. A
// one-element list is accepted and unwrapped.
func Parse(record any) (Homework, error) {
	if list, ok := record.([]any); ok {
		if len(list) == 0 {
			return Homework{}, errors.Wrap(ErrMissingHomeworkName, "homework record is empty")
		}
		record = list[0]
	}

	obj, ok := record.(map[string]any)
	if !ok || len(obj) == 0 {
		return Homework{}, errors.Wrap(ErrMissingHomeworkName, "homework record is empty")
	}

	rawName, ok := obj[keyHomeworkName]
	if !ok || rawName == nil {
		return Homework{}, ErrMissingHomeworkName
	}
	name := fmt.Sprintf("%v", rawName)

	status, _ := obj[keyStatus].(string)
	if _, known := Status(status).Verdict(); !known {
		return Homework{}, errors.Wrapf(ErrUnknownStatus, "status %q of %q", status, name)
	}

	return Homework{Name: name, Status: Status(status)}, nil
}

// Message is the text announcing the current status of h.
func (h Homework) Message() string {
	verdict, _ := h.Status.Verdict()
	return fmt.Sprintf("Изменился статус проверки работы \"%s\". %s", h.Name, verdict)
}

// Translate parses record and returns its verdict message.
func Translate(record any) (string, error) {
	hw, err := Parse(record)
	if err != nil {
		return "", err
	}
	return hw.Message(), nil
}
