// Package locator translates abstract element references into page selectors.
package locator

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedKind indicates an unknown locator kind.
var ErrUnsupportedKind = errors.New("unsupported locator kind")

// Kind identifies how an element locator value should be interpreted.
type Kind string

const (
	KindID    Kind = "id"
	KindXPath Kind = "xpath"
	KindCSS   Kind = "css"
	KindName  Kind = "name"
	KindClass Kind = "class"
)

// Resolve converts a (kind, value) pair into a selector understood by the
// browser driver. It is a pure function: no waiting, no retries.
func Resolve(kind Kind, value string) (string, error) {
	switch kind {
	case KindID:
		if strings.HasPrefix(value, "#") {
			return value, nil
		}
		return "#" + value, nil
	case KindXPath:
		return "xpath=" + value, nil
	case KindCSS:
		return value, nil
	case KindName:
		return fmt.Sprintf("[name=%q]", value), nil
	case KindClass:
		if strings.HasPrefix(value, ".") {
			return value, nil
		}
		return "." + value, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
	}
}
