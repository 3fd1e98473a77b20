package command

import (
	"strings"
	"unicode"

	"coords-bot/internal/shared/errors"
)

// ParseLine splits a chat message such as `!alliance bob "red fleet"` into a
// command name and its arguments. Double quotes group words into one
// argument; an unterminated quote is an argument error.
func ParseLine(prefix, content string) (string, []string, error) {
	content = strings.TrimSpace(content)
	if prefix != "" {
		if !strings.HasPrefix(content, prefix) {
			return "", nil, errors.Validationf("message does not start with the command prefix %q", prefix)
		}
		content = strings.TrimSpace(strings.TrimPrefix(content, prefix))
	}

	fields, err := SplitArgs(content)
	if err != nil {
		return "", nil, err
	}
	if len(fields) == 0 {
		return "", nil, errors.Validation("empty command")
	}
	return fields[0], fields[1:], nil
}

// SplitArgs tokenizes on whitespace, honoring double-quoted groups.
func SplitArgs(s string) ([]string, error) {
	var (
		fields  []string
		current strings.Builder
		quoted  bool
		inField bool
	)

	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
			inField = true
		case unicode.IsSpace(r) && !quoted:
			if inField {
				fields = append(fields, current.String())
				current.Reset()
				inField = false
			}
		default:
			current.WriteRune(r)
			inField = true
		}
	}

	if quoted {
		return nil, errors.Validation("unterminated quote in command")
	}
	if inField {
		fields = append(fields, current.String())
	}
	return fields, nil
}
