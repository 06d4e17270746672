package extract

import (
	"errors"
	"strings"
	"unicode/utf8"
)

func plainText(content []byte) (string, error) {
	if !utf8.Valid(content) {
		return "", errors.New("plain text document is not valid UTF-8")
	}
	return strings.TrimSpace(string(content)), nil
}
