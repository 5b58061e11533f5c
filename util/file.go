// Copyright 2026 The pureflashblade-mcp Authors

package util

import (
	"encoding/base64"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"
)

// FileExists reports whether path exists and whether it is a directory
func FileExists(path string) (exists bool, isDir bool, err error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, false, nil
		}
		return false, false, err
	}
	return true, info.IsDir(), nil
}

// DecodeBase64Credential returns the decoded value when b64data is valid base64 of printable
// text, otherwise b64data itself. This lets configuration carry either plain or encoded secrets.
func DecodeBase64Credential(b64data string) (string, error) {
	trimmed := strings.TrimSpace(b64data)
	decoded, err := base64.StdEncoding.DecodeString(trimmed)
	if err != nil || len(decoded) == 0 {
		return trimmed, nil
	}
	if !utf8.Valid(decoded) {
		return trimmed, nil
	}
	for _, r := range string(decoded) {
		if !unicode.IsPrint(r) {
			return trimmed, nil
		}
	}
	return string(decoded), nil
}
