package validation

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	maxFolderLength  = 1024
	maxSegmentLength = 255
)

var (
	ErrFolderTraversal = errors.New("folder may not contain '.' or '..' segments")
	ErrFolderChars     = errors.New("folder contains control characters")
	ErrFolderTooLong   = errors.New("folder path is too long")
)

// NormalizeFolder turns user input into a canonical folder path: NFC text,
// '/' separators, no empty segments, and a leading and trailing '/'.
// The empty string and "/" both mean the root folder.
func NormalizeFolder(raw string) (string, error) {
	s := norm.NFC.String(raw)
	s = strings.ReplaceAll(s, "\\", "/")

	var segments []string
	for _, seg := range strings.Split(s, "/") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		if seg == "." || seg == ".." {
			return "", ErrFolderTraversal
		}
		if strings.IndexFunc(seg, unicode.IsControl) >= 0 {
			return "", ErrFolderChars
		}
		if len(seg) > maxSegmentLength {
			return "", ErrFolderTooLong
		}
		segments = append(segments, seg)
	}

	if len(segments) == 0 {
		return "/", nil
	}

	folder := "/" + strings.Join(segments, "/") + "/"
	if len(folder) > maxFolderLength {
		return "", ErrFolderTooLong
	}
	return folder, nil
}
