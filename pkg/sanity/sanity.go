// SPDX-License-Identifier: Apache-2.0

package sanity

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joomcode/errorx"
)

var (
	ErrInvalidFilename = errorx.IllegalArgument.New("invalid filename")
)

// Security validation patterns for paths
var (
	// shellMetachars contains dangerous shell metacharacters that should be rejected
	shellMetachars = regexp.MustCompile(`[;&|$\x60<>(){}[\]*?~]`)

	// validPathChars ensures paths only contain safe characters
	// Allows: alphanumeric, forward slash, dash, underscore, dot
	validPathChars = regexp.MustCompile(`^[a-zA-Z0-9/_.\-]+$`)

	// identifierPattern is used for schema version ids, entity names and field names
	identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-]{0,127}$`)
)

// Filename strips s down to a name usable inside generated file names.
// Only ASCII letters, digits, dash and underscore are kept; nothing left is an error.
func Filename(s string) (string, error) {
	sb := []byte(s)
	j := 0
	for _, b := range sb {
		if ('a' <= b && b <= 'z') ||
			('A' <= b && b <= 'Z') ||
			('0' <= b && b <= '9') ||
			b == '_' ||
			b == '-' {
			sb[j] = b
			j++
		}
	}

	if j == 0 {
		return "", ErrInvalidFilename
	}

	return string(sb[:j]), nil
}

// ValidateIdentifier checks that s can be used as a schema version id, an entity name or a field name.
// Identifiers start with a letter or underscore and continue with letters, digits, '_', '.' or '-'.
func ValidateIdentifier(s string) error {
	if !identifierPattern.MatchString(s) {
		return errorx.IllegalArgument.New("invalid identifier %q: must match %s", s, identifierPattern.String())
	}
	return nil
}

// SanitizePath validates and sanitizes the given path according to strict security rules.
//
// Specifically, it:
//  1. Rejects paths containing shell metacharacters (e.g., ; & | $ ` < > ( ) { } [ ] * ? ~).
//  2. Rejects path traversal attempts (e.g., segments like "../", "/..", or paths ending with "..").
//  3. Requires the input path to be absolute.
//  4. Normalizes the path by removing redundant slashes and dot directories (using filepath.Clean).
//
// Returns the sanitized (cleaned) path, or an error if the input is invalid or unsafe.
func SanitizePath(path string) (string, error) {
	if path == "" {
		return "", errorx.IllegalArgument.New("path cannot be empty")
	}

	if !filepath.IsAbs(path) {
		return "", errorx.IllegalArgument.New("path must be absolute: %s", path)
	}

	// ".." is checked before cleaning so that traversal attempts are rejected rather than resolved
	for _, segment := range strings.Split(path, "/") {
		if segment == ".." {
			return "", errorx.IllegalArgument.New("path cannot contain '..' segments: %s", path)
		}
	}

	if shellMetachars.MatchString(path) {
		return "", errorx.IllegalArgument.New("path contains shell metacharacters: %s", path)
	}

	if !validPathChars.MatchString(path) {
		return "", errorx.IllegalArgument.New("path contains invalid characters: %s", path)
	}

	return filepath.Clean(path), nil
}

// ValidatePathWithinBase sanitizes target and ensures it resolves to base or a location below it.
// It returns the cleaned target path.
func ValidatePathWithinBase(base, target string) (string, error) {
	cleanBase, err := SanitizePath(base)
	if err != nil {
		return "", err
	}

	cleanTarget, err := SanitizePath(target)
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(cleanBase, cleanTarget)
	if err != nil {
		return "", errorx.IllegalArgument.Wrap(err, "path %s is not within %s", target, base)
	}

	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", errorx.IllegalArgument.New("path %s is not within %s", target, base)
	}

	return cleanTarget, nil
}
