package scancode

import (
	"net/url"
	"regexp"
	"strings"
)

// Code prefixes assigned by the label printer
const (
	PackPrefix = "tkp_"
	CardPrefix = "tkc_"
)

// Kind classifies a normalized scan
type Kind int

const (
	// KindUnknown is any scan that is not a recognized code
	KindUnknown Kind = iota
	// KindPack is a pack-activation code (tkp_*)
	KindPack
	// KindCard is a card-identification code (tkc_*)
	KindCard
)

// String returns a human-readable name for the kind
func (k Kind) String() string {
	switch k {
	case KindPack:
		return "pack"
	case KindCard:
		return "card"
	default:
		return "unknown"
	}
}

// Matches a code-shaped token anywhere in the scanned text, case-insensitive.
var codePattern = regexp.MustCompile(`(?i)(tkp|tkc)_[a-z0-9]+`)

// Normalize extracts the canonical code from raw scanner text. Scanners
// sometimes deliver a full claim URL instead of the bare code.
//
// Resolution order:
//  1. a code-shaped token anywhere in the string, lowercased
//  2. the final non-empty path segment if the text parses as a URL
//  3. the trimmed raw text unchanged
//
// Empty or whitespace-only input normalizes to "", which callers must
// treat as unrecognized.
func Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	if match := codePattern.FindString(trimmed); match != "" {
		return strings.ToLower(match)
	}

	if u, err := url.Parse(trimmed); err == nil && u.Scheme != "" && u.Host != "" {
		segments := strings.Split(u.Path, "/")
		for i := len(segments) - 1; i >= 0; i-- {
			if segments[i] != "" {
				return strings.ToLower(segments[i])
			}
		}
	}

	return trimmed
}

// Classify reports whether a normalized code is a pack or card code.
func Classify(code string) Kind {
	switch {
	case strings.HasPrefix(code, PackPrefix):
		return KindPack
	case strings.HasPrefix(code, CardPrefix):
		return KindCard
	default:
		return KindUnknown
	}
}
