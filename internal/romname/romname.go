// Package romname extracts catalog hints from bare ROM filenames.
//
// Release filenames carry three weak signals: a leading release number, a
// region tag, and the title itself. Parse recovers all three without any
// I/O so callers can cross-check them against stronger evidence.
package romname

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"romshelf/internal/region"
)

// Guess is the filename-derived identification hint. Absent signals stay nil.
type Guess struct {
	ReleaseNumber  *int
	NormalizedName string
	Region         *int
}

var (
	pathPrefix = regexp.MustCompile(`^.*[/:]`)
	fileExt    = regexp.MustCompile(`\.[^.]+$`)

	// leadingRelease matches a bracketed release number or one separated by
	// a hyphen. A bare leading integer is deliberately not treated as a
	// release number; titles like "9 Hours 9 Persons 9 Doors" start with one.
	leadingRelease = regexp.MustCompile(`^(?:[([](\d+)[)\]]\s*-?\s*|(\d+)\s*-\s*)(.*)$`)

	taggedToken = regexp.MustCompile(`[([](\w+)[)\]]`)

	bracketGroups = regexp.MustCompile(`[([][^()\[\]]*[)\]]`)
	connectives   = regexp.MustCompile(`(^|\s)(the|and|a|&)(\s|$)`)
	nonWord       = regexp.MustCompile(`[^a-z0-9\s]`)
	spaceRuns     = regexp.MustCompile(`\s+`)
)

// accentFolder strips combining marks so accented titles compare equal to
// their plain-ASCII catalog spellings.
var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Parse extracts the release number, normalized title, and region hint from
// a filename. Directory and archive prefixes are ignored, so plain paths and
// composite "archive:inner" paths both work.
func Parse(name string) Guess {
	s := strings.ToLower(name)
	s = pathPrefix.ReplaceAllString(s, "")
	s = fileExt.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "_", " ")

	var guess Guess
	if m := leadingRelease.FindStringSubmatch(s); m != nil {
		digits := m[1]
		if digits == "" {
			digits = m[2]
		}
		if n, err := strconv.Atoi(digits); err == nil {
			guess.ReleaseNumber = &n
			s = m[3]
		}
	}

	// The first tag naming a known region wins; later tags are usually
	// release-group or dump annotations.
	for _, tag := range taggedToken.FindAllStringSubmatch(s, -1) {
		if code, ok := region.Code(tag[1]); ok {
			guess.Region = &code
			break
		}
	}

	guess.NormalizedName = Normalize(s)
	return guess
}

// Normalize reduces a title to its searchable form: lowercase, bracket
// groups and standalone connectives removed, accents folded, punctuation
// stripped, whitespace collapsed. Normalizing an already-normalized string
// returns it unchanged.
func Normalize(s string) string {
	s = strings.ToLower(s)
	// Underscores separate words in release filenames; map them to spaces
	// so manual search terms match what Parse produced.
	s = strings.ReplaceAll(s, "_", " ")
	s = bracketGroups.ReplaceAllString(s, "")
	s = foldAccents(s)
	for {
		next := connectives.ReplaceAllString(s, " ")
		if next == s {
			break
		}
		s = next
	}
	s = nonWord.ReplaceAllString(s, "")
	s = spaceRuns.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func foldAccents(s string) string {
	out, _, err := transform.String(accentFolder, s)
	if err != nil {
		return s
	}
	return out
}
