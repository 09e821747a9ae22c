// Package address splits free-text postal addresses into the structured
// fields the invoice syntaxes expect. Extraction is best effort: a field
// that cannot be found is left empty.
package address

import (
	"regexp"
	"strings"
)

var (
	postalCodePattern = regexp.MustCompile(`\d{5}`)
	cityPattern       = regexp.MustCompile(`\d{5}\s+(.+)`)
)

// Fields holds the parts of an address
type Fields struct {
	PostalCode string
	City       string
	FirstLine  string
}

// Normalize extracts postal code, city and first line from a multi-line address
func Normalize(addr string) Fields {
	lines := strings.Split(addr, "\n")

	fields := Fields{
		FirstLine: strings.TrimRight(lines[0], "\r"),
	}

	for _, line := range lines {
		line = strings.TrimRight(line, "\r")

		if fields.PostalCode == "" {
			fields.PostalCode = postalCodePattern.FindString(line)
		}
		if fields.City == "" {
			if m := cityPattern.FindStringSubmatch(line); m != nil {
				fields.City = strings.TrimSpace(m[1])
			}
		}
		if fields.PostalCode != "" && fields.City != "" {
			break
		}
	}

	return fields
}

// PostalCode returns the first 5-digit postal code in addr
func PostalCode(addr string) string {
	return Normalize(addr).PostalCode
}

// City returns the city that follows the first postal code in addr
func City(addr string) string {
	return Normalize(addr).City
}

// FirstLine returns the first line of addr
func FirstLine(addr string) string {
	return Normalize(addr).FirstLine
}
