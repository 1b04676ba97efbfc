package schema

import "golang.org/x/text/unicode/norm"

// normalizeName NFC-normalizes user-supplied text (entity names,
// external-entity paths, column names) before it is written. This is
// the rehomed form of the teacher's text-encoding concern: the EWF
// reader decodes UTF-16 header text through golang.org/x/text; the
// hairball format has no UTF-16 fields, but still benefits from the
// same library normalizing the UTF-8 text it does carry, so visually
// identical names compare equal regardless of how a client composed
// them.
func normalizeName(s string) string {
	return norm.NFC.String(s)
}
