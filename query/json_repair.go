package query

import "regexp"

// unquotedKey matches an object key that lost its opening quote, as in `, confidence":`.
var unquotedKey = regexp.MustCompile(`([{,]\s*)([A-Za-z][A-Za-z_]*)":`)

// repairJSON restores missing opening quotes on object keys, a common slip in
// model replies. Well-formed JSON is returned unchanged.
func repairJSON(s string) string {
	return unquotedKey.ReplaceAllString(s, `$1"$2":`)
}
