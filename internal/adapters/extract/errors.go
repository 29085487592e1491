package extract

import "errors"

// ErrParse marks a page that could not be turned into records. Extractors
// log it and return no records; it never reaches callers of Extract.
var ErrParse = errors.New("extract: parse failure")
