package parser

import "github.com/vecmigrate/vecmigrate/record"

// Dialect is the common contract implemented by each of the six
// dialect-specific parsers (spec §4.3): given a decoded text chunk,
// produce an ordered list of Records. Parse errors are non-fatal and
// returned alongside any records successfully recovered, matching the
// "absorbed and logged" propagation policy in spec §7.
type Dialect interface {
	Parse(chunk string) ([]record.Record, []error)
}
