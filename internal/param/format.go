package param

import "github.com/leapstack-labs/chauffeur/pkg/core"

// FormatTable maps a scalar kind to a default printf-style format
// spec. Two tables are typically in play: a verbose one for rendering
// file contents and a compact one for identifiers in directory names.
type FormatTable map[core.Kind]string

// Default format specs, matching the driver defaults.
const (
	DefaultIntFmtLong  = "%d"
	DefaultFltFmtLong  = "%12.7e"
	DefaultIntFmtShort = "%05d"
	DefaultFltFmtShort = "%f"
)

// LongFormats returns the verbose table used for file contents.
func LongFormats(intFmt, fltFmt string) FormatTable {
	if intFmt == "" {
		intFmt = DefaultIntFmtLong
	}
	if fltFmt == "" {
		fltFmt = DefaultFltFmtLong
	}
	return FormatTable{core.KindInt: intFmt, core.KindFloat: fltFmt}
}

// ShortFormats returns the compact table used for directory names and
// command lines.
func ShortFormats(intFmt, fltFmt string) FormatTable {
	if intFmt == "" {
		intFmt = DefaultIntFmtShort
	}
	if fltFmt == "" {
		fltFmt = DefaultFltFmtShort
	}
	return FormatTable{core.KindInt: intFmt, core.KindFloat: fltFmt}
}

// format renders v using, in priority order: the inline spec, the
// table entry for the value's kind, generic conversion.
func (t FormatTable) format(v core.Value, inline string) string {
	if inline != "" {
		return v.Format(inline)
	}
	if t != nil {
		if spec, ok := t[v.Kind()]; ok {
			return v.Format(spec)
		}
	}
	return v.String()
}
