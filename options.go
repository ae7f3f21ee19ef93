package gifdec

// Options configures a Decoder. The zero value is a usable, lenient
// configuration.
type Options struct {
	// Strict rejects a decoded pixel whose value is not a valid index into
	// the active palette. Lenient (the default) passes such values through
	// unchecked, matching most real-world decoders' tolerance of slightly
	// malformed palettes.
	Strict bool

	// Warnf receives a diagnostic for recoverable conditions (an unknown
	// extension label, for instance). Nil-safe; defaults to discarding.
	Warnf func(format string, args ...any)
}

func (o Options) warnf(format string, args ...any) {
	if o.Warnf != nil {
		o.Warnf(format, args...)
	}
}
