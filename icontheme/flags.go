package icontheme

// LookupFlags modify how icon lookups resolve candidates.
type LookupFlags int

const (
	// LookupNoSVG never returns SVG assets, even when no raster
	// alternative exists. Mutually exclusive with LookupForceSVG.
	LookupNoSVG LookupFlags = 1 << iota

	// LookupForceSVG prefers SVG assets even when a raster file would
	// normally rank higher. Mutually exclusive with LookupNoSVG.
	LookupForceSVG

	// LookupUseBuiltin includes process-registered builtin icons in the
	// default theme's search.
	LookupUseBuiltin

	// LookupGenericFallback expands each candidate name by progressively
	// stripping trailing hyphenated segments, trying symbolic variants
	// first when the name is symbolic.
	LookupGenericFallback

	// LookupForceSize scales the result to exactly the requested size
	// instead of the nearest match the source provides.
	LookupForceSize
)

// Has reports whether all bits in mask are set.
func (f LookupFlags) Has(mask LookupFlags) bool { return f&mask == mask }
