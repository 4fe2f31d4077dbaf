package locales

// Tier names the fallback step that produced a resolution.
type Tier int

const (
	TierNone Tier = iota
	TierExact
	TierDefault
	TierFirst
)

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierDefault:
		return "default"
	case TierFirst:
		return "first"
	default:
		return "none"
	}
}

// Fallback configures the steps taken after an exact match fails.
type Fallback struct {
	// Default is tried second.
	Default string
	// Enabled restricts the default and first-available steps when non-nil.
	Enabled map[string]bool
}

// Resolution is the outcome of Resolve. Value is the zero T when Tier is TierNone.
type Resolution[T any] struct {
	Value  T
	Locale string
	Tier   Tier
}

// Found reports whether a candidate was selected.
func (r Resolution[T]) Found() bool { return r.Tier != TierNone }

// Fallback reports whether a candidate other than the requested locale was selected.
func (r Resolution[T]) Fallback() bool {
	return r.Tier == TierDefault || r.Tier == TierFirst
}

// Resolve picks the candidate to serve for requested: exact match, then the
// default locale, then the first candidate in the given order. It never fails;
// an empty candidate list resolves to TierNone.
func Resolve[T any](candidates []T, localeOf func(T) string, requested string, fb Fallback) Resolution[T] {
	var none Resolution[T]
	if len(candidates) == 0 || localeOf == nil {
		return none
	}

	want := NormalizeCode(requested)
	if want != "" {
		for _, candidate := range candidates {
			if NormalizeCode(localeOf(candidate)) == want {
				return Resolution[T]{Value: candidate, Locale: want, Tier: TierExact}
			}
		}
	}

	allowed := func(code string) bool {
		return fb.Enabled == nil || fb.Enabled[code]
	}

	if def := NormalizeCode(fb.Default); def != "" && allowed(def) {
		for _, candidate := range candidates {
			if NormalizeCode(localeOf(candidate)) == def {
				return Resolution[T]{Value: candidate, Locale: def, Tier: TierDefault}
			}
		}
	}

	for _, candidate := range candidates {
		code := NormalizeCode(localeOf(candidate))
		if allowed(code) {
			return Resolution[T]{Value: candidate, Locale: code, Tier: TierFirst}
		}
	}
	return none
}
