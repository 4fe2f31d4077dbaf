package cache

import "time"

// Policy controls how long a computed value stays cached.
type Policy struct {
	TTL time.Duration
}

// Forever keeps entries until a tag invalidates them.
func Forever() Policy { return Policy{} }

// Revalidate expires entries after period, for resources that tolerate staleness.
func Revalidate(period time.Duration) Policy {
	if period < 0 {
		period = 0
	}
	return Policy{TTL: period}
}
