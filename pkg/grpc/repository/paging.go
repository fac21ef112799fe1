package repository

// LimitArg converts a paging limit to a query argument.
// A zero limit becomes NULL, i.e. no limit.
func LimitArg(limit uint32) any {
	if limit == 0 {
		return nil
	}
	return limit
}

// NonNil replaces a nil map so it is stored as an empty json object.
func NonNil[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return map[K]V{}
	}
	return m
}
