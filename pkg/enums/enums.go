package enums

import "fmt"

// parse matches value against the known set for kind.
func parse[T ~string](valid []T, value, kind string) (T, error) {
	for _, candidate := range valid {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", kind, value)
}

func contains[T ~string](valid []T, v T) bool {
	for _, candidate := range valid {
		if candidate == v {
			return true
		}
	}
	return false
}
