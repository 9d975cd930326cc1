package shared

import "github.com/google/uuid"

// ValidID reports whether a path identifier is a well-formed UUID.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}
