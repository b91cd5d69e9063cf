package common

import "regexp"

// Backend entity IDs are 24-character hexadecimal strings.
var hexID = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// ValidateID checks that id is a well-formed entity identifier for the
// given kind (deal, claim, notification, customer, category). A malformed
// ID fails here, before any network call.
func ValidateID(kind, id string) error {
	if !hexID.MatchString(id) {
		return &InvalidIDError{Kind: kind, ID: id}
	}
	return nil
}
