package profile

import (
	"fmt"

	"github.com/jonathan/creative-compliance/internal/types"
)

// LockError reports a mutation rejected because it would break a profile lock
type LockError struct {
	Profile   types.ProfileID
	Attribute string
	Locked    string
	Attempted string
}

func (e *LockError) Error() string {
	if e.Locked == "" {
		return fmt.Sprintf("profile %s does not allow %s %s", e.Profile, e.Attribute, e.Attempted)
	}
	return fmt.Sprintf("profile %s locks %s to %s (attempted %s)", e.Profile, e.Attribute, e.Locked, e.Attempted)
}
