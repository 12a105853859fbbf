package enums

import "fmt"

// CartClaimMode decides what happens to a guest cart when its owner signs in.
type CartClaimMode string

const (
	CartClaimMerge   CartClaimMode = "merge"
	CartClaimReplace CartClaimMode = "replace"
	CartClaimDiscard CartClaimMode = "discard"
)

var validCartClaimModes = []CartClaimMode{
	CartClaimMerge,
	CartClaimReplace,
	CartClaimDiscard,
}

// IsValid reports whether the value is a known CartClaimMode.
func (m CartClaimMode) IsValid() bool {
	for _, candidate := range validCartClaimModes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseCartClaimMode converts raw input into a CartClaimMode.
func ParseCartClaimMode(value string) (CartClaimMode, error) {
	for _, candidate := range validCartClaimModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cart claim mode %q", value)
}

// ResolutionAction is an operator action offered after a placement conflict.
type ResolutionAction string

const (
	ResolutionAdjust ResolutionAction = "adjust"
	ResolutionRemove ResolutionAction = "remove"
	ResolutionFixAll ResolutionAction = "fix_all"
)

var validResolutionActions = []ResolutionAction{
	ResolutionAdjust,
	ResolutionRemove,
	ResolutionFixAll,
}

// ParseResolutionAction converts raw input into a ResolutionAction.
func ParseResolutionAction(value string) (ResolutionAction, error) {
	for _, candidate := range validResolutionActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid resolution action %q", value)
}
