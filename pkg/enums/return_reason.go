package enums

import "fmt"

// ReturnReason is the fixed set of reasons a customer may give for a return.
type ReturnReason string

const (
	ReturnReasonDamaged      ReturnReason = "Damaged"
	ReturnReasonWrongSize    ReturnReason = "Wrong Size"
	ReturnReasonWrongProduct ReturnReason = "Wrong Product"
	ReturnReasonQualityIssue ReturnReason = "Quality Issue"
	ReturnReasonOther        ReturnReason = "Other"
)

var validReturnReasons = []ReturnReason{
	ReturnReasonDamaged,
	ReturnReasonWrongSize,
	ReturnReasonWrongProduct,
	ReturnReasonQualityIssue,
	ReturnReasonOther,
}

// String implements fmt.Stringer.
func (r ReturnReason) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ReturnReason.
func (r ReturnReason) IsValid() bool {
	for _, candidate := range validReturnReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReturnReason converts raw input into a ReturnReason.
func ParseReturnReason(value string) (ReturnReason, error) {
	for _, candidate := range validReturnReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid return reason %q", value)
}
