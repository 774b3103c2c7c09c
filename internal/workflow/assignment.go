package workflow

// AssignmentResult classifies a maker-checker assignment triple.
type AssignmentResult int

const (
	AssignmentValid AssignmentResult = iota
	MakerEqualsChecker1
	MakerEqualsChecker2
	Checker1EqualsChecker2
)

func (r AssignmentResult) String() string {
	switch r {
	case AssignmentValid:
		return "valid"
	case MakerEqualsChecker1:
		return "maker and checker1 must be different users"
	case MakerEqualsChecker2:
		return "maker and checker2 must be different users"
	case Checker1EqualsChecker2:
		return "checker1 and checker2 must be different users"
	default:
		return "unknown"
	}
}

// Field returns the request field the violation should be attributed to,
// so the API can surface a field-level error rather than a generic one.
func (r AssignmentResult) Field() string {
	switch r {
	case MakerEqualsChecker1:
		return "checker1_id"
	case MakerEqualsChecker2:
		return "checker2_id"
	case Checker1EqualsChecker2:
		return "checker2_id"
	default:
		return ""
	}
}

// ValidateAssignment checks that maker, checker1 and checker2 are pairwise
// distinct. Pairs are checked in a fixed order (maker/checker1, then
// maker/checker2, then checker1/checker2) and only the first violation is
// reported. Callers re-validate on every change to any of the three fields,
// not only at submit time.
func ValidateAssignment(maker, checker1, checker2 uint64) AssignmentResult {
	if maker == checker1 {
		return MakerEqualsChecker1
	}
	if maker == checker2 {
		return MakerEqualsChecker2
	}
	if checker1 == checker2 {
		return Checker1EqualsChecker2
	}
	return AssignmentValid
}
