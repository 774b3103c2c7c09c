package workflow

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateAssignment_Valid(t *testing.T) {
	require.Equal(t, AssignmentValid, ValidateAssignment(1, 2, 3))
}

func TestValidateAssignment_FirstViolationWins(t *testing.T) {
	// maker == checker1 is reported even when maker == checker2 too
	require.Equal(t, MakerEqualsChecker1, ValidateAssignment(1, 1, 1))
	require.Equal(t, MakerEqualsChecker1, ValidateAssignment(1, 1, 2))
	require.Equal(t, MakerEqualsChecker2, ValidateAssignment(1, 2, 1))
	require.Equal(t, Checker1EqualsChecker2, ValidateAssignment(1, 2, 2))
}

func TestValidateAssignment_Exhaustive(t *testing.T) {
	ids := []uint64{1, 2, 3}
	for _, m := range ids {
		for _, c1 := range ids {
			for _, c2 := range ids {
				got := ValidateAssignment(m, c1, c2)
				wantValid := m != c1 && m != c2 && c1 != c2
				require.Equal(t, wantValid, got == AssignmentValid,
					"triple (%d,%d,%d) => %v", m, c1, c2, got)
			}
		}
	}
}

func TestAssignmentResult_Field(t *testing.T) {
	require.Equal(t, "", AssignmentValid.Field())
	require.Equal(t, "checker1_id", MakerEqualsChecker1.Field())
	require.Equal(t, "checker2_id", MakerEqualsChecker2.Field())
	require.Equal(t, "checker2_id", Checker1EqualsChecker2.Field())
}
