package repository

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsDuplicateErr(t *testing.T) {
	require.True(t, isDuplicateErr(errors.New("Error 1062 (23000): Duplicate entry 'str-2023' for key 'projects.uq_projects_code_lc'")))
	require.True(t, isDuplicateErr(errors.New("Error 1062: Duplicate entry 'alice.j@example.com' for key 'users.email'")))
	require.False(t, isDuplicateErr(errors.New("Error 1366: Incorrect string value")))
	require.False(t, isDuplicateErr(nil))
}
