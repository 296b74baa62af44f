package dto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOK_WrapsDataWithSuccessTrue(t *testing.T) {
	env := OK(map[string]int{"a": 1})
	require.True(t, env.Success)
	require.Empty(t, env.Message)
	require.NotNil(t, env.Data)
}

func TestFail_WrapsMessageWithSuccessFalse(t *testing.T) {
	env := Fail("something went wrong")
	require.False(t, env.Success)
	require.Equal(t, "something went wrong", env.Message)
	require.Nil(t, env.Data)
}
