package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIKeyAuth(t *testing.T) {
	a := NewAPIKeyAuth([]string{"alpha", "beta", ""})

	assert.True(t, a.Enabled())
	assert.True(t, a.IsValidKey("alpha"))
	assert.True(t, a.IsValidKey("beta"))
	assert.False(t, a.IsValidKey(""))
	assert.False(t, a.IsValidKey("gamma"))

	a.AddKey("gamma")
	assert.True(t, a.IsValidKey("gamma"))

	a.RemoveKey("alpha")
	assert.False(t, a.IsValidKey("alpha"))
}

func TestAPIKeyAuthDisabledWithoutKeys(t *testing.T) {
	a := NewAPIKeyAuth(nil)
	assert.False(t, a.Enabled())
	assert.False(t, a.IsValidKey("anything"))
}
