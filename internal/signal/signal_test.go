package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombineRequiresAgreement(t *testing.T) {
	all := []Signal{Buy, Sell, Hold, Undetermined}
	for _, p := range all {
		for _, v := range all {
			got := Combine(p, v)
			if p == v {
				assert.Equal(t, p, got, "Combine(%s, %s)", p, v)
			} else {
				assert.Equal(t, Undetermined, got, "Combine(%s, %s) without agreement", p, v)
			}
		}
	}
}

func TestActionable(t *testing.T) {
	assert.True(t, Buy.Actionable())
	assert.True(t, Sell.Actionable())
	assert.False(t, Hold.Actionable())
	assert.False(t, Undetermined.Actionable())
}

func TestCombineUnknownValue(t *testing.T) {
	assert.Equal(t, Undetermined, Combine(Signal("BOGUS"), Signal("BOGUS")))
}
