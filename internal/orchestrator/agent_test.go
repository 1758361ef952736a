package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenEstimateDividesCombinedLengthByFour(t *testing.T) {
	assert.Equal(t, 1, tokenEstimate("abcd", ""))
	assert.Equal(t, 5, tokenEstimate("abcd", "abcdefghijabcdef"))
}

func TestTokenEstimateEmptyInputs(t *testing.T) {
	assert.Equal(t, 0, tokenEstimate("", ""))
}
