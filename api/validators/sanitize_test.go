package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Cycle count correction", CleanText("  Cycle   count\tcorrection \n"))
	assert.Empty(t, CleanText("   "))
}

func TestCleanOptional(t *testing.T) {
	blank := " \t "
	padded := "  Acme   Supplies "

	assert.Nil(t, CleanOptional(nil))
	assert.Nil(t, CleanOptional(&blank))
	if got := CleanOptional(&padded); assert.NotNil(t, got) {
		assert.Equal(t, "Acme Supplies", *got)
	}
}
