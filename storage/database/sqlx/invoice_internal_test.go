package sqlxrepos

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_newInvoiceID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := newInvoiceID()
		assert.Regexp(t, `^inv_[0-9a-f-]{36}$`, id)
		assert.LessOrEqual(t, len(id), 64) // invoice.id is VARCHAR(64)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
