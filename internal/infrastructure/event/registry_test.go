package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerRegistry(t *testing.T) {
	r := NewHandlerRegistry()
	exact := &recordingHandler{}
	prefix := &recordingHandler{}
	all := &recordingHandler{}

	r.Register(exact, "timesheet.approved", "timesheet.rejected")
	r.Register(prefix, "timesheet.*")
	r.Register(all)

	t.Run("ordering is exact, prefix, catch-all", func(t *testing.T) {
		hs := r.HandlersFor("timesheet.approved")
		if assert.Len(t, hs, 3) {
			assert.Same(t, exact, hs[0])
			assert.Same(t, prefix, hs[1])
			assert.Same(t, all, hs[2])
		}
	})

	t.Run("prefix does not match other contexts", func(t *testing.T) {
		hs := r.HandlersFor("invoice.sent")
		assert.Len(t, hs, 1)
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		r.Register(exact, "timesheet.*")
		assert.Len(t, r.HandlersFor("timesheet.approved"), 3)
		assert.Equal(t, 3, r.Len())
	})

	t.Run("unregister removes every pattern", func(t *testing.T) {
		r.Unregister(exact)
		assert.Len(t, r.HandlersFor("timesheet.rejected"), 2)
		assert.Equal(t, 2, r.Len())
	})
}
