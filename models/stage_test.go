package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStageKey(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{name: "Not Contacted", expected: "NOT_CONTACTED"},
		{name: "Attempted to Contact", expected: "ATTEMPTED_TO_CONTACT"},
		{name: "qualified", expected: "QUALIFIED"},
		{name: "  Pre-Qualified  ", expected: "PRE-QUALIFIED"},
		{name: "Contact  in   Future", expected: "CONTACT_IN_FUTURE"},
		{name: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StageKey(tt.name))
		})
	}
}

func TestSyncResultAdd(t *testing.T) {
	combined := &SyncResult{Imported: 1, Updated: 2, Total: 3}
	combined.Add(&SyncResult{Imported: 4, Updated: 1, Errors: 2, Total: 7})

	assert.Equal(t, 5, combined.Imported)
	assert.Equal(t, 3, combined.Updated)
	assert.Equal(t, 2, combined.Errors)
	assert.Equal(t, 10, combined.Total)

	combined.Add(nil)
	assert.Equal(t, 10, combined.Total)
}
