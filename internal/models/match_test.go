package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchEditable(t *testing.T) {
	var nilMatch *Match
	assert.False(t, nilMatch.Editable())

	assert.True(t, (&Match{Status: MatchScheduled}).Editable())
	assert.True(t, (&Match{Status: MatchInProgress}).Editable())
	assert.True(t, (&Match{Status: MatchPostponed}).Editable())
	assert.False(t, (&Match{Status: MatchCompleted}).Editable())
	assert.False(t, (&Match{Status: MatchCancelled}).Editable())
}

func TestValidMatchStatusTransition(t *testing.T) {
	allowed := []struct{ from, to MatchStatus }{
		{MatchScheduled, MatchInProgress},
		{MatchScheduled, MatchCompleted},
		{MatchScheduled, MatchPostponed},
		{MatchScheduled, MatchCancelled},
		{MatchInProgress, MatchCompleted},
		{MatchPostponed, MatchScheduled},
		{MatchPostponed, MatchCancelled},
	}
	for _, tc := range allowed {
		assert.True(t, ValidMatchStatusTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}

	denied := []struct{ from, to MatchStatus }{
		{MatchCompleted, MatchScheduled},
		{MatchCancelled, MatchScheduled},
		{MatchInProgress, MatchPostponed},
		{MatchInProgress, MatchScheduled},
		{MatchPostponed, MatchInProgress},
	}
	for _, tc := range denied {
		assert.False(t, ValidMatchStatusTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}
