package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition_Table(t *testing.T) {
	cases := []struct {
		from   Status
		action Action
		want   Status
	}{
		{StatusPending, ActionApprove, StatusApproved},
		{StatusPending, ActionReject, StatusRejected},
		{StatusApproved, ActionRequestModification, StatusModificationRequested},
		{StatusModificationRequested, ActionApproveModification, StatusCancelled},
		{StatusModificationPending, ActionApproveModification, StatusApproved},
		{StatusModificationRequested, ActionRejectModification, StatusApproved},
		{StatusModificationPending, ActionRejectModification, StatusRejected},
		{StatusApproved, ActionRequestCancellation, StatusCancellationRequested},
		{StatusCancellationRequested, ActionApproveCancellation, StatusCancelled},
		{StatusCancellationRequested, ActionRejectCancellation, StatusApproved},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"/"+string(tc.action), func(t *testing.T) {
			got, err := Transition(tc.from, tc.action)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTransition_RejectsEverythingElse(t *testing.T) {
	actions := []Action{
		ActionApprove, ActionReject, ActionRequestModification, ActionApproveModification,
		ActionRejectModification, ActionRequestCancellation, ActionApproveCancellation, ActionRejectCancellation,
	}
	allowed := 0
	for _, from := range Statuses() {
		for _, a := range actions {
			to, err := Transition(from, a)
			if err == nil {
				allowed++
				continue
			}
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, from, to, "失败时状态保持不变")
		}
	}
	assert.Equal(t, 10, allowed)
}

func TestTransition_TerminalStatesHaveNoActions(t *testing.T) {
	assert.Empty(t, AllowedActions(StatusRejected))
	assert.Empty(t, AllowedActions(StatusCancelled))
	assert.Equal(t, []Action{ActionApprove, ActionReject}, AllowedActions(StatusPending))
	assert.Equal(t, []Action{ActionRequestModification, ActionRequestCancellation}, AllowedActions(StatusApproved))
}

func TestTransition_ApproveTwice(t *testing.T) {
	st, err := Transition(StatusPending, ActionApprove)
	require.NoError(t, err)

	_, err = Transition(st, ActionApprove)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestStatus_ParseAndScan(t *testing.T) {
	for _, st := range Statuses() {
		parsed, err := ParseStatus(string(st))
		require.NoError(t, err)
		assert.Equal(t, st, parsed)
	}

	_, err := ParseStatus("Archived")
	assert.ErrorIs(t, err, ErrUnknownStatus)

	var s Status
	require.NoError(t, s.Scan([]byte("Approved")))
	assert.Equal(t, StatusApproved, s)
	assert.ErrorIs(t, s.Scan("approved"), ErrUnknownStatus)
	assert.Error(t, s.Scan(nil))

	_, err = Status("bogus").Value()
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestStatus_Blocking(t *testing.T) {
	assert.False(t, StatusRejected.Blocking())
	assert.False(t, StatusCancellationRequested.Blocking())
	assert.False(t, StatusCancelled.Blocking())
	assert.True(t, StatusPending.Blocking())
	assert.True(t, StatusModificationPending.Blocking())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusCancellationRequested.Terminal())
}
