package viewstate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitJobRevealsWaitlistOnce(t *testing.T) {
	state := New("s1")
	assert.False(t, state.SubmitJob("   "), "blank submission must not advance")
	assert.False(t, state.ShowWaitlist)

	require.True(t, state.SubmitJob("Accounts payable clerk"))
	assert.True(t, state.JobSubmitted)
	assert.True(t, state.ShowWaitlist)
	assert.Equal(t, "Accounts payable clerk", state.JobDescription)

	assert.False(t, state.SubmitJob("Something else"), "second submission is ignored")
	assert.Equal(t, "Accounts payable clerk", state.JobDescription)
}

func TestSubmitEmailRequiresWaitlist(t *testing.T) {
	state := New("s1")
	assert.False(t, state.SubmitEmail("a@b.c", OutcomeSubscribed))
	assert.Empty(t, state.Email)

	state.SubmitJob("job")
	require.True(t, state.SubmitEmail("bad", OutcomeInvalid))
	assert.False(t, state.EmailSubmitted)
	assert.Equal(t, "Invalid email address", state.Outcome.Notice())

	require.True(t, state.SubmitEmail("a@b.c", OutcomeSubscribed))
	assert.True(t, state.EmailSubmitted)
	assert.Equal(t, "Subscription successful", state.Outcome.Notice())
}

func TestBuffersAndNotices(t *testing.T) {
	state := New("s1")
	state.SetJobDescription("typing")
	state.SetEmail("half@")
	assert.Equal(t, "typing", state.JobDescription)
	assert.Equal(t, "half@", state.Email)
	assert.Equal(t, "Failed to subscribe", OutcomeFailed.Notice())
	assert.Equal(t, "Not sent (no --api)", OutcomeNotSent.Notice())
	assert.Empty(t, Outcome("").Notice())
}

func TestStateIsSerializable(t *testing.T) {
	state := New("s1")
	state.SubmitJob("job")
	state.SubmitEmail("a@b.c", OutcomeSubscribed)

	raw, err := json.Marshal(state)
	require.NoError(t, err)
	var decoded State
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, state, decoded)
}
