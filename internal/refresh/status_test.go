package refresh

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var testEpoch = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestFreshStatusDefaults(t *testing.T) {
	t.Parallel()

	var st Status
	require.True(t, st.CanStart())
	require.False(t, st.IsActive())
	require.True(t, st.LastCompletion().IsZero())
}

func TestStatusRequestLifecycle(t *testing.T) {
	t.Parallel()

	clk := NewManualClock(testEpoch)
	var st Status

	st.markRequested()
	require.True(t, st.IsActive())
	require.False(t, st.CanStart())

	// Requesting again changes nothing.
	st.markRequested()
	require.True(t, st.IsActive())

	// Backend confirms the start: still active, now refreshing.
	st.applyProgress(nil, ProgressStarted, clk)
	require.True(t, st.IsActive())
	require.True(t, st.refreshing)

	// Mid-flight ticks are pure progress, no transition.
	st.applyProgress(nil, 37, clk)
	require.True(t, st.IsActive())
	require.True(t, st.LastCompletion().IsZero())

	// Completion at a known clock time deactivates and stamps.
	clk.Advance(time.Minute)
	st.applyProgress(nil, ProgressComplete, clk)
	require.False(t, st.IsActive())
	require.True(t, st.CanStart())
	require.Equal(t, testEpoch.Add(time.Minute), st.LastCompletion())
}

func TestStatusErrorTerminates(t *testing.T) {
	t.Parallel()

	clk := NewManualClock(testEpoch)
	var st Status

	st.markRequested()
	st.applyProgress(nil, ProgressStarted, clk)

	// An error at any progress value is a termination and stamps the
	// completion time.
	st.applyProgress(NewMessagingError("connection reset"), 12, clk)
	require.False(t, st.IsActive())
	require.Equal(t, testEpoch, st.LastCompletion())
}

func TestStatusRefreshWithoutRequest(t *testing.T) {
	t.Parallel()

	clk := NewManualClock(testEpoch)
	var st Status

	// Timer-driven refreshes report progress without a prior request:
	// refreshing is set with requested still false.
	st.applyProgress(nil, ProgressStarted, clk)
	require.True(t, st.IsActive())
	require.False(t, st.requested)
}

func TestStatusMapLazyCreation(t *testing.T) {
	t.Parallel()

	m := newStatusMap()

	st := m.get(7)
	require.NotNil(t, st)
	require.True(t, st.CanStart())

	// The same entry is retained across lookups.
	st.markRequested()
	require.Same(t, st, m.get(7))
	require.True(t, m.get(7).IsActive())

	// Other keys are independent.
	require.True(t, m.get(8).CanStart())
}

func TestStatusMapAnyActive(t *testing.T) {
	t.Parallel()

	clk := NewManualClock(testEpoch)
	m := newStatusMap()
	require.False(t, m.anyActive())

	m.get(1).markRequested()
	require.True(t, m.anyActive())

	m.get(1).applyProgress(nil, ProgressComplete, clk)
	require.False(t, m.anyActive())
}

// TestStatusMachineInvariants drives a Status through random operation
// sequences and checks the state-machine invariants hold throughout.
func TestStatusMachineInvariants(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		clk := NewManualClock(testEpoch)
		var st Status

		var lastStamp time.Time
		steps := rapid.IntRange(1, 50).Draw(t, "steps")

		for i := 0; i < steps; i++ {
			clk.Advance(time.Duration(
				rapid.IntRange(0, 3600).Draw(t, "advance"),
			) * time.Second)

			var opErr error
			if rapid.Bool().Draw(t, "fail") {
				opErr = NewMessagingError("op %d failed", i)
			}

			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0:
				st.markRequested()

				// A request always makes the target active.
				if !st.IsActive() {
					t.Fatal("requested target not active")
				}

			case 1:
				st.applyProgress(
					opErr, ProgressStarted, clk,
				)

			case 2:
				progress := rapid.IntRange(
					1, ProgressComplete,
				).Draw(t, "progress")
				st.applyProgress(opErr, progress, clk)

				if opErr != nil ||
					progress == ProgressComplete {

					// Termination always deactivates and
					// stamps the current clock time.
					if st.IsActive() {
						t.Fatal("terminated target still active")
					}
					if !st.LastCompletion().Equal(clk.Now()) {
						t.Fatal("completion stamp mismatch")
					}
				}
			}

			// Active is exactly requested-or-refreshing, and the
			// completion stamp never goes backwards.
			if st.IsActive() == st.CanStart() {
				t.Fatal("IsActive and CanStart must disagree")
			}
			if st.LastCompletion().Before(lastStamp) {
				t.Fatal("completion time went backwards")
			}
			lastStamp = st.LastCompletion()
		}
	})
}
