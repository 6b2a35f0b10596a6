package refresh

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSendEventFromWire(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		messageID int64
		progress  int
		want      SendEvent
	}{
		{
			name:      "batch start",
			messageID: NoMessage,
			progress:  ProgressStarted,
			want:      SendBatchStarted{},
		},
		{
			name:      "batch end",
			messageID: NoMessage,
			progress:  ProgressComplete,
			want:      SendBatchEnded{Progress: ProgressComplete},
		},
		{
			name:      "batch boundary with odd progress",
			messageID: NoMessage,
			progress:  42,
			want:      SendBatchEnded{Progress: 42},
		},
		{
			name:      "per-message report",
			messageID: 17,
			progress:  55,
			want:      SendMessageUpdate{MessageID: 17, Progress: 55},
		},
		{
			// A real message id wins over the boundary sentinels: a
			// message reporting progress 0 is still a message event.
			name:      "per-message report at progress zero",
			messageID: 17,
			progress:  ProgressStarted,
			want:      SendMessageUpdate{MessageID: 17},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := sendEventFromWire(tc.messageID, tc.progress)
			require.Equal(t, tc.want, got)
		})
	}
}
