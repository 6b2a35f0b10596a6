package refresh

// SendEvent is the tagged form of the backend's overloaded send-progress
// protocol. The wire convention distinguishes three cases through sentinel
// values (messageID == NoMessage with progress 0 or 100, or a real message
// id); the boundary adapter translates that into one of the variants below
// before anything reaches the coordinator's core logic.
type SendEvent interface {
	isSendEvent()
}

// SendBatchStarted marks the beginning of a send batch. On the wire:
// messageID == NoMessage, progress == 0. An accompanying error turns the
// report into an immediate termination once it reaches the Status machine,
// but it still resets the per-batch error gate first.
type SendBatchStarted struct{}

func (SendBatchStarted) isSendEvent() {}

// SendBatchEnded marks the end of a send batch, successful or not. On the
// wire: messageID == NoMessage with a non-zero progress (100).
type SendBatchEnded struct {
	// Progress is the raw progress value from the wire, normally
	// ProgressComplete.
	Progress int
}

func (SendBatchEnded) isSendEvent() {}

// SendMessageUpdate reports progress or failure of a single message within a
// batch. Per-message reports never touch the outbox Status.
type SendMessageUpdate struct {
	// MessageID identifies the message being sent.
	MessageID int64

	// Progress is the raw progress value from the wire.
	Progress int
}

func (SendMessageUpdate) isSendEvent() {}

// sendEventFromWire translates the sentinel-based wire convention into a
// tagged SendEvent. Any error travels alongside the event, not inside it.
func sendEventFromWire(messageID int64, progress int) SendEvent {
	if messageID != NoMessage {
		return SendMessageUpdate{
			MessageID: messageID,
			Progress:  progress,
		}
	}

	if progress == ProgressStarted {
		return SendBatchStarted{}
	}

	return SendBatchEnded{Progress: progress}
}
