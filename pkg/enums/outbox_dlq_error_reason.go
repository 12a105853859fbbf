package enums

// OutboxDLQErrorReason records why an event left the publish loop for the dead-letter table.
type OutboxDLQErrorReason string

const (
	// OutboxDLQReasonMaxAttempts means pubsub kept failing until the attempt budget ran out.
	OutboxDLQReasonMaxAttempts OutboxDLQErrorReason = "max_attempts"
	// OutboxDLQReasonUnroutable means no topic or publisher accepts the event type or aggregate.
	OutboxDLQReasonUnroutable OutboxDLQErrorReason = "unroutable"
	// OutboxDLQReasonBadPayload means the stored envelope or payload cannot be decoded.
	OutboxDLQReasonBadPayload OutboxDLQErrorReason = "bad_payload"
)

func (r OutboxDLQErrorReason) IsValid() bool {
	switch r {
	case OutboxDLQReasonMaxAttempts, OutboxDLQReasonUnroutable, OutboxDLQReasonBadPayload:
		return true
	default:
		return false
	}
}

// Replayable reports whether re-queueing the row unchanged can succeed once the outage is over.
func (r OutboxDLQErrorReason) Replayable() bool {
	return r == OutboxDLQReasonMaxAttempts
}
