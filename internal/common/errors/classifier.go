package errors

import (
	"context"
	stderrors "errors"
	"net"
)

// Severity buckets a fault for the redelivery decision.
type Severity int

const (
	// SeverityPermanent: the input cannot succeed on retry. The message is
	// acknowledged after the failure is recorded.
	SeverityPermanent Severity = iota
	// SeverityTransient: redelivery may succeed. The message is negatively
	// acknowledged; retry bounds belong to the transport configuration.
	SeverityTransient
	// SeverityUnknown: unclassified fault. Acknowledged to avoid an
	// unbounded redelivery loop from a bug, but flagged for operators.
	SeverityUnknown
)

func (s Severity) String() string {
	switch s {
	case SeverityPermanent:
		return "permanent"
	case SeverityTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Verdict is the pure ack/nack decision. A thin adapter at the transport
// boundary translates it into the transport's acknowledgment call.
type Verdict int

const (
	VerdictAck Verdict = iota
	VerdictNack
)

func (v Verdict) String() string {
	if v == VerdictNack {
		return "nack"
	}
	return "ack"
}

// Classify maps a fault to a severity by fault kind, never by message text.
//
// StandardError carries its own retryability; deadline and connection
// failures from lower layers count as transient even when they surface
// unwrapped. Everything else is Unknown and handled conservatively.
func Classify(err error) Severity {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		if stdErr.Retryable {
			return SeverityTransient
		}
		return SeverityPermanent
	}

	if stderrors.Is(err, context.DeadlineExceeded) {
		return SeverityTransient
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return SeverityTransient
	}

	return SeverityUnknown
}

// VerdictFor returns the redelivery decision for a severity.
func VerdictFor(s Severity) Verdict {
	if s == SeverityTransient {
		return VerdictNack
	}
	return VerdictAck
}
