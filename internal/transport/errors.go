package transport

import "fmt"

// ProtocolException is a Modbus exception response: the request's
// function code echoed with the high bit set, plus an exception code.
type ProtocolException struct {
	Code byte
}

func (e *ProtocolException) Error() string {
	return fmt.Sprintf("transport: protocol exception 0x%02x (%s)", e.Code, exceptionName(e.Code))
}

func exceptionName(code byte) string {
	switch code {
	case 0x01:
		return "Illegal Function"
	case 0x02:
		return "Illegal Data Address"
	case 0x03:
		return "Illegal Data Value"
	case 0x04:
		return "Slave Device Failure"
	default:
		return "Unknown Exception"
	}
}

// FramingError covers bad CRC (RTU), short reads, and mismatched
// transaction ids (TCP).
type FramingError struct {
	Msg string
}

func (e *FramingError) Error() string { return "transport: framing error: " + e.Msg }

// TimeoutError poisons the connection; the caller must reconnect.
type TimeoutError struct {
	Msg string
}

func (e *TimeoutError) Error() string { return "transport: timeout: " + e.Msg }
