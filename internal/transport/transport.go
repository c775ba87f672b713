// Package transport is a request/response abstraction for a single
// Modbus request, implemented over TCP (MBAP framing) and RTU
// (PDU + CRC-16/Modbus over a serial line).
package transport

import (
	"context"
	"time"
)

// Function codes this transport understands, per the protocol's
// read/write surface (spec scope: 1-6, 15, 16).
const (
	FuncReadCoils             = 1
	FuncReadDiscreteInputs    = 2
	FuncReadHoldingRegisters  = 3
	FuncReadInputRegisters    = 4
	FuncWriteSingleCoil       = 5
	FuncWriteSingleRegister   = 6
	FuncWriteMultipleCoils    = 15
	FuncWriteMultipleRegisters = 16
)

// Request is a single Modbus request: one read or one write.
type Request struct {
	SlaveID  uint8
	FuncCode uint8
	Address  uint16
	Quantity uint16
	// WriteData carries the payload for write requests: the big-endian
	// coil word (0xFF00 or 0x0000) for fc 5, packed bits for fc 15, and
	// big-endian register bytes for fc 6/16.
	WriteData []byte
}

// Response is the decoded payload of a successful request: bits for
// read fc 1/2, register bytes for read fc 3/4, and is empty for writes.
type Response struct {
	Bits      []bool
	Registers []byte
}

// Transport executes a single outstanding request per connection.
// execute semantics: transaction id (TCP) increments monotonically; on
// timeout the connection is poisoned and must be reconnected before the
// next request.
type Transport interface {
	Connect(ctx context.Context) error
	Execute(ctx context.Context, req Request, timeout time.Duration) (Response, error)
	Disconnect() error
}
