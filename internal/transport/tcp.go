package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/goburrow/modbus"
)

// TCPTransport is the MBAP-framed variant, implemented over
// github.com/goburrow/modbus's TCP client handler.
type TCPTransport struct {
	addr    string
	handler *modbus.TCPClientHandler
	client  modbus.Client
	poisoned bool
}

// NewTCP builds a TCP transport dialing addr ("host:port") on Connect.
func NewTCP(addr string) *TCPTransport {
	return &TCPTransport{addr: addr}
}

func (t *TCPTransport) Connect(ctx context.Context) error {
	handler := modbus.NewTCPClientHandler(t.addr)
	if err := handler.Connect(); err != nil {
		return err
	}
	t.handler = handler
	t.client = modbus.NewClient(handler)
	t.poisoned = false
	return nil
}

func (t *TCPTransport) Disconnect() error {
	if t.handler == nil {
		return nil
	}
	err := t.handler.Close()
	t.handler = nil
	t.client = nil
	return err
}

func (t *TCPTransport) Execute(ctx context.Context, req Request, timeout time.Duration) (Response, error) {
	if t.client == nil {
		return Response{}, &FramingError{Msg: "not connected"}
	}
	if t.poisoned {
		return Response{}, &FramingError{Msg: "connection poisoned, reconnect required"}
	}
	t.handler.Timeout = timeout
	t.handler.SlaveId = req.SlaveID

	resp, err := dispatch(t.client, req)
	if err != nil {
		if isTimeout(err) {
			t.poisoned = true
			return Response{}, &TimeoutError{Msg: err.Error()}
		}
		if exc, ok := asModbusException(err); ok {
			return Response{}, &ProtocolException{Code: exc}
		}
		t.poisoned = true
		return Response{}, &FramingError{Msg: err.Error()}
	}
	return resp, nil
}

func dispatch(client modbus.Client, req Request) (Response, error) {
	switch req.FuncCode {
	case FuncReadCoils:
		raw, err := client.ReadCoils(req.Address, req.Quantity)
		if err != nil {
			return Response{}, err
		}
		return Response{Bits: unpackBits(raw, req.Quantity)}, nil
	case FuncReadDiscreteInputs:
		raw, err := client.ReadDiscreteInputs(req.Address, req.Quantity)
		if err != nil {
			return Response{}, err
		}
		return Response{Bits: unpackBits(raw, req.Quantity)}, nil
	case FuncReadHoldingRegisters:
		raw, err := client.ReadHoldingRegisters(req.Address, req.Quantity)
		if err != nil {
			return Response{}, err
		}
		return Response{Registers: raw}, nil
	case FuncReadInputRegisters:
		raw, err := client.ReadInputRegisters(req.Address, req.Quantity)
		if err != nil {
			return Response{}, err
		}
		return Response{Registers: raw}, nil
	case FuncWriteSingleCoil:
		_, err := client.WriteSingleCoil(req.Address, singleCoilValue(req.WriteData))
		return Response{}, err
	case FuncWriteSingleRegister:
		_, err := client.WriteSingleRegister(req.Address, singleRegisterValue(req.WriteData))
		return Response{}, err
	case FuncWriteMultipleCoils:
		_, err := client.WriteMultipleCoils(req.Address, req.Quantity, req.WriteData)
		return Response{}, err
	case FuncWriteMultipleRegisters:
		_, err := client.WriteMultipleRegisters(req.Address, req.Quantity, req.WriteData)
		return Response{}, err
	default:
		return Response{}, fmt.Errorf("transport: unsupported function code %d", req.FuncCode)
	}
}

func unpackBits(raw []byte, qty uint16) []bool {
	bits := make([]bool, qty)
	for i := range bits {
		byteIdx := i / 8
		bitIdx := uint(i % 8)
		if byteIdx < len(raw) {
			bits[i] = raw[byteIdx]&(1<<bitIdx) != 0
		}
	}
	return bits
}

func singleCoilValue(data []byte) uint16 {
	if len(data) < 2 {
		return 0x0000
	}
	return uint16(data[0])<<8 | uint16(data[1])
}

func singleRegisterValue(data []byte) uint16 {
	if len(data) < 2 {
		return 0
	}
	return uint16(data[0])<<8 | uint16(data[1])
}

// isTimeout and asModbusException inspect the goburrow/modbus error
// shapes: isTimeout checks the error for a Timeout() bool method (as
// net errors carry), and asModbusException type-asserts goburrow's
// exported *modbus.ModbusError. Wrapped errors are not unwrapped.
func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	type timeoutErr interface{ Timeout() bool }
	if te, ok := err.(timeoutErr); ok {
		return te.Timeout()
	}
	return false
}

func asModbusException(err error) (byte, bool) {
	if exc, ok := err.(*modbus.ModbusError); ok {
		return byte(exc.ExceptionCode), true
	}
	return 0, false
}
