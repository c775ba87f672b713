package transport

import (
	"context"
	"time"

	"github.com/goburrow/modbus"
)

// RTUTransport is the PDU+CRC variant, implemented over
// github.com/goburrow/modbus's RTU client handler (itself layered over
// github.com/goburrow/serial for the line).
type RTUTransport struct {
	device   string
	baudRate int
	dataBits int
	parity   string
	stopBits int

	handler  *modbus.RTUClientHandler
	client   modbus.Client
	poisoned bool
}

// RTUConfig carries the serial line parameters for NewRTU.
type RTUConfig struct {
	Device   string
	BaudRate int
	DataBits int
	Parity   string
	StopBits int
}

func NewRTU(cfg RTUConfig) *RTUTransport {
	return &RTUTransport{
		device:   cfg.Device,
		baudRate: cfg.BaudRate,
		dataBits: cfg.DataBits,
		parity:   cfg.Parity,
		stopBits: cfg.StopBits,
	}
}

func (t *RTUTransport) Connect(ctx context.Context) error {
	handler := modbus.NewRTUClientHandler(t.device)
	handler.BaudRate = t.baudRate
	handler.DataBits = t.dataBits
	handler.Parity = t.parity
	handler.StopBits = t.stopBits
	if err := handler.Connect(); err != nil {
		return err
	}
	t.handler = handler
	t.client = modbus.NewClient(handler)
	t.poisoned = false
	return nil
}

func (t *RTUTransport) Disconnect() error {
	if t.handler == nil {
		return nil
	}
	err := t.handler.Close()
	t.handler = nil
	t.client = nil
	return err
}

func (t *RTUTransport) Execute(ctx context.Context, req Request, timeout time.Duration) (Response, error) {
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
