package poll

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/tamzrod/modbusctl/internal/codec"
	"github.com/tamzrod/modbusctl/internal/planner"
	"github.com/tamzrod/modbusctl/internal/transport"
)

// runPollCycle flushes any writes the script engine queued, runs the full
// read program once, and then sleeps interval_ms before the state
// machine loops back into Polling. A fatal transport error (timeout or
// framing) aborts the cycle and drops the loop back to Disconnected,
// from which it immediately requests a reconnect.
func (l *Loop) runPollCycle(ctx context.Context) {
	if l.cfg.EnableScript {
		l.flushWrites(ctx)
		if l.State() != Polling {
			return
		}
	}

	for _, b := range l.bursts {
		if !l.checkpoint(ctx) {
			return
		}
		if err := l.runBurst(ctx, b); err != nil {
			l.recordBurst(false)
			if isFatal(err) {
				l.log.Warn("burst failed, reconnecting", zap.Error(err))
				_ = l.transport.Disconnect()
				l.setState(Disconnected)
				l.send(CmdConnect)
				return
			}
			l.log.Warn("burst failed", zap.Error(err))
			continue
		}
		l.recordBurst(true)
	}

	if !l.sleepCheckpoint(ctx, l.cfg.interval()) {
		return
	}
}

func isFatal(err error) bool {
	var to *transport.TimeoutError
	var fe *transport.FramingError
	return errors.As(err, &to) || errors.As(err, &fe)
}

func (l *Loop) runBurst(ctx context.Context, b planner.Burst) error {
	req := transport.Request{
		SlaveID:  b.SlaveID,
		FuncCode: b.ReadCode,
		Address:  b.Address,
		Quantity: b.Quantity,
	}
	resp, err := l.transport.Execute(ctx, req, l.cfg.timeout())
	now := scriptNow()

	if err != nil {
		for _, entry := range b.Entries {
			l.store.Update(entry.Def.Name, codec.Value{}, false, nil, err, now)
			l.runScript(entry.Def.Name)
		}
		return err
	}

	for _, entry := range b.Entries {
		d := entry.Def
		var (
			v        codec.Value
			hasValue bool
			raw      []byte
			decodeErr error
		)
		if d.IsBitBased() {
			if int(entry.Offset+d.Length) <= len(resp.Bits) {
				bit := resp.Bits[entry.Offset]
				v = codec.IntValue(boolToBigInt(bit))
				hasValue = true
			} else {
				decodeErr = errors.New("poll: burst response too short for bit register")
			}
		} else {
			start := int(entry.Offset) * 2
			end := start + int(d.Length)*2
			if end <= len(resp.Registers) {
				raw = resp.Registers[start:end]
				regs := bytesToRegs(raw)
				v, decodeErr = codec.Decode(d.Type, regs, d.Reverse)
				hasValue = decodeErr == nil
			} else {
				decodeErr = errors.New("poll: burst response too short for register")
			}
		}
		l.store.Update(d.Name, v, hasValue, raw, decodeErr, now)
		l.runScript(d.Name)
	}
	return nil
}

func (l *Loop) runScript(name string) {
	if !l.cfg.EnableScript {
		return
	}
	prog, ok := l.programs[name]
	if !ok {
		return
	}
	if err := l.engine.Execute(prog, l.host, l.clock); err != nil {
		l.log.Warn("on_update script error", zap.String("register", name), zap.Error(err))
	}
}

// flushWrites dispatches every write the script engine queued since the
// last cycle. Each is a single transport request; failures are logged,
// not fatal, since a rejected write does not poison the connection on
// its own (a timeout while writing still routes through isFatal).
func (l *Loop) flushWrites(ctx context.Context) {
	for _, w := range l.host.drain() {
		if !l.checkpoint(ctx) {
			return
		}
		req := writeRequest(w)
		if _, err := l.transport.Execute(ctx, req, l.cfg.timeout()); err != nil {
			l.log.Warn("scheduled write failed", zap.String("register", w.def.Name), zap.Error(err))
			if isFatal(err) {
				_ = l.transport.Disconnect()
				l.setState(Disconnected)
				l.send(CmdConnect)
				return
			}
		}
	}
}

func writeRequest(w pendingWrite) transport.Request {
	d := w.def
	if d.IsBitBased() {
		if d.Length == 1 {
			coilVal := codec.EncodeBool(w.bit)
			return transport.Request{SlaveID: d.SlaveID, FuncCode: transport.FuncWriteSingleCoil, Address: d.Address, Quantity: 1, WriteData: []byte{byte(coilVal >> 8), byte(coilVal)}}
		}
		return transport.Request{SlaveID: d.SlaveID, FuncCode: transport.FuncWriteMultipleCoils, Address: d.Address, Quantity: d.Length, WriteData: []byte{boolByte(w.bit)}}
	}
	if d.Length == 1 {
		return transport.Request{SlaveID: d.SlaveID, FuncCode: transport.FuncWriteSingleRegister, Address: d.Address, Quantity: 1, WriteData: w.data}
	}
	return transport.Request{SlaveID: d.SlaveID, FuncCode: transport.FuncWriteMultipleRegisters, Address: d.Address, Quantity: d.Length, WriteData: w.data}
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func bytesToRegs(b []byte) []uint16 {
	regs := make([]uint16, len(b)/2)
	for i := range regs {
		regs[i] = uint16(b[i*2])<<8 | uint16(b[i*2+1])
	}
	return regs
}
