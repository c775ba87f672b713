package server

import (
	"github.com/tbrandon/mbserver"

	"github.com/tamzrod/modbusctl/internal/catalogue"
	"github.com/tamzrod/modbusctl/internal/codec"
)

func readAddrQty(data []byte) (addr, qty uint16) {
	return uint16(data[0])<<8 | uint16(data[1]), uint16(data[2])<<8 | uint16(data[3])
}

// coverageOK reports whether every address in [addr, addr+qty) on
// (slave, code) is either owned by a definition or inside a declared
// contiguous region — the precondition for a read to succeed at all.
func (s *Server) coverageOK(slave, code uint8, addr, qty uint16) bool {
	for a := addr; a < addr+qty; a++ {
		if _, ok := s.cat.LookupAddress(slave, code, a); ok {
			continue
		}
		if s.cat.RegionCovers(slave, code, a, a+1) {
			continue
		}
		return false
	}
	return true
}

func (s *Server) handleReadBits(mb *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	slave := frame.GetAddress()
	code := frame.GetFunction()
	addr, qty := readAddrQty(frame.GetData())

	if !s.coverageOK(slave, code, addr, qty) {
		return nil, &mbserver.IllegalDataAddress
	}

	bits := make([]bool, qty)
	for i := uint16(0); i < qty; i++ {
		d, ok := s.cat.LookupAddress(slave, code, addr+i)
		if !ok {
			continue // contiguous-region gap: defaults to false
		}
		e, ok := s.store.Get(d.Name)
		if !ok || !e.HasValue {
			continue
		}
		if b, ok := e.Value.AsBool(); ok {
			bits[i] = b
		}
	}
	return packBits(bits), &mbserver.Success
}

func (s *Server) handleReadRegisters(mb *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	slave := frame.GetAddress()
	code := frame.GetFunction()
	addr, qty := readAddrQty(frame.GetData())

	if !s.coverageOK(slave, code, addr, qty) {
		return nil, &mbserver.IllegalDataAddress
	}

	out := make([]byte, int(qty)*2)
	for i := uint16(0); i < qty; i++ {
		d, ok := s.cat.LookupAddress(slave, code, addr+i)
		if !ok {
			continue // unowned but contiguous-region-legal: zero bytes
		}
		e, ok := s.store.Get(d.Name)
		if !ok || len(e.Raw) == 0 {
			continue
		}
		offset := int(addr+i-d.Address) * 2
		if offset+2 <= len(e.Raw) {
			out[i*2] = e.Raw[offset]
			out[i*2+1] = e.Raw[offset+1]
		}
	}
	return withByteCount(out), &mbserver.Success
}

func (s *Server) findExactDef(slave, code uint8, addr, length uint16) (*catalogue.Definition, *mbserver.Exception) {
	// Definitions are keyed by read code: fc 5/15 write coils (fc 1),
	// fc 6/16 write holding registers (fc 3).
	readCode := uint8(3)
	if code == 5 || code == 15 {
		readCode = 1
	}
	d, ok := s.cat.LookupAddress(slave, readCode, addr)
	if !ok {
		return nil, &mbserver.IllegalDataAddress
	}
	if d.Address != addr || d.Length != length {
		return nil, &mbserver.IllegalDataValue
	}
	if err := d.CheckWritable(); err != nil {
		return nil, &mbserver.IllegalDataAddress
	}
	return d, &mbserver.Success
}

func (s *Server) handleWriteSingleCoil(mb *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	slave := frame.GetAddress()
	code := frame.GetFunction()
	data := frame.GetData()
	addr := uint16(data[0])<<8 | uint16(data[1])
	value := uint16(data[2])<<8 | uint16(data[3])

	d, exc := s.findExactDef(slave, code, addr, 1)
	if exc != &mbserver.Success {
		return nil, exc
	}
	s.storeWriteBit(d, value != 0)
	return data, &mbserver.Success
}

func (s *Server) handleWriteSingleRegister(mb *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	slave := frame.GetAddress()
	code := frame.GetFunction()
	data := frame.GetData()
	addr := uint16(data[0])<<8 | uint16(data[1])

	d, exc := s.findExactDef(slave, code, addr, 1)
	if exc != &mbserver.Success {
		return nil, exc
	}
	if err := s.storeWriteRegisters(d, data[2:4]); err != nil {
		return nil, &mbserver.IllegalDataValue
	}
	return data, &mbserver.Success
}

func (s *Server) handleWriteMultipleCoils(mb *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	slave := frame.GetAddress()
	code := frame.GetFunction()
	data := frame.GetData()
	addr := uint16(data[0])<<8 | uint16(data[1])
	qty := uint16(data[2])<<8 | uint16(data[3])

	d, exc := s.findExactDef(slave, code, addr, qty)
	if exc != &mbserver.Success {
		return nil, exc
	}
	packed := data[5:]
	bit := len(packed) > 0 && packed[0]&0x01 != 0
	s.storeWriteBit(d, bit)
	return data[0:4], &mbserver.Success
}

func (s *Server) handleWriteMultipleRegisters(mb *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	slave := frame.GetAddress()
	code := frame.GetFunction()
	data := frame.GetData()
	addr := uint16(data[0])<<8 | uint16(data[1])
	qty := uint16(data[2])<<8 | uint16(data[3])

	d, exc := s.findExactDef(slave, code, addr, qty)
	if exc != &mbserver.Success {
		return nil, exc
	}
	payload := data[5:]
	if err := s.storeWriteRegisters(d, payload); err != nil {
		return nil, &mbserver.IllegalDataValue
	}
	return data[0:4], &mbserver.Success
}

func (s *Server) storeWriteBit(d *catalogue.Definition, bit bool) {
	s.store.Update(d.Name, codec.IntValue(boolBigInt(bit)), true, []byte{boolRegByte(bit)}, nil, clockNow())
}

func (s *Server) storeWriteRegisters(d *catalogue.Definition, raw []byte) error {
	regs := bytesToRegs(raw)
	v, err := codec.Decode(d.Type, regs, d.Reverse)
	if err != nil {
		return err
	}
	s.store.Update(d.Name, v, true, raw, nil, clockNow())
	return nil
}

func packBits(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8+1)
	out[0] = byte(len(out) - 1)
	for i, b := range bits {
		if b {
			out[1+i/8] |= 1 << (i % 8)
		}
	}
	return out
}

func withByteCount(regBytes []byte) []byte {
	out := make([]byte, len(regBytes)+1)
	out[0] = byte(len(regBytes))
	copy(out[1:], regBytes)
	return out
}
