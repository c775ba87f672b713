// Package server implements Server Mode: a Modbus TCP or RTU slave, built on
// tbrandon/mbserver's RegisterFunctionHandler mechanism, that serves
// reads and writes directly against the catalogue and snapshot store
// instead of mbserver's built-in byte arrays.
package server

import (
	"time"

	"github.com/goburrow/serial"
	"github.com/tbrandon/mbserver"
	"go.uber.org/zap"

	"github.com/tamzrod/modbusctl/internal/catalogue"
	"github.com/tamzrod/modbusctl/internal/snapshot"
)

// FaultConfig optionally degrades the server's responses to exercise a
// client's reconnect and retry paths, adapted from the pack's scenario
// jitter/packet-loss knobs.
type FaultConfig struct {
	JitterMin      time.Duration
	JitterMax      time.Duration
	PacketLossRate float64
}

// Server is a Modbus TCP or RTU slave exposing the registers named by a
// catalogue, backed by a snapshot store that client writes and (if
// present) a poll loop's script hooks both observe.
type Server struct {
	cat    *catalogue.Catalogue
	store  *snapshot.Store
	fault  FaultConfig
	log    *zap.Logger
	mb     *mbserver.Server
}

// New builds a Server. SeedStore should be called on store before
// serving so reads return the definitions' configured initial values
// rather than zeros.
func New(cat *catalogue.Catalogue, store *snapshot.Store, fault FaultConfig, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{cat: cat, store: store, fault: fault, log: log, mb: mbserver.NewServer()}
	s.registerHandlers()
	return s
}

func (s *Server) registerHandlers() {
	s.mb.RegisterFunctionHandler(1, s.wrap(s.handleReadBits))
	s.mb.RegisterFunctionHandler(2, s.wrap(s.handleReadBits))
	s.mb.RegisterFunctionHandler(3, s.wrap(s.handleReadRegisters))
	s.mb.RegisterFunctionHandler(4, s.wrap(s.handleReadRegisters))
	s.mb.RegisterFunctionHandler(5, s.wrap(s.handleWriteSingleCoil))
	s.mb.RegisterFunctionHandler(6, s.wrap(s.handleWriteSingleRegister))
	s.mb.RegisterFunctionHandler(15, s.wrap(s.handleWriteMultipleCoils))
	s.mb.RegisterFunctionHandler(16, s.wrap(s.handleWriteMultipleRegisters))
}

// ListenTCP starts accepting connections at addr.
func (s *Server) ListenTCP(addr string) error {
	return s.mb.ListenTCP(addr)
}

// ListenRTU starts accepting requests over a serial port.
func (s *Server) ListenRTU(cfg *serial.Config) error {
	return s.mb.ListenRTU(cfg)
}

// Close stops the server and closes any open transports.
func (s *Server) Close() {
	s.mb.Close()
}
