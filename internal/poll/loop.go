package poll

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tamzrod/modbusctl/internal/catalogue"
	"github.com/tamzrod/modbusctl/internal/planner"
	"github.com/tamzrod/modbusctl/internal/script"
	"github.com/tamzrod/modbusctl/internal/snapshot"
	"github.com/tamzrod/modbusctl/internal/transport"
)

// Loop drives client mode: connect, wait the post-connect delay, run the
// planned read program on a fixed interval, update the snapshot store,
// and reconnect with bounded backoff on a fatal transport error. A
// definition's compiled on_update program runs right after that
// definition's snapshot update, so programs run in burst (planner) order,
// not declaration order; definitions that no burst covers (virtual or
// write-only) never have their on_update program run by the loop.
type Loop struct {
	cfg       Config
	cat       *catalogue.Catalogue
	bursts    []planner.Burst
	transport transport.Transport
	store     *snapshot.Store
	engine    *script.Engine
	programs  map[string]*script.Program
	clock     script.TimeSource
	host      *scriptHost
	log       *zap.Logger

	cmds  chan Command
	state atomic.Int32

	countersMu   sync.Mutex
	burstsOK     uint64
	burstsFailed uint64
}

// New builds a client-mode poll loop. engine and programs may be nil if
// EnableScript is false in cfg.
func New(cfg Config, cat *catalogue.Catalogue, tr transport.Transport, store *snapshot.Store, engine *script.Engine, programs map[string]*script.Program, log *zap.Logger) *Loop {
	if log == nil {
		log = zap.NewNop()
	}
	l := &Loop{
		cfg:       cfg,
		cat:       cat,
		bursts:    planner.Plan(cat),
		transport: tr,
		store:     store,
		engine:    engine,
		programs:  programs,
		clock:     script.NewTimeSource(startTime()),
		host:      newScriptHost(cat, store),
		log:       log,
		cmds:      make(chan Command, 4),
	}
	l.state.Store(int32(Disconnected))
	return l
}

func startTime() time.Time { return time.Now() }

// State returns the loop's current state machine node.
func (l *Loop) State() State { return State(l.state.Load()) }

func (l *Loop) setState(s State) {
	l.state.Store(int32(s))
}

// Connect, Disconnect, Reconnect and Shutdown are the external control
// surface; each is a best-effort, non-blocking send honored at the next
// checkpoint.
func (l *Loop) Connect()    { l.send(CmdConnect) }
func (l *Loop) Disconnect() { l.send(CmdDisconnect) }
func (l *Loop) Reconnect()  { l.send(CmdReconnect) }
func (l *Loop) Shutdown()   { l.send(CmdShutdown) }

func (l *Loop) send(c Command) {
	select {
	case l.cmds <- c:
	default:
	}
}

// Counters returns the cumulative burst success/failure totals, for the
// status endpoint.
func (l *Loop) Counters() (ok, failed uint64) {
	l.countersMu.Lock()
	defer l.countersMu.Unlock()
	return l.burstsOK, l.burstsFailed
}

func (l *Loop) recordBurst(ok bool) {
	l.countersMu.Lock()
	defer l.countersMu.Unlock()
	if ok {
		l.burstsOK++
	} else {
		l.burstsFailed++
	}
}

// Run blocks until ctx is canceled or Shutdown is called, driving the
// state machine to completion.
func (l *Loop) Run(ctx context.Context) error {
	l.setState(Disconnected)
	for {
		switch l.State() {
		case Disconnected:
			if !l.runDisconnected(ctx) {
				return nil
			}
		case Connecting:
			l.runConnecting(ctx)
		case PostConnectDelay:
			if !l.sleepCheckpoint(ctx, l.cfg.postConnectDelay()) {
				continue
			}
			l.setState(Polling)
		case Polling:
			l.runPollCycle(ctx)
		case Terminated:
			_ = l.transport.Disconnect()
			return nil
		}
	}
}

// runDisconnected waits for an explicit Connect/Reconnect command, a
// Shutdown, or context cancellation. It always returns true: Shutdown and
// cancellation set Terminated, which Run handles on its next pass.
func (l *Loop) runDisconnected(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		l.setState(Terminated)
		return true
	case cmd := <-l.cmds:
		switch cmd {
		case CmdConnect, CmdReconnect:
			l.setState(Connecting)
		case CmdShutdown:
			l.setState(Terminated)
		case CmdDisconnect:
			// already disconnected, nothing to do
		}
		return true
	}
}

func (l *Loop) runConnecting(ctx context.Context) {
	if err := l.transport.Connect(ctx); err != nil {
		l.log.Warn("connect failed", zap.Error(err))
		select {
		case <-ctx.Done():
			l.setState(Terminated)
			return
		case <-time.After(l.cfg.backoff()):
		}
		l.setState(Disconnected)
		l.send(CmdConnect)
		return
	}
	sessionID := uuid.New()
	l.log.Info("connected", zap.String("session", sessionID.String()))
	l.setState(PostConnectDelay)
}

// checkpoint drains a pending command without blocking. It returns false
// if the command (or context cancellation) changed the state, meaning
// the caller must abandon whatever unit of work it was in the middle of.
func (l *Loop) checkpoint(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		l.setState(Terminated)
		return false
	case cmd := <-l.cmds:
		switch cmd {
		case CmdDisconnect:
			_ = l.transport.Disconnect()
			l.setState(Disconnected)
		case CmdReconnect:
			_ = l.transport.Disconnect()
			l.setState(Disconnected)
			l.send(CmdConnect)
		case CmdShutdown:
			l.setState(Terminated)
		case CmdConnect:
			// already connected, ignore
			return true
		}
		return false
	default:
		return true
	}
}

// sleepCheckpoint sleeps for d, honoring the same checkpoint semantics as
// checkpoint. Returns false if interrupted.
func (l *Loop) sleepCheckpoint(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		l.setState(Terminated)
		return false
	case cmd := <-l.cmds:
		switch cmd {
		case CmdDisconnect:
			_ = l.transport.Disconnect()
			l.setState(Disconnected)
		case CmdReconnect:
			_ = l.transport.Disconnect()
			l.setState(Disconnected)
			l.send(CmdConnect)
		case CmdShutdown:
			l.setState(Terminated)
		case CmdConnect:
			// already connected, ignore and keep sleeping next time through
		}
		return false
	}
}
