package server

import (
	"math/rand"
	"time"

	"github.com/tbrandon/mbserver"
)

type handlerFunc func(*mbserver.Server, mbserver.Framer) ([]byte, *mbserver.Exception)

// wrap injects the configured jitter delay and packet-loss fault ahead
// of the real handler. mbserver always writes some response for a
// registered function, so packet loss is emulated as a slave device
// failure rather than a true dropped frame — close enough to exercise a
// client's retry and reconnect paths.
func (s *Server) wrap(h handlerFunc) handlerFunc {
	return func(mb *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
		if s.fault.JitterMax > 0 {
			time.Sleep(jitterDelay(s.fault.JitterMin, s.fault.JitterMax))
		}
		if s.fault.PacketLossRate > 0 && rand.Float64() < s.fault.PacketLossRate {
			return nil, &mbserver.SlaveDeviceFailure
		}
		return h(mb, frame)
	}
}

func jitterDelay(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}
