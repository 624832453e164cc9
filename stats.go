package framevk

import "time"

const statsInterval = time.Second

// FrameStats counts presented frames and computes the frame rate
// over one second windows.
type FrameStats struct {
	Frames uint64
	FPS    float64

	report      bool
	window      int
	windowStart time.Time
	now         func() time.Time
	log         *Logger
}

// NewFrameStats returns a counter that logs the frame rate at the
// end of every window when report is set.
func NewFrameStats(report bool, l *Logger) *FrameStats {
	return &FrameStats{report: report, now: time.Now, log: orDiscard(l)}
}

func (s *FrameStats) Tick() {
	now := s.now()
	if s.windowStart.IsZero() {
		s.windowStart = now
	}
	s.Frames++
	s.window++
	elapsed := now.Sub(s.windowStart)
	if elapsed < statsInterval {
		return
	}
	s.FPS = float64(s.window) / elapsed.Seconds()
	if s.report {
		s.log.Info.Printf("%.1f fps (%d frames)", s.FPS, s.Frames)
	}
	s.window = 0
	s.windowStart = now
}
