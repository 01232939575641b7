package score

import (
	"sync"
	"time"

	gopsutilprocess "github.com/shirou/gopsutil/v3/process"
)

const sampleInterval = 250 * time.Millisecond

// usage holds the peak resource use observed across the pipeline processes.
type usage struct {
	PeakRSS uint64
	PeakCPU float64
}

// sampler polls CPU and RSS of a set of processes with gopsutil and keeps
// the peak of their sums. Processes that cannot be inspected are skipped.
type sampler struct {
	mu    sync.Mutex
	procs []*gopsutilprocess.Process
	peak  usage
	stop  chan struct{}
	done  chan struct{}
}

func startSampler(interval time.Duration, pids ...int) *sampler {
	s := &sampler{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	for _, pid := range pids {
		proc, err := gopsutilprocess.NewProcess(int32(pid))
		if err != nil {
			continue
		}
		s.procs = append(s.procs, proc)
	}

	go s.loop(interval)
	return s
}

func (s *sampler) loop(interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.sample()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sample()
		}
	}
}

func (s *sampler) sample() {
	var cpu float64
	var rss uint64
	for _, proc := range s.procs {
		if pct, err := proc.CPUPercent(); err == nil {
			cpu += pct
		}
		if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
			rss += mem.RSS
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cpu > s.peak.PeakCPU {
		s.peak.PeakCPU = cpu
	}
	if rss > s.peak.PeakRSS {
		s.peak.PeakRSS = rss
	}
}

// Stop ends sampling and returns the peaks.
func (s *sampler) Stop() usage {
	close(s.stop)
	<-s.done

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peak
}
