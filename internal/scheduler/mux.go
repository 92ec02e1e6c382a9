package scheduler

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/sys/unix"
)

// Multiplexer waits for any registered descriptor to become readable.
type Multiplexer interface {
	// Add registers fd under tag. A negative fd is reported on every wakeup.
	Add(fd, tag int) error
	// Wait blocks for at most timeout seconds and returns the ready tags.
	Wait(timeout float64) ([]int, error)
	Close() error
}

const maxEvents = 32

type epollMux struct {
	epfd   int
	tags   map[int32]int
	always []int
	events []unix.EpollEvent
	ready  []int
}

func newEpollMux() (*epollMux, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll_create1: %w", err)
	}
	return &epollMux{
		epfd:   epfd,
		tags:   make(map[int32]int),
		events: make([]unix.EpollEvent, maxEvents),
	}, nil
}

func (m *epollMux) Add(fd, tag int) error {
	if fd < 0 {
		m.always = append(m.always, tag)
		return nil
	}
	event := unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(fd),
	}
	if err := unix.EpollCtl(m.epfd, unix.EPOLL_CTL_ADD, fd, &event); err != nil {
		return fmt.Errorf("epoll_ctl_add fd=%d: %w", fd, err)
	}
	m.tags[int32(fd)] = tag
	return nil
}

func (m *epollMux) Wait(timeout float64) ([]int, error) {
	ms := timeoutMillis(timeout)
	for {
		n, err := unix.EpollWait(m.epfd, m.events, ms)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return nil, fmt.Errorf("epoll_wait: %w", err)
		}
		m.ready = append(m.ready[:0], m.always...)
		for i := 0; i < n; i++ {
			if tag, ok := m.tags[m.events[i].Fd]; ok {
				m.ready = append(m.ready, tag)
			}
		}
		return m.ready, nil
	}
}

func (m *epollMux) Close() error {
	return unix.Close(m.epfd)
}

// timeoutMillis rounds up so a wait never ends before a deadline.
func timeoutMillis(timeout float64) int {
	if timeout <= 0 {
		return 0
	}
	ms := math.Ceil(timeout * 1000)
	if ms > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(ms)
}

// pollMux is the degraded multiplexer: it sleeps and reports every tag so
// the loop polls all sources.
type pollMux struct {
	tags []int
	// interval caps each sleep so sources are polled at a fixed rate.
	interval float64
	sleep    func(time.Duration)
}

func newPollMux(interval float64) *pollMux {
	return &pollMux{interval: interval, sleep: time.Sleep}
}

func (m *pollMux) Add(_, tag int) error {
	m.tags = append(m.tags, tag)
	return nil
}

func (m *pollMux) Wait(timeout float64) ([]int, error) {
	if m.interval > 0 && timeout > m.interval {
		timeout = m.interval
	}
	if timeout > 0 {
		m.sleep(time.Duration(timeout * float64(time.Second)))
	}
	return m.tags, nil
}

func (m *pollMux) Close() error { return nil }
