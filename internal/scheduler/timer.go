package scheduler

import (
	"encoding/binary"
	"fmt"
	"math"

	"golang.org/x/sys/unix"
)

// Timer is a one-shot or periodic deadline. Times are loop-clock seconds.
type Timer interface {
	// Fd is readable while an expiration is pending; -1 for soft timers.
	Fd() int
	ArmOneShot(now, after float64) error
	ArmPeriodic(now, interval float64) error
	Disarm() error
	Armed() bool
	// Interval is the period of a periodic timer, 0 otherwise.
	Interval() float64
	// Deadline is the next expiry; only meaningful while Armed.
	Deadline() float64
	// Fired consumes pending expirations and reports whether there were any.
	Fired(now float64) bool
	Close() error
}

// minDelay keeps a one-shot from being armed with a zero value, which would
// disarm a timerfd instead.
const minDelay = 1e-6

type softTimer struct {
	armed    bool
	deadline float64
	interval float64
}

func (t *softTimer) Fd() int { return -1 }

func (t *softTimer) ArmOneShot(now, after float64) error {
	t.armed = true
	t.interval = 0
	t.deadline = now + max(after, 0)
	return nil
}

func (t *softTimer) ArmPeriodic(now, interval float64) error {
	if interval <= 0 {
		return fmt.Errorf("periodic interval must be > 0")
	}
	t.armed = true
	t.interval = interval
	t.deadline = now + interval
	return nil
}

func (t *softTimer) Disarm() error {
	t.armed = false
	t.interval = 0
	return nil
}

func (t *softTimer) Armed() bool       { return t.armed }
func (t *softTimer) Interval() float64 { return t.interval }
func (t *softTimer) Deadline() float64 { return t.deadline }

func (t *softTimer) Fired(now float64) bool {
	if !t.armed || now < t.deadline {
		return false
	}
	if t.interval > 0 {
		n := math.Floor((now-t.deadline)/t.interval) + 1
		t.deadline += n * t.interval
	} else {
		t.armed = false
	}
	return true
}

func (t *softTimer) Close() error { return nil }

type timerfdTimer struct {
	fd       int
	armed    bool
	deadline float64
	interval float64
}

func newTimerfd() (*timerfdTimer, error) {
	fd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, unix.TFD_NONBLOCK|unix.TFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("timerfd_create: %w", err)
	}
	return &timerfdTimer{fd: fd}, nil
}

func timespec(seconds float64) unix.Timespec {
	return unix.NsecToTimespec(int64(seconds * 1e9))
}

func (t *timerfdTimer) settime(value, interval float64) error {
	spec := unix.ItimerSpec{
		Value:    timespec(value),
		Interval: timespec(interval),
	}
	if err := unix.TimerfdSettime(t.fd, 0, &spec, nil); err != nil {
		return fmt.Errorf("timerfd_settime: %w", err)
	}
	return nil
}

func (t *timerfdTimer) Fd() int { return t.fd }

func (t *timerfdTimer) ArmOneShot(now, after float64) error {
	after = max(after, minDelay)
	if err := t.settime(after, 0); err != nil {
		return err
	}
	t.armed = true
	t.interval = 0
	t.deadline = now + after
	return nil
}

func (t *timerfdTimer) ArmPeriodic(now, interval float64) error {
	if interval <= 0 {
		return fmt.Errorf("periodic interval must be > 0")
	}
	if err := t.settime(interval, interval); err != nil {
		return err
	}
	t.armed = true
	t.interval = interval
	t.deadline = now + interval
	return nil
}

func (t *timerfdTimer) Disarm() error {
	if !t.armed {
		return nil
	}
	t.armed = false
	t.interval = 0
	return t.settime(0, 0)
}

func (t *timerfdTimer) Armed() bool       { return t.armed }
func (t *timerfdTimer) Interval() float64 { return t.interval }
func (t *timerfdTimer) Deadline() float64 { return t.deadline }

func (t *timerfdTimer) Fired(now float64) bool {
	if !t.armed {
		return false
	}
	var buf [8]byte
	n, err := unix.Read(t.fd, buf[:])
	if err != nil || n != len(buf) {
		return false
	}
	count := binary.NativeEndian.Uint64(buf[:])
	if count == 0 {
		return false
	}
	if t.interval > 0 {
		t.deadline += float64(count) * t.interval
		if t.deadline <= now {
			t.deadline = now + t.interval
		}
	} else {
		t.armed = false
	}
	return true
}

func (t *timerfdTimer) Close() error {
	return unix.Close(t.fd)
}
