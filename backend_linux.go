//go:build linux

package waitset

import (
	"math"

	"golang.org/x/sys/unix"
)

// maxCapacity bounds the epoll_wait event buffer.
const maxCapacity = 1 << 20

// epollBackend implements backend using epoll, in level-triggered mode.
type epollBackend struct {
	regs   map[Handle]*registration
	events []unix.EpollEvent
	epfd   int
}

func newBackend(capacity int, regs map[Handle]*registration) (backend, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, &ResourceError{Op: `epoll_create1`, Err: err}
	}
	return &epollBackend{
		regs:   regs,
		events: make([]unix.EpollEvent, capacity),
		epfd:   epfd,
	}, nil
}

func (b *epollBackend) name() string { return `epoll` }

func (b *epollBackend) maxTimeout() int64 { return math.MaxInt32 }

func (b *epollBackend) add(reg *registration) error {
	ev := unix.EpollEvent{
		Events: readyToEpoll(reg.interest),
		Fd:     int32(reg.handle),
	}
	if err := unix.EpollCtl(b.epfd, unix.EPOLL_CTL_ADD, reg.handle, &ev); err != nil {
		return &RegistrationError{Op: `add`, Handle: reg.handle, Err: err}
	}
	return nil
}

func (b *epollBackend) change(reg *registration, interest Ready) error {
	ev := unix.EpollEvent{
		Events: readyToEpoll(interest),
		Fd:     int32(reg.handle),
	}
	if err := unix.EpollCtl(b.epfd, unix.EPOLL_CTL_MOD, reg.handle, &ev); err != nil {
		return &RegistrationError{Op: `change`, Handle: reg.handle, Err: err}
	}
	return nil
}

func (b *epollBackend) remove(reg *registration) error {
	return unix.EpollCtl(b.epfd, unix.EPOLL_CTL_DEL, reg.handle, nil)
}

func (b *epollBackend) poll(timeout int64, out []Event) ([]Event, int, error) {
	n, err := unix.EpollWait(b.epfd, b.events, int(timeout))
	if err != nil {
		if err == unix.EINTR {
			return out, 0, errInterrupted
		}
		return out, 0, &WaitError{Op: `epoll_wait`, Err: err}
	}
	var spurious int
	for i := range b.events[:n] {
		ev := &b.events[i]
		reg := b.regs[Handle(ev.Fd)]
		ready := epollToReady(ev.Events)
		if reg == nil || ready == 0 {
			spurious++
			continue
		}
		out = append(out, Event{Token: reg.token, Ready: ready})
	}
	return out, spurious, nil
}

func (b *epollBackend) close() error {
	return unix.Close(b.epfd)
}

// readyToEpoll converts interest to epoll flags. EPOLLERR is always
// reported by the kernel, but is included for clarity.
func readyToEpoll(interest Ready) uint32 {
	events := uint32(unix.EPOLLERR)
	if interest&ReadyRead != 0 {
		events |= unix.EPOLLIN | unix.EPOLLPRI
	}
	if interest&ReadyWrite != 0 {
		events |= unix.EPOLLOUT
	}
	return events
}

// epollToReady converts epoll flags to readiness. A hangup is reported as
// both readable and error, since it is only observable via a read.
func epollToReady(events uint32) Ready {
	var ready Ready
	if events&(unix.EPOLLIN|unix.EPOLLPRI) != 0 {
		ready |= ReadyRead
	}
	if events&unix.EPOLLOUT != 0 {
		ready |= ReadyWrite
	}
	if events&unix.EPOLLERR != 0 {
		ready |= ReadyError
	}
	if events&unix.EPOLLHUP != 0 {
		ready |= ReadyRead | ReadyError
	}
	return ready
}
