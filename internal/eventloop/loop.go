// Package eventloop provides the host event loop the rest of this
// module runs on: a single goroutine polling an epoll instance and
// invoking registered fd callbacks strictly sequentially. It backs
// the embedder's add_fd/remove_fd callbacks (§6) for the demo daemon.
//
// Running every callback from one goroutine is what makes "no
// dispatcher method may be entered reentrantly" (§5) true by
// construction rather than by caller discipline.
package eventloop

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// Callback is invoked when a registered fd becomes readable.
type Callback func()

// Source is an opaque handle to a registered fd, returned by AddFD.
type Source struct {
	fd int
}

// Loop is an epoll-backed host event loop.
type Loop struct {
	epfd int

	mu      sync.Mutex
	sources map[int]Callback

	wakeR, wakeW int
	closed       chan struct{}
}

// New creates an epoll instance and a self-pipe used to unblock Run
// on Close.
func New() (*Loop, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("eventloop: epoll_create1: %w", err)
	}

	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("eventloop: pipe2: %w", err)
	}

	l := &Loop{
		epfd:    epfd,
		sources: make(map[int]Callback),
		wakeR:   fds[0],
		wakeW:   fds[1],
		closed:  make(chan struct{}),
	}

	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, l.wakeR, &unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(l.wakeR),
	}); err != nil {
		l.closeFDs()
		return nil, fmt.Errorf("eventloop: register wakeup pipe: %w", err)
	}

	return l, nil
}

// AddFD registers fd for readability notifications, invoking cb from
// the Run goroutine whenever it becomes readable.
func (l *Loop) AddFD(fd int, cb Callback) (*Source, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	event := &unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	if err := unix.EpollCtl(l.epfd, unix.EPOLL_CTL_ADD, fd, event); err != nil {
		return nil, fmt.Errorf("eventloop: add fd %d: %w", fd, err)
	}

	l.sources[fd] = cb
	return &Source{fd: fd}, nil
}

// RemoveFD deregisters a source added with AddFD. It is safe to call
// after the underlying fd has already been closed by the caller; the
// EBADF from epoll_ctl is ignored in that case since the kernel drops
// the registration automatically when a fd is closed.
func (l *Loop) RemoveFD(src *Source) {
	if src == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.sources, src.fd)
	_ = unix.EpollCtl(l.epfd, unix.EPOLL_CTL_DEL, src.fd, nil)
}

// Run polls epoll until Close is called, invoking each ready fd's
// callback in turn. It is meant to run on its own goroutine.
func (l *Loop) Run() error {
	events := make([]unix.EpollEvent, 32)
	for {
		n, err := unix.EpollWait(l.epfd, events, -1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("eventloop: epoll_wait: %w", err)
		}

		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)
			if fd == l.wakeR {
				select {
				case <-l.closed:
					return nil
				default:
				}
				continue
			}

			l.mu.Lock()
			cb, ok := l.sources[fd]
			l.mu.Unlock()
			if ok {
				cb()
			}
		}
	}
}

// Close unblocks Run. It does not close the epoll instance or the
// wake-up pipe, and it does not close any fd registered by AddFD;
// ownership of those stays with the caller.
func (l *Loop) Close() error {
	select {
	case <-l.closed:
		return nil
	default:
		close(l.closed)
	}
	_, _ = unix.Write(l.wakeW, []byte{0})
	return nil
}

func (l *Loop) closeFDs() {
	unix.Close(l.epfd)
	unix.Close(l.wakeR)
	unix.Close(l.wakeW)
}
