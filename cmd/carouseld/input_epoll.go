//go:build linux

package main

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// readInputEventsEpoll multiplexes every device on one goroutine. Each wakeup
// drains one batch from each ready device.
func readInputEventsEpoll(files []*os.File, readers []*deviceReader, events chan<- deviceEvent, readErr chan<- error) {
	if len(files) == 0 {
		readErr <- errors.New("no input devices provided")
		return
	}

	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		readErr <- fmt.Errorf("epoll_create1: %w", err)
		return
	}
	defer unix.Close(epfd)

	// The epoll payload carries the device index directly.
	for i, f := range files {
		ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(i)}
		if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, int(f.Fd()), &ev); err != nil {
			readErr <- fmt.Errorf("epoll_ctl add %s: %w", f.Name(), err)
			return
		}
	}

	ready := make([]unix.EpollEvent, len(files))
	for {
		n, err := unix.EpollWait(epfd, ready, -1)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			readErr <- fmt.Errorf("epoll_wait: %w", err)
			return
		}

		for _, ev := range ready[:n] {
			dev := int(ev.Fd)
			// A panel that errors or hangs up does not come back on its own.
			if ev.Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
				readErr <- fmt.Errorf("input device %s: error or hangup", files[dev].Name())
				return
			}
			if err := readers[dev].readOnce(events); err != nil {
				readErr <- fmt.Errorf("read %s: %w", files[dev].Name(), err)
				return
			}
		}
	}
}

// readInputEventsSelect is the select(2) fallback for kernels or sandboxes
// without epoll.
func readInputEventsSelect(files []*os.File, readers []*deviceReader, events chan<- deviceEvent, readErr chan<- error) {
	if len(files) == 0 {
		readErr <- errors.New("no input devices provided")
		return
	}

	fds := make([]int, len(files))
	maxFd := 0
	for i, f := range files {
		fds[i] = int(f.Fd())
		maxFd = max(maxFd, fds[i])
	}

	for {
		// select(2) overwrites the set.
		var set unix.FdSet
		for _, fd := range fds {
			set.Set(fd)
		}

		if _, err := unix.Select(maxFd+1, &set, nil, nil, nil); err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			readErr <- fmt.Errorf("select: %w", err)
			return
		}

		for dev, fd := range fds {
			if !set.IsSet(fd) {
				continue
			}
			if err := readers[dev].readOnce(events); err != nil {
				readErr <- fmt.Errorf("read %s: %w", files[dev].Name(), err)
				return
			}
		}
	}
}
