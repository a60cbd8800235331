package main

import (
	"encoding/binary"
	"errors"
	"io"
	"os"
)

// inputEvent mirrors the kernel's 64-bit struct input_event:
// struct timeval time; __u16 type; __u16 code; __s32 value.
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

const (
	inputEventSize = 24
	// readBatch is the number of records one read(2) may return. evdev only
	// hands out whole records.
	readBatch = 64
)

// deviceEvent tags a raw event with the index of the device it was read from,
// so each device keeps its own translator state.
type deviceEvent struct {
	Device int
	Ev     inputEvent
}

func decodeInputEvent(b []byte) inputEvent {
	return inputEvent{
		Sec:   int64(binary.LittleEndian.Uint64(b[0:8])),
		Usec:  int64(binary.LittleEndian.Uint64(b[8:16])),
		Type:  binary.LittleEndian.Uint16(b[16:18]),
		Code:  binary.LittleEndian.Uint16(b[18:20]),
		Value: int32(binary.LittleEndian.Uint32(b[20:24])),
	}
}

// deviceReader decodes records from one device. Bytes of a record split
// across reads are carried over to the next read.
type deviceReader struct {
	dev  int
	src  io.Reader
	buf  []byte
	tail int
}

func newDeviceReader(dev int, src io.Reader) *deviceReader {
	return &deviceReader{dev: dev, src: src, buf: make([]byte, readBatch*inputEventSize)}
}

// readOnce performs a single read and forwards every complete record.
func (r *deviceReader) readOnce(events chan<- deviceEvent) error {
	n, err := r.src.Read(r.buf[r.tail:])
	if n > 0 {
		n += r.tail
		whole := n - n%inputEventSize
		for off := 0; off < whole; off += inputEventSize {
			events <- deviceEvent{Device: r.dev, Ev: decodeInputEvent(r.buf[off : off+inputEventSize])}
		}
		r.tail = copy(r.buf, r.buf[whole:n])
	}
	if err == nil && n == 0 {
		return io.ErrNoProgress
	}
	return err
}

// readInputEvents reads one device until it fails. It blocks in read(2) and
// runs on its own goroutine.
func readInputEvents(r *deviceReader, events chan<- deviceEvent, readErr chan<- error) {
	for {
		if err := r.readOnce(events); err != nil {
			if errors.Is(err, io.EOF) && r.tail > 0 {
				err = io.ErrUnexpectedEOF
			}
			readErr <- err
			return
		}
	}
}

// startInputReaders launches the configured reader strategy over files.
func startInputReaders(strategy string, files []*os.File, events chan<- deviceEvent, readErr chan<- error) {
	readers := make([]*deviceReader, len(files))
	for i, f := range files {
		readers[i] = newDeviceReader(i, f)
	}

	switch strategy {
	case "select":
		go readInputEventsSelect(files, readers, events, readErr)
	case "goroutine":
		for _, r := range readers {
			go readInputEvents(r, events, readErr)
		}
	default:
		go readInputEventsEpoll(files, readers, events, readErr)
	}
}
