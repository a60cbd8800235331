package main

import "time"

// Linux input event types and codes (from <linux/input-event-codes.h>)
const (
	EV_SYN = 0x00
	EV_KEY = 0x01
	EV_REL = 0x02
	EV_ABS = 0x03

	SYN_REPORT  = 0x00
	SYN_DROPPED = 0x03

	BTN_LEFT  = 0x110
	BTN_TOUCH = 0x14a

	REL_X = 0x00
	REL_Y = 0x01

	ABS_X = 0x00
	ABS_Y = 0x01

	// Multitouch protocol B
	ABS_MT_SLOT        = 0x2f
	ABS_MT_POSITION_X  = 0x35
	ABS_MT_POSITION_Y  = 0x36
	ABS_MT_TRACKING_ID = 0x39
)

// Input event value constants
const (
	evValueRelease = 0
	evValuePress   = 1
)

// Daemon defaults
const (
	defaultPages          = 3
	defaultAutoAdvanceMS  = 5000
	defaultTransitionMS   = 400
	defaultPageWidthPx    = 1080.0
	defaultCommitRatio    = 1.0 / 3
	defaultThresholdPx    = 10.0
	defaultSocketPath     = "/tmp/carouseld.sock"
	defaultWSListen       = "127.0.0.1:3001"
	defaultWSPath         = "/ws/state"
	defaultDragCoalesceMS = 16

	// maxTouchSlots bounds the multitouch slots tracked per device.
	maxTouchSlots = 16

	eventQueueSize     = 128
	broadcastQueueSize = 128
	ipcReplyTimeout    = time.Second
)
