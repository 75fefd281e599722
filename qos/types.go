package qos

import (
	"time"
)

// Flags describe the state of a Sample.
type Flags uint8

const (
	FlagComplete        Flags = 0x01
	FlagTargetContacted Flags = 0x02
)

// Sample is the measurement reported for one target.
type Sample struct {
	ProbesSent     uint8
	ProbesReceived uint8
	Data           []byte
	RTTMin         time.Duration
	RTTMedian      time.Duration
	UpBitsPerSec   uint32
	DownBitsPerSec uint32
	Flags          Flags
}

// Complete reports whether the sample is finished and reached its target.
func (s Sample) Complete() bool {
	return s.Flags&(FlagComplete|FlagTargetContacted) == FlagComplete|FlagTargetContacted
}

// Result holds the samples of one lookup, in target order.
type Result struct {
	Samples []Sample
}
