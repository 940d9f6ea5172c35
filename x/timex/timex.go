package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// NowUs returns Unix microseconds as int64. Pulse capture truncates this to
// uint32; all pulse arithmetic is wrap-safe.
func NowUs() int64 { return time.Now().UnixMicro() }

// PeriodFromHz returns a nanosecond period for a requested frequency.
// freqHz==0 is coerced to 1 to avoid division by zero.
func PeriodFromHz(freqHz uint32) uint64 {
	if freqHz == 0 {
		freqHz = 1
	}
	return uint64(1_000_000_000 / uint64(freqHz))
}

// PeriodUsFromHz returns the carrier period in microseconds.
func PeriodUsFromHz(freqHz uint32) uint32 {
	if freqHz == 0 {
		freqHz = 1
	}
	return 1_000_000 / freqHz
}
