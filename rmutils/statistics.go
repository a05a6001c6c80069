package rmutils

import "math"

// Statistics counts calls of one kind and the bytes moved by the successful ones
type Statistics struct {
	CallCount    int
	SuccessCount int
	FailureCount int
	Bytes        uint64
}

func (s *Statistics) Clear() {
	s.CallCount = 0
	s.SuccessCount = 0
	s.FailureCount = 0
	s.Bytes = 0
}

func (s *Statistics) AddStatistics(other *Statistics) {
	s.CallCount += other.CallCount
	s.SuccessCount += other.SuccessCount
	s.FailureCount += other.FailureCount
	s.Bytes += other.Bytes
}

// DetailedStatistics adds duration tracking on top of Statistics. Records whose size or
// duration failed to parse are left out of the corresponding totals and counted instead.
type DetailedStatistics struct {
	Statistics
	DurationCount    int
	DurationTotal    uint64
	DurationMin      uint64
	DurationMax      uint64
	UnparsedSizes    int
	UnparsedDuration int
}

func (s *DetailedStatistics) Clear() {
	s.Statistics.Clear()
	s.DurationCount = 0
	s.DurationTotal = 0
	s.DurationMin = math.MaxUint64
	s.DurationMax = 0
	s.UnparsedSizes = 0
	s.UnparsedDuration = 0
}

// AddCall accounts for one call. Only successful calls contribute bytes.
func (s *DetailedStatistics) AddCall(succeeded bool, bytes uint64, bytesValid bool) {
	s.CallCount++
	if !succeeded {
		s.FailureCount++
		return
	}

	s.SuccessCount++
	if !bytesValid {
		s.UnparsedSizes++
		return
	}
	s.Bytes += bytes
}

func (s *DetailedStatistics) AddDuration(ns uint64, valid bool) {
	if !valid {
		s.UnparsedDuration++
		return
	}

	s.DurationCount++
	s.DurationTotal += ns

	if ns < s.DurationMin {
		s.DurationMin = ns
	}

	if ns > s.DurationMax {
		s.DurationMax = ns
	}
}

// AverageDuration returns the mean duration in nanoseconds, zero when no duration was recorded
func (s *DetailedStatistics) AverageDuration() float64 {
	if s.DurationCount == 0 {
		return 0
	}
	return float64(s.DurationTotal) / float64(s.DurationCount)
}

func (s *DetailedStatistics) AddDetailedStatistics(other *DetailedStatistics) {
	s.Statistics.AddStatistics(&other.Statistics)
	s.DurationCount += other.DurationCount
	s.DurationTotal += other.DurationTotal
	s.UnparsedSizes += other.UnparsedSizes
	s.UnparsedDuration += other.UnparsedDuration

	if other.DurationMin < s.DurationMin {
		s.DurationMin = other.DurationMin
	}

	if other.DurationMax > s.DurationMax {
		s.DurationMax = other.DurationMax
	}
}
