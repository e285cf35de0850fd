// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package timing implements the present-time bookkeeping a Swapchain
// keeps when the caller opts into the present-timing extension: a
// bounded, presentID-ordered store of timing records, refreshed from
// the native window's frame-timestamp history and drained once ready.
//
// Grounded line-for-line on TimingInfo/get_num_ready_timings/
// copy_ready_timings in swapchain.cpp.
package timing

import "github.com/gviegas/wsiandroid/window"

// MaxTimingInfos is the maximum number of Records a Store retains per
// swapchain; enrolling past this drops the oldest record.
const MaxTimingInfos = 10

// MinFramesAgo is the minimum number of frames back a refresh looks
// into the window's timestamp history, so as not to force a
// synchronous round-trip to the compositor for very recent frames.
const MinFramesAgo = 5

// Values is the reportable result of one present, matching
// VkPastPresentationTimingGOOGLE.
type Values struct {
	PresentID           uint32
	DesiredPresentTime  uint64
	ActualPresentTime   uint64
	EarliestPresentTime uint64
	PresentMargin       uint64
}

// Record is one in-flight timing entry: the reportable Values plus the
// four raw timestamps collected from the window, not yet finalized
// until all four are non-zero.
type Record struct {
	vals Values

	desiredPresentTime  uint64
	actualPresentTime   uint64
	renderCompleteTime  uint64
	compositionLatchTime uint64
}

// NewRecord creates a Record for a newly submitted present, keyed on
// presentID/desiredPresentTime.
func NewRecord(presentID uint32, desiredPresentTime uint64) Record {
	return Record{vals: Values{PresentID: presentID, DesiredPresentTime: desiredPresentTime}}
}

// Ready reports whether all four raw timestamps have been collected.
func (r *Record) Ready() bool {
	return r.desiredPresentTime != 0 && r.actualPresentTime != 0 &&
		r.renderCompleteTime != 0 && r.compositionLatchTime != 0
}

// calculate derives EarliestPresentTime and PresentMargin from the raw
// timestamps, crediting back whole refresh periods the compositor could
// have presented earlier while keeping a positive latch margin.
func (r *Record) calculate(refresh uint64) {
	r.vals.ActualPresentTime = r.actualPresentTime
	margin := r.compositionLatchTime - r.renderCompleteTime
	early := r.actualPresentTime
	for margin > refresh && early-refresh > r.compositionLatchTime {
		early -= refresh
		margin -= refresh
	}
	r.vals.EarliestPresentTime = early
	r.vals.PresentMargin = margin
}

// Store is a presentID-ordered, bounded collection of Records for one
// swapchain.
type Store struct {
	records []Record
}

// Enroll inserts r, keeping the store ordered by presentID, and drops
// the oldest record if the store now exceeds MaxTimingInfos.
func (s *Store) Enroll(r Record) {
	i := 0
	for i < len(s.records) && s.records[i].vals.PresentID < r.vals.PresentID {
		i++
	}
	s.records = append(s.records, Record{})
	copy(s.records[i+1:], s.records[i:])
	s.records[i] = r
	if len(s.records) > MaxTimingInfos {
		s.records = s.records[1:]
	}
}

// Refresh probes w's frame-timestamp history, starting MinFramesAgo
// frames back and going up to the store's current size, for every
// record not yet ready, matching by exact equality of
// desiredPresentTime. On a match it copies the four timestamps and, if
// the record becomes ready, runs calculate. It returns the number of
// records ready after the probe (both already-ready and newly-ready).
func (s *Store) Refresh(w window.Window, minRefreshNs uint64) int {
	ready := 0
	framesAgo := len(s.records)
	for i := range s.records {
		r := &s.records[i]
		if r.Ready() {
			ready++
			continue
		}
		for f := MinFramesAgo; f < framesAgo; f++ {
			ts, ok, err := w.GetFrameTimestamps(f, r.vals.DesiredPresentTime)
			if err != nil {
				break
			}
			if !ok {
				continue
			}
			if ts.RequestedPresentTime != r.vals.DesiredPresentTime {
				continue
			}
			r.desiredPresentTime = ts.RequestedPresentTime
			r.actualPresentTime = ts.DisplayPresentTime
			r.renderCompleteTime = ts.RenderCompleteTime
			r.compositionLatchTime = ts.CompositionLatchTime
			if r.Ready() {
				r.calculate(minRefreshNs)
				ready++
			}
			break
		}
	}
	return ready
}

// Drain copies every ready record, in store order, into out (up to
// len(out)), removes the copied records from the store, and returns
// the number copied.
func (s *Store) Drain(out []Values) int {
	n := 0
	kept := s.records[:0]
	for _, r := range s.records {
		if n < len(out) && r.Ready() {
			out[n] = r.vals
			n++
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	return n
}

// NumReady reports, without draining, how many records are currently
// ready.
func (s *Store) NumReady() int {
	n := 0
	for i := range s.records {
		if s.records[i].Ready() {
			n++
		}
	}
	return n
}

// Len returns the number of records currently enrolled.
func (s *Store) Len() int { return len(s.records) }

// Clear empties the store, as done when a swapchain is orphaned.
func (s *Store) Clear() { s.records = nil }
