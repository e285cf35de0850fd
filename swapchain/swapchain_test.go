// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package swapchain_test

import (
	"testing"

	"github.com/gviegas/wsiandroid/alloc"
	syncfake "github.com/gviegas/wsiandroid/fencesync/fake"
	"github.com/gviegas/wsiandroid/gpudriver"
	drvfake "github.com/gviegas/wsiandroid/gpudriver/fake"
	"github.com/gviegas/wsiandroid/surface"
	"github.com/gviegas/wsiandroid/swapchain"
	"github.com/gviegas/wsiandroid/timing"
	"github.com/gviegas/wsiandroid/window"
	winfake "github.com/gviegas/wsiandroid/window/fake"
)

func newSurface(t *testing.T, w *winfake.Window) *surface.Surface {
	t.Helper()
	s, err := surface.Create(w, nil)
	if err != nil {
		t.Fatalf("surface.Create: %v", err)
	}
	return s
}

func createInfo() swapchain.CreateInfo {
	return swapchain.CreateInfo{
		MinImageCount: 2,
		ImageFormat:   gpudriver.FormatRGBA8UNorm,
		ImageExtent:   surface.Extent{Width: 800, Height: 600},
		ImageUsage:    gpudriver.UsageColorAttachment,
		PresentMode:   surface.PresentModeFIFO,
	}
}

func TestCreateAllocatesSlotsAndReturnsAllBuffers(t *testing.T) {
	w := winfake.NewWindow(800, 600, 0)
	s := newSurface(t, w)
	drv := drvfake.NewDriver()

	sc, err := swapchain.Create(s, createInfo(), drv, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	// minUndequeued(2) + MinImageCount(2) - 1 = 3 slots.
	if n := sc.ImageCount(); n != 3 {
		t.Fatalf("ImageCount: have %d, want 3", n)
	}
	if w.BufferCount() != 3 {
		t.Fatalf("window buffer count: have %d, want 3", w.BufferCount())
	}
	// Every dequeued buffer must have been returned to the free list.
	if got := len(freeLen(w)); got != 3 {
		t.Fatalf("window free buffers after create: have %d, want 3", got)
	}
	if s.ActiveSwapchain() != sc.Handle() {
		t.Fatal("surface active swapchain not set to new swapchain")
	}
}

// freeLen dequeues every buffer to count how many the window currently
// holds free, then cancels them back - a black-box way to observe the
// fake window's internal free-list length without exporting it.
func freeLen(w *winfake.Window) []window.Buffer {
	var bufs []window.Buffer
	for {
		b, _, err := w.DequeueBuffer()
		if err != nil {
			break
		}
		bufs = append(bufs, b)
	}
	for _, b := range bufs {
		w.CancelBuffer(b, -1)
	}
	return bufs
}

func TestCreateRollsBackOnDriverFailure(t *testing.T) {
	w := winfake.NewWindow(800, 600, 0)
	s := newSurface(t, w)
	drv := drvfake.NewDriver()
	drv.FailCreateImage = true

	_, err := swapchain.Create(s, createInfo(), drv, nil)
	if err == nil {
		t.Fatal("Create: want error on driver image-creation failure")
	}
	if w.BufferCount() != 3 {
		t.Fatalf("window buffer count after failed create: have %d, want 3", w.BufferCount())
	}
	if s.ActiveSwapchain() != 0 {
		t.Fatal("surface active swapchain set despite failed create")
	}
}

func TestCreateRejectsWrongOldSwapchain(t *testing.T) {
	w := winfake.NewWindow(800, 600, 0)
	s := newSurface(t, w)
	drv := drvfake.NewDriver()

	info := createInfo()
	info.OldSwapchain = 12345
	_, err := swapchain.Create(s, info, drv, nil)
	if err != swapchain.ErrNativeWindowInUse {
		t.Fatalf("Create: have err=%v, want ErrNativeWindowInUse", err)
	}
}

func TestAcquireNextImageHappyPath(t *testing.T) {
	w := winfake.NewWindow(800, 600, 0)
	s := newSurface(t, w)
	drv := drvfake.NewDriver()
	sc, err := swapchain.Create(s, createInfo(), drv, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	idx, result, err := sc.AcquireNextImage(s, nil, nil, nil)
	if err != nil {
		t.Fatalf("AcquireNextImage: %v", err)
	}
	if result != swapchain.ResultSuccess {
		t.Fatalf("AcquireNextImage: result have %v, want Success", result)
	}
	if idx < 0 || idx >= sc.ImageCount() {
		t.Fatalf("AcquireNextImage: index %d out of range", idx)
	}
	if drv.AcquireCalls() != 1 {
		t.Fatalf("driver AcquireImage calls: have %d, want 1", drv.AcquireCalls())
	}
}

func TestAcquireNextImageOutOfDateWhenNotActive(t *testing.T) {
	w := winfake.NewWindow(800, 600, 0)
	s := newSurface(t, w)
	drv := drvfake.NewDriver()
	sc, err := swapchain.Create(s, createInfo(), drv, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	s.SetActiveSwapchain(0)

	idx, result, err := sc.AcquireNextImage(s, nil, nil, nil)
	if err != nil {
		t.Fatalf("AcquireNextImage: %v", err)
	}
	if result != swapchain.ResultOutOfDate {
		t.Fatalf("AcquireNextImage: result have %v, want OutOfDate", result)
	}
	if idx != 0 {
		t.Fatalf("AcquireNextImage: index have %d, want 0", idx)
	}
}

func TestAcquireNextImageDriverFailureRestoresSlot(t *testing.T) {
	w := winfake.NewWindow(800, 600, 0)
	s := newSurface(t, w)
	drv := drvfake.NewDriver()
	sc, err := swapchain.Create(s, createInfo(), drv, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	before := w.BufferCount()
	drv.FailAcquireImage = true

	_, _, err = sc.AcquireNextImage(s, nil, nil, nil)
	if err == nil {
		t.Fatal("AcquireNextImage: want error on driver acquire failure")
	}
	if w.BufferCount() != before {
		t.Fatalf("window buffer count changed: have %d, want %d", w.BufferCount(), before)
	}
}

func TestQueuePresentReturnsBufferToWindow(t *testing.T) {
	w := winfake.NewWindow(800, 600, 0)
	s := newSurface(t, w)
	drv := drvfake.NewDriver()
	sc, err := swapchain.Create(s, createInfo(), drv, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	idx, _, err := sc.AcquireNextImage(s, nil, nil, nil)
	if err != nil {
		t.Fatalf("AcquireNextImage: %v", err)
	}

	result := sc.QueuePresent(s, idx, nil, nil, 1, 0, false)
	if result != swapchain.ResultSuccess {
		t.Fatalf("QueuePresent: result have %v, want Success", result)
	}
	if drv.ReleaseCalls() != 1 {
		t.Fatalf("driver QueueSignalReleaseImage calls: have %d, want 1", drv.ReleaseCalls())
	}
}

func TestQueuePresentConvertsDamageToNativeConvention(t *testing.T) {
	w := winfake.NewWindow(800, 600, 0)
	s := newSurface(t, w)
	drv := drvfake.NewDriver()
	sc, err := swapchain.Create(s, createInfo(), drv, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	idx, _, err := sc.AcquireNextImage(s, nil, nil, nil)
	if err != nil {
		t.Fatalf("AcquireNextImage: %v", err)
	}

	damage := []swapchain.DamageRect{{OffsetX: 10, OffsetY: 20, Width: 30, Height: 40}}
	result := sc.QueuePresent(s, idx, nil, damage, 1, 0, false)
	if result != swapchain.ResultSuccess {
		t.Fatalf("QueuePresent: result have %v, want Success", result)
	}

	got := w.Damage()
	want := window.Rect{Left: 10, Top: 60, Right: 40, Bottom: 20}
	if len(got) != 1 || got[0] != want {
		t.Fatalf("window damage: have %v, want [%v]", got, want)
	}
}

// failingAllocator always fails Realloc, exercising the silent-drop
// path when present-region scratch space cannot be grown.
type failingAllocator struct{}

func (failingAllocator) Reserve(size int, scope alloc.Scope) bool { return true }
func (failingAllocator) Alloc(size int, scope alloc.Scope) []byte { return make([]byte, size) }
func (failingAllocator) Realloc(buf []byte, size int, scope alloc.Scope) []byte {
	return nil
}
func (failingAllocator) Free(buf []byte, scope alloc.Scope) {}

func TestQueuePresentDropsDamageOnAllocFailure(t *testing.T) {
	w := winfake.NewWindow(800, 600, 0)
	s := newSurface(t, w)
	drv := drvfake.NewDriver()
	info := createInfo()
	info.Allocator = failingAllocator{}
	sc, err := swapchain.Create(s, info, drv, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	idx, _, err := sc.AcquireNextImage(s, nil, nil, nil)
	if err != nil {
		t.Fatalf("AcquireNextImage: %v", err)
	}

	damage := []swapchain.DamageRect{{OffsetX: 1, OffsetY: 2, Width: 3, Height: 4}}
	result := sc.QueuePresent(s, idx, nil, damage, 1, 0, false)
	if result != swapchain.ResultSuccess {
		t.Fatalf("QueuePresent: result have %v, want Success", result)
	}
	if got := w.Damage(); got != nil {
		t.Fatalf("window damage: have %v, want nil (hint dropped)", got)
	}
}

func TestQueuePresentEnrollsTimingRecord(t *testing.T) {
	w := winfake.NewWindow(800, 600, 0)
	s := newSurface(t, w)
	drv := drvfake.NewDriver()
	sc, err := swapchain.Create(s, createInfo(), drv, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	idx, _, err := sc.AcquireNextImage(s, nil, nil, nil)
	if err != nil {
		t.Fatalf("AcquireNextImage: %v", err)
	}

	// Frame-timestamp collection is never enabled ahead of time; a
	// present-times chain on the first present must lazily turn it on.
	result := sc.QueuePresent(s, idx, nil, nil, 7, 5000, true)
	if result != swapchain.ResultSuccess {
		t.Fatalf("QueuePresent: result have %v, want Success", result)
	}

	// The record isn't ready yet (the fake window never produces a
	// matching frame on its own), but draining must not panic and must
	// report nothing copied.
	out := make([]timing.Values, 1)
	n, incomplete := sc.PastPresentationTiming(out)
	if n != 0 || incomplete {
		t.Fatalf("PastPresentationTiming: have n=%d incomplete=%v, want n=0 incomplete=false", n, incomplete)
	}
}

func TestQueuePresentEnrollsTimingRecordEvenWithZeroDesiredTime(t *testing.T) {
	w := winfake.NewWindow(800, 600, 0)
	s := newSurface(t, w)
	drv := drvfake.NewDriver()
	sc, err := swapchain.Create(s, createInfo(), drv, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	idx, _, err := sc.AcquireNextImage(s, nil, nil, nil)
	if err != nil {
		t.Fatalf("AcquireNextImage: %v", err)
	}

	// "Present ASAP but still track this ID": desiredPresentTime is 0,
	// but a present-times chain was supplied, so a Timing Record must
	// still be enrolled (only SetBuffersTimestamp is skipped).
	result := sc.QueuePresent(s, idx, nil, nil, 9, 0, true)
	if result != swapchain.ResultSuccess {
		t.Fatalf("QueuePresent: result have %v, want Success", result)
	}

	out := make([]timing.Values, 1)
	n, incomplete := sc.PastPresentationTiming(out)
	if n != 0 || incomplete {
		t.Fatalf("PastPresentationTiming: have n=%d incomplete=%v, want n=0 incomplete=false", n, incomplete)
	}
}

func TestQueuePresentOutOfDateWhenOrphaned(t *testing.T) {
	w := winfake.NewWindow(800, 600, 0)
	s := newSurface(t, w)
	drv := drvfake.NewDriver()
	// The orphaned present waits on and closes the driver's release
	// fence itself, so this test needs a real Syncer.
	sc, err := swapchain.Create(s, createInfo(), drv, syncfake.NewSyncer())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	idx, _, err := sc.AcquireNextImage(s, nil, nil, nil)
	if err != nil {
		t.Fatalf("AcquireNextImage: %v", err)
	}
	sc.Orphan(s)

	result := sc.QueuePresent(s, idx, nil, nil, 1, 0, false)
	if result != swapchain.ResultOutOfDate {
		t.Fatalf("QueuePresent after orphan: result have %v, want OutOfDate", result)
	}
}

func TestQueuePresentFailureEscalatesToOrphan(t *testing.T) {
	w := winfake.NewWindow(800, 600, 0)
	s := newSurface(t, w)
	drv := drvfake.NewDriver()
	sc, err := swapchain.Create(s, createInfo(), drv, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	idx, _, err := sc.AcquireNextImage(s, nil, nil, nil)
	if err != nil {
		t.Fatalf("AcquireNextImage: %v", err)
	}
	drv.FailQueueSignalRelease = true

	result := sc.QueuePresent(s, idx, nil, nil, 1, 0, false)
	if result != swapchain.ResultOutOfHostMemory {
		t.Fatalf("QueuePresent: result have %v, want OutOfHostMemory", result)
	}
	if s.ActiveSwapchain() != 0 {
		t.Fatal("surface active swapchain not cleared after present escalation")
	}
}

func TestOrphanOnlyReleasesNonDequeuedSlots(t *testing.T) {
	w := winfake.NewWindow(800, 600, 0)
	s := newSurface(t, w)
	drv := drvfake.NewDriver()
	sc, err := swapchain.Create(s, createInfo(), drv, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	total := sc.ImageCount()
	before := make([]gpudriver.Image, total)
	sc.Images(before)

	idx, _, err := sc.AcquireNextImage(s, nil, nil, nil)
	if err != nil {
		t.Fatalf("AcquireNextImage: %v", err)
	}

	sc.Orphan(s)
	if s.ActiveSwapchain() != 0 {
		t.Fatal("Orphan: active swapchain not cleared")
	}
	// Every non-dequeued slot's image was destroyed; the still-dequeued
	// slot's (idx) image was left alone.
	destroyed := 0
	for i, img := range before {
		if drv.Destroyed(img) {
			destroyed++
			if i == idx {
				t.Fatal("Orphan: destroyed the still-dequeued slot's image")
			}
		}
	}
	if destroyed != total-1 {
		t.Fatalf("destroyed images after orphan: have %d, want %d", destroyed, total-1)
	}
}

func TestDestroyReleasesAllSlotsRegardlessOfDequeuedState(t *testing.T) {
	w := winfake.NewWindow(800, 600, 0)
	s := newSurface(t, w)
	drv := drvfake.NewDriver()
	sc, err := swapchain.Create(s, createInfo(), drv, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, _, err := sc.AcquireNextImage(s, nil, nil, nil); err != nil {
		t.Fatalf("AcquireNextImage: %v", err)
	}

	sc.Destroy(s)

	if s.ActiveSwapchain() != 0 {
		t.Fatal("Destroy: active swapchain not cleared")
	}
}

func TestWorstResultRanksBySeverity(t *testing.T) {
	cases := []struct {
		a, b, want swapchain.Result
	}{
		{swapchain.ResultSuccess, swapchain.ResultSuboptimal, swapchain.ResultSuboptimal},
		{swapchain.ResultSuboptimal, swapchain.ResultOutOfDate, swapchain.ResultOutOfDate},
		{swapchain.ResultOutOfDate, swapchain.ResultDeviceLost, swapchain.ResultDeviceLost},
		{swapchain.ResultDeviceLost, swapchain.ResultSuccess, swapchain.ResultDeviceLost},
		{swapchain.ResultSurfaceLost, swapchain.ResultOutOfDate, swapchain.ResultSurfaceLost},
	}
	for _, c := range cases {
		if got := swapchain.WorstResult(c.a, c.b); got != c.want {
			t.Fatalf("WorstResult(%v, %v): have %v, want %v", c.a, c.b, got, c.want)
		}
	}
}
