package estimator

import (
	"sort"
	"time"

	"github.com/sonic-howl/frc2025/pkg/geometry"
)

type poseSample struct {
	at   time.Time
	pose geometry.Pose2D
}

// history is a bounded ring buffer of odometry poses ordered by time.
type history struct {
	buf   []poseSample
	start int
	size  int
}

func newHistory(capacity int) *history {
	if capacity < 2 {
		capacity = 2
	}
	return &history{buf: make([]poseSample, capacity)}
}

func (h *history) Len() int {
	return h.size
}

func (h *history) item(i int) *poseSample {
	return &h.buf[(h.start+i)%len(h.buf)]
}

func (h *history) clear() {
	h.start, h.size = 0, 0
}

// search returns the index of the first sample not before t.
func (h *history) search(t time.Time) int {
	return sort.Search(h.size, func(i int) bool {
		return !h.item(i).at.Before(t)
	})
}

func (h *history) insert(t time.Time, pose geometry.Pose2D) {
	i := h.search(t)
	if i < h.size && h.item(i).at.Equal(t) {
		h.item(i).pose = pose
		return
	}
	if h.size == len(h.buf) {
		if i == 0 {
			// older than everything retained.
			return
		}
		h.start = (h.start + 1) % len(h.buf)
		h.size--
		i--
	}
	h.size++
	for j := h.size - 1; j > i; j-- {
		*h.item(j) = *h.item(j - 1)
	}
	*h.item(i) = poseSample{at: t, pose: pose}
}

// pruneBefore drops samples older than cutoff, keeping the last one at
// or before it so the cutoff instant itself can still be sampled.
func (h *history) pruneBefore(cutoff time.Time) {
	for h.size > 1 && !h.item(1).at.After(cutoff) {
		h.start = (h.start + 1) % len(h.buf)
		h.size--
	}
}

func (h *history) oldest() (poseSample, bool) {
	if h.size == 0 {
		return poseSample{}, false
	}
	return *h.item(0), true
}

func (h *history) newest() (poseSample, bool) {
	if h.size == 0 {
		return poseSample{}, false
	}
	return *h.item(h.size - 1), true
}

// sample returns the pose at t, interpolating between neighbours.
// Times after the newest sample get the newest pose.
func (h *history) sample(t time.Time) (geometry.Pose2D, bool) {
	if h.size == 0 || t.Before(h.item(0).at) {
		return geometry.Pose2D{}, false
	}
	i := h.search(t)
	if i == h.size {
		return h.item(h.size - 1).pose, true
	}
	after := h.item(i)
	if i == 0 || after.at.Equal(t) {
		return after.pose, true
	}
	before := h.item(i - 1)
	f := float64(t.Sub(before.at)) / float64(after.at.Sub(before.at))
	return before.pose.Interpolate(after.pose, f), true
}
