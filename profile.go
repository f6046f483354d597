package protector

import (
	"io"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
)

const maxProfileStackDepth = 64

type profileEvent struct {
	inv   Invalidation
	stack []uintptr
}

/*
InvalidationProfile records where protectors get invalidated. Register Record
as an invalidation listener and write the result with Write; the output is a
regular pprof profile with one sample per invalidation, the leaf frame naming
the protector and the remaining frames the Go call stack that caused it.
*/
type InvalidationProfile struct {
	mu     sync.Mutex
	start  time.Time
	events []profileEvent
}

func NewInvalidationProfile() *InvalidationProfile {
	return &InvalidationProfile{start: time.Now()}
}

// Record is an invalidation listener.
func (p *InvalidationProfile) Record(inv Invalidation) {
	pcs := make([]uintptr, maxProfileStackDepth)
	// skip runtime.Callers and Record
	n := runtime.Callers(2, pcs)
	p.mu.Lock()
	p.events = append(p.events, profileEvent{inv: inv, stack: pcs[:n]})
	p.mu.Unlock()
}

// Len returns the number of recorded invalidations.
func (p *InvalidationProfile) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

// Profile builds a pprof profile from the recorded events.
func (p *InvalidationProfile) Profile() *profile.Profile {
	p.mu.Lock()
	defer p.mu.Unlock()

	prof := &profile.Profile{
		SampleType:    []*profile.ValueType{{Type: "invalidations", Unit: "count"}},
		PeriodType:    &profile.ValueType{Type: "invalidations", Unit: "count"},
		Period:        1,
		TimeNanos:     p.start.UnixNano(),
		DurationNanos: int64(time.Since(p.start)),
	}

	functions := make(map[string]*profile.Function)
	locations := make(map[string]*profile.Location)

	location := func(name, file string, line int) *profile.Location {
		key := name + "\x00" + file
		fn := functions[key]
		if fn == nil {
			fn = &profile.Function{
				ID:         uint64(len(prof.Function) + 1),
				Name:       name,
				SystemName: name,
				Filename:   file,
			}
			functions[key] = fn
			prof.Function = append(prof.Function, fn)
		}
		lkey := key + "\x00" + strconv.Itoa(line)
		loc := locations[lkey]
		if loc == nil {
			loc = &profile.Location{
				ID:   uint64(len(prof.Location) + 1),
				Line: []profile.Line{{Function: fn, Line: int64(line)}},
			}
			locations[lkey] = loc
			prof.Location = append(prof.Location, loc)
		}
		return loc
	}

	for _, ev := range p.events {
		locs := []*profile.Location{location("invalidate "+ev.inv.Protector.String(), "", 0)}
		frames := runtime.CallersFrames(ev.stack)
		for {
			frame, more := frames.Next()
			if frame.Function != "" {
				locs = append(locs, location(frame.Function, frame.File, frame.Line))
			}
			if !more {
				break
			}
		}
		sample := &profile.Sample{
			Location: locs,
			Value:    []int64{1},
			Label: map[string][]string{
				"protector": {ev.inv.Protector.String()},
				"op":        {ev.inv.Cause.Op.String()},
			},
		}
		if ev.inv.Cause.Key != "" {
			sample.Label["key"] = []string{ev.inv.Cause.Key}
		}
		if ev.inv.Cause.Class != "" {
			sample.Label["class"] = []string{ev.inv.Cause.Class}
		}
		prof.Sample = append(prof.Sample, sample)
	}
	return prof
}

// Write writes the profile in the gzipped protobuf format read by pprof.
func (p *InvalidationProfile) Write(w io.Writer) error {
	return p.Profile().Write(w)
}
