package protector

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestSnapshotRoundTrip(t *testing.T) {
	rt := New()
	defineReturn(t, rt, rt.NewArrayIterator(nil, IterationKindValue))

	var buf bytes.Buffer
	if err := rt.Protectors().Snapshot().Encode(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "ArrayIteratorProtector: false") {
		t.Fatalf("unexpected encoding:\n%s", buf.String())
	}

	s, err := DecodeSnapshot(&buf)
	if err != nil {
		t.Fatal(err)
	}
	var causes []Cause
	rt2 := New(WithInvalidationListener(func(inv Invalidation) {
		causes = append(causes, inv.Cause)
	}))
	if err := rt2.Protectors().Apply(s); err != nil {
		t.Fatal(err)
	}
	expectProtectors(t, rt2, map[Protector]bool{ArrayIteratorProtector: false})
	if len(causes) != 1 || causes[0].Op != OpSnapshot {
		t.Fatalf("unexpected causes %v", causes)
	}
}

func TestSnapshotVersion(t *testing.T) {
	_, err := DecodeSnapshot(strings.NewReader("format_version: 2.0.0\nprotectors: {}\n"))
	if !errors.Is(err, ErrSnapshotVersion) {
		t.Fatalf("unexpected error %v", err)
	}
	_, err = DecodeSnapshot(strings.NewReader("format_version: banana\n"))
	if !errors.Is(err, ErrSnapshotVersion) {
		t.Fatalf("unexpected error %v", err)
	}
	if _, err := DecodeSnapshot(strings.NewReader("format_version: 1.2.0\nprotectors: {}\n")); err != nil {
		t.Fatalf("minor version bump rejected: %v", err)
	}
}

func TestSnapshotUnknownProtector(t *testing.T) {
	rt := New()
	s := &Snapshot{
		FormatVersion: SnapshotFormatVersion,
		Protectors: map[string]bool{
			"ArrayIteratorProtector": false,
			"NoSuchProtector":        false,
		},
	}
	if err := rt.Protectors().Apply(s); !errors.Is(err, ErrUnknownProtector) {
		t.Fatalf("unexpected error %v", err)
	}
	// nothing is applied when the snapshot is rejected
	expectProtectors(t, rt, nil)
}
