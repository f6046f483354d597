package protector

import (
	"errors"
	"fmt"
	"io"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// SnapshotFormatVersion is written into every snapshot.
const SnapshotFormatVersion = "1.0.0"

var ErrSnapshotVersion = errors.New("unsupported snapshot format version")

var snapshotVersionConstraint = func() *semver.Constraints {
	c, err := semver.NewConstraint("^1.0")
	if err != nil {
		panic(err)
	}
	return c
}()

// Snapshot is a point-in-time copy of a registry.
type Snapshot struct {
	FormatVersion string          `yaml:"format_version"`
	Protectors    map[string]bool `yaml:"protectors"`
}

// Snapshot captures the current state of every protector.
func (r *Registry) Snapshot() *Snapshot {
	return &Snapshot{
		FormatVersion: SnapshotFormatVersion,
		Protectors:    r.States(),
	}
}

// Apply merges s into the registry. Protectors recorded as invalid are
// invalidated; valid entries are ignored, so applying a snapshot never
// revalidates anything. Unknown protector names fail the whole call before any
// change is made.
func (r *Registry) Apply(s *Snapshot) error {
	if err := s.checkVersion(); err != nil {
		return err
	}
	var toInvalidate []Protector
	for name, valid := range s.Protectors {
		p, ok := ParseProtector(name)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownProtector, name)
		}
		if !valid {
			toInvalidate = append(toInvalidate, p)
		}
	}
	for _, p := range toInvalidate {
		r.invalidate(p, Cause{Op: OpSnapshot})
	}
	return nil
}

func (s *Snapshot) checkVersion() error {
	v, err := semver.NewVersion(s.FormatVersion)
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrSnapshotVersion, s.FormatVersion, err)
	}
	if !snapshotVersionConstraint.Check(v) {
		return fmt.Errorf("%w %q", ErrSnapshotVersion, s.FormatVersion)
	}
	return nil
}

// Encode writes s as YAML.
func (s *Snapshot) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}

// DecodeSnapshot reads a YAML snapshot and checks its format version.
func DecodeSnapshot(r io.Reader) (*Snapshot, error) {
	s := &Snapshot{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	if err := s.checkVersion(); err != nil {
		return nil, err
	}
	return s, nil
}
