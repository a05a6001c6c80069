package parser

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/rmlog/records"
	"github.com/vkngwrapper/rmlog/rmutils"
)

// UnrecognizedTokenError reports a parameter the schema for its call does not know about, or a
// value that is neither a hex literal, a decimal literal nor the null token. The record it was
// found on is still produced.
type UnrecognizedTokenError struct {
	Line  int
	Call  records.Kind
	Key   string
	Value string
}

func (e *UnrecognizedTokenError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("line %d: %s: unrecognized parameter %q", e.Line, e.Call, e.Key)
	}
	return fmt.Sprintf("line %d: %s: unrecognized value %s=%q", e.Line, e.Call, e.Key, e.Value)
}

func (e *UnrecognizedTokenError) Unwrap() error {
	return rmutils.ErrUnrecognizedToken
}

// Warnings are the non-fatal diagnostics raised while decoding one line
type Warnings []error

var durationPattern = regexp.MustCompile(`^([0-9]+)ns$`)

// paramSet indexes one parameter list by key and remembers which keys were consumed, so
// anything left over can be reported.
type paramSet struct {
	kind     records.Kind
	line     int
	scope    string
	params   map[string]param
	order    []string
	used     map[string]bool
	warnings *Warnings
}

func newParamSet(kind records.Kind, line int, scope string, list []param, warnings *Warnings) *paramSet {
	s := &paramSet{
		kind:     kind,
		line:     line,
		scope:    scope,
		params:   make(map[string]param, len(list)),
		used:     make(map[string]bool, len(list)),
		warnings: warnings,
	}
	for _, p := range list {
		if _, seen := s.params[p.key]; !seen {
			s.order = append(s.order, p.key)
		}
		// the driver never repeats a key; if it does, the last occurrence wins
		s.params[p.key] = p
	}
	return s
}

func (s *paramSet) qualified(key string) string {
	if s.scope == "" {
		return key
	}
	return s.scope + "." + key
}

func (s *paramSet) warn(key, value string) {
	*s.warnings = append(*s.warnings, &UnrecognizedTokenError{
		Line:  s.line,
		Call:  s.kind,
		Key:   s.qualified(key),
		Value: value,
	})
}

func (s *paramSet) has(key string) bool {
	_, ok := s.params[key]
	return ok
}

// value returns the atom stored under key, or a Missing value rendering as def
func (s *paramSet) value(key, def string) records.Value {
	p, ok := s.params[key]
	if !ok {
		return records.Default(def)
	}
	s.used[key] = true
	if p.nested {
		s.warn(key, "{...}")
		return records.Default(def)
	}

	v := records.ParseValue(p.atom)
	if v.Kind() == records.ValueInvalid {
		s.warn(key, p.atom)
	}
	return v
}

// require is value for parameters the record cannot exist without
func (s *paramSet) require(key string) (records.Value, error) {
	p, ok := s.params[key]
	if !ok {
		return records.Value{}, errors.Newf("missing required parameter %q", s.qualified(key))
	}
	if p.nested {
		return records.Value{}, errors.Newf("parameter %q must be a value, not a group", s.qualified(key))
	}
	s.used[key] = true
	return records.ParseValue(p.atom), nil
}

func (s *paramSet) group(key string) (*paramSet, bool, error) {
	p, ok := s.params[key]
	if !ok {
		return nil, false, nil
	}
	s.used[key] = true
	if !p.nested {
		return nil, true, errors.Newf("parameter %q must be a {...} group", s.qualified(key))
	}
	return newParamSet(s.kind, s.line, s.qualified(key), p.group, s.warnings), true, nil
}

func (s *paramSet) requireGroup(key string) (*paramSet, error) {
	g, ok, err := s.group(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Newf("missing required group %q", s.qualified(key))
	}
	return g, nil
}

// status decodes a status code, which must be numeric
func (s *paramSet) status() (records.Value, error) {
	v, err := s.require("status")
	if err != nil {
		return records.Value{}, err
	}
	if !v.Valid() {
		return records.Value{}, errors.Newf("status %q is not a number", v.String())
	}
	return v, nil
}

// duration decodes the duration=<digits>ns parameter into nanoseconds
func (s *paramSet) duration() (uint64, error) {
	p, ok := s.params["duration"]
	if !ok || p.nested {
		return 0, errors.Newf("missing required parameter %q", s.qualified("duration"))
	}
	s.used["duration"] = true

	m := durationPattern.FindStringSubmatch(p.atom)
	if m == nil {
		return 0, errors.Newf("duration %q is not of the form <digits>ns", p.atom)
	}
	ns, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "duration %q", p.atom)
	}
	return ns, nil
}

// finish reports every parameter that was never consumed
func (s *paramSet) finish() {
	for _, key := range s.order {
		if s.used[key] {
			continue
		}
		s.warn(key, "")
	}
}

// accept marks keys as expected without decoding them
func (s *paramSet) accept(keys ...string) {
	for _, key := range keys {
		if s.has(key) {
			s.used[key] = true
		}
	}
}
