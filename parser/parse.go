// Package parser turns driver resource-manager log lines into typed call records.
package parser

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/rmlog/records"
	"github.com/vkngwrapper/rmlog/rmutils"
)

// Separator splits a call's request parameters from its result parameters
const Separator = " -> "

var callNames = []struct {
	name string
	kind records.Kind
}{
	{"vidHeapControl", records.KindAllocation},
	{"mapMemoryDma", records.KindMapping},
	{"dupObject", records.KindDuplication},
}

// LineError is returned for a line that names a known call but could not be decoded. It
// matches rmutils.ErrMalformedRecord under errors.Is.
type LineError struct {
	Line int
	Call records.Kind
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %s: %v", e.Line, e.Call, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// StripComment removes a trailing # comment and surrounding whitespace
func StripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}

// Classify returns the kind of call a line refers to, by call name
func Classify(line string) (records.Kind, bool) {
	for _, c := range callNames {
		if strings.Contains(line, c.name) {
			return c.kind, true
		}
	}
	return 0, false
}

// ParseLine decodes one log line. Lines that are not call records (no known call name, or no
// request/result separator) yield a nil record and a nil error. A line naming a known call
// that cannot be decoded yields a *LineError. Warnings carries unrecognized tokens found on an
// otherwise valid record.
func ParseLine(line string, lineNumber int) (records.Record, Warnings, error) {
	line = StripComment(line)
	kind, ok := Classify(line)
	if !ok || !strings.Contains(line, Separator) {
		return nil, nil, nil
	}

	var warnings Warnings
	rec, err := decode(kind, line, lineNumber, &warnings)
	if err != nil {
		return nil, warnings, &LineError{
			Line: lineNumber,
			Call: kind,
			Err:  errors.Mark(err, rmutils.ErrMalformedRecord),
		}
	}
	return rec, warnings, nil
}

func decode(kind records.Kind, line string, lineNumber int, warnings *Warnings) (records.Record, error) {
	parts := strings.Split(line, Separator)
	if len(parts) != 2 {
		return nil, errors.Newf("expected exactly one %q separator, found %d", strings.TrimSpace(Separator), len(parts)-1)
	}

	args, err := callArguments(kind, parts[0])
	if err != nil {
		return nil, err
	}
	request, err := scanParams(args)
	if err != nil {
		return nil, errors.Wrap(err, "request parameters")
	}
	result, err := scanParams(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, errors.Wrap(err, "result parameters")
	}

	req := newParamSet(kind, lineNumber, "", request, warnings)
	res := newParamSet(kind, lineNumber, "", result, warnings)

	var rec records.Record
	switch kind {
	case records.KindAllocation:
		rec, err = decodeAllocation(lineNumber, req, res)
	case records.KindMapping:
		rec, err = decodeMapping(lineNumber, req, res)
	case records.KindDuplication:
		rec, err = decodeDuplication(lineNumber, req, res)
	default:
		return nil, errors.Newf("unsupported call kind %d", kind)
	}
	if err != nil {
		return nil, err
	}

	req.finish()
	res.finish()
	return rec, nil
}

// callArguments returns the text between the parentheses following the call name, which may
// carry a numeric version suffix (mapMemoryDma2). Occurrences of the name not followed by an
// argument list, such as a tag in the line prefix, are skipped.
func callArguments(kind records.Kind, request string) (string, error) {
	name := kind.String()
	found := false

	for from := 0; from < len(request); {
		at := strings.Index(request[from:], name)
		if at < 0 {
			break
		}
		at += from
		found = true

		open := at + len(name)
		for open < len(request) && request[open] >= '0' && request[open] <= '9' {
			open++
		}
		if open < len(request) && request[open] == '(' {
			closing := matchParen(request, open)
			if closing < 0 {
				return "", errors.Newf("unterminated argument list for %q", request[at:open])
			}
			return request[open+1 : closing], nil
		}
		from = at + len(name)
	}

	if !found {
		return "", errors.Newf("call name %q not found before the separator", name)
	}
	return "", errors.Newf("expected '(' after %q", name)
}

var descriptorKeys = []string{
	"owner", "hMemory", "type", "flags", "attr", "format", "comprCovg", "zcullCovg", "width", "height",
	"size", "alignment", "offset", "limit", "address", "rangeBegin", "rangeEnd", "attr2", "ctagOffset", "numaNode",
}

func decodeDescriptor(s *paramSet) records.AllocationDescriptor {
	d := records.AllocationDescriptor{
		Owner:      s.value("owner", "0x0"),
		HMemory:    s.value("hMemory", "0x0"),
		Type:       s.value("type", "0x0"),
		Flags:      s.value("flags", "0x0"),
		Attr:       s.value("attr", "0x0"),
		Format:     s.value("format", "0x0"),
		ComprCovg:  s.value("comprCovg", "0x0"),
		ZcullCovg:  s.value("zcullCovg", "0x0"),
		Width:      s.value("width", "0x0"),
		Height:     s.value("height", "0x0"),
		Size:       s.value("size", "0x0"),
		Alignment:  s.value("alignment", "0x0"),
		Offset:     s.value("offset", "0x0"),
		Limit:      s.value("limit", "0x0"),
		Address:    s.value("address", records.NullToken),
		RangeBegin: s.value("rangeBegin", "0x0"),
		RangeEnd:   s.value("rangeEnd", "0x0"),
		Attr2:      s.value("attr2", "0x0"),
		CtagOffset: s.value("ctagOffset", "0x0"),
		NumaNode:   s.value("numaNode", "0"),
	}
	s.finish()
	return d
}

var vidHeapControlKeys = []string{"hRoot", "hObjectParent", "function", "hVASpace", "ivcHeapNumber", "status", "total", "free"}

func decodeAllocation(lineNumber int, req, res *paramSet) (*records.AllocationCall, error) {
	parms, err := req.requireGroup("vidHeapControlParms")
	if err != nil {
		return nil, err
	}
	allocSize, err := parms.requireGroup("AllocSize")
	if err != nil {
		return nil, err
	}

	call := &records.AllocationCall{
		LineNumber:    lineNumber,
		HRoot:         parms.value("hRoot", "0x0"),
		HObjectParent: parms.value("hObjectParent", "0x0"),
		Function:      parms.value("function", "0x0"),
		HVASpace:      parms.value("hVASpace", "0x0"),
		IvcHeapNumber: parms.value("ivcHeapNumber", "0x0"),
		StatusBefore:  parms.value("status", "0x0"),
		Total:         parms.value("total", "0x0"),
		Free:          parms.value("free", "0x0"),
		Before:        decodeDescriptor(allocSize),
		AllocPtr:      req.value("alloc", records.NullToken),
		BlPtr:         req.value("bl", records.NullToken),
	}
	parms.finish()

	call.Status, err = res.status()
	if err != nil {
		return nil, err
	}
	call.DurationNs, err = res.duration()
	if err != nil {
		return nil, err
	}

	call.After = call.Before
	resultParms, ok, err := res.group("vidHeapControlParms")
	if err != nil {
		return nil, err
	}
	if ok {
		resultAllocSize, found, err := resultParms.group("AllocSize")
		if err != nil {
			return nil, err
		}
		if found {
			call.After = decodeDescriptor(resultAllocSize)
		}
		resultParms.accept(vidHeapControlKeys...)
		resultParms.finish()
	}

	return call, nil
}

var mappingKeys = []string{"hClient", "hDevice", "hDma", "hMemory", "offset", "length", "flags", "flags2", "kindOverride", "dmaOffset"}

func decodeMapping(lineNumber int, req, res *paramSet) (*records.MappingCall, error) {
	parms, err := req.requireGroup("parms")
	if err != nil {
		return nil, err
	}

	call := &records.MappingCall{
		LineNumber:      lineNumber,
		HClient:         parms.value("hClient", "0x0"),
		HDevice:         parms.value("hDevice", "0x0"),
		HDma:            parms.value("hDma", "0x0"),
		HMemory:         parms.value("hMemory", "0x0"),
		Offset:          parms.value("offset", "0x0"),
		Length:          parms.value("length", "0x0"),
		Flags:           parms.value("flags", "0x0"),
		Flags2:          parms.value("flags2", "0x0"),
		KindOverride:    parms.value("kindOverride", "0x0"),
		DmaOffsetBefore: parms.value("dmaOffset", "0x0"),
	}
	parms.finish()

	call.Status, err = res.status()
	if err != nil {
		return nil, err
	}
	call.DurationNs, err = res.duration()
	if err != nil {
		return nil, err
	}

	resultParms, err := res.requireGroup("parms")
	if err != nil {
		return nil, err
	}
	call.DmaOffsetAfter = call.DmaOffsetBefore
	if resultParms.has("dmaOffset") {
		call.DmaOffsetAfter = resultParms.value("dmaOffset", "0x0")
	}
	resultParms.accept(mappingKeys...)
	resultParms.finish()

	return call, nil
}

func decodeDuplication(lineNumber int, req, res *paramSet) (*records.DuplicationCall, error) {
	call := &records.DuplicationCall{
		LineNumber: lineNumber,
		HClient:    req.value("hClient", "0x0"),
		HParent:    req.value("hParent", "0x0"),
		HClientSrc: req.value("hClientSrc", "0x0"),
		HObjectSrc: req.value("hObjectSrc", "0x0"),
		Flags:      req.value("flags", "0x0"),
	}
	// the requested destination is superseded by the one the driver reports back
	req.accept("hObjectDest")

	var err error
	call.Status, err = res.status()
	if err != nil {
		return nil, err
	}
	call.DurationNs, err = res.duration()
	if err != nil {
		return nil, err
	}

	call.HObjectDest, err = res.require("hObjectDest")
	if err != nil {
		return nil, err
	}
	if !call.HObjectDest.Valid() {
		return nil, errors.Newf("hObjectDest %q is not a handle", call.HObjectDest.String())
	}

	return call, nil
}
