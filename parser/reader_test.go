package parser_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/rmlog/parser"
	"github.com/vkngwrapper/rmlog/records"
	"github.com/vkngwrapper/rmlog/rmutils"
	"golang.org/x/exp/slog"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func lineNumbers(recs []records.Record) []int {
	lines := make([]int, 0, len(recs))
	for _, rec := range recs {
		lines = append(lines, rec.Line())
	}
	return lines
}

func TestParseFileSample(t *testing.T) {
	var diagnostics []error
	log, err := parser.ParseFile(context.Background(), filepath.Join("testdata", "sample.log"), parser.Options{
		Logger:      quietLogger(),
		Diagnostics: func(err error) { diagnostics = append(diagnostics, err) },
	})
	require.NoError(t, err)

	require.Equal(t, 10, log.Lines)
	require.Equal(t, 1, log.Malformed)
	require.Equal(t, 0, log.Warnings)
	require.Equal(t, []int{3, 4, 5, 6, 7, 8}, lineNumbers(log.Records))

	require.Len(t, log.Allocations, 3)
	require.Len(t, log.Mappings, 2)
	require.Len(t, log.Duplications, 1)
	require.Equal(t, 3, log.Count(records.KindAllocation))
	require.Equal(t, 2, log.Count(records.KindMapping))
	require.Equal(t, 1, log.Count(records.KindDuplication))

	require.Len(t, diagnostics, 1)
	var lineErr *parser.LineError
	require.True(t, errors.As(diagnostics[0], &lineErr))
	require.Equal(t, 9, lineErr.Line)
	require.True(t, errors.Is(diagnostics[0], rmutils.ErrMalformedRecord))
}

func TestParseFileMissing(t *testing.T) {
	_, err := parser.ParseFile(context.Background(), filepath.Join(t.TempDir(), "absent.log"), parser.Options{
		Logger: quietLogger(),
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "absent.log")
}

func TestParseFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.log")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	log, err := parser.ParseFile(context.Background(), path, parser.Options{Logger: quietLogger()})
	require.NoError(t, err)
	require.Equal(t, 0, log.Lines)
	require.Empty(t, log.Records)
}

func buildLog(copies int) string {
	var sb strings.Builder
	for i := 0; i < copies; i++ {
		sb.WriteString(allocationLine)
		sb.WriteString("\n")
		sb.WriteString("noise between calls\n")
		sb.WriteString(duplicationLine)
		sb.WriteString("\n")
		sb.WriteString(mappingLine)
		sb.WriteString("\n")
		sb.WriteString("RM: dupObject2(hObjectSrc=0x1) -> status=0x0\n")
	}
	return sb.String()
}

func TestParseReaderShardedMatchesSerial(t *testing.T) {
	text := buildLog(50)

	serial, err := parser.ParseReader(context.Background(), strings.NewReader(text), parser.Options{
		Logger: quietLogger(),
	})
	require.NoError(t, err)

	var progressMu sync.Mutex
	var progress []int
	sharded, err := parser.ParseReader(context.Background(), strings.NewReader(text), parser.Options{
		Logger:  quietLogger(),
		Workers: 7,
		Progress: func(lines int) {
			progressMu.Lock()
			defer progressMu.Unlock()
			progress = append(progress, lines)
		},
	})
	require.NoError(t, err)

	require.Equal(t, 250, serial.Lines)
	require.Equal(t, serial.Lines, sharded.Lines)
	require.Equal(t, 50, serial.Malformed)
	require.Equal(t, serial.Malformed, sharded.Malformed)
	require.Len(t, serial.Records, 150)
	require.Equal(t, lineNumbers(serial.Records), lineNumbers(sharded.Records))
	require.Equal(t, serial.Records, sharded.Records)
	require.Equal(t, []int{250}, progress)
}

func TestParseReaderDiagnosticsInLineOrder(t *testing.T) {
	var lines []int
	_, err := parser.ParseReader(context.Background(), strings.NewReader(buildLog(20)), parser.Options{
		Logger:  quietLogger(),
		Workers: 4,
		Diagnostics: func(err error) {
			var lineErr *parser.LineError
			require.True(t, errors.As(err, &lineErr))
			lines = append(lines, lineErr.Line)
		},
	})
	require.NoError(t, err)
	require.Len(t, lines, 20)
	for i, line := range lines {
		require.Equal(t, 5*(i+1), line)
	}
}

func TestParseReaderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := parser.ParseReader(ctx, strings.NewReader(buildLog(2)), parser.Options{Logger: quietLogger()})
	require.Error(t, err)
	require.True(t, errors.Is(err, context.Canceled))
}

func TestParseReaderLogsWithoutSink(t *testing.T) {
	var sb strings.Builder
	logger := slog.New(slog.NewTextHandler(&sb, nil))

	log, err := parser.ParseReader(context.Background(), strings.NewReader(buildLog(1)), parser.Options{Logger: logger})
	require.NoError(t, err)
	require.Equal(t, 1, log.Malformed)
	require.Contains(t, sb.String(), "level=WARN")
	require.Contains(t, sb.String(), "Line=5")
}
