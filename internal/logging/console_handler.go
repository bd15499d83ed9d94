package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	ansiReset  = "\x1b[0m"
	ansiDim    = "\x1b[2m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiCyan   = "\x1b[36m"
)

// consoleHandler renders records as single human-readable lines for a
// terminal. Hints and impact on warnings and errors follow on indented lines.
type consoleHandler struct {
	mu        *sync.Mutex
	writer    io.Writer
	level     *slog.LevelVar
	attrs     []slog.Attr
	groups    []string
	addSource bool
	color     bool
}

func newConsoleHandler(w io.Writer, lvl *slog.LevelVar, addSource, color bool) slog.Handler {
	return &consoleHandler{mu: &sync.Mutex{}, writer: w, level: lvl, addSource: addSource, color: color}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	if record.Level < h.level.Level() {
		return nil
	}

	kvs := make([]kv, 0, record.NumAttrs()+len(h.attrs))
	flattenAttrs(&kvs, h.groups, h.attrs)
	record.Attrs(func(attr slog.Attr) bool {
		flattenAttr(&kvs, h.groups, attr)
		return true
	})

	var line consoleLine
	line.level = record.Level
	line.message = strings.TrimSpace(record.Message)
	if line.message == "" {
		line.message = "(no message)"
	}
	verbose := h.level.Level() <= slog.LevelDebug
	for _, kv := range kvs {
		switch kv.key {
		case "":
			continue
		case FieldComponent:
			line.component = firstValue(line.component, kv.value)
		case FieldRunID:
			line.runID = firstValue(line.runID, kv.value)
		case FieldStage:
			line.stage = firstValue(line.stage, kv.value)
		case FieldErrorHint:
			line.hint = firstValue(line.hint, kv.value)
		case FieldImpact:
			line.impact = firstValue(line.impact, kv.value)
		case FieldEventType:
			if verbose {
				line.fields = append(line.fields, kv)
			}
		default:
			line.fields = append(line.fields, kv)
		}
	}

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	var buf bytes.Buffer
	buf.Grow(128 + len(line.fields)*24)
	h.writeHeader(&buf, ts, line)
	for _, kv := range line.fields {
		buf.WriteByte(' ')
		buf.WriteString(kv.key)
		buf.WriteByte('=')
		buf.WriteString(formatValue(kv.value))
	}
	if h.addSource {
		if src := record.Source(); src != nil && src.File != "" {
			buf.WriteString(h.paint(ansiDim, " ["+filepath.Base(src.File)+":"+strconv.Itoa(src.Line)+"]"))
		}
	}
	buf.WriteByte('\n')
	if record.Level >= slog.LevelWarn {
		h.writeDetail(&buf, "hint", line.hint)
		h.writeDetail(&buf, "impact", line.impact)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.writer.Write(buf.Bytes())
	return err
}

type consoleLine struct {
	level     slog.Level
	component string
	runID     string
	stage     string
	message   string
	hint      string
	impact    string
	fields    []kv
}

func (h *consoleHandler) writeHeader(buf *bytes.Buffer, ts time.Time, line consoleLine) {
	buf.WriteString(h.paint(ansiDim, formatClock(ts)))
	buf.WriteByte(' ')
	buf.WriteString(h.paint(levelColor(line.level), levelLabel(line.level)))
	if line.component != "" {
		buf.WriteString(" [")
		buf.WriteString(line.component)
		buf.WriteByte(']')
	}
	if subject := FormatSubject(line.runID, line.stage); subject != "" {
		buf.WriteByte(' ')
		buf.WriteString(subject)
	}
	buf.WriteString(" – ")
	buf.WriteString(line.message)
}

func (h *consoleHandler) writeDetail(buf *bytes.Buffer, label, value string) {
	if value == "" {
		return
	}
	buf.WriteString("    ")
	buf.WriteString(h.paint(ansiDim, label+":"))
	buf.WriteByte(' ')
	buf.WriteString(value)
	buf.WriteByte('\n')
}

func (h *consoleHandler) paint(color, value string) string {
	if !h.color || color == "" {
		return value
	}
	return color + value + ansiReset
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := h.clone()
	clone.attrs = append(clone.attrs, attrs...)
	return clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	clone := h.clone()
	clone.groups = append(clone.groups, name)
	return clone
}

func (h *consoleHandler) clone() *consoleHandler {
	clone := *h
	clone.attrs = append([]slog.Attr(nil), h.attrs...)
	clone.groups = append([]string(nil), h.groups...)
	return &clone
}

func firstValue(current string, v slog.Value) string {
	if current != "" {
		return current
	}
	return attrString(v)
}

type kv struct {
	key   string
	value slog.Value
}

func flattenAttrs(dst *[]kv, prefix []string, attrs []slog.Attr) {
	for _, attr := range attrs {
		flattenAttr(dst, prefix, attr)
	}
}

func flattenAttr(dst *[]kv, prefix []string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() == slog.KindGroup {
		next := prefix
		if attr.Key != "" {
			next = append(append([]string(nil), prefix...), attr.Key)
		}
		flattenAttrs(dst, next, attr.Value.Group())
		return
	}
	key := attr.Key
	if len(prefix) > 0 {
		key = strings.Join(append(append([]string(nil), prefix...), key), ".")
		key = strings.TrimSuffix(key, ".")
	}
	*dst = append(*dst, kv{key: key, value: attr.Value})
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return ansiRed
	case level >= slog.LevelWarn:
		return ansiYellow
	case level >= slog.LevelInfo:
		return ansiCyan
	default:
		return ansiDim
	}
}
