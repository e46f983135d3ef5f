package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// PrettyJSONHandler is a slog.Handler that writes each record as an indented
// JSON object. It is not optimized for throughput.
type PrettyJSONHandler struct {
	out       io.Writer
	mu        *sync.Mutex
	level     slog.Leveler
	addSource bool

	pre    []slog.Attr
	groups []string
}

func NewPrettyJSONHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyJSONHandler {
	h := &PrettyJSONHandler{out: w, mu: &sync.Mutex{}, level: slog.LevelInfo}
	if opts != nil {
		if opts.Level != nil {
			h.level = opts.Level
		}
		h.addSource = opts.AddSource
	}
	return h
}

func (h *PrettyJSONHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *PrettyJSONHandler) Handle(_ context.Context, r slog.Record) error {
	at := r.Time
	if at.IsZero() {
		at = time.Now()
	}
	doc := map[string]any{
		"time":  at.Format(time.RFC3339Nano),
		"level": r.Level.String(),
		"msg":   r.Message,
	}
	if h.addSource && r.PC != 0 {
		doc["source"] = callerOf(r.PC)
	}

	target := doc
	for _, g := range h.groups {
		child := map[string]any{}
		target[g] = child
		target = child
	}
	for _, a := range h.pre {
		putAttr(target, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		putAttr(target, a)
		return true
	})

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		// Unencodable values (NaN, channels) still get a line.
		b = []byte(fmt.Sprintf(`{"time":%s,"level":%s,"msg":%s,"encode_error":%s}`,
			strconv.Quote(doc["time"].(string)), strconv.Quote(r.Level.String()),
			strconv.Quote(r.Message), strconv.Quote(err.Error())))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.out.Write(append(b, '\n'))
	return err
}

func (h *PrettyJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	c := *h
	c.pre = append(append([]slog.Attr(nil), h.pre...), attrs...)
	return &c
}

func (h *PrettyJSONHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.groups = append(append([]string(nil), h.groups...), name)
	return &c
}

func putAttr(dst map[string]any, a slog.Attr) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		members := v.Group()
		if len(members) == 0 {
			return
		}
		// An empty key inlines the group's members.
		sub := dst
		if a.Key != "" {
			sub = map[string]any{}
			dst[a.Key] = sub
		}
		for _, m := range members {
			putAttr(sub, m)
		}
		return
	}
	if a.Key == "" {
		return
	}
	dst[a.Key] = plain(v)
}

func plain(v slog.Value) any {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindBool:
		return v.Bool()
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	case slog.KindAny:
		switch x := v.Any().(type) {
		case error:
			return x.Error()
		case fmt.Stringer:
			return x.String()
		default:
			return x
		}
	default:
		return v.String()
	}
}

func callerOf(pc uintptr) string {
	f, _ := runtime.CallersFrames([]uintptr{pc}).Next()
	if f.File == "" {
		return ""
	}
	file := f.File
	if i := strings.LastIndexByte(file, '/'); i >= 0 {
		file = file[i+1:]
	}
	return file + ":" + strconv.Itoa(f.Line)
}
