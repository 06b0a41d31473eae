// Package logging provides the structured JSON logger used across the
// service. Handlers obtain pre-scoped loggers through the domain
// constructors in context.go rather than building field maps inline.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Level is a log severity threshold.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// ParseLevel maps a config string to a Level. Unknown values fall back
// to INFO rather than failing startup.
func ParseLevel(s string) Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// Config holds logger configuration. Output is "stdout", "stderr", or a
// file path.
type Config struct {
	Level       string `json:"level"`
	Output      string `json:"output"`
	Component   string `json:"component"`
	IncludeFile bool   `json:"include_file"`
	JSONFormat  bool   `json:"json_format"`
}

// record is the wire shape of a single log line.
type record struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Component string                 `json:"component,omitempty"`
	File      string                 `json:"file,omitempty"`
	Line      int                    `json:"line,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Logger writes structured records to a single output. Scoped copies
// made with WithComponent and WithFields share that output.
type Logger struct {
	mu          sync.Mutex
	out         io.Writer
	level       Level
	component   string
	fields      map[string]interface{}
	includeFile bool
	jsonFormat  bool
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// New creates a logger from the given configuration. An unwritable file
// path silently falls back to stdout.
func New(cfg *Config) *Logger {
	var out io.Writer = os.Stdout
	switch cfg.Output {
	case "", "stdout":
	case "stderr":
		out = os.Stderr
	default:
		if f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644); err == nil {
			out = f
		}
	}

	return &Logger{
		out:         out,
		level:       ParseLevel(cfg.Level),
		component:   cfg.Component,
		fields:      make(map[string]interface{}),
		includeFile: cfg.IncludeFile,
		jsonFormat:  cfg.JSONFormat,
	}
}

// Default returns the process-wide logger, creating a JSON stdout logger
// on first use if SetDefault was never called.
func Default() *Logger {
	once.Do(func() {
		if defaultLogger == nil {
			defaultLogger = New(&Config{Level: "INFO", Component: "ledger", JSONFormat: true})
		}
	})
	return defaultLogger
}

// SetDefault installs the process-wide logger. Called once from main.
func SetDefault(l *Logger) {
	defaultLogger = l
}

// WithComponent returns a copy of the logger scoped to a component.
func (l *Logger) WithComponent(component string) *Logger {
	c := l.clone()
	c.component = component
	return c
}

// WithFields returns a copy of the logger carrying additional fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	c := l.clone()
	for k, v := range fields {
		c.fields[k] = v
	}
	return c
}

func (l *Logger) clone() *Logger {
	fields := make(map[string]interface{}, len(l.fields))
	for k, v := range l.fields {
		fields[k] = v
	}
	return &Logger{
		out:         l.out,
		level:       l.level,
		component:   l.component,
		fields:      fields,
		includeFile: l.includeFile,
		jsonFormat:  l.jsonFormat,
	}
}

// Debug logs at DEBUG. Trailing args are key-value pairs.
func (l *Logger) Debug(msg string, kv ...interface{}) { l.write(LevelDebug, msg, kv) }

// Info logs at INFO. Trailing args are key-value pairs.
func (l *Logger) Info(msg string, kv ...interface{}) { l.write(LevelInfo, msg, kv) }

// Warn logs at WARN. Trailing args are key-value pairs.
func (l *Logger) Warn(msg string, kv ...interface{}) { l.write(LevelWarn, msg, kv) }

// Error logs at ERROR. Trailing args are key-value pairs.
func (l *Logger) Error(msg string, kv ...interface{}) { l.write(LevelError, msg, kv) }

func (l *Logger) write(level Level, msg string, kv []interface{}) {
	if level < l.level {
		return
	}

	rec := record{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level.String(),
		Message:   msg,
		Component: l.component,
	}

	if len(l.fields) > 0 || len(kv) > 1 {
		rec.Fields = make(map[string]interface{}, len(l.fields)+len(kv)/2)
	}
	for k, v := range l.fields {
		rec.Fields[k] = v
	}
	// A trailing key with no value is dropped.
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		if err, isErr := kv[i+1].(error); isErr && err != nil {
			rec.Fields[key] = err.Error()
		} else {
			rec.Fields[key] = kv[i+1]
		}
	}

	if l.includeFile {
		if _, file, line, ok := runtime.Caller(2); ok {
			rec.File = file[strings.LastIndexByte(file, '/')+1:]
			rec.Line = line
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.jsonFormat {
		data, _ := json.Marshal(rec)
		fmt.Fprintln(l.out, string(data))
		return
	}
	l.writeText(rec)
}

func (l *Logger) writeText(rec record) {
	var b strings.Builder
	b.WriteString(rec.Timestamp[:19])
	fmt.Fprintf(&b, " [%-5s] ", rec.Level)
	if rec.Component != "" {
		fmt.Fprintf(&b, "[%s] ", rec.Component)
	}
	b.WriteString(rec.Message)
	if len(rec.Fields) > 0 {
		sep := " | "
		for k, v := range rec.Fields {
			fmt.Fprintf(&b, "%s%s=%v", sep, k, v)
			sep = ", "
		}
	}
	if rec.File != "" {
		fmt.Fprintf(&b, " (%s:%d)", rec.File, rec.Line)
	}
	fmt.Fprintln(l.out, b.String())
}
