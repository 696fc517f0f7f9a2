package utils

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"time"
)

type Logger struct {
	out *log.Logger
}

func NewLogger() *Logger {
	return NewLoggerTo(os.Stderr)
}

func NewLoggerTo(w io.Writer) *Logger {
	return &Logger{out: log.New(w, "", 0)}
}

func (l *Logger) Info(msg string, fields map[string]interface{}) {
	l.log("info", msg, fields)
}

func (l *Logger) Warn(msg string, fields map[string]interface{}) {
	l.log("warn", msg, fields)
}

func (l *Logger) Error(msg string, fields map[string]interface{}) {
	l.log("error", msg, fields)
}

func (l *Logger) log(level, msg string, fields map[string]interface{}) {
	if l == nil || l.out == nil {
		return
	}
	entry := map[string]interface{}{
		"level":     level,
		"message":   msg,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range fields {
		entry[k] = v
	}
	b, err := json.Marshal(entry)
	if err != nil {
		l.out.Printf("level=%s msg=%s", level, msg)
		return
	}
	l.out.Println(string(b))
}
