package activity

import (
	"sync"
	"time"
)

type Level string

const (
	LevelInfo    Level = "INFO"
	LevelSuccess Level = "SUCCESS"
	LevelError   Level = "ERROR"
)

// DefaultMaxEntries bounds the in-memory log.
const DefaultMaxEntries = 100

type Entry struct {
	Time    time.Time
	Level   Level
	Message string
}

// Callback is invoked for every new entry.
type Callback func(Entry)

// Log is a bounded in-memory activity feed shown on the info page.
type Log struct {
	mu        sync.RWMutex
	entries   []Entry
	max       int
	callbacks []Callback
	now       func() time.Time
}

func NewLog(max int) *Log {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	return &Log{max: max, now: time.Now}
}

// OnEntry registers fn for every future entry.
func (l *Log) OnEntry(fn Callback) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.callbacks = append(l.callbacks, fn)
}

func (l *Log) Info(msg string)    { l.Add(LevelInfo, msg) }
func (l *Log) Success(msg string) { l.Add(LevelSuccess, msg) }
func (l *Log) Error(msg string)   { l.Add(LevelError, msg) }

// Add appends an entry, dropping the oldest one when the log is full.
func (l *Log) Add(level Level, msg string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	entry := Entry{Time: l.now(), Level: level, Message: msg}
	l.entries = append(l.entries, entry)
	if over := len(l.entries) - l.max; over > 0 {
		l.entries = append(l.entries[:0:0], l.entries[over:]...)
	}
	callbacks := append([]Callback(nil), l.callbacks...)
	l.mu.Unlock()

	for _, fn := range callbacks {
		func() {
			defer func() { _ = recover() }()
			fn(entry)
		}()
	}
}

// Recent returns up to n entries, newest first. n <= 0 returns all.
func (l *Log) Recent(n int) []Entry {
	if l == nil {
		return nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]Entry, 0, n)
	for i := len(l.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, l.entries[i])
	}
	return out
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}
