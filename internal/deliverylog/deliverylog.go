// Package deliverylog appends one structured line per delivery attempt
// to a rotating log file. Logging is best-effort: every failure is
// swallowed so the delivery path never blocks on it.
package deliverylog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"
)

const (
	subdir   = "telegram"
	filename = "delivery.log"
)

const (
	TypeError    = "telegram_error"
	TypeResponse = "telegram_response"
)

// Response is the reduced view of a provider reply that gets logged,
// never the full raw payload.
type Response struct {
	OK          *bool  `json:"ok"`
	Description string `json:"description"`
}

// Entry is one delivery attempt. OrderID is 0 for test sends.
type Entry struct {
	Type     string    `json:"type"`
	OrderID  int       `json:"order_id"`
	ChatID   string    `json:"chat_id"`
	Error    string    `json:"error,omitempty"`
	Code     int       `json:"code,omitempty"`
	Response *Response `json:"response,omitempty"`
}

func ErrorEntry(orderID int, chatID, errText string) Entry {
	return Entry{Type: TypeError, OrderID: orderID, ChatID: chatID, Error: errText}
}

func ResponseEntry(orderID int, chatID string, code int, ok *bool, description string) Entry {
	return Entry{
		Type:     TypeResponse,
		OrderID:  orderID,
		ChatID:   chatID,
		Code:     code,
		Response: &Response{OK: ok, Description: description},
	}
}

// Logger writes to a fixed subpath of the external storage root. Only
// rotation size and retention are configurable.
type Logger struct {
	root string
	mu   sync.Mutex

	now func() time.Time
}

func New(root string) *Logger {
	return &Logger{root: root, now: time.Now}
}

func (l *Logger) path() string {
	return filepath.Join(l.root, subdir, filename)
}

// Append writes the entry and then rotates when the file exceeds
// sizeKB kilobytes, keeping up to keep previous generations. A sizeKB
// of 0 disables rotation.
func (l *Logger) Append(e Entry, sizeKB, keep int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path()), 0o755); err != nil {
		return
	}

	line, err := json.Marshal(e)
	if err != nil {
		return
	}

	f, err := os.OpenFile(l.path(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer f.Close()

	// Exclusive lock guards against interleaved writes from a second
	// process sharing the storage root.
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		return
	}
	defer syscall.Flock(int(f.Fd()), syscall.LOCK_UN)

	stamp := l.now().UTC().Format("2006-01-02 15:04:05")
	if _, err := fmt.Fprintf(f, "[%s] %s\n", stamp, line); err != nil {
		return
	}

	if sizeKB <= 0 {
		return
	}
	info, err := f.Stat()
	if err != nil || info.Size() <= int64(sizeKB)*1024 {
		return
	}
	l.rotate(keep)
}

// rotate shifts file.N to file.N+1 for N from keep-1 down to 1, then
// moves the active file to file.1. The oldest generation is dropped by
// the overwriting rename; nothing past keep is ever created.
func (l *Logger) rotate(keep int) {
	path := l.path()
	for i := keep - 1; i >= 1; i-- {
		src := fmt.Sprintf("%s.%d", path, i)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		_ = os.Rename(src, fmt.Sprintf("%s.%d", path, i+1))
	}
	_ = os.Rename(path, path+".1")
}
