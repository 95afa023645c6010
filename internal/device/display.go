package device

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// ErrCursorOutOfRange is returned by SetCursor outside the display.
var ErrCursorOutOfRange = errors.New("cursor out of range")

// Frame is a character buffer with a cursor, clipped at row ends like a
// character LCD with line wrapping disabled.
type Frame struct {
	cols, rows int
	cells      [][]rune
	col, row   int
}

// NewFrame creates a blank frame.
func NewFrame(cols, rows int) *Frame {
	f := &Frame{
		cols:  cols,
		rows:  rows,
		cells: make([][]rune, rows),
	}

	for i := range f.cells {
		f.cells[i] = make([]rune, cols)
	}

	f.Clear()

	return f
}

// Clear blanks the frame and homes the cursor.
func (f *Frame) Clear() {
	for _, row := range f.cells {
		for i := range row {
			row[i] = ' '
		}
	}

	f.col, f.row = 0, 0
}

// SetCursor moves the cursor.
func (f *Frame) SetCursor(col, row int) error {
	if col < 0 || col >= f.cols || row < 0 || row >= f.rows {
		return fmt.Errorf("(%d,%d) on %dx%d: %w", col, row, f.cols, f.rows, ErrCursorOutOfRange)
	}

	f.col, f.row = col, row

	return nil
}

// Print writes text at the cursor; characters past the row end are dropped.
func (f *Frame) Print(text string) {
	for _, r := range text {
		if f.col >= f.cols {
			return
		}

		f.cells[f.row][f.col] = r
		f.col++
	}
}

// Lines returns the rows as strings.
func (f *Frame) Lines() []string {
	lines := make([]string, len(f.cells))
	for i, row := range f.cells {
		lines[i] = string(row)
	}

	return lines
}

// String joins the rows with newlines.
func (f *Frame) String() string {
	return strings.Join(f.Lines(), "\n")
}

// bufferedDisplay serializes frame access and tracks the last flushed frame.
type bufferedDisplay struct {
	mu        sync.Mutex
	frame     *Frame
	lastFrame string
}

func (d *bufferedDisplay) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.frame.Clear()

	return nil
}

func (d *bufferedDisplay) SetCursor(col, row int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.frame.SetCursor(col, row)
}

func (d *bufferedDisplay) Print(text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.frame.Print(text)

	return nil
}

// Lines returns the current rows.
func (d *bufferedDisplay) Lines() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.frame.Lines()
}

// changed reports the frame text and whether it differs from the last flush.
func (d *bufferedDisplay) changed() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	current := d.frame.String()
	if current == d.lastFrame {
		return current, false
	}

	d.lastFrame = current

	return current, true
}

// ConsoleDisplay logs each new frame.
type ConsoleDisplay struct {
	bufferedDisplay

	log *zap.SugaredLogger
}

// NewConsoleDisplay creates a console display of cols x rows characters.
func NewConsoleDisplay(log *zap.SugaredLogger, cols, rows int) *ConsoleDisplay {
	return &ConsoleDisplay{
		bufferedDisplay: bufferedDisplay{frame: NewFrame(cols, rows)},
		log:             log,
	}
}

// Flush logs the frame when it differs from the previous one.
func (d *ConsoleDisplay) Flush() error {
	if _, ok := d.changed(); !ok {
		return nil
	}

	lines := d.Lines()
	kvs := make([]any, 0, 2*len(lines))

	for i, line := range lines {
		kvs = append(kvs, fmt.Sprintf("row%d", i), line)
	}

	d.log.Infow("Display", kvs...)

	return nil
}

// FileDisplay writes each new frame to a file, replacing it atomically so
// readers never observe a half-written frame.
type FileDisplay struct {
	bufferedDisplay

	path string
}

// NewFileDisplay creates a file display of cols x rows characters.
func NewFileDisplay(path string, cols, rows int) *FileDisplay {
	return &FileDisplay{
		bufferedDisplay: bufferedDisplay{frame: NewFrame(cols, rows)},
		path:            filepath.Clean(path),
	}
}

// Flush writes the frame when it differs from the previous one.
func (d *FileDisplay) Flush() error {
	text, ok := d.changed()
	if !ok {
		return nil
	}

	tmp := d.path + ".tmp"

	if err := os.WriteFile(tmp, []byte(text+"\n"), filePermissions); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}

	if err := os.Rename(tmp, d.path); err != nil {
		return fmt.Errorf("replace frame: %w", err)
	}

	return nil
}
