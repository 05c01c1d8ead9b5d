// Package console implements the operator shell on the station's serial port.
//
// A reader goroutine assembles complete commands (including the multi-key
// code and date entries) and hands them to the control loop over a channel,
// so the loop never blocks on operator input.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/goburrow/serial"

	"github.com/sweeney/alarm-station/internal/logic"
)

// Station is the controller surface the console queries and commands.
type Station interface {
	AlarmActive() bool
	GasDetected() bool
	OverTemperature() bool
	TemperatureC() float64
	LockedOut() bool
	SubmitCode(code logic.Code) logic.CodeResult
	SetCode(code logic.Code)
	Code() logic.Code
	Events() []logic.Record
}

// Clock is the settable wall clock.
type Clock interface {
	Now() time.Time
	Set(t time.Time)
}

// Shell reads commands from r and writes replies and notices to w.
// Writes are serialized so reader echo and loop notices do not interleave.
type Shell struct {
	mu  sync.Mutex
	w   io.Writer
	r   *bufio.Reader
	loc *time.Location
}

// New creates a shell. Times are shown in local time.
func New(r io.Reader, w io.Writer) *Shell {
	return &Shell{
		w:   w,
		r:   bufio.NewReader(r),
		loc: time.Local,
	}
}

// SetLocation changes the zone used when showing times.
func (s *Shell) SetLocation(loc *time.Location) {
	s.loc = loc
}

// OpenSerial opens the console UART at 8N1. Reads block until a key arrives.
func OpenSerial(device string, baud int) (io.ReadWriteCloser, error) {
	if device == "" {
		return nil, errors.New("console: device required")
	}
	rwc, err := serial.Open(&serial.Config{
		Address:  device,
		BaudRate: baud,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
	})
	if err != nil {
		return nil, fmt.Errorf("console: open %s: %w", device, err)
	}
	return rwc, nil
}

func (s *Shell) write(str string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	io.WriteString(s.w, str)
}

func (s *Shell) writef(format string, args ...interface{}) {
	s.write(fmt.Sprintf(format, args...))
}

// Banner prints the startup message.
func (s *Shell) Banner(code logic.Code) {
	s.writef("Enter Code %s to Deactivate Alarm\r\n", code)
}

// Menu prints the available commands.
func (s *Shell) Menu() {
	s.write("Available commands:\r\n" +
		"Press '1' to get the alarm state\r\n" +
		"Press '2' to get the gas detector state\r\n" +
		"Press '3' to get the over temperature detector state\r\n" +
		"Press '4' to enter the code sequence\r\n" +
		"Press '5' to enter a new code\r\n" +
		"Press 'f' or 'F' to get lm35 reading in Fahrenheit\r\n" +
		"Press 'c' or 'C' to get lm35 reading in Celsius\r\n" +
		"Press 's' or 'S' to set the date and time\r\n" +
		"Press 't' or 'T' to get the date and time\r\n" +
		"Press 'e' or 'E' to get the stored events\r\n\r\n")
}

// ctime formats t like C ctime(3), without the trailing newline.
func (s *Shell) ctime(t time.Time) string {
	return t.In(s.loc).Format(time.ANSIC)
}

// EventLog prints the stored records, oldest first.
func (s *Shell) EventLog(records []logic.Record) {
	var b []byte
	b = append(b, "Recent Alarm Events:\r\n"...)
	for _, r := range records {
		b = append(b, fmt.Sprintf("Event: %s, Time: %s\r\n", r.Label, s.ctime(r.Time()))...)
	}
	b = append(b, "\r\n"...)
	s.write(string(b))
}

// Report prints the notices for one control tick.
func (s *Shell) Report(out logic.Output, st Station) {
	if out.TestActivated {
		s.writef("Event: TEST_BUTTON_ON, Time: %s\r\n", s.ctime(out.Time))
	}
	switch out.Code {
	case logic.CodeAccepted:
		s.write("Alarm Deactivated\r\n")
	case logic.CodeRejected:
		s.write("Incorrect Code\r\n")
		if st.LockedOut() {
			s.write("System Blocked\r\n")
		}
	}
	if out.ShowLog {
		s.EventLog(st.Events())
	}
	for _, r := range out.Records {
		s.writef("%s\r\n", r.Label)
	}
}
