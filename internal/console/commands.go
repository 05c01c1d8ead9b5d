package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/sweeney/alarm-station/internal/logic"
)

// Command is one complete operator request assembled by the reader.
type Command struct {
	// Key is the command character as typed.
	Key byte
	// Code carries the four keys entered for '4' and '5'.
	Code string
	// Time carries the date and time entered for 's'.
	Time time.Time
	// Err is set when the entry for 's' could not be parsed.
	Err error
}

// readKey returns the next byte, skipping line endings.
func (s *Shell) readKey() (byte, error) {
	for {
		b, err := s.r.ReadByte()
		if err != nil {
			return 0, err
		}
		if b != '\r' && b != '\n' {
			return b, nil
		}
	}
}

// readEntry reads n keys, echoing mask for each one (or the key itself if mask is 0).
func (s *Shell) readEntry(n int, mask byte) (string, error) {
	buf := make([]byte, 0, n)
	for len(buf) < n {
		b, err := s.readKey()
		if err != nil {
			return "", err
		}
		buf = append(buf, b)
		echo := mask
		if echo == 0 {
			echo = b
		}
		s.write(string(echo))
	}
	return string(buf), nil
}

// Run reads commands until r is exhausted or ctx is done, sending each to out.
// It returns nil on EOF.
func (s *Shell) Run(ctx context.Context, out chan<- Command) error {
	for {
		cmd, err := s.next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		select {
		case out <- cmd:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Shell) next() (Command, error) {
	k, err := s.readKey()
	if err != nil {
		return Command{}, err
	}
	cmd := Command{Key: k}

	switch k {
	case '4':
		s.write("Please enter the four digits numeric code to deactivate the alarm: ")
		if cmd.Code, err = s.readEntry(logic.CodeLength, '*'); err != nil {
			return Command{}, err
		}
	case '5':
		s.write("Please enter the new four digits numeric code to deactivate the alarm: ")
		if cmd.Code, err = s.readEntry(logic.CodeLength, '*'); err != nil {
			return Command{}, err
		}
	case 's', 'S':
		if cmd.Time, cmd.Err, err = s.readDateTime(); err != nil {
			return Command{}, err
		}
	}
	return cmd, nil
}

var dateFields = []struct {
	prompt string
	digits int
	min    int
	max    int
}{
	{"Type four digits for the current year (YYYY): ", 4, 1970, 9999},
	{"Type two digits for the current month (01-12): ", 2, 1, 12},
	{"Type two digits for the current day (01-31): ", 2, 1, 31},
	{"Type two digits for the current hour (00-23): ", 2, 0, 23},
	{"Type two digits for the current minutes (00-59): ", 2, 0, 59},
	{"Type two digits for the current seconds (00-59): ", 2, 0, 59},
}

// readDateTime prompts for each date field. A malformed entry is returned as
// parseErr after every field has been read; err is an I/O failure.
func (s *Shell) readDateTime() (t time.Time, parseErr, err error) {
	var v [6]int
	s.write("\r\n")
	for i, f := range dateFields {
		s.write(f.prompt)
		entry, err := s.readEntry(f.digits, 0)
		if err != nil {
			return time.Time{}, nil, err
		}
		s.write("\r\n")

		n, convErr := strconv.Atoi(entry)
		switch {
		case convErr != nil:
			if parseErr == nil {
				parseErr = fmt.Errorf("%q is not a number", entry)
			}
		case n < f.min || n > f.max:
			if parseErr == nil {
				parseErr = fmt.Errorf("%d is out of range %d-%d", n, f.min, f.max)
			}
		}
		v[i] = n
	}
	if parseErr != nil {
		return time.Time{}, parseErr, nil
	}

	t = time.Date(v[0], time.Month(v[1]), v[2], v[3], v[4], v[5], 0, s.loc)
	if t.Day() != v[2] {
		return time.Time{}, fmt.Errorf("%04d-%02d-%02d is not a valid date", v[0], v[1], v[2]), nil
	}
	return t, nil, nil
}

// Handle executes one command against the station.
func (s *Shell) Handle(cmd Command, st Station, clk Clock) {
	switch cmd.Key {
	case '1':
		if st.AlarmActive() {
			s.write("The alarm is activated\r\n")
		} else {
			s.write("The alarm is not activated\r\n")
		}

	case '2':
		if st.GasDetected() {
			s.write("Gas is being detected\r\n")
		} else {
			s.write("Gas is not being detected\r\n")
		}

	case '3':
		if st.OverTemperature() {
			s.write("Temperature is above the maximum level\r\n")
		} else {
			s.write("Temperature is below the maximum level\r\n")
		}

	case '4':
		code, err := logic.ParseCode(cmd.Code)
		if err != nil {
			// Not a keypad symbol sequence: it cannot match, but still counts.
			code = logic.Code{}
		}
		switch st.SubmitCode(code) {
		case logic.CodeAccepted:
			s.write("\r\nThe code is correct\r\n\r\n")
		case logic.CodeBlocked:
			s.write("\r\nSystem Blocked\r\n\r\n")
		default:
			s.write("\r\nThe code is incorrect\r\n\r\n")
			if st.LockedOut() {
				s.write("System Blocked\r\n")
			}
		}

	case '5':
		code, err := logic.ParseCode(cmd.Code)
		if err != nil {
			s.writef("\r\nInvalid code: %v\r\n\r\n", err)
			return
		}
		st.SetCode(code)
		s.write("\r\nNew code generated\r\n\r\n")

	case 'c', 'C':
		s.writef("Temperature: %.2f °C\r\n", st.TemperatureC())

	case 'f', 'F':
		s.writef("Temperature: %.2f °F\r\n", logic.CelsiusToFahrenheit(st.TemperatureC()))

	case 's', 'S':
		if cmd.Err != nil {
			s.writef("Invalid date and time: %v\r\n", cmd.Err)
			return
		}
		clk.Set(cmd.Time)
		s.write("Date and time has been set\r\n")

	case 't', 'T':
		s.writef("Date and Time = %s\r\n", s.ctime(clk.Now()))

	case 'e', 'E':
		s.EventLog(st.Events())

	default:
		s.Menu()
	}
}
