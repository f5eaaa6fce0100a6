package logger

import (
	"fmt"
	"time"
)

// Spinner animates while a single long conversion runs. On non-TTY output it
// stays silent until Stop prints the final result line.
type Spinner struct {
	Frames  []string
	Message string
	Console *Console
	done    chan struct{}
	active  bool
}

func (s *Spinner) start() {
	if !s.Console.IsTTY {
		return
	}
	s.active = true

	go func() {
		i := 0
		for {
			select {
			case <-s.done:
				fmt.Fprint(s.Console.out, "\r\033[K")
				return
			default:
				frame := s.Frames[i%len(s.Frames)]
				fmt.Fprintf(s.Console.out, "\r%s %s ", frame, s.Message)
				i++
				time.Sleep(100 * time.Millisecond)
			}
		}
	}()
}

// Halt clears the animation without printing a result line.
func (s *Spinner) Halt() {
	if s.active {
		close(s.done)
		s.active = false
	}
}

func (s *Spinner) Stop(success bool, message string) {
	s.Halt()

	if success {
		s.Console.Success("%s", message)
	} else {
		s.Console.Error("%s", message)
	}
}
