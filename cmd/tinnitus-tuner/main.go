// Command tinnitus-tuner plays the tunable frequency sweep and adjusts it
// live from the terminal.
//
// Usage:
//
//	tinnitus-tuner                          # interactive, starts at 1 kHz
//	tinnitus-tuner -freq 6000 -q 40         # start near a suspected match
//	tinnitus-tuner -freq 8000 -duration 10s # play 10 s and exit
//
// Interactive keys:
//
//	left/right  center frequency down/up (one semitone)
//	up/down     quality factor up/down
//	[ ]         Hz half-width down/up
//	- =         octave half-width down/up
//	space       start/stop playback
//	q           quit
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"golang.org/x/term"

	tuner "github.com/tphakala/go-tinnitus-tuner"
	"github.com/tphakala/go-tinnitus-tuner/internal/device"
)

const (
	// Key-step sizes.
	semitoneRatio = 1.0594630943592953 // 2^(1/12)
	qStep         = 1.0
	hzStep        = 1.0
	octaveStep    = 0.01

	// Control bytes.
	keyCtrlC  = 0x03
	keyEscape = 0x1b
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	freq := flag.Float64("freq", tuner.DefaultFrequency, "Sweep center frequency in Hz (20-20000)")
	q := flag.Float64("q", tuner.DefaultQ, "Quality factor (0-100); sets the band width as f/Q")
	hzRange := flag.Float64("range", 0, "Band half-width in Hz (overrides -q when set)")
	duration := flag.Duration("duration", 0, "Play for a fixed duration and exit (0 = interactive)")
	headless := flag.Bool("headless", false, "Render without an audio device (for testing the pipeline)")
	flag.Parse()

	cfg := &tuner.Config{}
	if *headless {
		cfg.Output = device.NewHeadless(device.DefaultSampleRate, 0, true)
	}

	engine, err := tuner.New(cfg)
	if err != nil {
		return err
	}

	engine.SetFrequency(*freq)
	if *hzRange > 0 {
		engine.SetHzRange(*hzRange)
	} else {
		engine.SetQ(*q)
	}

	if *duration > 0 {
		if err := engine.Start(); err != nil {
			return err
		}
		time.Sleep(*duration)
		return engine.Stop()
	}

	return interact(engine)
}

// interact runs the raw-mode key loop until the user quits.
func interact(engine *tuner.Engine) error {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("terminal raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
		fmt.Println()
	}()

	fmt.Print("arrows tune, [ ] and - = set width, space plays, q quits\r\n")
	printStatus(engine)

	buf := make([]byte, 3)
	for {
		key, esc, err := readKey(os.Stdin, buf)
		if err != nil {
			return engine.Stop()
		}

		s := engine.Snapshot()
		if esc {
			switch key {
			case 'A': // up
				engine.SetQ(s.Q + qStep)
			case 'B': // down
				engine.SetQ(s.Q - qStep)
			case 'C': // right
				engine.SetFrequency(s.Frequency * semitoneRatio)
			case 'D': // left
				engine.SetFrequency(s.Frequency / semitoneRatio)
			}
			printStatus(engine)
			continue
		}

		switch key {
		case 'q', keyCtrlC:
			return engine.Stop()
		case ' ':
			if engine.State() == tuner.Playing {
				if err := engine.Stop(); err != nil {
					return err
				}
			} else if err := engine.Start(); err != nil {
				printError(err)
			}
		case '[':
			engine.SetHzRange(s.HzRange - hzStep)
		case ']':
			engine.SetHzRange(s.HzRange + hzStep)
		case '-':
			engine.SetOctaveRange(s.OctaveRange - octaveStep)
		case '=':
			engine.SetOctaveRange(s.OctaveRange + octaveStep)
		}

		printStatus(engine)
	}
}

// readKey returns the next key from in: a plain byte with esc false, or
// the final byte of a CSI arrow sequence with esc true. Raw terminals may
// split an escape sequence across reads, so the two continuation bytes
// are read in full. Unrecognized escape sequences come back as key 0.
func readKey(in io.Reader, buf []byte) (key byte, esc bool, err error) {
	if _, err := io.ReadFull(in, buf[:1]); err != nil {
		return 0, false, err
	}
	if buf[0] != keyEscape {
		return buf[0], false, nil
	}
	if _, err := io.ReadFull(in, buf[1:3]); err != nil {
		return 0, false, err
	}
	if buf[1] != '[' {
		return 0, false, nil
	}
	return buf[2], true, nil
}

func printStatus(engine *tuner.Engine) {
	s := engine.Snapshot()
	fmt.Printf("\r%8.1f Hz  Q %5.1f  ±%5.1f Hz  ±%4.2f oct  [%s]    ",
		s.Frequency, s.Q, s.HzRange, s.OctaveRange, engine.State())
}

func printError(err error) {
	fmt.Printf("\r%v\r\n", err)
}
