// Command motorcon is an interactive console for a controller on USB serial.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/google/shlex"

	"dcdrive/host/mcu"
	"dcdrive/host/serial"
)

var (
	device = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud   = flag.Int("baud", 115200, "Baud rate (ignored for USB CDC)")
)

func main() {
	flag.Parse()

	conn := mcu.NewMCU()
	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud
	if err := conn.ConnectWithConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	if err := conn.Listen(func(line string) { fmt.Println(line) }); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Connected to %s ('?' for commands, 'quit' to exit)\n", *device)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		quit, err := dispatch(conn, scanner.Text())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		if quit {
			return
		}
	}
}

// dispatch runs one input line. It reports true when the user asked to quit.
func dispatch(conn *mcu.MCU, line string) (bool, error) {
	args, err := shlex.Split(line)
	if err != nil {
		return false, err
	}
	if len(args) == 0 {
		return false, nil
	}

	switch args[0] {
	case "quit", "exit", "q":
		return true, nil
	case "?":
		printHelp()
		return false, nil
	case "raw":
		b, err := rawBytes(args[1:])
		if err != nil {
			return false, err
		}
		return false, conn.SendRaw(b)
	}

	for _, name := range args {
		if err := conn.Send(name); err != nil {
			return false, err
		}
	}
	return false, nil
}

// rawBytes accepts quoted strings and numeric byte values
func rawBytes(args []string) ([]byte, error) {
	var out []byte
	for _, a := range args {
		if v, err := strconv.ParseUint(a, 0, 8); err == nil {
			out = append(out, byte(v))
			continue
		}
		out = append(out, a...)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("raw: nothing to send")
	}
	return out, nil
}

func printHelp() {
	fmt.Println("Commands (several may be given on one line):")
	for _, line := range mcu.Help() {
		fmt.Println(line)
	}
	fmt.Println("  raw ARGS     send bytes as is, e.g. raw \"DE\" 0x0a")
	fmt.Println("  quit         exit")
}
