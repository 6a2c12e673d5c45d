// Package mcu talks to the controller's single-byte debug console.
package mcu

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"dcdrive/host/serial"
)

var (
	ErrNotConnected   = errors.New("not connected to controller")
	ErrUnknownCommand = errors.New("unknown command")
)

// Command is one console request and the byte the controller expects for it
type Command struct {
	Name        string
	Flag        byte
	Description string
}

// Commands mirrors the firmware console table
var Commands = []Command{
	{Name: "status", Flag: 'D', Description: "drive state, fault state, duty and speed"},
	{Name: "events", Flag: 'E', Description: "dump the event ring"},
	{Name: "clear", Flag: 'C', Description: "clear the event ring"},
	{Name: "verbose", Flag: 'V', Description: "toggle live event output"},
	{Name: "help", Flag: 'H', Description: "controller side command list"},
}

// Lookup resolves a command by name or by its flag letter
func Lookup(name string) (Command, error) {
	name = strings.ToLower(name)
	for _, c := range Commands {
		if c.Name == name || (len(name) == 1 && name[0] == c.Flag+('a'-'A')) {
			return c, nil
		}
	}
	return Command{}, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
}

// MCU is a console connection to a running controller
type MCU struct {
	mu        sync.Mutex
	port      io.ReadWriteCloser
	connected bool

	done chan struct{}
	err  error
}

// NewMCU creates a new MCU instance (not yet connected)
func NewMCU() *MCU {
	return &MCU{}
}

// Connect opens the controller's USB serial port
func (m *MCU) Connect(device string) error {
	return m.ConnectWithConfig(serial.DefaultConfig(device))
}

// ConnectWithConfig connects with a custom serial config
func (m *MCU) ConnectWithConfig(cfg *serial.Config) error {
	port, err := serial.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}
	m.Attach(port)

	// Give the controller time to enumerate if it just powered on
	time.Sleep(100 * time.Millisecond)
	return nil
}

// Attach uses an already open port
func (m *MCU) Attach(port io.ReadWriteCloser) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.port = port
	m.connected = true
	m.done = make(chan struct{})
	m.err = nil
}

// Listen delivers every line the controller prints to handle until the port
// closes. It returns immediately; Wait blocks until the reader exits.
func (m *MCU) Listen(handle func(line string)) error {
	m.mu.Lock()
	port, done := m.port, m.done
	m.mu.Unlock()
	if port == nil {
		return ErrNotConnected
	}

	go func() {
		defer close(done)
		scanner := bufio.NewScanner(port)
		for scanner.Scan() {
			line := strings.TrimRight(scanner.Text(), "\r")
			if line != "" {
				handle(line)
			}
		}
		m.mu.Lock()
		m.err = scanner.Err()
		m.mu.Unlock()
	}()
	return nil
}

// Wait blocks until the Listen goroutine exits and returns its read error
func (m *MCU) Wait() error {
	m.mu.Lock()
	done := m.done
	m.mu.Unlock()
	if done == nil {
		return ErrNotConnected
	}
	<-done
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Send issues a named console command
func (m *MCU) Send(name string) error {
	cmd, err := Lookup(name)
	if err != nil {
		return err
	}
	return m.SendRaw([]byte{cmd.Flag})
}

// SendRaw writes bytes to the console unchanged
func (m *MCU) SendRaw(b []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return ErrNotConnected
	}
	if _, err := m.port.Write(b); err != nil {
		return fmt.Errorf("write console: %w", err)
	}
	return nil
}

// Close closes the connection to the controller
func (m *MCU) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.port == nil {
		return nil
	}
	m.connected = false
	return m.port.Close()
}

// IsConnected returns whether the controller is connected
func (m *MCU) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Help lists the host side command names
func Help() []string {
	lines := make([]string, 0, len(Commands))
	for _, c := range Commands {
		lines = append(lines, fmt.Sprintf("  %-8s (%c) %s", c.Name, c.Flag, c.Description))
	}
	sort.Strings(lines)
	return lines
}
