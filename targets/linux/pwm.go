//go:build linux

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/sys/unix"

	"dcdrive/core"
)

var pwmSysfsBase = "/sys/class/pwm"

// writeFn is replaced in tests
var writeFn = writeSysfs

type sysfsChannel struct {
	index   int
	path    string // /sys/class/pwm/pwmchipN/pwmM
	period  uint32 // core.PWMClockHz counts
	duty    core.PWMValue
	enabled bool
}

// SysfsPWM implements core.PWMDriver on /sys/class/pwm. A disabled
// channel stays enabled in sysfs with a zero duty so the pin idles low.
type SysfsPWM struct {
	chipPath string
	channels map[core.PWMPin]*sysfsChannel
}

// NewSysfsPWM maps controller PWM pins to channels of one pwmchip
func NewSysfsPWM(chipPath string, channels map[core.PWMPin]int) *SysfsPWM {
	d := &SysfsPWM{chipPath: chipPath, channels: make(map[core.PWMPin]*sysfsChannel)}
	for pin, index := range channels {
		d.channels[pin] = &sysfsChannel{
			index: index,
			path:  filepath.Join(chipPath, fmt.Sprintf("pwm%d", index)),
		}
	}
	return d
}

func (d *SysfsPWM) channel(pin core.PWMPin) (*sysfsChannel, error) {
	ch, ok := d.channels[pin]
	if !ok {
		return nil, fmt.Errorf("pwm: pin %d has no sysfs channel", pin)
	}
	return ch, nil
}

// ConfigurePWM exports the channel and programs its period with zero duty
func (d *SysfsPWM) ConfigurePWM(pin core.PWMPin, period uint32) error {
	ch, err := d.channel(pin)
	if err != nil {
		return err
	}
	if err := d.ensureExported(ch); err != nil {
		return err
	}

	// Disable before changing period/duty (common sysfs requirement).
	_ = writeFn(filepath.Join(ch.path, "enable"), "0")
	if err := writeFn(filepath.Join(ch.path, "duty_cycle"), "0"); err != nil {
		return fmt.Errorf("pwm: channel %d duty: %w", ch.index, err)
	}
	if err := writeFn(filepath.Join(ch.path, "period"), strconv.FormatUint(countsToNs(period), 10)); err != nil {
		return fmt.Errorf("pwm: channel %d period: %w", ch.index, err)
	}
	if err := writeFn(filepath.Join(ch.path, "enable"), "1"); err != nil {
		return fmt.Errorf("pwm: channel %d enable: %w", ch.index, err)
	}
	ch.period = period
	ch.duty = 0
	ch.enabled = false
	return nil
}

func (d *SysfsPWM) SetDutyCycle(pin core.PWMPin, value core.PWMValue) error {
	ch, err := d.channel(pin)
	if err != nil {
		return err
	}
	ch.duty = value
	if !ch.enabled {
		return nil
	}
	return d.writeDuty(ch, value)
}

func (d *SysfsPWM) EnablePWM(pin core.PWMPin) error {
	ch, err := d.channel(pin)
	if err != nil {
		return err
	}
	ch.enabled = true
	return d.writeDuty(ch, ch.duty)
}

func (d *SysfsPWM) DisablePWM(pin core.PWMPin) error {
	ch, err := d.channel(pin)
	if err != nil {
		return err
	}
	ch.enabled = false
	return d.writeDuty(ch, 0)
}

// Close idles every channel and disables it
func (d *SysfsPWM) Close() error {
	var errs []error
	for _, ch := range d.channels {
		if ch.period == 0 {
			continue
		}
		errs = append(errs, d.writeDuty(ch, 0))
		errs = append(errs, writeFn(filepath.Join(ch.path, "enable"), "0"))
	}
	return errors.Join(errs...)
}

func (d *SysfsPWM) writeDuty(ch *sysfsChannel, value core.PWMValue) error {
	v := uint32(value)
	if v > ch.period {
		v = ch.period
	}
	return writeFn(filepath.Join(ch.path, "duty_cycle"), strconv.FormatUint(countsToNs(v), 10))
}

func (d *SysfsPWM) ensureExported(ch *sysfsChannel) error {
	if _, err := os.Stat(ch.path); err == nil {
		return nil
	}
	if err := writeFn(filepath.Join(d.chipPath, "export"), strconv.Itoa(ch.index)); err != nil {
		// If already exported by someone else, ignore.
		if _, statErr := os.Stat(ch.path); statErr == nil {
			return nil
		}
		return fmt.Errorf("pwm: export channel %d: %w", ch.index, err)
	}

	// Wait briefly for sysfs node to appear.
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(ch.path); err == nil {
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return fmt.Errorf("pwm: %s not created after export", ch.path)
}

func countsToNs(counts uint32) uint64 {
	return uint64(counts) * 1000000000 / core.PWMClockHz
}

// writeSysfs writes without O_TRUNC and retries while udev is still fixing
// permissions on freshly exported attributes.
func writeSysfs(path string, value string) error {
	deadline := time.Now().Add(2 * time.Second)
	for {
		f, err := os.OpenFile(path, os.O_WRONLY, 0)
		if err == nil {
			_, err = f.WriteString(value)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err == nil {
				return nil
			}
		}
		if !time.Now().Before(deadline) || !isRetryableSysfsErr(err) {
			return err
		}
		time.Sleep(25 * time.Millisecond)
	}
}

func isRetryableSysfsErr(err error) bool {
	return errors.Is(err, unix.EACCES) || errors.Is(err, unix.EPERM) || errors.Is(err, unix.ENOENT) || errors.Is(err, unix.EBUSY)
}
