package main

import (
	"bytes"
	"errors"
	"testing"

	"dcdrive/host/mcu"
)

func TestRawBytes(t *testing.T) {
	tests := []struct {
		args []string
		want []byte
	}{
		{[]string{"DE"}, []byte("DE")},
		{[]string{"0x44", "10"}, []byte{'D', '\n'}},
		{[]string{"V", "0x0a"}, []byte{'V', '\n'}},
		{[]string{"300"}, []byte("300")},
	}
	for _, tt := range tests {
		got, err := rawBytes(tt.args)
		if err != nil {
			t.Errorf("rawBytes(%v): %v", tt.args, err)
			continue
		}
		if !bytes.Equal(got, tt.want) {
			t.Errorf("rawBytes(%v) = %q, want %q", tt.args, got, tt.want)
		}
	}

	if _, err := rawBytes(nil); err == nil {
		t.Error("expected an error for no arguments")
	}
}

func TestDispatch(t *testing.T) {
	conn := mcu.NewMCU()

	if quit, err := dispatch(conn, "  quit "); !quit || err != nil {
		t.Errorf("quit = %v, %v", quit, err)
	}
	if quit, err := dispatch(conn, ""); quit || err != nil {
		t.Errorf("empty = %v, %v", quit, err)
	}
	if _, err := dispatch(conn, "status"); !errors.Is(err, mcu.ErrNotConnected) {
		t.Errorf("status = %v, want ErrNotConnected", err)
	}
	if _, err := dispatch(conn, "spin"); !errors.Is(err, mcu.ErrUnknownCommand) {
		t.Errorf("spin = %v, want ErrUnknownCommand", err)
	}
	if _, err := dispatch(conn, `raw "D`); err == nil {
		t.Error("expected a quoting error")
	}
}
