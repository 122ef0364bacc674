// Package target enumerates the compilation targets a build pass can produce.
package target

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownTarget is returned for names and values outside {Client, Server}.
var ErrUnknownTarget = errors.New("unknown target")

// Target selects the execution context a pass compiles for.
type Target uint8

const (
	Client Target = iota
	Server
)

// All returns every recognized target in registration order.
func All() []Target { return []Target{Client, Server} }

// String renders the stable name used in identity keys. Keep it free of '_'.
func (t Target) String() string {
	switch t {
	case Client:
		return "Client"
	case Server:
		return "Server"
	default:
		return fmt.Sprintf("Target(%d)", uint8(t))
	}
}

// Privileged reports whether the pass runs in the server execution layer.
func (t Target) Privileged() bool { return t == Server }

// Valid reports whether t is Client or Server.
func (t Target) Valid() bool { return t == Client || t == Server }

// Parse reads a target name, ignoring case and surrounding space.
func Parse(s string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "client":
		return Client, nil
	case "server":
		return Server, nil
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownTarget, s)
}

// MarshalText encodes t as its lower-case name.
func (t Target) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w %d", ErrUnknownTarget, uint8(t))
	}
	return []byte(strings.ToLower(t.String())), nil
}

// UnmarshalText accepts anything Parse does.
func (t *Target) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
