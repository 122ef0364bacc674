// Package identity derives the file identity token handed to the actions
// engine. The same file compiled for two targets must yield two keys, or the
// engine hands out colliding action IDs across client and server artifacts.
package identity

import (
	"errors"
	"fmt"
	"strings"

	"actionkit/internal/target"
)

var (
	ErrEmptyPath  = errors.New("identity: empty file path")
	ErrMalformed  = errors.New("identity: malformed key")
	escapePath    = strings.NewReplacer("%", "%25", "_", "%5F")
	unescapePath  = strings.NewReplacer("%5F", "_", "%25", "%")
	separatorRune = "_"
)

// Key is the synthetic file identity: "{escaped path}_{target}".
type Key string

func (k Key) String() string { return string(k) }

// Derive combines path and target. '%' and '_' in the path are
// percent-escaped so the last '_' always separates the target.
func Derive(path string, t target.Target) (Key, error) {
	if path == "" {
		return "", ErrEmptyPath
	}
	return Key(escapePath.Replace(path) + separatorRune + t.String()), nil
}

func MustDerive(path string, t target.Target) Key {
	k, err := Derive(path, t)
	if err != nil {
		panic(err)
	}
	return k
}

// Split reverses Derive.
func Split(k Key) (string, target.Target, error) {
	s := string(k)
	i := strings.LastIndex(s, separatorRune)
	if i <= 0 {
		return "", 0, fmt.Errorf("%w %q", ErrMalformed, s)
	}
	t, err := target.Parse(s[i+1:])
	if err != nil {
		return "", 0, fmt.Errorf("%w %q: %v", ErrMalformed, s, err)
	}
	return unescapePath.Replace(s[:i]), t, nil
}
