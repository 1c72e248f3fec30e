package display

import (
	"bufio"
	"context"
	"errors"
	"io"
	"unicode"
)

const ctrlR = 0x12

// ReadKeys turns runes read from in into key presses until in is exhausted
// or ctx ends. Line breaks are ignored and Ctrl+R arrives as its control
// character.
func ReadKeys(ctx context.Context, in io.Reader, press func(Key)) error {
	reader := bufio.NewReader(in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		r, _, err := reader.ReadRune()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		switch {
		case r == ctrlR:
			press(Key{Name: "r", Ctrl: true})
		case r == ' ':
			press(Key{Name: "Space"})
		case unicode.IsPrint(r):
			press(Key{Name: string(r)})
		}
	}
}
