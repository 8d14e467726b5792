package admin

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var errPasswordMismatch = errors.New("passwords do not match")

func promptPassword(w io.Writer, prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

// GetNewPassword reads a password twice without echo and returns it when
// both entries match. The caller should wipe the result.
func GetNewPassword(w io.Writer) ([]byte, error) {
	pw, err := promptPassword(w, "New password: ")
	if err != nil {
		return nil, err
	}
	again, err := promptPassword(w, "Repeat password: ")
	if err != nil {
		wipe(pw)
		return nil, err
	}
	defer wipe(again)

	if !bytes.Equal(pw, again) {
		wipe(pw)
		return nil, errPasswordMismatch
	}
	return pw, nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
