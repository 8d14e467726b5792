// Package admin implements the operator command line used for account
// maintenance outside the public API.
package admin

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/ecoquad/greenbond/internal/netx"
	"github.com/ecoquad/greenbond/internal/server/models"
)

// ErrUsage is returned when the command line cannot be understood.
var ErrUsage = errors.New("usage")

// Accounts is the subset of the admin service the commands need.
type Accounts interface {
	Lookup(ctx context.Context, email string) (*models.User, error)
	SetPassword(ctx context.Context, email, password string) error
	SetKYCStatus(ctx context.Context, email, status string) error
	Deactivate(ctx context.Context, email string) error
}

// Uploads requests presigned KYC upload slots.
type Uploads interface {
	RequestUpload(ctx context.Context, userID, documentType string) (*models.KYCUploadTask, error)
}

// Commands dispatches operator subcommands.
type Commands struct {
	Accounts Accounts
	Uploads  Uploads
	Out      io.Writer
	HTTP     *http.Client

	readFile func(string) ([]byte, error)
}

// NewCommands wires the subcommands to their services.
func NewCommands(accounts Accounts, uploads Uploads, out io.Writer) *Commands {
	return &Commands{
		Accounts: accounts,
		Uploads:  uploads,
		Out:      out,
		readFile: os.ReadFile,
	}
}

const usage = `usage: admin <command> [flags]

commands:
  set-password -email <e>
  set-kyc      -email <e> -status <pending|verified|rejected>
  deactivate   -email <e>
  upload-kyc   -email <e> -type <document type> -file <path>
`

// Usage prints the command summary.
func (c *Commands) Usage() {
	fmt.Fprint(c.Out, usage)
}

// Run executes the subcommand named by args[0]. Flags that belong to the
// server configuration are ignored.
func (c *Commands) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", ErrUsage)
	}

	switch args[0] {
	case "set-password":
		return c.setPassword(ctx, args[1:])
	case "set-kyc":
		return c.setKYC(ctx, args[1:])
	case "deactivate":
		return c.deactivate(ctx, args[1:])
	case "upload-kyc":
		return c.uploadKYC(ctx, args[1:])
	default:
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}
}

type commandFlags struct {
	email, status, docType, file string
}

func parse(name string, args []string, need ...string) (*commandFlags, error) {
	f := &commandFlags{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&f.email, "email", "", "account email")
	fs.StringVar(&f.status, "status", "", "KYC status")
	fs.StringVar(&f.docType, "type", "", "KYC document type")
	fs.StringVar(&f.file, "file", "", "document path")

	if err := fs.Parse(commandArgs(args)); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUsage, name, err)
	}

	values := map[string]string{"email": f.email, "status": f.status, "type": f.docType, "file": f.file}
	for _, n := range need {
		if strings.TrimSpace(values[n]) == "" {
			return nil, fmt.Errorf("%w: %s requires -%s", ErrUsage, name, n)
		}
	}
	return f, nil
}

// commandArgs drops flags that are meant for the configuration loader.
func commandArgs(args []string) []string {
	own := map[string]bool{"email": true, "status": true, "type": true, "file": true}
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		name := strings.TrimLeft(args[i], "-")
		name, _, hasValue := strings.Cut(name, "=")
		if !strings.HasPrefix(args[i], "-") {
			continue
		}
		if own[name] {
			out = append(out, args[i])
			if !hasValue && i+1 < len(args) {
				out = append(out, args[i+1])
				i++
			}
			continue
		}
		if !hasValue && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
		}
	}
	return out
}

func (c *Commands) setPassword(ctx context.Context, args []string) error {
	f, err := parse("set-password", args, "email")
	if err != nil {
		return err
	}
	if _, err := c.Accounts.Lookup(ctx, f.email); err != nil {
		return err
	}

	pw, err := GetNewPassword(c.Out)
	if err != nil {
		return err
	}
	defer wipe(pw)

	if err := c.Accounts.SetPassword(ctx, f.email, string(pw)); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "password updated for %s\n", f.email)
	return nil
}

func (c *Commands) setKYC(ctx context.Context, args []string) error {
	f, err := parse("set-kyc", args, "email", "status")
	if err != nil {
		return err
	}
	status := strings.ToLower(strings.TrimSpace(f.status))
	if err := c.Accounts.SetKYCStatus(ctx, f.email, status); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "kyc status for %s set to %s\n", f.email, status)
	return nil
}

func (c *Commands) deactivate(ctx context.Context, args []string) error {
	f, err := parse("deactivate", args, "email")
	if err != nil {
		return err
	}
	if err := c.Accounts.Deactivate(ctx, f.email); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "%s deactivated\n", f.email)
	return nil
}

func (c *Commands) uploadKYC(ctx context.Context, args []string) error {
	f, err := parse("upload-kyc", args, "email", "type", "file")
	if err != nil {
		return err
	}
	if c.Uploads == nil {
		return errors.New("document storage is not configured")
	}

	body, err := c.readFile(f.file)
	if err != nil {
		return fmt.Errorf("read %s: %w", f.file, err)
	}

	user, err := c.Accounts.Lookup(ctx, f.email)
	if err != nil {
		return err
	}

	task, err := c.Uploads.RequestUpload(ctx, user.ID, f.docType)
	if err != nil {
		return err
	}

	if err := netx.UploadPresigned(ctx, c.HTTP, task.URL, body, http.DetectContentType(body)); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "uploaded %s as %s\n", f.file, task.Key)
	return nil
}
