package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"igvision/pkg/auth"
	"igvision/pkg/instagram"
	"igvision/pkg/ui"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage Instagram session cookies",
		Long: `Manage the Instagram session cookies igvision logs in with.

Logging in is optional: public profiles are fetched anonymously. Cookies are
stored in the system keychain when available, otherwise in an encrypted file
in the igvision config directory. IGVISION_SESSION_ID and IGVISION_CSRF_TOKEN
are read as a read-only account.`,
	}

	login := &cobra.Command{
		Use:   "login [username]",
		Short: "Store the session cookies of an account",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := credentialManager()
			if err != nil {
				return err
			}
			username := ""
			if len(args) > 0 {
				username = args[0]
			}
			return runLogin(manager, newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()), username)
		},
	}

	logout := &cobra.Command{
		Use:   "logout <username>",
		Short: "Remove the stored cookies of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := credentialManager()
			if err != nil {
				return err
			}
			if err := manager.Delete(args[0]); err != nil {
				return err
			}
			ui.NewPrinter(cmd.OutOrStdout(), false).Success("Removed credentials for " + args[0])
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := credentialManager()
			if err != nil {
				return err
			}
			return runList(manager, ui.NewPrinter(cmd.OutOrStdout(), false))
		},
	}

	cmd.AddCommand(login, logout, list)
	return cmd
}

func credentialManager() (*auth.Manager, error) {
	dir, err := auth.ConfigDir()
	if err != nil {
		return nil, err
	}
	return auth.NewManager(dir)
}

// prompter reads answers from the terminal, hiding secrets when in is one
type prompter struct {
	in     io.Reader
	out    io.Writer
	reader *bufio.Reader
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: in, out: out, reader: bufio.NewReader(in)}
}

func (p *prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	line, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *prompter) secret(question string) (string, error) {
	if f, ok := p.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(p.out, question)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	return p.ask(question)
}

func runLogin(manager *auth.Manager, p *prompter, username string) error {
	auth.WriteCookieGuide(p.out, false)
	fmt.Fprintln(p.out)

	var err error
	if username == "" {
		if username, err = p.ask("Instagram username: "); err != nil {
			return fmt.Errorf("read username: %w", err)
		}
	}
	username = instagram.SanitizeUsername(username)
	if !instagram.IsValidUsername(username) {
		return fmt.Errorf("%w: invalid username %q", auth.ErrInvalidCredentials, username)
	}

	sessionID, err := p.secret("sessionid cookie (hidden): ")
	if err != nil {
		return fmt.Errorf("read session id: %w", err)
	}
	if !strings.Contains(sessionID, "%3A") && !strings.Contains(sessionID, ":") {
		return fmt.Errorf("%w: sessionid should contain %%3A", auth.ErrInvalidCredentials)
	}

	csrfToken, err := p.secret("csrftoken cookie (hidden): ")
	if err != nil {
		return fmt.Errorf("read csrf token: %w", err)
	}

	userAgent, err := p.ask("User agent (Enter for default): ")
	if err != nil {
		return fmt.Errorf("read user agent: %w", err)
	}

	account := &auth.Account{
		Username:  username,
		SessionID: sessionID,
		CSRFToken: csrfToken,
		UserAgent: userAgent,
	}
	if err := manager.Store(account); err != nil {
		return err
	}

	ui.NewPrinter(p.out, false).Success("Stored credentials for " + username)
	return nil
}

func runList(manager *auth.Manager, printer *ui.Printer) error {
	accounts, err := manager.List()
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		printer.Warning("No stored accounts, run 'igvision auth login'")
		return nil
	}

	for i, account := range accounts {
		masked := auth.SanitizeAccount(account)
		label := masked.Username
		if i == 0 {
			label += " (default)"
		}
		modified := "environment"
		if !masked.LastModified.IsZero() {
			modified = masked.LastModified.Format("2006-01-02 15:04")
		}
		printer.Info(label, fmt.Sprintf("sessionid %s • csrftoken %s • %s", masked.SessionID, masked.CSRFToken, modified))
	}
	return nil
}
