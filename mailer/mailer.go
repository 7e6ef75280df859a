// Package mailer delivers the port report through the local mail transport.
package mailer

import (
	"errors"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/shlex"

	"github.com/headswim/portguard/runner"
)

// Mailer defines the interface for sending the report
type Mailer interface {
	Send(subject, body string) error
}

// Subject returns the report subject for a host
func Subject(hostname string) string {
	return "TCP Port Scan Results - " + hostname
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTP submits mail to an SMTP server, normally the local MTA
type SMTP struct {
	addr string
	from string
	to   string
	now  func() time.Time
	send sendFunc
}

// NewSMTP creates a mailer sending from and to the same address
func NewSMTP(addr, address string) *SMTP {
	return &SMTP{
		addr: addr,
		from: address,
		to:   address,
		now:  time.Now,
		send: smtp.SendMail,
	}
}

// Send sends a plain text message
func (m *SMTP) Send(subject, body string) error {
	msg := Compose(m.from, m.to, subject, body, m.now())
	if err := m.send(m.addr, nil, m.from, []string{m.to}, msg); err != nil {
		return fmt.Errorf("failed to send mail via %s: %w", m.addr, err)
	}
	return nil
}

// Compose renders a plain text RFC 5322 message
func Compose(from, to, subject, body string, date time.Time) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", date.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(body, "\r\n", "\n"), "\n", "\r\n"))
	return []byte(b.String())
}

// Command sends mail by piping the body into a mail command such as mailx
type Command struct {
	runner  runner.Runner
	command []string
	from    string
	to      string
}

// NewCommand creates a mailer running the given command line
func NewCommand(r runner.Runner, commandLine, address string) (*Command, error) {
	command, err := shlex.Split(commandLine)
	if err != nil {
		return nil, fmt.Errorf("invalid mail command %q: %w", commandLine, err)
	}
	if len(command) == 0 {
		return nil, errors.New("mail command must not be empty")
	}

	return &Command{
		runner:  r,
		command: command,
		from:    address,
		to:      address,
	}, nil
}

// Send runs "<command> -s <subject> -r <from> <to>" with the body on stdin
func (m *Command) Send(subject, body string) error {
	args := append([]string{}, m.command[1:]...)
	args = append(args, "-s", subject, "-r", m.from, m.to)

	if _, err := m.runner.RunInput([]byte(body), m.command[0], args...); err != nil {
		return fmt.Errorf("failed to send mail with %s: %w", m.command[0], err)
	}
	return nil
}
