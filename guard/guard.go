// Package guard runs the two housekeeping stages of portguard: mailing a
// report of the listening ports, and blocking addresses with too many
// failed logins in the authentication log.
package guard

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/headswim/portguard/blocker"
	"github.com/headswim/portguard/config"
	"github.com/headswim/portguard/logging"
	"github.com/headswim/portguard/mailer"
	"github.com/headswim/portguard/matcher"
	"github.com/headswim/portguard/reporter"
	"github.com/headswim/portguard/runner"
	"github.com/headswim/portguard/storage"
)

var (
	// ErrMissingDependency is returned when a required tool is not installed
	ErrMissingDependency = errors.New("missing required tool")
	// ErrPortScan is returned when the socket table could not be listed
	ErrPortScan = errors.New("port scan failed")
	// ErrMail is returned when the port report could not be delivered
	ErrMail = errors.New("mail delivery failed")
	// ErrAuthLogMissing is returned when the authentication log does not exist
	ErrAuthLogMissing = errors.New("auth log not found")
)

// Options represents the options for the guard. Nil collaborators are
// created from Config.
type Options struct {
	Config  config.Config
	Runner  runner.Runner
	Matcher matcher.Matcher
	Blocker blocker.Blocker
	Mailer  mailer.Mailer
	Lister  reporter.Lister
	Logger  *slog.Logger

	// OpenStorage opens the blocked IPs set; defaults to a file storage
	OpenStorage func(path string) (storage.Storage, error)
	Now         func() time.Time
	Hostname    func() (string, error)
}

// Guard represents the port reporter and login-attempt blocker
type Guard struct {
	cfg     config.Config
	runner  runner.Runner
	matcher matcher.Matcher
	blocker blocker.Blocker
	mailer  mailer.Mailer
	lister  reporter.Lister
	logger  *slog.Logger

	openStorage func(path string) (storage.Storage, error)
	now         func() time.Time
	hostname    func() (string, error)
}

// BlockSummary describes the outcome of a blocking run
type BlockSummary struct {
	Attempts       []matcher.Attempt
	Blocked        []string
	AlreadyBlocked []string
	Whitelisted    []string
	Failed         []string
}

// RestoreSummary describes the outcome of re-applying the blocked IPs
type RestoreSummary struct {
	Restored []string
	Existing []string
	Failed   []string
}

// New creates a new guard
func New(options Options) (*Guard, error) {
	g := &Guard{
		cfg:         options.Config,
		runner:      options.Runner,
		matcher:     options.Matcher,
		blocker:     options.Blocker,
		mailer:      options.Mailer,
		lister:      options.Lister,
		logger:      options.Logger,
		openStorage: options.OpenStorage,
		now:         options.Now,
		hostname:    options.Hostname,
	}

	if g.runner == nil {
		g.runner = runner.NewExecRunner()
	}
	if g.matcher == nil {
		g.matcher = matcher.NewServiceWithWhitelist(g.cfg.Whitelist)
	}
	if g.logger == nil {
		g.logger = logging.Discard()
	}
	if g.openStorage == nil {
		g.openStorage = func(path string) (storage.Storage, error) {
			return storage.NewFileStorage(path)
		}
	}
	if g.now == nil {
		g.now = time.Now
	}
	if g.hostname == nil {
		g.hostname = os.Hostname
	}

	if g.mailer == nil {
		switch g.cfg.Mail.Backend {
		case config.BackendCommand:
			m, err := mailer.NewCommand(g.runner, g.cfg.Mail.Command, g.cfg.Email)
			if err != nil {
				return nil, err
			}
			g.mailer = m
		default:
			g.mailer = mailer.NewSMTP(g.cfg.Mail.SMTPAddr, g.cfg.Email)
		}
	}

	return g, nil
}

// Run checks the requirements and runs both stages. Only a missing
// dependency is returned; stage failures are logged.
func (g *Guard) Run() error {
	if err := g.CheckRequirements(); err != nil {
		return err
	}

	if err := g.ReportPorts(); err != nil {
		g.logger.Error("port report failed", "err", err)
	}

	summary, err := g.BlockAttackers()
	if err != nil {
		g.logger.Error("blocking failed", "err", err)
	}
	if summary != nil {
		g.logger.Info("blocking finished",
			"addresses", len(summary.Attempts),
			"blocked", len(summary.Blocked),
			"already_blocked", len(summary.AlreadyBlocked),
			"failed", len(summary.Failed),
		)
	}

	g.logger.Info("completed", "email", g.cfg.Email, "report", g.cfg.ReportFile)
	return nil
}

// CheckRequirements verifies that every required tool is on the path
func (g *Guard) CheckRequirements() error {
	var missing []string
	for _, tool := range g.cfg.RequiredTools {
		if _, err := g.runner.LookPath(tool); err != nil {
			g.logger.Error("required tool is not installed", "tool", tool)
			missing = append(missing, tool)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingDependency, strings.Join(missing, ", "))
	}
	return nil
}

// ReportPorts writes the listening sockets to the report file and mails it
func (g *Guard) ReportPorts() error {
	var lines []string
	lister, scanErr := g.portLister()
	if scanErr == nil {
		g.logger.Info("scanning ports", "source", lister.Name())
		lines, scanErr = lister.Lines()
	}

	// the header is written even when no listing tool could run
	report := reporter.NewReport(g.now(), reporter.FilterListening(lines))
	if err := report.Write(g.cfg.ReportFile); err != nil {
		return err
	}
	if scanErr != nil {
		return fmt.Errorf("%w: %w", ErrPortScan, scanErr)
	}
	g.logger.Info("wrote port report", "file", g.cfg.ReportFile, "listening", len(report.Lines))

	body, err := os.ReadFile(g.cfg.ReportFile)
	if err != nil {
		return fmt.Errorf("%w: failed to read report: %w", ErrMail, err)
	}

	hostname, err := g.hostname()
	if err != nil {
		g.logger.Warn("failed to get hostname", "err", err)
		hostname = "unknown"
	}

	if err := g.mailer.Send(mailer.Subject(hostname), string(body)); err != nil {
		return fmt.Errorf("%w: %w", ErrMail, err)
	}
	g.logger.Info("mailed port report", "to", g.cfg.Email)
	return nil
}

// Tally counts the failed logins per address in the auth log
func (g *Guard) Tally() (map[string]uint, error) {
	f, err := os.Open(g.cfg.AuthLogFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrAuthLogMissing, g.cfg.AuthLogFile)
		}
		return nil, fmt.Errorf("failed to open auth log: %w", err)
	}
	defer f.Close()

	counts, err := g.matcher.Tally(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read auth log: %w", err)
	}
	return counts, nil
}

// BlockAttackers blocks every address whose failed logins reach the
// threshold and which is not yet in the blocked IPs set. Firewall failures
// for single addresses are collected and do not stop the batch.
func (g *Guard) BlockAttackers() (*BlockSummary, error) {
	g.logger.Info("checking for failed login attempts", "log", g.cfg.AuthLogFile)

	counts, err := g.Tally()
	if err != nil {
		return nil, err
	}

	store, err := g.openStorage(g.cfg.BlockedIPsFile)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	summary := &BlockSummary{Attempts: matcher.Attempts(counts)}
	var errs *multierror.Error

	for _, attempt := range summary.Attempts {
		if attempt.Count < g.cfg.Threshold {
			continue
		}
		if store.IsIPBlocked(attempt.IP) {
			summary.AlreadyBlocked = append(summary.AlreadyBlocked, attempt.IP)
			continue
		}
		if g.matcher.IsWhitelisted(attempt.IP) {
			g.logger.Debug("not blocking whitelisted IP", "ip", attempt.IP, "attempts", attempt.Count)
			summary.Whitelisted = append(summary.Whitelisted, attempt.IP)
			continue
		}

		fw, err := g.firewall()
		if err != nil {
			summary.Failed = append(summary.Failed, attempt.IP)
			errs = multierror.Append(errs, err)
			continue
		}

		g.logger.Info("blocking IP", "ip", attempt.IP, "attempts", attempt.Count)
		if _, err := fw.Block(attempt.IP); err != nil {
			g.logger.Error("failed to block IP", "ip", attempt.IP, "err", err)
			summary.Failed = append(summary.Failed, attempt.IP)
			errs = multierror.Append(errs, err)
			continue
		}
		summary.Blocked = append(summary.Blocked, attempt.IP)

		if err := store.BlockIP(attempt.IP); err != nil {
			g.logger.Error("failed to record blocked IP", "ip", attempt.IP, "err", err)
			errs = multierror.Append(errs, err)
		}
		if err := reporter.AppendBlockEvent(g.cfg.ReportFile, attempt.IP, g.now()); err != nil {
			g.logger.Error("failed to log block event", "ip", attempt.IP, "err", err)
			errs = multierror.Append(errs, err)
		}
	}

	return summary, errs.ErrorOrNil()
}

// RestoreBlocks re-applies the drop rule of every recorded address.
// This should be called after the firewall rules were flushed, e.g. on boot.
func (g *Guard) RestoreBlocks() (*RestoreSummary, error) {
	store, err := g.openStorage(g.cfg.BlockedIPsFile)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	summary := &RestoreSummary{}
	ips := store.GetBlockedIPs()
	if len(ips) == 0 {
		return summary, nil
	}

	fw, err := g.firewall()
	if err != nil {
		return nil, err
	}

	var errs *multierror.Error
	for _, ip := range ips {
		result, err := fw.Restore(ip)
		switch {
		case err != nil:
			g.logger.Error("failed to restore block", "ip", ip, "err", err)
			summary.Failed = append(summary.Failed, ip)
			errs = multierror.Append(errs, err)
		case result.Existed:
			summary.Existing = append(summary.Existing, ip)
		default:
			g.logger.Info("restored block", "ip", ip)
			summary.Restored = append(summary.Restored, ip)
		}
	}

	g.logger.Info("restore finished",
		"restored", len(summary.Restored),
		"existing", len(summary.Existing),
		"failed", len(summary.Failed),
	)
	return summary, errs.ErrorOrNil()
}

// BlockedIPs returns the recorded blocked IPs
func (g *Guard) BlockedIPs() ([]string, error) {
	store, err := g.openStorage(g.cfg.BlockedIPsFile)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	return store.GetBlockedIPs(), nil
}

// Threshold returns the configured blocking threshold
func (g *Guard) Threshold() uint {
	return g.cfg.Threshold
}

// portLister returns the configured lister, selecting one on first use
func (g *Guard) portLister() (reporter.Lister, error) {
	if g.lister != nil {
		return g.lister, nil
	}

	lister, err := reporter.SelectLister(g.runner, g.cfg.PortSource)
	if err != nil {
		return nil, err
	}
	g.lister = lister
	return lister, nil
}

// firewall returns the configured blocker, creating it on first use
func (g *Guard) firewall() (blocker.Blocker, error) {
	if g.blocker != nil {
		return g.blocker, nil
	}

	fwCfg := g.cfg.Firewall
	var (
		b   blocker.Blocker
		err error
	)
	switch fwCfg.Backend {
	case config.BackendCommand:
		b, err = blocker.NewCommand(g.runner, fwCfg.Command, fwCfg.Table, fwCfg.Chain, fwCfg.Target)
	default:
		b, err = blocker.NewIPTables(fwCfg.Table, fwCfg.Chain, fwCfg.Target)
	}
	if err != nil {
		return nil, err
	}

	g.blocker = b
	return b, nil
}
