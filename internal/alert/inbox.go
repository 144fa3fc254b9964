package alert

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"

	"github.com/havenproj/haven/internal/logging"
)

// Decision is a resolution parsed from a therapist's email reply.
type Decision struct {
	ThreadID string
	Approved bool
	Approver string
}

// Resolver applies an approval decision to a suspended conversation.
type Resolver func(ctx context.Context, d Decision) error

// IMAPConfig configures the approval reply inbox.
type IMAPConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	Mailbox      string        `yaml:"mailbox"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// Inbox polls an IMAP mailbox for APPROVE/DENY replies to alert emails
// and feeds them to the resolver. Runs until the context is cancelled.
type Inbox struct {
	cfg     IMAPConfig
	resolve Resolver
	log     *logging.Logger
}

// NewInbox creates an approval inbox poller.
func NewInbox(cfg IMAPConfig, resolve Resolver, log *logging.Logger) *Inbox {
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	return &Inbox{cfg: cfg, resolve: resolve, log: log.Sub("inbox")}
}

// Run polls until ctx is cancelled. Poll failures are logged and retried
// on the next tick; a broken mailbox must not take the service down.
func (in *Inbox) Run(ctx context.Context) {
	in.log.Info().Str("host", in.cfg.Host).Str("mailbox", in.cfg.Mailbox).Dur("interval", in.cfg.PollInterval).Msg("approval inbox started")

	ticker := time.NewTicker(in.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			in.log.Info().Msg("approval inbox stopped")
			return
		case <-ticker.C:
			if err := in.poll(ctx); err != nil {
				in.log.Warn().Err(err).Msg("inbox poll failed")
			}
		}
	}
}

func (in *Inbox) poll(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", in.cfg.Host, in.cfg.Port)
	c, err := client.DialTLS(addr, &tls.Config{})
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", addr, err)
	}
	defer c.Logout()

	if err := c.Login(in.cfg.Username, in.cfg.Password); err != nil {
		return fmt.Errorf("imap login: %w", err)
	}

	if _, err := c.Select(in.cfg.Mailbox, false); err != nil {
		return fmt.Errorf("selecting %s: %w", in.cfg.Mailbox, err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	uids, err := c.Search(criteria)
	if err != nil {
		return fmt.Errorf("searching unseen: %w", err)
	}
	if len(uids) == 0 {
		return nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	section := &imap.BodySectionName{}
	items := []imap.FetchItem{imap.FetchEnvelope, section.FetchItem()}

	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqset, items, messages)
	}()

	handled := new(imap.SeqSet)
	for msg := range messages {
		from := ""
		if msg.Envelope != nil && len(msg.Envelope.From) > 0 {
			from = msg.Envelope.From[0].Address()
		}

		body := ""
		if r := msg.GetBody(section); r != nil {
			raw, err := io.ReadAll(r)
			if err == nil {
				body = string(raw)
			}
		}

		subject := ""
		if msg.Envelope != nil {
			subject = msg.Envelope.Subject
		}

		d, ok := ParseDecision(subject, body)
		if !ok {
			continue
		}
		d.Approver = from

		in.log.Info().Str("thread", d.ThreadID).Bool("approved", d.Approved).Str("approver", from).Msg("decision received by email")
		if err := in.resolve(ctx, d); err != nil {
			in.log.Warn().Err(err).Str("thread", d.ThreadID).Msg("email decision not applied")
		}
		handled.AddNum(msg.SeqNum)
	}

	if err := <-done; err != nil {
		return fmt.Errorf("fetching messages: %w", err)
	}

	if !handled.Empty() {
		item := imap.FormatFlagsOp(imap.AddFlags, true)
		flags := []any{imap.SeenFlag}
		if err := c.Store(handled, item, flags, nil); err != nil {
			return fmt.Errorf("marking messages seen: %w", err)
		}
	}
	return nil
}

var decisionRe = regexp.MustCompile(`(?i)\b(APPROVE|DENY)\b[:\s]+([A-Za-z0-9._-]+)`)

// ParseDecision extracts an APPROVE/DENY decision from a reply. The
// thread ID comes from the command itself or, failing that, from the
// [thread:...] marker the alert subject carries into the reply.
func ParseDecision(subject, body string) (Decision, bool) {
	text := subject + "\n" + body

	m := decisionRe.FindStringSubmatch(text)
	if m == nil {
		return Decision{}, false
	}

	d := Decision{Approved: strings.EqualFold(m[1], "APPROVE")}
	d.ThreadID = m[2]

	// A bare "APPROVE thread:abc" style reply or a quoted subject can put
	// the marker form first; normalize it.
	if d.ThreadID == "thread" {
		d.ThreadID = ""
	}
	if d.ThreadID == "" {
		if tm := regexp.MustCompile(`\[thread:([A-Za-z0-9._-]+)\]`).FindStringSubmatch(text); tm != nil {
			d.ThreadID = tm[1]
		}
	}
	if d.ThreadID == "" {
		return Decision{}, false
	}
	return d, true
}
