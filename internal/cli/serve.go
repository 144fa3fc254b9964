package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/havenproj/haven/internal/alert"
	"github.com/havenproj/haven/internal/config"
	"github.com/havenproj/haven/internal/gateway"
	"github.com/havenproj/haven/internal/graph"
	"github.com/havenproj/haven/internal/hooks"
	"github.com/havenproj/haven/internal/knowledge"
	"github.com/havenproj/haven/internal/llm"
	"github.com/havenproj/haven/internal/logging"
	"github.com/havenproj/haven/internal/metrics"
	"github.com/havenproj/haven/internal/store"
	"github.com/havenproj/haven/internal/tools"
)

// logMailer stands in for a real relay when no SMTP host is configured.
// Alerts land in the log instead of a therapist inbox, which is only
// acceptable for local development.
type logMailer struct {
	log *logging.Logger
}

func (m *logMailer) SendAlert(_ context.Context, a alert.Alert) error {
	m.log.Warn().
		Str("to", a.To).
		Str("riskLevel", string(a.RiskLevel)).
		Str("thread", a.ThreadID).
		Msg("no smtp relay configured, alert logged only")
	return nil
}

// registerOperatorHooks subscribes a logging handler to the safety events an
// operator needs to see even at the default log level.
func registerOperatorHooks(hm *hooks.Manager, log *logging.Logger) {
	opLog := log.Sub("operator")
	for _, event := range []string{
		hooks.EventCrisisEventRecorded,
		hooks.EventEscalationProposed,
		hooks.EventApprovalResolved,
		hooks.EventAlertDeliveryFailed,
		hooks.EventAuditWriteFailed,
	} {
		hm.On(event, "operator-log", func(ctx context.Context, p hooks.Payload) error {
			opLog.Warn().Str("event", p.Event).Fields(p.Data).Msg("safety event")
			return nil
		})
	}
}

func newServeCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Haven API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}

			if port != 0 {
				cfg.Server.Port = port
			}
			if bind != "" {
				cfg.Server.Bind = bind
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			level := logLevel
			if level == "" {
				level = cfg.Logging.Level
			}
			log = logging.NewStyled(cfg.Logging.Style, level)

			if err := config.EnsurePaths(paths); err != nil {
				return fmt.Errorf("creating data directories: %w", err)
			}

			dbPath := cfg.Database.Path
			if dbPath != ":memory:" && !filepath.IsAbs(dbPath) {
				dbPath = filepath.Join(paths.Data, dbPath)
			}
			db, err := store.Open(dbPath, log)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()
			log.Info().Str("path", dbPath).Msg("database ready")

			hookMgr := hooks.NewManager(log)
			registerOperatorHooks(hookMgr, log)
			promReg := prometheus.NewRegistry()
			promReg.MustRegister(collectors.NewGoCollector())
			mt := metrics.New(promReg)

			var retriever knowledge.Retriever
			if cfg.Knowledge.Backend == "weaviate" {
				retriever, err = knowledge.NewWeaviate(cfg.Knowledge.URL, cfg.Knowledge.ClassName, log)
				if err != nil {
					return fmt.Errorf("connecting to weaviate: %w", err)
				}
				log.Info().Str("url", cfg.Knowledge.URL).Msg("using weaviate knowledge base")
			} else {
				retriever = knowledge.NewStatic()
				log.Info().Msg("using builtin knowledge base")
			}

			var mailer alert.Mailer
			if cfg.Alerts.SMTP.Host != "" {
				mailer = alert.NewSMTPMailer(alert.SMTPConfig{
					Host:     cfg.Alerts.SMTP.Host,
					Port:     cfg.Alerts.SMTP.Port,
					Username: cfg.Alerts.SMTP.Username,
					Password: cfg.Alerts.SMTP.Password,
					From:     cfg.Alerts.SMTP.From,
				}, log)
			} else {
				log.Warn().Msg("no smtp relay configured, therapist alerts will be logged only")
				mailer = &logMailer{log: log.Sub("mailer")}
			}

			reg := tools.NewRegistry()
			reg.Register(tools.NewAdministerTool(log))
			reg.Register(tools.NewScoreTool(db, log))
			reg.Register(tools.NewRetrieveTool(retriever, db, log))
			reg.Register(tools.NewCBTExerciseTool(retriever, db, log))
			reg.Register(tools.NewCrisisProtocolTool(retriever, db, log))
			reg.Register(tools.NewPsychoeducationTool(retriever, db, log))
			reg.Register(tools.NewTherapistAlertTool(db, mailer, cfg.Alerts.DefaultRecipient, hookMgr, mt, log))

			var (
				decider    llm.Decider
				summarizer graph.Summarizer
			)
			switch cfg.Assistant.Provider {
			case "scripted":
				log.Warn().Msg("using scripted assistant, replies are canned")
				decider = llm.NewScripted()
			default:
				oai, err := llm.NewOpenAI(llm.OpenAIOptions{
					APIKey:      cfg.Assistant.APIKey,
					BaseURL:     cfg.Assistant.BaseURL,
					Model:       cfg.Assistant.Model,
					Temperature: cfg.Assistant.Temperature,
				}, reg.Specs(), log)
				if err != nil {
					return fmt.Errorf("initializing assistant: %w", err)
				}
				decider = oai
				summarizer = oai
				log.Info().Str("model", cfg.Assistant.Model).Msg("assistant ready")
			}

			engine := graph.New(db, decider, summarizer, reg, hookMgr, mt, log)

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if cfg.Alerts.Inbox.Host != "" {
				inbox := alert.NewInbox(alert.IMAPConfig{
					Host:         cfg.Alerts.Inbox.Host,
					Port:         cfg.Alerts.Inbox.Port,
					Username:     cfg.Alerts.Inbox.Username,
					Password:     cfg.Alerts.Inbox.Password,
					Mailbox:      cfg.Alerts.Inbox.Mailbox,
					PollInterval: time.Duration(cfg.Alerts.Inbox.PollIntervalSecs) * time.Second,
				}, func(ctx context.Context, d alert.Decision) error {
					_, err := engine.ResolveApproval(ctx, d.ThreadID, d.Approved, d.Approver)
					if errors.Is(err, graph.ErrNoPendingAction) {
						// Duplicate or stale reply, nothing to apply.
						return nil
					}
					return err
				}, log)
				go inbox.Run(ctx)
			}

			srv := gateway.New(cfg, db, engine, log,
				gateway.WithHooks(hookMgr),
				gateway.WithMetricsRegistry(promReg),
			)

			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override server port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind address")

	return cmd
}
