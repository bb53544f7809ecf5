// Package notify emails newly-raised financial alerts after a refresh.
// Alerts that were already present in the previous cycle are not re-sent.
package notify

import (
	"fmt"
	"net/smtp"
	"strings"
	"sync"
	"time"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/finassist/bridge/internal/config"
	"github.com/finassist/bridge/internal/model"
)

// Notifier sends alert emails via SMTP.
type Notifier struct {
	cfg config.SMTPConfig
	log *logrus.Logger

	mu   sync.Mutex
	seen map[string]bool
}

// NewNotifier creates an alert notifier.
func NewNotifier(cfg config.SMTPConfig, log *logrus.Logger) *Notifier {
	return &Notifier{
		cfg:  cfg,
		log:  log,
		seen: map[string]bool{},
	}
}

// Notify mails the alerts of a snapshot that were not present in the
// previous cycle. A cycle with no new alerts sends nothing.
func (n *Notifier) Notify(snap *model.Snapshot) {
	if snap == nil || snap.FinancialHealth == nil {
		return
	}

	fresh := n.diff(snap.FinancialHealth.Alerts)
	if len(fresh) == 0 {
		return
	}

	if err := n.send(fresh, snap.FinancialHealth); err != nil {
		n.log.Errorf("Failed to send alert email: %v", err)
		return
	}
	n.log.Infof("Alert email sent with %d new alert(s)", len(fresh))
}

// diff returns alerts not seen last cycle and records the current set.
func (n *Notifier) diff(alerts []string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	var fresh []string
	current := make(map[string]bool, len(alerts))
	for _, a := range alerts {
		current[a] = true
		if !n.seen[a] {
			fresh = append(fresh, a)
		}
	}
	n.seen = current
	return fresh
}

func (n *Notifier) send(alerts []string, health *model.FinancialHealth) error {
	e := email.NewEmail()
	e.From = n.cfg.From
	e.To = []string{n.cfg.To}
	if len(alerts) == 1 {
		e.Subject = "Finance Assistant Alert"
	} else {
		e.Subject = fmt.Sprintf("Finance Assistant: %d New Alerts", len(alerts))
	}

	var body strings.Builder
	body.WriteString("New financial alerts were raised:\n\n")
	for _, a := range alerts {
		body.WriteString("  - " + a + "\n")
	}
	body.WriteString(fmt.Sprintf(
		"\nOverall health score: %.1f (%s)\nGenerated: %s\n",
		health.OverallScore, health.RiskLevel,
		health.GeneratedAt.Format(time.RFC3339),
	))
	e.Text = []byte(body.String())

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	if err := e.Send(addr, auth); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
