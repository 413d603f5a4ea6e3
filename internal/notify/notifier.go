package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	gomail "gopkg.in/gomail.v2"
	"gorm.io/gorm"

	"github.com/highdesertlabs/porchlight/internal/config"
	"github.com/highdesertlabs/porchlight/internal/db/models"
	apperrors "github.com/highdesertlabs/porchlight/pkg/errors"
	"github.com/highdesertlabs/porchlight/pkg/logger"
)

// Form fields never echoed into notifications.
var suppressedFields = map[string]bool{
	"recaptchaToken": true,
	"website":        true,
}

// Notifier sends per-lead email and SMS notifications to the owning domain's
// configured targets. Both channels are optional; a channel without
// credentials or without a per-domain target is silently skipped.
type Notifier struct {
	db  *gorm.DB
	cfg config.NotifyConfig

	// sendMail and twilioBaseURL are swapped out in tests
	sendMail      func(m *gomail.Message) error
	twilioBaseURL string
	client        *http.Client
}

func NewNotifier(db *gorm.DB, cfg config.NotifyConfig) *Notifier {
	n := &Notifier{
		db:            db,
		cfg:           cfg,
		twilioBaseURL: "https://api.twilio.com",
		client:        &http.Client{Timeout: 10 * time.Second},
	}
	n.sendMail = func(m *gomail.Message) error {
		dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
		return dialer.DialAndSend(m)
	}
	return n
}

// NotifyLead loads the lead and sends whatever notifications the domain and
// configuration allow. Channel failures are logged, not returned: the lead is
// already persisted and notification delivery is best-effort.
func (n *Notifier) NotifyLead(ctx context.Context, leadID uuid.UUID) error {
	var lead models.Lead
	err := n.db.WithContext(ctx).
		Preload("Domain").
		Preload("Page").
		First(&lead, "id = ?", leadID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrLeadNotFound
		}
		return err
	}

	if n.emailEnabled() && lead.Domain.NotifyEmail != "" {
		if err := n.sendEmail(&lead); err != nil {
			logger.WarnEvent().Err(err).Str("lead_id", leadID.String()).Msg("Lead email notification failed")
		}
	}
	if n.smsEnabled() && lead.Domain.NotifySMS != "" {
		if err := n.sendSMS(ctx, &lead); err != nil {
			logger.WarnEvent().Err(err).Str("lead_id", leadID.String()).Msg("Lead SMS notification failed")
		}
	}
	return nil
}

func (n *Notifier) emailEnabled() bool {
	return n.cfg.SMTPHost != "" && n.cfg.FromEmail != ""
}

func (n *Notifier) smsEnabled() bool {
	return n.cfg.TwilioAccountSID != "" && n.cfg.TwilioAuthToken != "" && n.cfg.TwilioFromNumber != ""
}

func (n *Notifier) sendEmail(lead *models.Lead) error {
	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.FromEmail)
	m.SetHeader("To", lead.Domain.NotifyEmail)
	m.SetHeader("Subject", Subject(lead))
	m.SetBody("text/plain", Body(lead))
	return n.sendMail(m)
}

func (n *Notifier) sendSMS(ctx context.Context, lead *models.Lead) error {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", n.twilioBaseURL, n.cfg.TwilioAccountSID)

	form := url.Values{}
	form.Set("To", lead.Domain.NotifySMS)
	form.Set("From", n.cfg.TwilioFromNumber)
	form.Set("Body", fmt.Sprintf("New %s lead from %s / %s", lead.Type, lead.Domain.Hostname, lead.Page.Slug))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(n.cfg.TwilioAccountSID, n.cfg.TwilioAuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("twilio rejected message: status %d", resp.StatusCode)
	}
	return nil
}

// Subject builds the notification email subject for a lead.
func Subject(lead *models.Lead) string {
	return fmt.Sprintf("[New %s lead] %s / %s", lead.Type, lead.Domain.Hostname, lead.Page.Slug)
}

// Body renders the lead's form data as "key: value" lines, in key order,
// omitting anti-spam fields.
func Body(lead *models.Lead) string {
	data := lead.FormDataMap()
	keys := make([]string, 0, len(data))
	for key := range data {
		if suppressedFields[key] {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		fmt.Fprintf(&b, "%s: %v\n", key, data[key])
	}
	return b.String()
}
