package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "gopkg.in/gomail.v2"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/highdesertlabs/porchlight/internal/config"
	"github.com/highdesertlabs/porchlight/internal/db/models"
)

func setupNotifyTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Domain{},
		&models.LandingPage{},
		&models.Lead{},
	))
	return db
}

func seedNotifyLead(t *testing.T, db *gorm.DB, notifyEmail, notifySMS string) *models.Lead {
	t.Helper()
	domain := &models.Domain{
		Hostname:    "bendhomes.us",
		DisplayName: "Bend Homes",
		NotifyEmail: notifyEmail,
		NotifySMS:   notifySMS,
		IsActive:    true,
	}
	require.NoError(t, db.Create(domain).Error)

	page := &models.LandingPage{
		DomainID: domain.ID,
		Slug:     "cash-offer",
		Type:     models.PageTypeBuyer,
		Status:   models.PageStatusPublished,
		Headline: "H",
	}
	require.NoError(t, db.Create(page).Error)

	lead := &models.Lead{
		DomainID: domain.ID,
		PageID:   page.ID,
		Type:     "buyer",
		FormData: []byte(`{"name":"Jane","email":"jane@example.com","website":"spam","recaptchaToken":"tok"}`),
	}
	require.NoError(t, db.Create(lead).Error)
	return lead
}

func TestNotifyLead_Email(t *testing.T) {
	db := setupNotifyTestDB(t)
	lead := seedNotifyLead(t, db, "agent@bendhomes.us", "")

	n := NewNotifier(db, config.NotifyConfig{
		SMTPHost:  "smtp.example.com",
		SMTPPort:  587,
		FromEmail: "leads@porchlight.dev",
	})

	var sent *gomail.Message
	n.sendMail = func(m *gomail.Message) error {
		sent = m
		return nil
	}

	require.NoError(t, n.NotifyLead(context.Background(), lead.ID))
	require.NotNil(t, sent)
	assert.Equal(t, []string{"agent@bendhomes.us"}, sent.GetHeader("To"))
	assert.Equal(t, []string{"[New buyer lead] bendhomes.us / cash-offer"}, sent.GetHeader("Subject"))
}

func TestNotifyLead_EmailSkippedWithoutTarget(t *testing.T) {
	db := setupNotifyTestDB(t)
	lead := seedNotifyLead(t, db, "", "")

	n := NewNotifier(db, config.NotifyConfig{
		SMTPHost:  "smtp.example.com",
		SMTPPort:  587,
		FromEmail: "leads@porchlight.dev",
	})

	called := false
	n.sendMail = func(m *gomail.Message) error {
		called = true
		return nil
	}

	require.NoError(t, n.NotifyLead(context.Background(), lead.ID))
	assert.False(t, called)
}

func TestNotifyLead_SMS(t *testing.T) {
	db := setupNotifyTestDB(t)
	lead := seedNotifyLead(t, db, "", "+15415550100")

	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"To":   r.PostFormValue("To"),
			"From": r.PostFormValue("From"),
			"Body": r.PostFormValue("Body"),
		}
		user, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC123", user)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	n := NewNotifier(db, config.NotifyConfig{
		TwilioAccountSID: "AC123",
		TwilioAuthToken:  "token",
		TwilioFromNumber: "+15415550999",
	})
	n.twilioBaseURL = srv.URL

	require.NoError(t, n.NotifyLead(context.Background(), lead.ID))
	require.NotNil(t, gotForm)
	assert.Equal(t, "+15415550100", gotForm["To"])
	assert.Equal(t, "+15415550999", gotForm["From"])
	assert.Equal(t, "New buyer lead from bendhomes.us / cash-offer", gotForm["Body"])
}

func TestNotifyLead_FailuresSwallowed(t *testing.T) {
	db := setupNotifyTestDB(t)
	lead := seedNotifyLead(t, db, "agent@bendhomes.us", "+15415550100")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	n := NewNotifier(db, config.NotifyConfig{
		SMTPHost:         "smtp.example.com",
		SMTPPort:         587,
		FromEmail:        "leads@porchlight.dev",
		TwilioAccountSID: "AC123",
		TwilioAuthToken:  "token",
		TwilioFromNumber: "+15415550999",
	})
	n.twilioBaseURL = srv.URL
	n.sendMail = func(m *gomail.Message) error {
		return assert.AnError
	}

	assert.NoError(t, n.NotifyLead(context.Background(), lead.ID))
}

func TestBody_FiltersAndSorts(t *testing.T) {
	db := setupNotifyTestDB(t)
	lead := seedNotifyLead(t, db, "", "")

	var loaded models.Lead
	require.NoError(t, db.Preload("Domain").Preload("Page").First(&loaded, "id = ?", lead.ID).Error)

	body := Body(&loaded)
	assert.Equal(t, "email: jane@example.com\nname: Jane\n", body)
	assert.NotContains(t, body, "recaptchaToken")
	assert.NotContains(t, body, "website")
}
