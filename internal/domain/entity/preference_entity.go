package entity

import "time"

// Consent types recorded in the audit trail.
const (
	ConsentTermsOfService    = "terms_of_service"
	ConsentPrivacyPolicy     = "privacy_policy"
	ConsentMarketing         = "marketing"
	ConsentDataSharing       = "data_sharing"
	ConsentThirdPartySharing = "third_party_sharing"
)

// Preference holds a user's general preferences. A row is created lazily with
// defaults on first access.
type Preference struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Language         string    `json:"language"`
	Currency         string    `json:"currency"`
	Timezone         string    `json:"timezone"`
	Theme            string    `json:"theme"` // light, dark, auto
	PinEnabled       bool      `json:"pin_enabled"`
	BiometricEnabled bool      `json:"biometric_enabled"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NotificationSetting holds per-channel notification toggles.
type NotificationSetting struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`

	EmailEnabled           bool `json:"email_enabled"`
	EmailTransactionAlerts bool `json:"email_transaction_alerts"`
	EmailSecurityAlerts    bool `json:"email_security_alerts"`
	EmailMarketing         bool `json:"email_marketing"`
	EmailProductUpdates    bool `json:"email_product_updates"`

	SMSEnabled           bool `json:"sms_enabled"`
	SMSTransactionAlerts bool `json:"sms_transaction_alerts"`
	SMSSecurityAlerts    bool `json:"sms_security_alerts"`
	SMSMarketing         bool `json:"sms_marketing"`

	PushEnabled           bool `json:"push_enabled"`
	PushTransactionAlerts bool `json:"push_transaction_alerts"`
	PushSecurityAlerts    bool `json:"push_security_alerts"`
	PushMarketing         bool `json:"push_marketing"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PrivacySetting holds profile visibility and data-management toggles.
type PrivacySetting struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`

	ProfileVisible         bool `json:"profile_visible"`
	ShowEmail              bool `json:"show_email"`
	ShowPhone              bool `json:"show_phone"`
	ShowTransactionHistory bool `json:"show_transaction_history"`

	AllowDataCollection    bool `json:"allow_data_collection"`
	AllowAnalytics         bool `json:"allow_analytics"`
	AllowThirdPartySharing bool `json:"allow_third_party_sharing"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Consent is an append-only audit record of a grant or revocation.
type Consent struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	ConsentType string     `json:"consent_type"`
	Granted     bool       `json:"granted"`
	Version     string     `json:"version,omitempty"`
	IPAddress   string     `json:"ip_address,omitempty"`
	UserAgent   string     `json:"user_agent,omitempty"`
	GrantedAt   time.Time  `json:"granted_at"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
}
