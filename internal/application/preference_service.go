package application

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/payvault/user-service/internal/domain/entity"
	"github.com/payvault/user-service/internal/domain/repository"
	"github.com/payvault/user-service/pkg/apperrors"
)

// PreferenceService manages user preferences, notification and privacy
// settings, and the consent audit trail. Settings rows are created lazily
// with defaults on first read so registration stays a single insert.
type PreferenceService struct {
	repo   repository.PreferenceRepository
	logger *logrus.Logger
}

func NewPreferenceService(repo repository.PreferenceRepository, logger *logrus.Logger) *PreferenceService {
	return &PreferenceService{repo: repo, logger: logger}
}

// PreferenceUpdate carries partial edits; nil fields are left unchanged.
type PreferenceUpdate struct {
	Language         *string `json:"language" binding:"omitempty,min=2,max=10"`
	Currency         *string `json:"currency" binding:"omitempty,len=3"`
	Timezone         *string `json:"timezone" binding:"omitempty,max=64"`
	Theme            *string `json:"theme" binding:"omitempty,oneof=light dark auto"`
	PinEnabled       *bool   `json:"pin_enabled"`
	BiometricEnabled *bool   `json:"biometric_enabled"`
}

type NotificationUpdate struct {
	EmailEnabled           *bool `json:"email_enabled"`
	EmailTransactionAlerts *bool `json:"email_transaction_alerts"`
	EmailSecurityAlerts    *bool `json:"email_security_alerts"`
	EmailMarketing         *bool `json:"email_marketing"`
	EmailProductUpdates    *bool `json:"email_product_updates"`

	SMSEnabled           *bool `json:"sms_enabled"`
	SMSTransactionAlerts *bool `json:"sms_transaction_alerts"`
	SMSSecurityAlerts    *bool `json:"sms_security_alerts"`
	SMSMarketing         *bool `json:"sms_marketing"`

	PushEnabled           *bool `json:"push_enabled"`
	PushTransactionAlerts *bool `json:"push_transaction_alerts"`
	PushSecurityAlerts    *bool `json:"push_security_alerts"`
	PushMarketing         *bool `json:"push_marketing"`
}

type PrivacyUpdate struct {
	ProfileVisible         *bool `json:"profile_visible"`
	ShowEmail              *bool `json:"show_email"`
	ShowPhone              *bool `json:"show_phone"`
	ShowTransactionHistory *bool `json:"show_transaction_history"`

	AllowDataCollection    *bool `json:"allow_data_collection"`
	AllowAnalytics         *bool `json:"allow_analytics"`
	AllowThirdPartySharing *bool `json:"allow_third_party_sharing"`
}

// ConsentInput records a grant or revocation of one consent type.
type ConsentInput struct {
	ConsentType string `json:"consent_type" binding:"required,oneof=terms_of_service privacy_policy marketing data_sharing third_party_sharing"`
	Granted     *bool  `json:"granted" binding:"required"`
	Version     string `json:"version" binding:"omitempty,max=32"`
}

func (s *PreferenceService) GetPreferences(ctx context.Context, userID string) (*entity.Preference, error) {
	p, err := s.repo.GetPreference(ctx, userID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return s.repo.CreatePreference(ctx, userID)
	}
	return p, err
}

func (s *PreferenceService) UpdatePreferences(ctx context.Context, userID string, in PreferenceUpdate) (*entity.Preference, error) {
	p, err := s.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.Language != nil {
		p.Language = *in.Language
	}
	if in.Currency != nil {
		p.Currency = *in.Currency
	}
	if in.Timezone != nil {
		p.Timezone = *in.Timezone
	}
	if in.Theme != nil {
		p.Theme = *in.Theme
	}
	if in.PinEnabled != nil {
		p.PinEnabled = *in.PinEnabled
	}
	if in.BiometricEnabled != nil {
		p.BiometricEnabled = *in.BiometricEnabled
	}
	if err := s.repo.UpdatePreference(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PreferenceService) GetNotificationSettings(ctx context.Context, userID string) (*entity.NotificationSetting, error) {
	n, err := s.repo.GetNotificationSetting(ctx, userID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return s.repo.CreateNotificationSetting(ctx, userID)
	}
	return n, err
}

func (s *PreferenceService) UpdateNotificationSettings(ctx context.Context, userID string, in NotificationUpdate) (*entity.NotificationSetting, error) {
	n, err := s.GetNotificationSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	apply := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&n.EmailEnabled, in.EmailEnabled)
	apply(&n.EmailTransactionAlerts, in.EmailTransactionAlerts)
	apply(&n.EmailSecurityAlerts, in.EmailSecurityAlerts)
	apply(&n.EmailMarketing, in.EmailMarketing)
	apply(&n.EmailProductUpdates, in.EmailProductUpdates)
	apply(&n.SMSEnabled, in.SMSEnabled)
	apply(&n.SMSTransactionAlerts, in.SMSTransactionAlerts)
	apply(&n.SMSSecurityAlerts, in.SMSSecurityAlerts)
	apply(&n.SMSMarketing, in.SMSMarketing)
	apply(&n.PushEnabled, in.PushEnabled)
	apply(&n.PushTransactionAlerts, in.PushTransactionAlerts)
	apply(&n.PushSecurityAlerts, in.PushSecurityAlerts)
	apply(&n.PushMarketing, in.PushMarketing)
	if err := s.repo.UpdateNotificationSetting(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *PreferenceService) GetPrivacySettings(ctx context.Context, userID string) (*entity.PrivacySetting, error) {
	p, err := s.repo.GetPrivacySetting(ctx, userID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return s.repo.CreatePrivacySetting(ctx, userID)
	}
	return p, err
}

func (s *PreferenceService) UpdatePrivacySettings(ctx context.Context, userID string, in PrivacyUpdate) (*entity.PrivacySetting, error) {
	p, err := s.GetPrivacySettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	apply := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&p.ProfileVisible, in.ProfileVisible)
	apply(&p.ShowEmail, in.ShowEmail)
	apply(&p.ShowPhone, in.ShowPhone)
	apply(&p.ShowTransactionHistory, in.ShowTransactionHistory)
	apply(&p.AllowDataCollection, in.AllowDataCollection)
	apply(&p.AllowAnalytics, in.AllowAnalytics)
	apply(&p.AllowThirdPartySharing, in.AllowThirdPartySharing)
	if err := s.repo.UpdatePrivacySetting(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// RecordConsent appends a consent event. Records are never updated in place;
// the latest row per type is the current state.
func (s *PreferenceService) RecordConsent(ctx context.Context, userID, ip, userAgent string, in ConsentInput) (*entity.Consent, error) {
	now := time.Now().UTC()
	c := &entity.Consent{
		UserID:      userID,
		ConsentType: in.ConsentType,
		Granted:     *in.Granted,
		Version:     in.Version,
		IPAddress:   ip,
		UserAgent:   userAgent,
		GrantedAt:   now,
	}
	if !c.Granted {
		c.RevokedAt = &now
	}
	if err := s.repo.CreateConsent(ctx, c); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"user_id":      userID,
		"consent_type": c.ConsentType,
		"granted":      c.Granted,
	}).Info("consent recorded")
	return c, nil
}

func (s *PreferenceService) ListConsents(ctx context.Context, userID string) ([]entity.Consent, error) {
	return s.repo.ListConsents(ctx, userID)
}

// ConsentStatus reports the current grant state for every known consent type.
func (s *PreferenceService) ConsentStatus(ctx context.Context, userID string) (map[string]bool, error) {
	status := make(map[string]bool, 5)
	for _, ct := range []string{
		entity.ConsentTermsOfService,
		entity.ConsentPrivacyPolicy,
		entity.ConsentMarketing,
		entity.ConsentDataSharing,
		entity.ConsentThirdPartySharing,
	} {
		c, err := s.repo.LatestConsent(ctx, userID, ct)
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			status[ct] = false
		case err != nil:
			return nil, err
		default:
			status[ct] = c.Granted
		}
	}
	return status, nil
}
