package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/payvault/user-service/internal/domain/entity"
	"github.com/payvault/user-service/internal/domain/repository"
	"github.com/payvault/user-service/pkg/apperrors"
)

type PreferenceRepository struct {
	pool *pgxpool.Pool
}

func NewPreferenceRepository(pool *pgxpool.Pool) *PreferenceRepository {
	return &PreferenceRepository{pool: pool}
}

func wrapGet(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	return apperrors.ErrDatabase.WithMessage(err.Error())
}

func (r *PreferenceRepository) GetPreference(ctx context.Context, userID string) (*entity.Preference, error) {
	p := &entity.Preference{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, language, currency, timezone, theme, pin_enabled, biometric_enabled, created_at, updated_at
		FROM user_preferences WHERE user_id = $1
	`, userID).Scan(&p.ID, &p.UserID, &p.Language, &p.Currency, &p.Timezone, &p.Theme,
		&p.PinEnabled, &p.BiometricEnabled, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, wrapGet(err)
	}
	return p, nil
}

// CreatePreference inserts a row with column defaults and returns it.
func (r *PreferenceRepository) CreatePreference(ctx context.Context, userID string) (*entity.Preference, error) {
	p := &entity.Preference{UserID: userID}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO user_preferences (user_id) VALUES ($1)
		RETURNING id, language, currency, timezone, theme, pin_enabled, biometric_enabled, created_at, updated_at
	`, userID).Scan(&p.ID, &p.Language, &p.Currency, &p.Timezone, &p.Theme,
		&p.PinEnabled, &p.BiometricEnabled, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, apperrors.ErrDatabase.WithMessage(err.Error())
	}
	return p, nil
}

func (r *PreferenceRepository) UpdatePreference(ctx context.Context, p *entity.Preference) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE user_preferences
		SET language = $2, currency = $3, timezone = $4, theme = $5,
		    pin_enabled = $6, biometric_enabled = $7, updated_at = now()
		WHERE user_id = $1
	`, p.UserID, p.Language, p.Currency, p.Timezone, p.Theme, p.PinEnabled, p.BiometricEnabled)
	if err != nil {
		return apperrors.ErrDatabase.WithMessage(err.Error())
	}
	if res.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

const notifColumns = `id, user_id,
	email_enabled, email_transaction_alerts, email_security_alerts, email_marketing, email_product_updates,
	sms_enabled, sms_transaction_alerts, sms_security_alerts, sms_marketing,
	push_enabled, push_transaction_alerts, push_security_alerts, push_marketing,
	created_at, updated_at`

func scanNotif(row pgx.Row) (*entity.NotificationSetting, error) {
	s := &entity.NotificationSetting{}
	err := row.Scan(&s.ID, &s.UserID,
		&s.EmailEnabled, &s.EmailTransactionAlerts, &s.EmailSecurityAlerts, &s.EmailMarketing, &s.EmailProductUpdates,
		&s.SMSEnabled, &s.SMSTransactionAlerts, &s.SMSSecurityAlerts, &s.SMSMarketing,
		&s.PushEnabled, &s.PushTransactionAlerts, &s.PushSecurityAlerts, &s.PushMarketing,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, wrapGet(err)
	}
	return s, nil
}

func (r *PreferenceRepository) GetNotificationSetting(ctx context.Context, userID string) (*entity.NotificationSetting, error) {
	return scanNotif(r.pool.QueryRow(ctx,
		`SELECT `+notifColumns+` FROM user_notification_settings WHERE user_id = $1`, userID))
}

func (r *PreferenceRepository) CreateNotificationSetting(ctx context.Context, userID string) (*entity.NotificationSetting, error) {
	s, err := scanNotif(r.pool.QueryRow(ctx, `
		INSERT INTO user_notification_settings (user_id) VALUES ($1)
		RETURNING `+notifColumns, userID))
	if err != nil {
		return nil, apperrors.ErrDatabase.WithMessage(err.Error())
	}
	return s, nil
}

func (r *PreferenceRepository) UpdateNotificationSetting(ctx context.Context, s *entity.NotificationSetting) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE user_notification_settings
		SET email_enabled = $2, email_transaction_alerts = $3, email_security_alerts = $4,
		    email_marketing = $5, email_product_updates = $6,
		    sms_enabled = $7, sms_transaction_alerts = $8, sms_security_alerts = $9, sms_marketing = $10,
		    push_enabled = $11, push_transaction_alerts = $12, push_security_alerts = $13, push_marketing = $14,
		    updated_at = now()
		WHERE user_id = $1
	`, s.UserID,
		s.EmailEnabled, s.EmailTransactionAlerts, s.EmailSecurityAlerts, s.EmailMarketing, s.EmailProductUpdates,
		s.SMSEnabled, s.SMSTransactionAlerts, s.SMSSecurityAlerts, s.SMSMarketing,
		s.PushEnabled, s.PushTransactionAlerts, s.PushSecurityAlerts, s.PushMarketing)
	if err != nil {
		return apperrors.ErrDatabase.WithMessage(err.Error())
	}
	if res.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

const privacyColumns = `id, user_id,
	profile_visible, show_email, show_phone, show_transaction_history,
	allow_data_collection, allow_analytics, allow_third_party_sharing,
	created_at, updated_at`

func scanPrivacy(row pgx.Row) (*entity.PrivacySetting, error) {
	s := &entity.PrivacySetting{}
	err := row.Scan(&s.ID, &s.UserID,
		&s.ProfileVisible, &s.ShowEmail, &s.ShowPhone, &s.ShowTransactionHistory,
		&s.AllowDataCollection, &s.AllowAnalytics, &s.AllowThirdPartySharing,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, wrapGet(err)
	}
	return s, nil
}

func (r *PreferenceRepository) GetPrivacySetting(ctx context.Context, userID string) (*entity.PrivacySetting, error) {
	return scanPrivacy(r.pool.QueryRow(ctx,
		`SELECT `+privacyColumns+` FROM user_privacy_settings WHERE user_id = $1`, userID))
}

func (r *PreferenceRepository) CreatePrivacySetting(ctx context.Context, userID string) (*entity.PrivacySetting, error) {
	s, err := scanPrivacy(r.pool.QueryRow(ctx, `
		INSERT INTO user_privacy_settings (user_id) VALUES ($1)
		RETURNING `+privacyColumns, userID))
	if err != nil {
		return nil, apperrors.ErrDatabase.WithMessage(err.Error())
	}
	return s, nil
}

func (r *PreferenceRepository) UpdatePrivacySetting(ctx context.Context, s *entity.PrivacySetting) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE user_privacy_settings
		SET profile_visible = $2, show_email = $3, show_phone = $4, show_transaction_history = $5,
		    allow_data_collection = $6, allow_analytics = $7, allow_third_party_sharing = $8,
		    updated_at = now()
		WHERE user_id = $1
	`, s.UserID,
		s.ProfileVisible, s.ShowEmail, s.ShowPhone, s.ShowTransactionHistory,
		s.AllowDataCollection, s.AllowAnalytics, s.AllowThirdPartySharing)
	if err != nil {
		return apperrors.ErrDatabase.WithMessage(err.Error())
	}
	if res.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PreferenceRepository) CreateConsent(ctx context.Context, c *entity.Consent) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO user_consents (user_id, consent_type, granted, version, ip_address, user_agent, granted_at, revoked_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), $7)
		RETURNING id, granted_at
	`, c.UserID, c.ConsentType, c.Granted, c.Version, c.IPAddress, c.UserAgent, c.RevokedAt).
		Scan(&c.ID, &c.GrantedAt)
	if err != nil {
		return apperrors.ErrDatabase.WithMessage(err.Error())
	}
	return nil
}

func (r *PreferenceRepository) ListConsents(ctx context.Context, userID string) ([]entity.Consent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, consent_type, granted, version, ip_address, user_agent, granted_at, revoked_at
		FROM user_consents WHERE user_id = $1
		ORDER BY granted_at DESC
	`, userID)
	if err != nil {
		return nil, apperrors.ErrDatabase.WithMessage(err.Error())
	}
	defer rows.Close()

	var out []entity.Consent
	for rows.Next() {
		var c entity.Consent
		if err := rows.Scan(&c.ID, &c.UserID, &c.ConsentType, &c.Granted, &c.Version,
			&c.IPAddress, &c.UserAgent, &c.GrantedAt, &c.RevokedAt); err != nil {
			return nil, apperrors.ErrDatabase.WithMessage(err.Error())
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.ErrDatabase.WithMessage(err.Error())
	}
	return out, nil
}

func (r *PreferenceRepository) LatestConsent(ctx context.Context, userID, consentType string) (*entity.Consent, error) {
	c := &entity.Consent{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, consent_type, granted, version, ip_address, user_agent, granted_at, revoked_at
		FROM user_consents WHERE user_id = $1 AND consent_type = $2
		ORDER BY granted_at DESC
		LIMIT 1
	`, userID, consentType).Scan(&c.ID, &c.UserID, &c.ConsentType, &c.Granted, &c.Version,
		&c.IPAddress, &c.UserAgent, &c.GrantedAt, &c.RevokedAt)
	if err != nil {
		return nil, wrapGet(err)
	}
	return c, nil
}

var _ repository.PreferenceRepository = (*PreferenceRepository)(nil)
