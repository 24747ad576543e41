package repository

import (
	"context"

	"github.com/payvault/user-service/internal/domain/entity"
)

// PreferenceRepository persists preference, notification, privacy and consent
// records. Get* return apperrors.ErrNotFound when no row exists; callers
// create defaults lazily.
type PreferenceRepository interface {
	GetPreference(ctx context.Context, userID string) (*entity.Preference, error)
	CreatePreference(ctx context.Context, userID string) (*entity.Preference, error)
	UpdatePreference(ctx context.Context, p *entity.Preference) error

	GetNotificationSetting(ctx context.Context, userID string) (*entity.NotificationSetting, error)
	CreateNotificationSetting(ctx context.Context, userID string) (*entity.NotificationSetting, error)
	UpdateNotificationSetting(ctx context.Context, s *entity.NotificationSetting) error

	GetPrivacySetting(ctx context.Context, userID string) (*entity.PrivacySetting, error)
	CreatePrivacySetting(ctx context.Context, userID string) (*entity.PrivacySetting, error)
	UpdatePrivacySetting(ctx context.Context, s *entity.PrivacySetting) error

	CreateConsent(ctx context.Context, c *entity.Consent) error
	ListConsents(ctx context.Context, userID string) ([]entity.Consent, error)
	LatestConsent(ctx context.Context, userID, consentType string) (*entity.Consent, error)
}
