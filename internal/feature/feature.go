// internal/feature/feature.go
//
// Effective feature flags.
//
// Context
// -------
// The `features` config section mirrors raw deployment switches.  Demo mode
// forces the switches a demo needs:
//
//	emailLogin   = emailLogin || demo
//	registration = (emailLogin && registration) || demo
//
// Registration is additionally gated by `instance_settings`, which an admin
// can flip at runtime.  An explicit `features.registration: true` wins over
// the instance setting so demo instances can always onboard.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.

package feature

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yanizio/pollspace/internal/config"
)

// Flag names accepted by Enabled.
const (
	Storage      = "storage"
	Billing      = "billing"
	Feedback     = "feedback"
	EmailLogin   = "emailLogin"
	Registration = "registration"
	Calendars    = "calendars"
)

// Flags is the derived, immutable flag set.
type Flags struct {
	Storage      bool `json:"storage"`
	Billing      bool `json:"billing"`
	Feedback     bool `json:"feedback"`
	EmailLogin   bool `json:"emailLogin"`
	Registration bool `json:"registration"`
	Calendars    bool `json:"calendars"`
	DemoMode     bool `json:"demoMode"`
}

// FromConfig derives the effective flags.
func FromConfig(f config.Features) Flags {
	return Flags{
		Storage:      f.Storage,
		Billing:      f.Billing,
		Feedback:     f.Feedback,
		EmailLogin:   f.EmailLogin || f.DemoMode,
		Registration: (f.EmailLogin && f.Registration) || f.DemoMode,
		Calendars:    f.Calendars,
		DemoMode:     f.DemoMode,
	}
}

// Enabled looks a flag up by name.  Unknown names are disabled.
func (f Flags) Enabled(name string) bool {
	switch name {
	case Storage:
		return f.Storage
	case Billing:
		return f.Billing
	case Feedback:
		return f.Feedback
	case EmailLogin:
		return f.EmailLogin
	case Registration:
		return f.Registration
	case Calendars:
		return f.Calendars
	}
	return false
}

// SettingsReader exposes the runtime registration switch.
type SettingsReader interface {
	RegistrationDisabled(ctx context.Context) (bool, error)
}

// Settings reads `instance_settings`.
type Settings struct {
	db *sqlx.DB
}

// NewSettings returns a Settings bound to db.
func NewSettings(db *sqlx.DB) *Settings { return &Settings{db: db} }

// RegistrationDisabled returns the admin switch; a missing row means false.
func (s *Settings) RegistrationDisabled(ctx context.Context) (bool, error) {
	const q = `SELECT disable_user_registration FROM instance_settings WHERE id = 1 LIMIT 1`
	var disabled bool
	if err := s.db.GetContext(ctx, &disabled, q); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("feature: instance settings: %w", err)
	}
	return disabled, nil
}

// RegistrationEnabled decides whether the sign-up form is offered.  forced
// is the raw `features.registration` switch.  A settings lookup failure
// closes registration.
func RegistrationEnabled(ctx context.Context, flags Flags, forced bool, settings SettingsReader) bool {
	if forced {
		return true
	}
	if !flags.Registration {
		return false
	}
	disabled, err := settings.RegistrationDisabled(ctx)
	if err != nil {
		zap.L().Warn("registration gate degraded", zap.Error(err))
		return false
	}
	return !disabled
}
