package staleness

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rflorenc/inventory-console/internal/featureflags"
	"github.com/rflorenc/inventory-console/internal/inventory"
	"github.com/rflorenc/inventory-console/internal/notify"
)

// API is the slice of the inventory client the card needs.
type API interface {
	FetchStaleness(ctx context.Context) (*inventory.Staleness, error)
	FetchDefaultStaleness(ctx context.Context) (map[string]int64, error)
	PostStaleness(ctx context.Context, values map[string]int64) error
	UpdateStaleness(ctx context.Context, values map[string]int64) error
	FetchEdgeSystems(ctx context.Context) (int, error)
}

// Service loads and saves the settings card.
type Service struct {
	API      API
	Flags    featureflags.Source
	Notifier notify.Dispatcher
	Logger   *slog.Logger
}

// Load builds a fresh card: edge system check, current settings, then
// defaults. Only a failure to read the current settings is returned.
func (s *Service) Load(ctx context.Context, canModify bool) (*Card, error) {
	card := NewCard(canModify, s.Flags.Enabled(featureflags.EdgeParityStaleness))

	if n, err := s.API.FetchEdgeSystems(ctx); err != nil {
		s.Logger.Warn("edge system check failed", "error", err)
	} else {
		card.HasEdgeSystems = n > 0
	}

	settings, err := s.fetchSettings(ctx)
	if err != nil {
		return nil, err
	}
	card.applySettings(settings)

	if defaults, err := s.API.FetchDefaultStaleness(ctx); err != nil {
		s.Logger.Warn("fetching staleness defaults failed", "error", err)
	} else {
		for k, v := range defaults {
			switch {
			case strings.Contains(k, "conventional"):
				card.ConventionalDefaults[k] = SecondsToDays(v)
			case strings.Contains(k, "immutable"):
				card.ImmutableDefaults[k] = SecondsToDays(v)
			}
		}
	}

	card.Loading = false
	return card, nil
}

func (s *Service) fetchSettings(ctx context.Context) (Settings, error) {
	res, err := s.API.FetchStaleness(ctx)
	if err != nil {
		return Settings{}, fmt.Errorf("fetching staleness: %w", err)
	}
	settings := Settings{ID: res.ID, Days: make(map[string]int, len(HostKeys))}
	for _, k := range HostKeys {
		settings.Days[k] = SecondsToDays(res.Values[k])
	}
	return settings, nil
}

// Payload converts the card's form into the upstream request body. Unset
// fields are left out.
func (c *Card) Payload() map[string]int64 {
	out := map[string]int64{}
	for _, k := range c.ActiveKeys() {
		if days := c.Form[k]; days != 0 {
			out[k] = DaysToSeconds(days)
		}
	}
	return out
}

// Save sends the form upstream. Organizations without a record get one
// created; others are patched. On success the card leaves edit mode with
// freshly loaded settings. On failure the card is untouched and a danger
// notification is dispatched.
func (s *Service) Save(ctx context.Context, card *Card) error {
	if !card.CanModify {
		return ErrNotPermitted
	}
	if !card.FormValid {
		return fmt.Errorf("invalid form: %s", card.FormError)
	}

	payload := card.Payload()
	creating := card.Settings.ID == SystemDefaultID

	var err error
	if creating {
		err = s.API.PostStaleness(ctx, payload)
	} else {
		err = s.API.UpdateStaleness(ctx, payload)
	}
	if err != nil {
		n := notify.Notification{
			Key:         "settings-saved-failed",
			Variant:     notify.Danger,
			Title:       "Error saving organization level settings",
			Dismissable: true,
		}
		if creating {
			n.Description = "Error saving organization level settings"
		}
		s.Notifier.Dispatch(n)
		s.Logger.Error("saving staleness settings failed", "create", creating, "error", err)
		return fmt.Errorf("saving staleness: %w", err)
	}

	n := notify.Notification{
		Key:         "settings-saved",
		Variant:     notify.Success,
		Title:       "Organization level settings saved",
		Dismissable: true,
	}
	if creating {
		n.Description = "Organization level settings saved"
	}
	s.Notifier.Dispatch(n)
	s.Logger.Info("staleness settings saved", "create", creating, "fields", len(payload))

	if settings, err := s.fetchSettings(ctx); err != nil {
		s.Logger.Warn("reloading staleness after save failed", "error", err)
		card.Settings.Days = Settings{Days: card.Form}.copyDays()
	} else {
		card.applySettings(settings)
	}
	card.Editing = !card.Editing
	card.ModalOpen = false
	return nil
}
