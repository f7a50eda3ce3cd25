package staleness

import (
	"errors"
	"fmt"
)

// Tab indexes.
const (
	TabConventional = 0
	TabImmutable    = 1
)

// EditDeniedTooltip is shown on the disabled Edit button.
const EditDeniedTooltip = "You do not have the Staleness and deletion admin role and/or Inventory Hosts Administrator role required to perform this action. Contact your org admin for access."

// ErrNotPermitted is returned when a read-only user tries to edit.
var ErrNotPermitted = errors.New("not permitted to modify staleness settings")

// Settings are the saved values, in days, plus the record ID.
type Settings struct {
	ID   string         `json:"id"`
	Days map[string]int `json:"days"`
}

func (s Settings) copyDays() map[string]int {
	out := make(map[string]int, len(s.Days))
	for k, v := range s.Days {
		out[k] = v
	}
	return out
}

// Tab is one entry of the tab strip.
type Tab struct {
	Key     int    `json:"key"`
	Title   string `json:"title"`
	Tooltip string `json:"tooltip"`
}

var tabs = []Tab{
	{Key: TabConventional, Title: "Conventional (RPM-DNF)", Tooltip: "Conventional systems are managed with RPM-DNF package updates."},
	{Key: TabImmutable, Title: "Immutable (OSTree)", Tooltip: "Immutable systems are managed with OSTree image updates."},
}

// Card is the view state of the settings card.
type Card struct {
	Settings             Settings       `json:"settings"`
	Form                 map[string]int `json:"form"`
	Editing              bool           `json:"editing"`
	ActiveTab            int            `json:"active_tab"`
	ModalOpen            bool           `json:"modal_open"`
	FormValid            bool           `json:"form_valid"`
	FormError            string         `json:"form_error,omitempty"`
	HasEdgeSystems       bool           `json:"has_edge_systems"`
	EdgeParityEnabled    bool           `json:"edge_parity_enabled"`
	Loading              bool           `json:"loading"`
	CanModify            bool           `json:"can_modify"`
	ConventionalDefaults map[string]int `json:"conventional_defaults"`
	ImmutableDefaults    map[string]int `json:"immutable_defaults"`
}

// NewCard returns a card in its initial loading state.
func NewCard(canModify, edgeParity bool) *Card {
	return &Card{
		Settings:             Settings{Days: map[string]int{}},
		Form:                 map[string]int{},
		FormValid:            true,
		HasEdgeSystems:       true,
		EdgeParityEnabled:    edgeParity,
		Loading:              true,
		CanModify:            canModify,
		ConventionalDefaults: map[string]int{},
		ImmutableDefaults:    map[string]int{},
	}
}

// ShowTabs reports whether separate conventional and immutable tabs apply.
func (c *Card) ShowTabs() bool {
	return c.EdgeParityEnabled && c.HasEdgeSystems
}

// Tabs returns the visible tabs, or none.
func (c *Card) Tabs() []Tab {
	if !c.ShowTabs() {
		return nil
	}
	return tabs
}

// ActiveKeys are the fields a save sends upstream.
func (c *Card) ActiveKeys() []string {
	if c.ShowTabs() {
		return HostKeys
	}
	return ConventionalKeys
}

// ToggleEdit switches edit mode.
func (c *Card) ToggleEdit() error {
	if !c.CanModify {
		return ErrNotPermitted
	}
	c.Editing = !c.Editing
	return nil
}

// Cancel throws away unsaved edits.
func (c *Card) Cancel() {
	c.Form = c.Settings.copyDays()
	c.FormValid = true
	c.FormError = ""
	c.ModalOpen = false
	c.Editing = !c.Editing
}

// SetField changes one form value and revalidates.
func (c *Card) SetField(key string, days int) error {
	if !isKnownKey(key) {
		return fmt.Errorf("unknown staleness field %q", key)
	}
	c.Form[key] = days
	c.revalidate()
	return nil
}

func (c *Card) revalidate() {
	if err := Validate(c.Form, c.ActiveKeys()); err != nil {
		c.FormValid = false
		c.FormError = err.Error()
		return
	}
	c.FormValid = true
	c.FormError = ""
}

// ToggleModal opens or closes the save confirmation.
func (c *Card) ToggleModal() {
	c.ModalOpen = !c.ModalOpen
}

// SelectTab switches the visible tab.
func (c *Card) SelectTab(key int) error {
	if !c.ShowTabs() && key != TabConventional {
		return fmt.Errorf("tab %d is not available", key)
	}
	if key != TabConventional && key != TabImmutable {
		return fmt.Errorf("tab %d is not available", key)
	}
	c.ActiveTab = key
	return nil
}

// applySettings replaces saved values and resets the form to them.
func (c *Card) applySettings(s Settings) {
	c.Settings = s
	c.Form = s.copyDays()
	c.revalidate()
}
