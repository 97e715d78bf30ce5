package notification

import (
	"context"
	"slices"
	"sync"
)

var promotionalEvents = []EventType{
	Promotion, LoyaltyReward, BirthdayOffer, SeasonalPromotion, NewMenuItem, SpecialEvent,
}

var promotionalTemplates = newTemplateSet("promotional", map[EventType]map[Channel]string{
	Promotion: {
		Email: "Hi {{.customer_name}}! {{.message}} Use code: {{.promo_code}}",
		Push:  "{{.message}}",
	},
	LoyaltyReward: {
		Email: "Congratulations {{.customer_name}}! {{.message}}",
		Push:  "Loyalty reward: {{.message}}",
	},
	BirthdayOffer: {
		Email: "Happy Birthday {{.customer_name}}! {{.message}}",
		Push:  "Birthday special: {{.message}}",
	},
	SeasonalPromotion: {
		Email: "Seasonal Special for {{.customer_name}}! {{.message}}",
		Push:  "Seasonal: {{.message}}",
	},
	NewMenuItem: {
		Email: "New on the menu, {{.customer_name}}! {{.message}}",
		Push:  "New: {{.message}}",
	},
	SpecialEvent: {
		Email: "Special Event for {{.customer_name}}! {{.message}}",
		Push:  "Event: {{.message}}",
	},
})

// Promotional is a marketing subscriber with optional category preferences
type Promotional struct {
	history
	channelSet
	d     *Deliverer
	name  string
	email string

	prefMu      sync.RWMutex
	preferences []string
}

func NewPromotional(name, email string, preferences []string, d *Deliverer) *Promotional {
	p := &Promotional{d: d, name: name, email: email, preferences: slices.Clone(preferences)}
	p.SetChannels(Email, Push)
	return p
}

func (p *Promotional) ID() string { return "subscriber:" + p.name }

func (p *Promotional) Name() string { return p.name }

func (p *Promotional) Supports(event EventType) bool {
	return slices.Contains(promotionalEvents, event)
}

func (p *Promotional) AddPreference(category string) {
	p.prefMu.Lock()
	defer p.prefMu.Unlock()
	if !slices.Contains(p.preferences, category) {
		p.preferences = append(p.preferences, category)
	}
}

func (p *Promotional) RemovePreference(category string) {
	p.prefMu.Lock()
	defer p.prefMu.Unlock()
	p.preferences = slices.DeleteFunc(p.preferences, func(c string) bool { return c == category })
}

func (p *Promotional) Preferences() []string {
	p.prefMu.RLock()
	defer p.prefMu.RUnlock()
	return slices.Clone(p.preferences)
}

// wants applies category preferences. Only plain promotions are filtered.
func (p *Promotional) wants(event EventType, payload Payload) bool {
	if event != Promotion {
		return true
	}
	prefs := p.Preferences()
	category, _ := payload["category"].(string)
	if len(prefs) == 0 || category == "" {
		return true
	}
	return slices.Contains(prefs, category)
}

func (p *Promotional) Update(ctx context.Context, event EventType, payload Payload) []Outcome {
	if !p.Supports(event) || !p.wants(event, payload) {
		return nil
	}

	data := withVars(payload, "customer_name", p.name)
	var outs []Outcome
	for _, ch := range p.Channels() {
		recipient := p.name
		if ch == Email && p.email != "" {
			recipient = p.email
		}
		msg, err := promotionalTemplates.render(event, ch, data)
		if err != nil {
			outs = append(outs, templateFailure(p.ID(), event, ch, p.name, err))
			continue
		}
		outs = append(outs, p.d.deliver(ctx, p.ID(), event, ch, recipient, msg))
	}
	p.record(outs...)
	return outs
}
