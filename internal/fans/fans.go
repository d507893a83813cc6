// Package fans keeps per-fan profiles and the scoring used to rank them.
package fans

import (
	"math"
	"sort"
	"sync"
	"time"
)

// Profile is what the assistant knows about one fan.
type Profile struct {
	ID               string    `json:"fan_id"`
	Name             string    `json:"name,omitempty"`
	IsSubscriber     bool      `json:"is_subscriber"`
	SubscriptionTier string    `json:"subscription_tier,omitempty"`
	TotalTips        float64   `json:"total_tips"`
	ContentPurchased int       `json:"content_purchased"`
	LastInteraction  time.Time `json:"last_interaction"`
	Interests        []string  `json:"interests,omitempty"`
	Notes            string    `json:"notes,omitempty"`
}

// Context is the slice of a profile that is shown to the model.
type Context struct {
	IsSubscriber     bool `json:"is_subscriber"`
	HasTipped        bool `json:"has_tipped"`
	PurchasedContent bool `json:"purchased_content"`
	IsVIP            bool `json:"is_vip"`
}

// Context summarises the profile for prompting.
func (p Profile) Context() Context {
	return Context{
		IsSubscriber:     p.IsSubscriber,
		HasTipped:        p.TotalTips > 0,
		PurchasedContent: p.ContentPurchased > 0,
		IsVIP:            p.TotalTips >= 100 || p.ContentPurchased >= 5,
	}
}

// Update carries optional profile changes; nil fields are left alone.
type Update struct {
	Name             *string
	IsSubscriber     *bool
	SubscriptionTier *string
	Interests        []string
	Notes            *string
}

// Directory is an in-memory, concurrency-safe set of profiles.
type Directory struct {
	mu       sync.Mutex
	profiles map[string]*Profile
	now      func() time.Time
}

// NewDirectory returns an empty directory.
func NewDirectory() *Directory {
	return &Directory{profiles: make(map[string]*Profile), now: time.Now}
}

// Get returns a copy of a profile and whether it exists.
func (d *Directory) Get(id string) (Profile, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.profiles[id]
	if !ok {
		return Profile{}, false
	}
	return p.copy(), true
}

// Ensure returns the fan's profile, creating it on first contact.
func (d *Directory) Ensure(id string) Profile {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ensure(id).copy()
}

func (d *Directory) ensure(id string) *Profile {
	p, ok := d.profiles[id]
	if !ok {
		p = &Profile{ID: id, LastInteraction: d.now()}
		d.profiles[id] = p
	}
	return p
}

// Apply merges u into the fan's profile.
func (d *Directory) Apply(id string, u Update) Profile {
	d.mu.Lock()
	defer d.mu.Unlock()
	p := d.ensure(id)
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.IsSubscriber != nil {
		p.IsSubscriber = *u.IsSubscriber
	}
	if u.SubscriptionTier != nil {
		p.SubscriptionTier = *u.SubscriptionTier
	}
	if u.Interests != nil {
		p.Interests = append([]string(nil), u.Interests...)
	}
	if u.Notes != nil {
		p.Notes = *u.Notes
	}
	return p.copy()
}

// AddTip adds amount to the fan's lifetime tips.
func (d *Directory) AddTip(id string, amount float64) Profile {
	d.mu.Lock()
	defer d.mu.Unlock()
	p := d.ensure(id)
	p.TotalTips += amount
	return p.copy()
}

// RecordPurchase counts one content purchase.
func (d *Directory) RecordPurchase(id string) Profile {
	d.mu.Lock()
	defer d.mu.Unlock()
	p := d.ensure(id)
	p.ContentPurchased++
	return p.copy()
}

// Touch sets the fan's last interaction to now.
func (d *Directory) Touch(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ensure(id).LastInteraction = d.now()
}

// List returns all profiles sorted by ID.
func (d *Directory) List() []Profile {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Profile, 0, len(d.profiles))
	for _, p := range d.profiles {
		out = append(out, p.copy())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (p *Profile) copy() Profile {
	c := *p
	c.Interests = append([]string(nil), p.Interests...)
	return c
}

// EngagementScore rates a conversation from 0 to 100. messageCount is capped
// at 100, responseRate is a fraction in [0, 1] and avgResponseSeconds stops
// counting against the score after an hour.
func EngagementScore(messageCount int, responseRate, avgResponseSeconds float64) float64 {
	messageScore := math.Min(float64(messageCount)/100, 1) * 40
	responseScore := responseRate * 30
	timeScore := math.Max(0, 1-avgResponseSeconds/3600) * 30
	return math.Round((messageScore+responseScore+timeScore)*100) / 100
}

// Potential buckets a fan's likely spend.
type Potential string

const (
	PotentialHigh   Potential = "High"
	PotentialMedium Potential = "Medium"
	PotentialLow    Potential = "Low"
)

// RevenuePotential scores a fan from their history.
func RevenuePotential(isSubscriber bool, totalTips float64, contentPurchased, messageCount int) Potential {
	score := 0
	if isSubscriber {
		score += 3
	}

	switch {
	case totalTips >= 100:
		score += 5
	case totalTips >= 50:
		score += 3
	case totalTips > 0:
		score += 1
	}

	switch {
	case contentPurchased >= 5:
		score += 4
	case contentPurchased >= 2:
		score += 2
	case contentPurchased > 0:
		score += 1
	}

	switch {
	case messageCount >= 50:
		score += 2
	case messageCount >= 20:
		score += 1
	}

	switch {
	case score >= 8:
		return PotentialHigh
	case score >= 4:
		return PotentialMedium
	default:
		return PotentialLow
	}
}

// Times of day used to pick greetings.
const (
	Morning   = "morning"
	Afternoon = "afternoon"
	Evening   = "evening"
	Night     = "night"
)

// TimeOfDay buckets t's local hour.
func TimeOfDay(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return Morning
	case h >= 12 && h < 17:
		return Afternoon
	case h >= 17 && h < 21:
		return Evening
	default:
		return Night
	}
}
