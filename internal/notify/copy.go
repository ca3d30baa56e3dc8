package notify

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Campaign is the notification copy for one event type.
type Campaign struct {
	Title string `yaml:"title"`
	Body  string `yaml:"body"`
}

// DefaultThreshold applies to event types without a specific entry.
const DefaultThreshold = 0.70

// Built-in per-type confidence thresholds. Below threshold, dispatch is
// skipped and reported as such.
var defaultThresholds = map[string]float64{
	"fire":   0.70,
	"fall":   0.75,
	"fight":  0.85,
	"weapon": 0.60,
}

var defaultCampaigns = map[string]Campaign{
	"fire":   {Title: "Fire Alert", Body: "A fire has been detected. Please evacuate immediately."},
	"fall":   {Title: "Fall Detected", Body: "A person has fallen. Immediate medical attention may be needed."},
	"fight":  {Title: "Conflict Detected", Body: "Aggressive behavior detected. Please investigate."},
	"weapon": {Title: "Weapon Threat", Body: "Suspicious object or weapon detected."},
}

// Copy owns the type→threshold and type→title/body mapping tables. It is
// the single place this knowledge lives; handlers never duplicate it.
// Safe for concurrent readers with a background reloader.
type Copy struct {
	mu         sync.RWMutex
	thresholds map[string]float64
	campaigns  map[string]Campaign
}

func DefaultCopy() *Copy {
	c := &Copy{
		thresholds: map[string]float64{},
		campaigns:  map[string]Campaign{},
	}
	for k, v := range defaultThresholds {
		c.thresholds[k] = v
	}
	for k, v := range defaultCampaigns {
		c.campaigns[k] = v
	}
	return c
}

func (c *Copy) Threshold(eventType string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if t, ok := c.thresholds[eventType]; ok {
		return t
	}
	return DefaultThreshold
}

// Select picks the title and body for an alert. Overrides win, then the
// per-type campaign, then a generic fallback that carries the reason.
func (c *Copy) Select(eventType, overrideTitle, overrideBody, reason string) (string, string) {
	c.mu.RLock()
	camp := c.campaigns[eventType]
	c.mu.RUnlock()

	title := camp.Title
	if overrideTitle != "" {
		title = overrideTitle
	}
	if title == "" {
		title = "Incident Alert"
	}

	body := camp.Body
	if overrideBody != "" {
		body = overrideBody
	}
	if body == "" {
		if reason == "" {
			reason = "unspecified"
		}
		body = fmt.Sprintf("Suspicious activity detected. (%s)", reason)
	}
	return title, body
}

// Overrides is the on-disk tunable shape. Absent keys keep their built-in
// values.
type Overrides struct {
	Thresholds map[string]float64  `yaml:"thresholds"`
	Campaigns  map[string]Campaign `yaml:"campaigns"`
}

func (c *Copy) Apply(o Overrides) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range o.Thresholds {
		c.thresholds[k] = v
	}
	for k, v := range o.Campaigns {
		c.campaigns[k] = v
	}
}

// LoadOverrides reads a yaml overrides file.
func LoadOverrides(path string) (Overrides, error) {
	var o Overrides
	raw, err := os.ReadFile(path)
	if err != nil {
		return o, err
	}
	if err := yaml.Unmarshal(raw, &o); err != nil {
		return o, fmt.Errorf("notify overrides %s: %w", path, err)
	}
	return o, nil
}
