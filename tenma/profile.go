package tenma

import (
	"slices"
	"strings"
)

type (
	Capability   uint16
	StatusLayout uint8
)

const (
	CapOCP Capability = 1 << iota
	CapOVP
	CapBeep
	CapLock
	CapTracking
	CapAutoStep
	CapManualStep
	CapChannelOutput // OUT{ch}:{0|1} and OUT12:{0|1}
)

var capabilityNames = map[Capability]string{
	CapOCP:           "ocp",
	CapOVP:           "ovp",
	CapBeep:          "beep",
	CapLock:          "lock",
	CapTracking:      "tracking",
	CapAutoStep:      "auto step",
	CapManualStep:    "manual step",
	CapChannelOutput: "per channel output",
}

func (c Capability) String() string {
	var names []string
	for bit := CapOCP; bit <= CapChannelOutput; bit <<= 1 {
		if c&bit != 0 {
			names = append(names, capabilityNames[bit])
		}
	}
	return strings.Join(names, ", ")
}

const (
	StatusLayoutBase   StatusLayout = iota // beep, lock and a single output bit
	StatusLayoutTriple                     // two output bits, no beep/lock
)

// A ChannelRule narrows the general profile limits for one channel.
type ChannelRule struct {
	Channel           int
	Voltages          []int // allowed millivolts, any when empty
	NoCurrentReadback bool
}

// Profile describes one power supply model family.
type Profile struct {
	Name          string
	Patterns      []string
	Channels      int
	ConfigSlots   int
	MaxMilliamps  int
	MaxMillivolts int
	EOL           string
	Capabilities  Capability
	Status        StatusLayout
	StatusSize    int
	CurrentWidth  int // leading ISET? reply characters parsed, 0 for all
	Rules         []ChannelRule
}

func (p Profile) Supports(c Capability) bool {
	return p.Capabilities&c == c
}

func (p Profile) Rule(channel int) (ChannelRule, bool) {
	for _, r := range p.Rules {
		if r.Channel == channel {
			return r, true
		}
	}
	return ChannelRule{}, false
}

// Matches reports whether one of the profile patterns appears in the identity.
func (p Profile) Matches(identity string) bool {
	return slices.ContainsFunc(p.Patterns, func(pattern string) bool {
		return pattern != "" && strings.Contains(identity, pattern)
	})
}

func base(name string, ma, mv int, aliases ...string) Profile {
	return Profile{
		Name:          name,
		Patterns:      append([]string{name}, aliases...),
		Channels:      1,
		ConfigSlots:   5, // 72-2540 only has 4 buttons but 5 memories
		MaxMilliamps:  ma,
		MaxMillivolts: mv,
		EOL:           EOLNone,
		Capabilities:  CapOCP | CapOVP | CapBeep,
		Status:        StatusLayoutBase,
		StatusSize:    1,
		CurrentWidth:  5, // 72-2550 appends the sixth byte of *IDN? to current readings
	}
}

func triple(name string, ma, mv int) Profile {
	return Profile{
		Name:          name,
		Patterns:      []string{name},
		Channels:      3,
		ConfigSlots:   0, // 10 slots exist but are not reachable from the front panel
		MaxMilliamps:  ma,
		MaxMillivolts: mv,
		EOL:           EOLNewline,
		Capabilities:  CapBeep | CapLock | CapTracking | CapAutoStep | CapManualStep | CapChannelOutput,
		Status:        StatusLayoutTriple,
		StatusSize:    1, // a trailing '\n' may follow
		Rules: []ChannelRule{
			{Channel: 3, Voltages: []int{2500, 3300, 5000}, NoCurrentReadback: true},
		},
	}
}

// DefaultProfileName is selected when the identity matches no registered profile.
const DefaultProfileName = "72-2545"

// Profiles is the registry, matched in order.
var Profiles = []Profile{
	base("72-2540", 5000, 30000),
	base("72-2535", 3000, 30000),
	base("72-2545", 2000, 60000),
	base("72-2550", 3000, 60000, "KORADKA6003P"),
	base("72-2930", 10000, 30000),
	base("72-2705", 3100, 31000),
	base("72-2940", 5000, 60000),
	triple("72-13330", 5000, 30000),
	triple("72-13320", 3000, 30000),
}

// Match returns the first registered profile matching the identity.
func Match(identity string) (Profile, bool) {
	for _, p := range Profiles {
		if p.Matches(identity) {
			return p, true
		}
	}
	return Profile{}, false
}

// Lookup finds a profile by its model name (e.g. "72-2550").
func Lookup(name string) (Profile, bool) {
	for _, p := range Profiles {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Profile{}, false
}

func DefaultProfile() Profile {
	p, _ := Lookup(DefaultProfileName)
	return p
}
