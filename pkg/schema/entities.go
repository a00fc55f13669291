package schema

import (
	"fmt"
	"time"
)

// Character identifies a buddy and the CDN folder its body parts live in.
type Character struct {
	ID         string `json:"id" jsonschema_description:"Stable character identifier (e.g., orange-cat)"`
	Name       string `json:"name" jsonschema_description:"Display name"`
	FolderName string `json:"folder_name" jsonschema_description:"CDN folder name, e.g., CatdogOrange"`
}

type Resolution string

const (
	Resolution1x Resolution = "1x"
	Resolution2x Resolution = "2x"
	Resolution3x Resolution = "3x"
)

func ParseResolution(s string) (Resolution, error) {
	switch r := Resolution(s); r {
	case Resolution1x, Resolution2x, Resolution3x:
		return r, nil
	}
	return "", fmt.Errorf("invalid resolution %q (want 1x, 2x or 3x)", s)
}

// Config is what a buddy is mounted with.
type Config struct {
	Character    Character  `json:"character"`
	Resolution   Resolution `json:"resolution"`
	StateMachine string     `json:"state_machine"`
}

// State mirrors what the preview shows while a buddy is loading and playing.
type State struct {
	IsLoaded         bool   `json:"is_loaded"`
	IsPlaying        bool   `json:"is_playing"`
	CurrentAnimation string `json:"current_animation,omitempty"`
	AssetsLoaded     int    `json:"assets_loaded"`
	TotalAssets      int    `json:"total_assets"`
}

type EventCategory string

const (
	CategoryReading     EventCategory = "reading"
	CategoryAchievement EventCategory = "achievement"
	CategorySocial      EventCategory = "social"
	CategorySpecial     EventCategory = "special"
)

type InputType string

const (
	InputTrigger InputType = "trigger"
	InputBoolean InputType = "boolean"
	InputNumber  InputType = "number"
)

type EventAction struct {
	Type      InputType `json:"type" jsonschema:"enum=trigger,enum=boolean,enum=number" jsonschema_description:"Kind of state machine input the event drives"`
	InputName string    `json:"input_name" jsonschema_description:"State machine input name"`
	Value     any       `json:"value,omitempty" jsonschema_description:"Value for boolean or number inputs; absent for triggers"`
}

// EventMapping maps an in-app event onto a state machine action.
type EventMapping struct {
	ID          string        `json:"id" jsonschema_description:"Event identifier (e.g., reading-5min)"`
	Label       string        `json:"label" jsonschema_description:"Short label shown in the event log"`
	Emoji       string        `json:"emoji"`
	Category    EventCategory `json:"category" jsonschema:"enum=reading,enum=achievement,enum=social,enum=special"`
	Description string        `json:"description"`
	Action      EventAction   `json:"action"`
}

type EventLogEntry struct {
	ID        string       `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
	Event     EventMapping `json:"event"`
}

type CategoryConfig struct {
	Label       string `json:"label"`
	BgColor     string `json:"bg_color"`
	BorderColor string `json:"border_color"`
}
