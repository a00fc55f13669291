// Package catalog holds the static tables the harness is configured with:
// characters, body parts, state machine input names and reading milestones.
package catalog

import (
	"errors"
	"fmt"
	"slices"

	"buddy/pkg/schema"
)

// DefaultCDNBaseURL points at the development asset host.
const DefaultCDNBaseURL = "https://raw.githubusercontent.com/travisgregory/Rive/main"

const (
	SubfolderBuddies      = "buddies"
	SubfolderCroppedParts = "buddies_cropped_parts"

	DefaultSubfolder = SubfolderBuddies
)

const StateMachineName = "BuddyStateMachine"

// Trigger inputs (must match the state machine input names).
const (
	TriggerTap   = "tap"
	TriggerWave  = "wave"
	TriggerJump  = "jump"
	TriggerBlink = "blink"
)

// Boolean and number inputs.
const (
	InputIsReading       = "isReading"
	InputExcitementLevel = "excitementLevel"
)

// BodyParts lists the image assets fetched from the CDN for every character.
var BodyParts = []string{
	"head",
	"headBack",
	"torso",
	"armLeft",
	"armRight",
	"legLeft",
	"legRight",
	"legSeparator",
	"tail",
	"eyeLeft",
	"eyeRight",
	"eyeBlinkLeft",
	"eyeBlinkRight",
}

// ReadingMilestones are simulated minutes at which the reading timer fires.
var ReadingMilestones = []int{5, 10, 15, 20}

var Characters = []schema.Character{
	{ID: "orange-cat", Name: "Orange Cat", FolderName: "CatdogOrange"},
	{ID: "gray-cat", Name: "Gray Cat", FolderName: "CatdogGray"},
	{ID: "blue-cat", Name: "Blue Cat", FolderName: "CatdogBlue"},
	{ID: "green-cat", Name: "Green Cat", FolderName: "CatdogGreen"},
	{ID: "purple-cat", Name: "Purple Cat", FolderName: "CatdogPurple"},
}

var ErrUnknownCharacter = errors.New("unknown character")

func IsBodyPart(name string) bool {
	return slices.Contains(BodyParts, name)
}

// Character looks a character up by id.
func Character(id string) (schema.Character, error) {
	i := slices.IndexFunc(Characters, func(c schema.Character) bool { return c.ID == id })
	if i < 0 {
		return schema.Character{}, fmt.Errorf("%w: %q", ErrUnknownCharacter, id)
	}
	return Characters[i], nil
}

func DefaultCharacter() schema.Character {
	return Characters[0]
}

// MilestoneEventID names the event fired when the timer reaches m minutes.
func MilestoneEventID(m int) string {
	return fmt.Sprintf("reading-%dmin", m)
}
