package catalog

import (
	"cmp"
	"slices"

	"buddy/pkg/schema"
)

func trigger(name string) schema.EventAction {
	return schema.EventAction{Type: schema.InputTrigger, InputName: name}
}

// EventMappings maps in-app events to state machine actions.
var EventMappings = map[string]schema.EventMapping{
	// Reading milestones
	"reading-5min": {
		ID: "reading-5min", Label: "5 min read!", Emoji: "📖",
		Category: schema.CategoryReading, Description: "Read for 5 minutes",
		Action: trigger(TriggerWave),
	},
	"reading-10min": {
		ID: "reading-10min", Label: "10 min read!", Emoji: "📚",
		Category: schema.CategoryReading, Description: "Read for 10 minutes",
		Action: trigger(TriggerJump),
	},
	"reading-15min": {
		ID: "reading-15min", Label: "15 min read!", Emoji: "🌟",
		Category: schema.CategoryReading, Description: "Read for 15 minutes",
		Action: trigger(TriggerWave),
	},
	"reading-20min": {
		ID: "reading-20min", Label: "20 min streak!", Emoji: "🔥",
		Category: schema.CategoryReading, Description: "Read for 20 minutes straight",
		Action: trigger(TriggerJump),
	},

	// Achievements
	"3-star-book": {
		ID: "3-star-book", Label: "3-Star Book!", Emoji: "⭐",
		Category: schema.CategoryAchievement, Description: "Completed book with 3 stars",
		Action: trigger(TriggerJump),
	},
	"streak-7-days": {
		ID: "streak-7-days", Label: "7-Day Streak!", Emoji: "🏆",
		Category: schema.CategoryAchievement, Description: "Read 7 days in a row",
		Action: trigger(TriggerJump),
	},
	"level-up": {
		ID: "level-up", Label: "Level Up!", Emoji: "⬆️",
		Category: schema.CategoryAchievement, Description: "Reached a new level",
		Action: trigger(TriggerJump),
	},

	// Social
	"kudos-received": {
		ID: "kudos-received", Label: "Got Kudos!", Emoji: "💌",
		Category: schema.CategorySocial, Description: "Parent sent encouragement",
		Action: trigger(TriggerWave),
	},
	"new-badge": {
		ID: "new-badge", Label: "New Badge!", Emoji: "🎖️",
		Category: schema.CategorySocial, Description: "Earned a new badge",
		Action: trigger(TriggerJump),
	},

	// Boolean and number inputs. The animation file may not react to these yet.
	"start-reading": {
		ID: "start-reading", Label: "Start Reading", Emoji: "▶️",
		Category: schema.CategorySpecial, Description: "Begin reading session",
		Action: schema.EventAction{Type: schema.InputBoolean, InputName: InputIsReading, Value: true},
	},
	"stop-reading": {
		ID: "stop-reading", Label: "Stop Reading", Emoji: "⏹️",
		Category: schema.CategorySpecial, Description: "End reading session",
		Action: schema.EventAction{Type: schema.InputBoolean, InputName: InputIsReading, Value: false},
	},
	"excitement-low": {
		ID: "excitement-low", Label: "Calm", Emoji: "😌",
		Category: schema.CategorySpecial, Description: "Set excitement to 25",
		Action: schema.EventAction{Type: schema.InputNumber, InputName: InputExcitementLevel, Value: 25.0},
	},
	"excitement-high": {
		ID: "excitement-high", Label: "Excited!", Emoji: "🎉",
		Category: schema.CategorySpecial, Description: "Set excitement to 100",
		Action: schema.EventAction{Type: schema.InputNumber, InputName: InputExcitementLevel, Value: 100.0},
	},
}

// QuickEvents are the manually fired events grouped for display.
// Timer-driven milestones other than the headline ones are left out.
var QuickEvents = []struct {
	Category schema.EventCategory `json:"category"`
	Events   []string             `json:"events"`
}{
	{schema.CategoryReading, []string{"reading-5min", "reading-10min", "reading-20min"}},
	{schema.CategoryAchievement, []string{"3-star-book", "streak-7-days", "level-up"}},
	{schema.CategorySocial, []string{"kudos-received", "new-badge"}},
}

var Categories = map[schema.EventCategory]schema.CategoryConfig{
	schema.CategoryReading:     {Label: "Reading", BgColor: "#e3f2fd", BorderColor: "#2196f3"},
	schema.CategoryAchievement: {Label: "Achievement", BgColor: "#fff8e1", BorderColor: "#ffc107"},
	schema.CategorySocial:      {Label: "Social", BgColor: "#fce4ec", BorderColor: "#e91e63"},
	schema.CategorySpecial:     {Label: "Special", BgColor: "#e8f5e9", BorderColor: "#4caf50"},
}

// EventsByCategory returns the mappings of one category sorted by id.
func EventsByCategory(category schema.EventCategory) []schema.EventMapping {
	var out []schema.EventMapping
	for _, m := range EventMappings {
		if m.Category == category {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b schema.EventMapping) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func Event(id string) (schema.EventMapping, bool) {
	m, ok := EventMappings[id]
	return m, ok
}
