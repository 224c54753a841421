package models

import "sort"

type ReactionCategory string

const (
	CategoryCore         ReactionCategory = "CORE"
	CategoryFamily       ReactionCategory = "FAMILY"
	CategoryGenerational ReactionCategory = "GENERATIONAL"
	CategoryCultural     ReactionCategory = "CULTURAL"
)

// ReactionTypeInfo carries the display metadata and the single aggregation
// category of one reaction type.
type ReactionTypeInfo struct {
	Key      string           `json:"key"`
	Name     string           `json:"name"`
	Icon     string           `json:"icon"`
	Color    string           `json:"color"`
	Category ReactionCategory `json:"category"`
}

// reactionTypes is the closed catalog of reaction types. It is read-only at
// runtime; adding a type is a code change.
var reactionTypes = map[string]ReactionTypeInfo{
	"LIKE":  {Key: "LIKE", Name: "Like", Icon: "thumbs-up", Color: "#4A90D9", Category: CategoryCore},
	"LOVE":  {Key: "LOVE", Name: "Love", Icon: "heart", Color: "#E0245E", Category: CategoryCore},
	"LAUGH": {Key: "LAUGH", Name: "Laugh", Icon: "face-laugh", Color: "#F5A623", Category: CategoryCore},
	"WOW":   {Key: "WOW", Name: "Wow", Icon: "face-surprise", Color: "#9B59B6", Category: CategoryCore},
	"SAD":   {Key: "SAD", Name: "Sad", Icon: "face-sad-tear", Color: "#5DADE2", Category: CategoryCore},
	"ANGRY": {Key: "ANGRY", Name: "Angry", Icon: "face-angry", Color: "#E74C3C", Category: CategoryCore},

	"FAMILY_LOVE": {Key: "FAMILY_LOVE", Name: "Family Love", Icon: "people-roof", Color: "#D35400", Category: CategoryFamily},
	"PROUD":       {Key: "PROUD", Name: "Proud", Icon: "medal", Color: "#F1C40F", Category: CategoryFamily},
	"BLESSING":    {Key: "BLESSING", Name: "Blessing", Icon: "hands-praying", Color: "#8E44AD", Category: CategoryFamily},
	"GRATEFUL":    {Key: "GRATEFUL", Name: "Grateful", Icon: "hand-holding-heart", Color: "#16A085", Category: CategoryFamily},

	"RESPECT": {Key: "RESPECT", Name: "Respect", Icon: "handshake", Color: "#2C3E50", Category: CategoryGenerational},
	"WISDOM":  {Key: "WISDOM", Name: "Wisdom", Icon: "book-open", Color: "#7F8C8D", Category: CategoryGenerational},
	"LEGACY":  {Key: "LEGACY", Name: "Legacy", Icon: "tree", Color: "#27AE60", Category: CategoryGenerational},

	"TRADITION":   {Key: "TRADITION", Name: "Tradition", Icon: "landmark", Color: "#A04000", Category: CategoryCultural},
	"HERITAGE":    {Key: "HERITAGE", Name: "Heritage", Icon: "globe", Color: "#1F618D", Category: CategoryCultural},
	"CELEBRATION": {Key: "CELEBRATION", Name: "Celebration", Icon: "champagne-glasses", Color: "#C0392B", Category: CategoryCultural},
}

func LookupReactionType(key string) (ReactionTypeInfo, bool) {
	info, ok := reactionTypes[key]
	return info, ok
}

func IsValidReactionType(key string) bool {
	_, ok := reactionTypes[key]
	return ok
}

// AllReactionTypes returns the catalog sorted by key.
func AllReactionTypes() []ReactionTypeInfo {
	out := make([]ReactionTypeInfo, 0, len(reactionTypes))
	for _, info := range reactionTypes {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// ReactionTypesByCategory returns the keys of all types in one category,
// sorted for stable output.
func ReactionTypesByCategory(category ReactionCategory) []string {
	var keys []string
	for key, info := range reactionTypes {
		if info.Category == category {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}
