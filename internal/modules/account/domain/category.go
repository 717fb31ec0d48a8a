package domain

// Category identifies one of the tracked tweet classes
type Category string

const (
	CategoryPinned   Category = "pinned"
	CategoryOriginal Category = "original"
	CategoryReply    Category = "reply"
	CategoryRetweet  Category = "retweet"
)

// ListCategories are the categories diffed against an id window rather than a
// single pinned id.
var ListCategories = []Category{CategoryOriginal, CategoryReply, CategoryRetweet}
