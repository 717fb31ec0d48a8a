package domain

// UserInfo is the account profile returned by the user lookup endpoint
type UserInfo struct {
	Handle      string
	DisplayName string
	Followers   int
	Avatar      string
	PinnedIDs   []string
}
