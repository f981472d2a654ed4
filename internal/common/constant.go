package common

const (
	// AuthorizationHeaderName carries the bearer access token.
	AuthorizationHeaderName = "Authorization"
	// BearerPrefix precedes the token in the Authorization header.
	BearerPrefix = "Bearer "

	// UncategorizedCategoryName is the category created for every new user.
	UncategorizedCategoryName = "Uncategorized"

	// MemoryDSN selects the in-memory persistence adapter.
	MemoryDSN = "memory"
)
