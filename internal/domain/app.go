package domain

// AppRecord maps a friendly name to a provider API token. Records are
// created and deleted through the registry; there is no update operation,
// so rotating a token means delete and recreate.
type AppRecord struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Provider  string `json:"provider"`
	Token     string `json:"token"`
	CreatedAt string `json:"createdAt"`
}
