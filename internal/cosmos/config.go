package cosmos

// Auth strategies accepted in Config.Auth.
const (
	AuthDefault          = "default"
	AuthKey              = "key"
	AuthChained          = "chained"
	AuthServicePrincipal = "service-principal"
	AuthEmulator         = "emulator"
)

// Well-known endpoint and key of the local Cosmos DB emulator.
const (
	EmulatorEndpoint = "https://localhost:8081/"
	EmulatorKey      = "C2y6yDjf5/R+ob0N8A7Cgv30VRDJIWEHLM+4QDU5DE2nQ9nDuVTqobD4b8mGGyPMbIZnqyMsEcaGQy67XIw/Jw=="
)

// Config is a structure to store Cosmos DB connection settings.
type Config struct {
	Endpoint string
	Auth     string

	// Shared key authentication
	Key string

	// Service principal authentication
	TenantID     string
	ClientID     string
	ClientSecret string
}
