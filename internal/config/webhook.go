package config

// Webhook represents the configuration for outbound enrollment notifications
type Webhook struct {
	Svix Svix `mapstructure:"svix"`
}

// Svix configures delivery of notifications through svix
type Svix struct {
	Enabled   bool   `mapstructure:"enabled"`
	AuthToken string `mapstructure:"auth_token"`
	BaseURL   string `mapstructure:"base_url"`
}
