/**
 * @description
 * This file handles configuration management for the bot. It loads settings
 * from environment variables, providing defaults for the schedule and the
 * callback listener, and fails fast with the name of any missing required
 * variable.
 */
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the bot process.
type Config struct {
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	BankingSecretID      string `mapstructure:"BANKING_SECRET_ID"`
	BankingSecretKey     string `mapstructure:"BANKING_SECRET_KEY"`
	BankingInstitutionID string `mapstructure:"BANKING_INSTITUTION_ID"`
	BankingAccountID     string `mapstructure:"BANKING_ACCOUNT_ID"`
	BankingRedirectURL   string `mapstructure:"BANKING_REDIRECT_URL"`

	CallbackPort    int           `mapstructure:"CALLBACK_PORT"`
	CallbackTimeout time.Duration `mapstructure:"CALLBACK_TIMEOUT"`

	SyncSchedule string        `mapstructure:"SYNC_SCHEDULE"`
	SyncOverlap  time.Duration `mapstructure:"SYNC_OVERLAP"`
	SyncWindow   time.Duration `mapstructure:"SYNC_WINDOW"`

	DiscordBotToken  string `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordChannelID string `mapstructure:"DISCORD_CHANNEL_ID"`

	// AuthorizedOverdraft is the bank-authorized overdraft figure, consumed by
	// the balance display. Decimal string, e.g. "200.00".
	AuthorizedOverdraft string `mapstructure:"AUTHORIZED_OVERDRAFT"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	viper.SetDefault("SYNC_SCHEDULE", "@every 3h") // one sync per three hours
	viper.SetDefault("SYNC_WINDOW", "3h")
	viper.SetDefault("SYNC_OVERLAP", "15m")
	viper.SetDefault("CALLBACK_PORT", 8099)
	viper.SetDefault("CALLBACK_TIMEOUT", "30m")
	viper.SetDefault("AUTHORIZED_OVERDRAFT", "0")
	viper.AutomaticEnv()

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("BANKING_SECRET_ID")
	_ = viper.BindEnv("BANKING_SECRET_KEY")
	_ = viper.BindEnv("BANKING_INSTITUTION_ID")
	_ = viper.BindEnv("BANKING_ACCOUNT_ID")
	_ = viper.BindEnv("BANKING_REDIRECT_URL")
	_ = viper.BindEnv("CALLBACK_PORT")
	_ = viper.BindEnv("CALLBACK_TIMEOUT")
	_ = viper.BindEnv("SYNC_SCHEDULE")
	_ = viper.BindEnv("SYNC_OVERLAP")
	_ = viper.BindEnv("SYNC_WINDOW")
	_ = viper.BindEnv("DISCORD_BOT_TOKEN")
	_ = viper.BindEnv("DISCORD_CHANNEL_ID")
	_ = viper.BindEnv("AUTHORIZED_OVERDRAFT")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	required := []struct {
		name  string
		value string
	}{
		{"DATABASE_URL", config.DatabaseURL},
		{"BANKING_SECRET_ID", config.BankingSecretID},
		{"BANKING_SECRET_KEY", config.BankingSecretKey},
		{"BANKING_INSTITUTION_ID", config.BankingInstitutionID},
		{"BANKING_ACCOUNT_ID", config.BankingAccountID},
		{"DISCORD_BOT_TOKEN", config.DiscordBotToken},
		{"DISCORD_CHANNEL_ID", config.DiscordChannelID},
	}
	for _, req := range required {
		if req.value == "" {
			return nil, fmt.Errorf("%s must be configured", req.name)
		}
	}

	// The consent redirect defaults to the local confirmation endpoint so the
	// browser lands on the callback listener after the bank's flow.
	if config.BankingRedirectURL == "" {
		config.BankingRedirectURL = fmt.Sprintf("http://localhost:%d/banking/confirm", config.CallbackPort)
	}

	return &config, nil
}
