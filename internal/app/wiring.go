package app

import (
	"github.com/jamboshop/jamboshop/internal/auth"
	"github.com/jamboshop/jamboshop/internal/database"
	"github.com/jamboshop/jamboshop/internal/verification"
	"github.com/jamboshop/jamboshop/pkg/mail"
)

// TokenServiceConfig converts AuthConfig into the parameters expected by the token service.
func (c AuthConfig) TokenServiceConfig() auth.TokenConfig {
	return auth.TokenConfig{
		Secret:          c.JWT.Secret,
		Issuer:          c.JWT.Issuer,
		AccessTokenTTL:  c.JWT.AccessTTL,
		RefreshTokenTTL: c.JWT.RefreshTTL,
	}
}

// Options converts VerificationConfig into verification service options.
func (c VerificationConfig) Options() []verification.Option {
	var opts []verification.Option
	if c.TTL > 0 {
		opts = append(opts, verification.WithTTL(c.TTL))
	}
	if c.CodeLength > 0 {
		opts = append(opts, verification.WithCodeLength(c.CodeLength))
	}
	return opts
}

// SMTPSettings converts EmailConfig into mailer parameters.
func (c EmailConfig) SMTPSettings() mail.SMTPSettings {
	return mail.SMTPSettings{
		Enabled:  c.SMTP.Enabled,
		Host:     c.SMTP.Host,
		Port:     c.SMTP.Port,
		Username: c.SMTP.Username,
		Password: c.SMTP.Password,
		From:     c.SMTP.From,
		UseTLS:   c.SMTP.UseTLS,
		Timeout:  c.SMTP.Timeout,
	}
}

// DatabaseConfigFor converts DatabaseConfig into the database package config.
func (c DatabaseConfig) DatabaseConfigFor() database.Config {
	cfg := database.Config{
		Driver: c.Driver,
		Path:   c.Path,
		DSN:    c.DSN,
	}

	switch c.Driver {
	case "postgres":
		cfg.Host = c.Postgres.Host
		cfg.Port = c.Postgres.Port
		cfg.User = c.Postgres.Username
		cfg.Password = c.Postgres.Password
		cfg.Name = c.Postgres.Database
	case "mysql":
		cfg.Host = c.MySQL.Host
		cfg.Port = c.MySQL.Port
		cfg.User = c.MySQL.Username
		cfg.Password = c.MySQL.Password
		cfg.Name = c.MySQL.Database
	}

	return cfg
}
