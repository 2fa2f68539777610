package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Address                   string
		Host                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		MaxUploadSize             string // echo BodyLimit format, eg. "10M"
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	BackendConfig struct {
		BaseURL string
		Timeout time.Duration
	}

	// MailConfig tunes the outgoing applicant mail.
	MailConfig struct {
		SubjectPrefix string // "[AppName] " when empty
		ReplyTo       string // bursary office address applicants may answer to
		Timeout       time.Duration
	}

	Config struct {
		Env                       string
		Build                     string
		Debug                     bool
		TestMode                  bool
		AppName                   string
		SecretKey                 string
		FrontendBaseURL           string
		PasswordResetTimeoutDelta time.Duration
		RollbarToken              string
		SendgridApiKey            string
		WorkDir                   string
		FormPath                  string

		Server   ServerConfig
		Database DatabaseConfig
		Backend  BackendConfig
		Mail     MailConfig

		defaultFromEmail string
	}
)

func (c *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(c.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: c.AppName, Address: "noreply@localhost"}
	}
	if addr.Name == "" {
		addr.Name = c.AppName
	}
	return *addr
}

// MailSubjectPrefix returns the prefix of every mail subject.
func (c *Config) MailSubjectPrefix() string {
	if c.Mail.SubjectPrefix != "" {
		return c.Mail.SubjectPrefix
	}
	return "[" + c.AppName + "] "
}

func (dc DatabaseConfig) Address() string {
	return net.JoinHostPort(dc.Host, dc.Port)
}

// NewConfig loads the configuration of the current ENV (DEV by default)
// from the environment and the matching config/.env.<env> file if any.
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("build", "develop")
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("appName", "Mbooni Bursary")
	conf.SetDefault("secretKey", "k4(9s-l1ve=wd&3p!!0c+xq^bz5_m9@8u#rt2y)jn%oe7h*vag")
	conf.SetDefault("frontendBaseURL", "http://localhost:3000")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("sendgridApiKey", "")
	conf.SetDefault("mailSubjectPrefix", "")
	conf.SetDefault("mailReplyTo", "")
	conf.SetDefault("mailTimeout", 10*time.Second)
	conf.SetDefault("formPath", "forms/application.yaml")

	conf.SetDefault("serverAddress", ":8000")
	conf.SetDefault("serverHost", "localhost")
	conf.SetDefault("serverDebugHost", ":4000")
	conf.SetDefault("serverShutdownTimeout", 5*time.Second)
	conf.SetDefault("serverMaxUploadSize", "10M")
	conf.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)

	conf.SetDefault("dbEngine", "postgres")
	conf.SetDefault("dbHost", "localhost")
	conf.SetDefault("dbPort", "5432")
	conf.SetDefault("dbName", "bursary")
	conf.SetDefault("dbUser", "bursary")
	conf.SetDefault("dbPassword", "bursary")
	conf.SetDefault("dbAdminUser", "postgres")
	conf.SetDefault("dbAdminPassword", "")
	conf.SetDefault("dbDisableTLS", true)

	conf.SetDefault("backendBaseURL", "http://localhost/bursarySystem/api")
	conf.SetDefault("backendTimeout", 30*time.Second)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	workDir := Getwd()
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Env:                       env,
		Build:                     conf.GetString("build"),
		Debug:                     conf.GetBool("debug"),
		TestMode:                  conf.GetBool("testMode"),
		AppName:                   conf.GetString("appName"),
		SecretKey:                 conf.GetString("secretKey"),
		FrontendBaseURL:           conf.GetString("frontendBaseURL"),
		PasswordResetTimeoutDelta: conf.GetDuration("passwordResetTimeoutDelta"),
		RollbarToken:              conf.GetString("rollbarToken"),
		SendgridApiKey:            conf.GetString("sendgridApiKey"),
		WorkDir:                   workDir,
		FormPath:                  conf.GetString("formPath"),
		Server: ServerConfig{
			Address:                   conf.GetString("serverAddress"),
			Host:                      conf.GetString("serverHost"),
			DebugHost:                 conf.GetString("serverDebugHost"),
			ShutdownTimeout:           conf.GetDuration("serverShutdownTimeout"),
			JWTExpirationDelta:        conf.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: conf.GetDuration("jwtRefreshExpirationDelta"),
			MaxUploadSize:             conf.GetString("serverMaxUploadSize"),
		},
		Database: DatabaseConfig{
			Engine:        conf.GetString("dbEngine"),
			Host:          conf.GetString("dbHost"),
			Port:          conf.GetString("dbPort"),
			Name:          conf.GetString("dbName"),
			User:          conf.GetString("dbUser"),
			Password:      conf.GetString("dbPassword"),
			AdminUser:     conf.GetString("dbAdminUser"),
			AdminPassword: conf.GetString("dbAdminPassword"),
			DisableTLS:    conf.GetBool("dbDisableTLS"),
		},
		Backend: BackendConfig{
			BaseURL: strings.TrimRight(conf.GetString("backendBaseURL"), "/"),
			Timeout: conf.GetDuration("backendTimeout"),
		},
		Mail: MailConfig{
			SubjectPrefix: conf.GetString("mailSubjectPrefix"),
			ReplyTo:       conf.GetString("mailReplyTo"),
			Timeout:       conf.GetDuration("mailTimeout"),
		},
		defaultFromEmail: conf.GetString("defaultFromEmail"),
	}
}

// NewTestConfig returns a configuration suitable for tests; nothing is read from the environment.
func NewTestConfig() *Config {
	return &Config{
		Env:                       "TEST",
		Build:                     "test",
		TestMode:                  true,
		AppName:                   "Mbooni Bursary",
		SecretKey:                 "secret",
		FrontendBaseURL:           "http://localhost:3000",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		FormPath:                  "forms/application.yaml",
		Server: ServerConfig{
			Host:                      "localhost",
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
			MaxUploadSize:             "2M",
		},
		Backend:          BackendConfig{Timeout: 5 * time.Second},
		Mail:             MailConfig{Timeout: time.Second},
		defaultFromEmail: "noreply@localhost",
	}
}
