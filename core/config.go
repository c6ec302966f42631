package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env                       string // DEV (local; default), TEST, QA, PROD
		Build                     string
		Debug                     bool
		TestMode                  bool
		AppName                   string
		SecretKey                 string
		FrontendBaseURL           string
		SendgridApiKey            string
		RollbarToken              string
		PasswordResetTimeoutDelta time.Duration

		defaultFromEmail string
		contactEmail     string

		Server   ServerConfig
		Database DatabaseConfig
		Invoice  InvoiceConfig
	}

	ServerConfig struct {
		Host                      string
		Addr                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string // postgres | dummy
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		Latency       time.Duration // dummy engine only
	}

	// InvoiceConfig holds the service provider's fiscal data printed on every NFS-e.
	InvoiceConfig struct {
		ProviderName          string
		ProviderCNPJ          string
		MunicipalRegistration string
		MunicipalityCode      string
		City                  string
		ServiceCode           string
		ISSRate               decimal.Decimal
	}
)

func (db DatabaseConfig) Address() string {
	return db.Host + ":" + db.Port
}

func (conf *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: conf.AppName, Address: conf.defaultFromEmail}
}

func (conf *Config) ContactEmail() mail.Address {
	return mail.Address{Name: conf.AppName, Address: conf.contactEmail}
}

func NewConfig() *Config {
	vpr := viper.New()

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	vpr.SetEnvPrefix(env)
	vpr.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// defaults
	vpr.SetTypeByDefaultValue(true)
	vpr.SetDefault("debug", env == "DEV")
	vpr.SetDefault("testMode", env == "TEST")
	vpr.SetDefault("build", "develop")
	vpr.SetDefault("appName", "FotoEscola")
	vpr.SetDefault("secretKey", "kq1m-f0t0)esc0la$+72=zz&uoxh2(h!x)#*c9(#yg4h^$cegm2emy")
	vpr.SetDefault("frontendBaseURL", "http://localhost:3000")
	vpr.SetDefault("defaultFromEmail", "noreply@localhost")
	vpr.SetDefault("contactEmail", "contato@localhost")
	vpr.SetDefault("sendgridApiKey", "")
	vpr.SetDefault("rollbarToken", "")
	vpr.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)

	vpr.SetDefault("server.host", "localhost")
	vpr.SetDefault("server.addr", ":8000")
	vpr.SetDefault("server.debugHost", ":4000")
	vpr.SetDefault("server.shutdownTimeout", 5*time.Second)
	vpr.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	vpr.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)

	vpr.SetDefault("database.engine", "postgres")
	vpr.SetDefault("database.host", "localhost")
	vpr.SetDefault("database.port", "5432")
	vpr.SetDefault("database.name", "fotoescola")
	vpr.SetDefault("database.user", "fotoescola")
	vpr.SetDefault("database.password", "")
	vpr.SetDefault("database.adminUser", "")
	vpr.SetDefault("database.adminPassword", "")
	vpr.SetDefault("database.disableTLS", env == "DEV" || env == "TEST")
	vpr.SetDefault("database.latency", time.Duration(0))

	vpr.SetDefault("invoice.providerName", "FotoEscola Cursos de Fotografia Ltda")
	vpr.SetDefault("invoice.providerCnpj", "11222333000181")
	vpr.SetDefault("invoice.municipalRegistration", "1234567")
	vpr.SetDefault("invoice.municipalityCode", "3550308")
	vpr.SetDefault("invoice.city", "São Paulo/SP")
	vpr.SetDefault("invoice.serviceCode", "8.02")
	vpr.SetDefault("invoice.issRate", "0.05")

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	vpr.AutomaticEnv()

	issRate, err := decimal.NewFromString(vpr.GetString("invoice.issRate"))
	if err != nil {
		log.Fatalf("config.invoice.issRate: %v", err)
	}

	return &Config{
		Env:                       env,
		Build:                     vpr.GetString("build"),
		Debug:                     vpr.GetBool("debug"),
		TestMode:                  vpr.GetBool("testMode"),
		AppName:                   vpr.GetString("appName"),
		SecretKey:                 vpr.GetString("secretKey"),
		FrontendBaseURL:           vpr.GetString("frontendBaseURL"),
		SendgridApiKey:            vpr.GetString("sendgridApiKey"),
		RollbarToken:              vpr.GetString("rollbarToken"),
		PasswordResetTimeoutDelta: vpr.GetDuration("passwordResetTimeoutDelta"),
		defaultFromEmail:          vpr.GetString("defaultFromEmail"),
		contactEmail:              vpr.GetString("contactEmail"),
		Server: ServerConfig{
			Host:                      vpr.GetString("server.host"),
			Addr:                      vpr.GetString("server.addr"),
			DebugHost:                 vpr.GetString("server.debugHost"),
			ShutdownTimeout:           vpr.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        vpr.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: vpr.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        vpr.GetString("database.engine"),
			Host:          vpr.GetString("database.host"),
			Port:          vpr.GetString("database.port"),
			Name:          vpr.GetString("database.name"),
			User:          vpr.GetString("database.user"),
			Password:      vpr.GetString("database.password"),
			AdminUser:     vpr.GetString("database.adminUser"),
			AdminPassword: vpr.GetString("database.adminPassword"),
			DisableTLS:    vpr.GetBool("database.disableTLS"),
			Latency:       vpr.GetDuration("database.latency"),
		},
		Invoice: InvoiceConfig{
			ProviderName:          vpr.GetString("invoice.providerName"),
			ProviderCNPJ:          vpr.GetString("invoice.providerCnpj"),
			MunicipalRegistration: vpr.GetString("invoice.municipalRegistration"),
			MunicipalityCode:      vpr.GetString("invoice.municipalityCode"),
			City:                  vpr.GetString("invoice.city"),
			ServiceCode:           vpr.GetString("invoice.serviceCode"),
			ISSRate:               issRate,
		},
	}
}

// NewTestConfig returns a Config suitable for tests: no .env lookup, no remote services.
func NewTestConfig() *Config {
	return &Config{
		Env:                       "TEST",
		Build:                     "test",
		TestMode:                  true,
		AppName:                   "FotoEscola",
		SecretKey:                 "secret",
		FrontendBaseURL:           "http://localhost:3000",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		defaultFromEmail:          "noreply@localhost",
		contactEmail:              "contato@localhost",
		Server: ServerConfig{
			Host:                      "localhost",
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		Database: DatabaseConfig{Engine: "dummy"},
		Invoice: InvoiceConfig{
			ProviderName:          "FotoEscola Cursos de Fotografia Ltda",
			ProviderCNPJ:          "11222333000181",
			MunicipalRegistration: "1234567",
			MunicipalityCode:      "3550308",
			City:                  "São Paulo/SP",
			ServiceCode:           "8.02",
			ISSRate:               decimal.RequireFromString("0.05"),
		},
	}
}
