package core

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Config struct {
	Debug    bool
	TestMode bool
	Env      string // DEV (default), TEST, QA, PROD
	AppName  string

	// Storage keys. The whole entity snapshot lives under DataKey; the session
	// payload and the last-activity timestamp each get their own key.
	DataKey     string
	SessionKey  string
	ActivityKey string

	SessionTimeout   time.Duration // inactivity window and absolute expiry delta
	SessionTick      time.Duration // liveness check interval
	NoticePreviewLen int           // notification message prefix length (runes)

	DataDir string // file storage backend root

	Database struct {
		Engine     string
		Host       string
		Port       string
		Name       string
		User       string
		Password   string
		DisableTLS bool
	}

	Rollbar struct {
		Token string
	}
	Build string
}

func (c *Config) DatabaseAddress() string {
	return c.Database.Host + ":" + c.Database.Port
}

// NewConfig loads configuration from the environment with sane defaults.
// A config/.env.<env> file is loaded first if it exists.
func NewConfig() (*Config, error) {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Shule")
	v.SetDefault("dataKey", "sms_data_v1")
	v.SetDefault("sessionKey", "sms_session")
	v.SetDefault("activityKey", "sms_last_activity")
	v.SetDefault("sessionTimeout", 20*time.Minute)
	v.SetDefault("sessionTick", time.Minute)
	v.SetDefault("noticePreviewLen", 100)
	v.SetDefault("dataDir", filepath.Join(os.TempDir(), "shule"))
	v.SetDefault("databaseEngine", "postgres")
	v.SetDefault("databaseHost", "localhost")
	v.SetDefault("databasePort", "5432")
	v.SetDefault("databaseName", "shule")
	v.SetDefault("databaseUser", "")
	v.SetDefault("databasePassword", "")
	v.SetDefault("databaseDisableTLS", true)
	v.SetDefault("rollbarToken", "")
	v.SetDefault("build", "dev")

	env := os.Getenv("ENV")
	if env == "" {
		env = "DEV"
	}
	v.SetDefault("testMode", env == "TEST")
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}
	v.AutomaticEnv()

	conf := &Config{
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		Env:              env,
		AppName:          v.GetString("appName"),
		DataKey:          v.GetString("dataKey"),
		SessionKey:       v.GetString("sessionKey"),
		ActivityKey:      v.GetString("activityKey"),
		SessionTimeout:   v.GetDuration("sessionTimeout"),
		SessionTick:      v.GetDuration("sessionTick"),
		NoticePreviewLen: v.GetInt("noticePreviewLen"),
		DataDir:          v.GetString("dataDir"),
		Build:            v.GetString("build"),
	}
	conf.Database.Engine = v.GetString("databaseEngine")
	conf.Database.Host = v.GetString("databaseHost")
	conf.Database.Port = v.GetString("databasePort")
	conf.Database.Name = v.GetString("databaseName")
	conf.Database.User = v.GetString("databaseUser")
	conf.Database.Password = v.GetString("databasePassword")
	conf.Database.DisableTLS = v.GetBool("databaseDisableTLS")
	conf.Rollbar.Token = v.GetString("rollbarToken")
	return conf, nil
}
