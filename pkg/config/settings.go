package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/drone/envsubst"
	"github.com/joho/godotenv"
	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/vfs"

	"github.com/mandelsoft/dbinit/pkg/database"
	"github.com/mandelsoft/dbinit/pkg/utils"
)

const ENV_FILE = ".env"

const (
	APP_NAME                    = "APP_NAME"
	APP_VERSION                 = "APP_VERSION"
	SECRET_KEY                  = "SECRET_KEY"
	ALGORITHM                   = "ALGORITHM"
	ACCESS_TOKEN_EXPIRE_MINUTES = "ACCESS_TOKEN_EXPIRE_MINUTES"
	DATABASE_URL                = "DATABASE_URL"
	ENVIRONMENT                 = "ENVIRONMENT"
	DEBUG                       = "DEBUG"
)

// Settings are the application settings shared with the
// application using the initialized database.
type Settings struct {
	AppName                  string `json:"APP_NAME"`
	AppVersion               string `json:"APP_VERSION"`
	SecretKey                string `json:"SECRET_KEY"`
	Algorithm                string `json:"ALGORITHM"`
	AccessTokenExpireMinutes int    `json:"ACCESS_TOKEN_EXPIRE_MINUTES"`
	DatabaseURL              string `json:"DATABASE_URL"`
	Environment              string `json:"ENVIRONMENT"`
	Debug                    bool   `json:"DEBUG"`
}

func Defaults() *Settings {
	return &Settings{
		AppName:                  "Simple Auth API",
		AppVersion:               "1.0.0",
		Algorithm:                "HS256",
		AccessTokenExpireMinutes: 1440,
		Environment:              "production",
	}
}

// Redacted returns a copy suitable for logging.
func (s *Settings) Redacted() *Settings {
	c := *s
	if c.SecretKey != "" {
		c.SecretKey = "***"
	}
	c.DatabaseURL = database.Redact(c.DatabaseURL)
	return &c
}

// Loader reads the settings from an env file and the
// process environment. Environment variables take
// precedence over the env file.
type Loader struct {
	FileSystem vfs.FileSystem
	// EnvFile is the env file to read, .env if empty.
	// A missing file is ignored.
	EnvFile string
	// Lookup looks up environment variables, os.LookupEnv if nil.
	Lookup func(string) (string, bool)
}

func Load(envFile string) (*Settings, error) {
	return (&Loader{EnvFile: envFile}).Load()
}

func (l *Loader) lookup() func(string) (string, bool) {
	if l.Lookup != nil {
		return l.Lookup
	}
	return os.LookupEnv
}

func (l *Loader) readEnvFile() (map[string]string, error) {
	fs := utils.OptionalDefaulted(vfs.FileSystem(osfs.OsFs), l.FileSystem)
	path := utils.OptionalDefaulted(ENV_FILE, l.EnvFile)

	f, err := fs.Open(path)
	if err != nil {
		if errors.Is(err, vfs.ErrNotExist) {
			log.Debug("no env file {{path}}", "path", path)
			return map[string]string{}, nil
		}
		return nil, err
	}
	defer f.Close()

	values, err := godotenv.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("invalid env file %s: %w", path, err)
	}
	log.Debug("read {{count}} values from env file {{path}}", "count", len(values), "path", path)
	return values, nil
}

func (l *Loader) Load() (*Settings, error) {
	file, err := l.readEnvFile()
	if err != nil {
		return nil, err
	}
	lookup := l.lookup()

	get := func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := file[key]
		return v, ok
	}

	s := Defaults()
	var errs []error

	str := func(key string, field *string, required bool) {
		if v, ok := get(key); ok {
			*field = v
		}
		if required && *field == "" {
			errs = append(errs, fmt.Errorf("%s: field required", key))
		}
	}
	str(APP_NAME, &s.AppName, false)
	str(APP_VERSION, &s.AppVersion, false)
	str(SECRET_KEY, &s.SecretKey, true)
	str(ALGORITHM, &s.Algorithm, false)
	str(DATABASE_URL, &s.DatabaseURL, true)
	str(ENVIRONMENT, &s.Environment, false)

	if v, ok := get(ACCESS_TOKEN_EXPIRE_MINUTES); ok {
		i, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid integer %q", ACCESS_TOKEN_EXPIRE_MINUTES, v))
		} else {
			s.AccessTokenExpireMinutes = i
		}
	}
	if v, ok := get(DEBUG); ok {
		b, err := ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", DEBUG, err))
		} else {
			s.Debug = b
		}
	}

	if s.DatabaseURL != "" {
		u, err := envsubst.Eval(s.DatabaseURL, func(name string) string {
			v, _ := get(name)
			return v
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", DATABASE_URL, err))
		} else {
			s.DatabaseURL = u
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid settings: %w", errors.Join(errs...))
	}
	return s, nil
}

// ParseBool accepts the usual spellings of boolean
// settings (true/false, 1/0, yes/no, on/off).
func ParseBool(v string) (bool, error) {
	switch v {
	case "1", "true", "True", "TRUE", "yes", "Yes", "YES", "on", "On", "ON", "y", "t":
		return true, nil
	case "0", "false", "False", "FALSE", "no", "No", "NO", "off", "Off", "OFF", "n", "f":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", v)
}
