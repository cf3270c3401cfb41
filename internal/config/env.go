package config

import (
	"strings"

	"github.com/spf13/viper"
)

// FakeRunVar enables fake runs when set to any non-empty value.
const FakeRunVar = "MX_NG_DO_NOT_RUN"

// Env resolves suite parameters from the process environment, falling
// back to the env: entries of the .mxvalidate file. Empty variables are
// treated as unset.
type Env struct {
	v *viper.Viper
}

// NewEnv returns an Env reading the process environment with fallback
// values taken from the given map (typically Config.Env).
func NewEnv(fallback map[string]string) *Env {
	v := viper.New()
	v.AutomaticEnv()
	v.AllowEmptyEnv(false)
	for k, val := range fallback {
		v.SetDefault(k, val)
	}
	return &Env{v: v}
}

// Set overrides a variable for the lifetime of this Env.
func (e *Env) Set(key, value string) { e.v.Set(key, value) }

// Lookup returns the value of key and whether it is non-empty.
func (e *Env) Lookup(key string) (string, bool) {
	s := strings.TrimSpace(e.v.GetString(key))
	return s, s != ""
}

// String returns the value of key or def when unset.
func (e *Env) String(key, def string) string {
	if s, ok := e.Lookup(key); ok {
		return s
	}
	return def
}

// FakeRun reports whether MX_NG_DO_NOT_RUN is set.
func (e *Env) FakeRun() bool {
	_, ok := e.Lookup(FakeRunVar)
	return ok
}
