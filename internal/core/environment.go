package core

import "strings"

// Environment is the deployment stage the service runs in. It selects the
// log format and verbosity.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Testing     Environment = "testing"
	Production  Environment = "production"
)

var environmentAliases = map[string]Environment{
	"development": Development,
	"dev":         Development,
	"local":       Development,
	"staging":     Staging,
	"stage":       Staging,
	"testing":     Testing,
	"test":        Testing,
	"ci":          Testing,
	"production":  Production,
	"prod":        Production,
}

func (e Environment) String() string {
	return string(e)
}

func (e Environment) IsProduction() bool {
	return e == Production
}

// IsLocal reports whether logs are read by a person at a terminal.
func (e Environment) IsLocal() bool {
	return e == Development
}

// ParseEnvironment accepts the canonical names and their short forms.
// Anything else is Development.
func ParseEnvironment(v string) Environment {
	if e, ok := environmentAliases[strings.ToLower(strings.TrimSpace(v))]; ok {
		return e
	}
	return Development
}
