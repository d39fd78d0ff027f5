package config

import "os"

// LookupFunc reads one environment variable.
type LookupFunc func(name string) (string, bool)

// OSLookup reads the process environment.
func OSLookup() LookupFunc {
	return os.LookupEnv
}

// MapLookup reads variables from m.
func MapLookup(m map[string]string) LookupFunc {
	return func(name string) (string, bool) {
		v, ok := m[name]
		return v, ok
	}
}

// Vars holds the values read by RequireEnv.
type Vars map[string]string

// Get returns the value of name, empty when it was not required.
func (v Vars) Get(name string) string {
	return v[name]
}

// RequireEnv reads names through lookup. An unset or empty variable is
// missing; all missing names are reported together in declared order.
func RequireEnv(lookup LookupFunc, names ...string) (Vars, error) {
	vars := make(Vars, len(names))
	var missing []string
	for _, name := range names {
		value, ok := lookup(name)
		if !ok || value == "" {
			missing = append(missing, name)
			continue
		}
		vars[name] = value
	}
	if len(missing) > 0 {
		return nil, &MissingConfigurationError{Names: missing}
	}
	return vars, nil
}
