package config

// Environment names one deployment flavor of the service.
type Environment string

const (
	// Local runs on a developer machine without any cluster dependency.
	Local Environment = "local"
	// Tricot runs inside the cluster behind the tricot ingress.
	Tricot Environment = "tricot"
	// RemoteClients runs locally against the cluster services.
	RemoteClients Environment = "remote-clients"
	// Hybrid runs locally, borrowing the cluster session of a py-youwol peer.
	Hybrid Environment = "hybrid"
	// Prod is the production deployment.
	Prod Environment = "prod"
)

// Environments returns every known environment in registry order.
func Environments() []Environment {
	return []Environment{Local, Tricot, RemoteClients, Hybrid, Prod}
}

// ParseEnvironment returns the environment named key.
func ParseEnvironment(key string) (Environment, error) {
	for _, e := range Environments() {
		if string(e) == key {
			return e, nil
		}
	}
	return "", &UnknownEnvironmentError{Key: key, Valid: Environments()}
}

func (e Environment) String() string {
	return string(e)
}
