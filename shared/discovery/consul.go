// Package discovery registers services with a Consul agent.
package discovery

import (
	"fmt"
	"net"
	"net/netip"
	"os"
	"strconv"

	"github.com/hashicorp/consul/api"
	"github.com/rs/zerolog"
)

// Config holds Consul agent settings.
type Config struct {
	Address string   `env:"ADDR"`
	Tags    []string `env:"TAGS" envSeparator:","`
	// AdvertiseHost is the host other services use to reach this instance.
	// Defaults to the listen host, or the machine hostname when the service
	// listens on all interfaces.
	AdvertiseHost string `env:"ADVERTISE_HOST"`
}

// Enabled reports whether a Consul agent address is configured.
func (c Config) Enabled() bool {
	return c.Address != ""
}

// Registration describes the instance being announced.
type Registration struct {
	Name string
	// Address is the host:port the HTTP API listens on.
	Address string
	// HealthAddress is the host:port of the gRPC health server.
	HealthAddress string
}

// ConsulRegistrar registers and deregisters one service instance.
type ConsulRegistrar struct {
	agent         *api.Agent
	serviceID     string
	tags          []string
	advertiseHost string
	hostname      func() (string, error)
	logger        *zerolog.Logger
}

// NewConsulRegistrar creates a registrar talking to the agent at cfg.Address.
func NewConsulRegistrar(cfg Config, logger *zerolog.Logger) (*ConsulRegistrar, error) {
	apiCfg := api.DefaultConfig()
	apiCfg.Address = cfg.Address

	client, err := api.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("create consul client: %w", err)
	}

	return &ConsulRegistrar{
		agent:         client.Agent(),
		tags:          cfg.Tags,
		advertiseHost: cfg.AdvertiseHost,
		hostname:      os.Hostname,
		logger:        logger,
	}, nil
}

// Register announces the service with a gRPC health check.
// Both addresses may omit the host, in which case the advertised host is used.
func (r *ConsulRegistrar) Register(reg Registration) error {
	listenHost, port, err := splitAddress(reg.Address)
	if err != nil {
		return fmt.Errorf("parse service address: %w", err)
	}
	healthHost, healthPort, err := splitAddress(reg.HealthAddress)
	if err != nil {
		return fmt.Errorf("parse health address: %w", err)
	}

	host, err := r.resolveHost(listenHost)
	if err != nil {
		return err
	}
	if !routable(healthHost) {
		healthHost = host
	}

	r.serviceID = fmt.Sprintf("%s-%s-%d", reg.Name, host, port)

	registration := &api.AgentServiceRegistration{
		ID:      r.serviceID,
		Name:    reg.Name,
		Address: host,
		Port:    port,
		Tags:    r.tags,
		Check: &api.AgentServiceCheck{
			GRPC:                           net.JoinHostPort(healthHost, strconv.Itoa(healthPort)) + "/" + reg.Name,
			Interval:                       "10s",
			Timeout:                        "3s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}

	if err := r.agent.ServiceRegister(registration); err != nil {
		return fmt.Errorf("register service: %w", err)
	}

	r.logger.Info().Str("service_id", r.serviceID).Msg("registered with consul")
	return nil
}

// Deregister removes the instance registered by Register.
func (r *ConsulRegistrar) Deregister() error {
	if r.serviceID == "" {
		return nil
	}
	if err := r.agent.ServiceDeregister(r.serviceID); err != nil {
		return fmt.Errorf("deregister service: %w", err)
	}
	r.logger.Info().Str("service_id", r.serviceID).Msg("deregistered from consul")
	return nil
}

func (r *ConsulRegistrar) resolveHost(listenHost string) (string, error) {
	if r.advertiseHost != "" {
		return r.advertiseHost, nil
	}
	if routable(listenHost) {
		return listenHost, nil
	}
	host, err := r.hostname()
	if err != nil {
		return "", fmt.Errorf("resolve advertise host: %w", err)
	}
	return host, nil
}

func splitAddress(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, err
	}
	return host, port, nil
}

// routable reports whether host names a concrete interface rather than a wildcard.
func routable(host string) bool {
	if host == "" {
		return false
	}
	ip, err := netip.ParseAddr(host)
	if err != nil {
		return true
	}
	return !ip.IsUnspecified()
}
