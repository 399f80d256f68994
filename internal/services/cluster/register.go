package cluster

import (
	"fmt"
	"os"

	consul "github.com/hashicorp/consul/api"
	"go.uber.org/zap"
)

// Register announces this node to consul with an HTTP health check so the
// fleet can discover live session servers. The agent resolves the node's
// address itself; the health URL uses the container hostname, which is
// DNS-resolvable inside the deployment network.
func Register(serviceName string, servicePort, healthPort int, consulAddr string, logger *zap.Logger) error {
	cfg := consul.DefaultConfig()
	if consulAddr != "" {
		cfg.Address = consulAddr
	}

	client, err := consul.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("create consul client: %w", err)
	}

	hostname := os.Getenv("HOSTNAME")
	if hostname == "" {
		hostname, _ = os.Hostname()
	}
	serviceID := fmt.Sprintf("%s-%s", serviceName, hostname)

	registration := &consul.AgentServiceRegistration{
		ID:   serviceID,
		Name: serviceName,
		Port: servicePort,
		Check: &consul.AgentServiceCheck{
			HTTP:     fmt.Sprintf("http://%s:%d/health", hostname, healthPort),
			Timeout:  "5s",
			Interval: "10s",
			// Drop the registration if the node stays critical.
			DeregisterCriticalServiceAfter: "1m",
		},
	}

	if err := client.Agent().ServiceRegister(registration); err != nil {
		return fmt.Errorf("register service %q: %w", serviceName, err)
	}

	logger.Info("service registered in consul",
		zap.String("service", serviceName),
		zap.String("service_id", serviceID))
	return nil
}
