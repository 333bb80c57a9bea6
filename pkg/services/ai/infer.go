package ai

import (
	"strings"

	"github.com/jamelachahbar/skaelvox-vm-evolver/pkg/models/domain"
)

// inferEnvironment guesses the deployment environment, tags first,
// then name keywords. Used only to give the model context; never
// affects scoring.
func inferEnvironment(vm *domain.VM) string {
	for _, key := range []string{"environment", "env", "Environment", "Env"} {
		if v, ok := vm.Tags[key]; ok {
			if env := classifyEnvironment(v); env != "" {
				return env
			}
		}
	}
	if env := classifyEnvironment(vm.Name); env != "" {
		return env
	}
	return "Unknown"
}

func classifyEnvironment(s string) string {
	s = strings.ToLower(s)
	switch {
	case strings.Contains(s, "prod") || strings.Contains(s, "prd"):
		return "Production"
	case strings.Contains(s, "stag") || strings.Contains(s, "stg"):
		return "Staging"
	case strings.Contains(s, "test") || strings.Contains(s, "tst") || strings.Contains(s, "qa"):
		return "Test"
	case strings.Contains(s, "dev"):
		return "Development"
	}
	return ""
}

// inferWorkload guesses the workload role from name keywords.
func inferWorkload(name string) string {
	n := strings.ToLower(name)
	switch {
	case containsAny(n, "sql", "db", "ora", "pgsql", "mysql"):
		return "database server"
	case containsAny(n, "web", "www", "app", "api"):
		return "web/application server"
	case containsAny(n, "k8s", "aks", "kube", "node"):
		return "container host"
	case containsAny(n, "build", "ci", "agent", "jenkins"):
		return "build agent"
	case containsAny(n, "dc", "adds"):
		return "domain controller"
	case containsAny(n, "vpn", "gw", "fw"):
		return "network gateway"
	}
	return "general purpose"
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
