package config

// HostConfig holds host-specific configuration for a single scanned host.
// This allows tuning reconciliation behavior per host without touching
// the global flags.
type HostConfig struct {
	// Alias replaces the host label from the scan report. Useful when
	// reports carry raw addresses but the inventory tracks hosts by name.
	Alias string `yaml:"alias,omitempty"`

	// ConfidenceThreshold overrides the global low-confidence threshold
	// for this host. If zero, the global threshold is used. Hosts known
	// to fingerprint poorly (load balancers, middleboxes) can set a
	// lower bar to keep reports quiet.
	ConfidenceThreshold int `yaml:"confidenceThreshold,omitempty"`

	// Ignore skips this host entirely when reconciling batches.
	Ignore bool `yaml:"ignore,omitempty"`
}

// File represents the structure of the .osfp configuration file.
type File struct {
	// Hosts maps host labels to their host-specific configurations.
	// Keys are compared against the normalized host label from the
	// scan report (e.g., "db01.internal" or "192.168.1.42").
	Hosts map[string]HostConfig `yaml:"hosts,omitempty"`

	// Defaults contains default host configuration applied to all hosts
	// unless overridden in the host-specific configuration.
	Defaults HostConfig `yaml:"defaults,omitempty"`
}

// GetHostConfig returns the configuration for a specific host label.
// It merges the host-specific configuration with defaults.
func (cf *File) GetHostConfig(host string) HostConfig {
	// Start with defaults
	result := cf.Defaults

	// Override with host-specific configuration if present
	if hostConfig, ok := cf.Hosts[host]; ok {
		if hostConfig.Alias != "" {
			result.Alias = hostConfig.Alias
		}
		if hostConfig.ConfidenceThreshold != 0 {
			result.ConfidenceThreshold = hostConfig.ConfidenceThreshold
		}
		if hostConfig.Ignore {
			result.Ignore = true
		}
	}

	return result
}
