package ingest

import "frc-targeting/internal/parameters"

// ConfigFromParameters overlays the [network] section of p onto base.
func ConfigFromParameters(base Config, p *parameters.Parameters) Config {
	base.Addr = p.String("network", "listen_addr", base.Addr)
	base.ReadInterval = p.Duration("network", "read_interval", base.ReadInterval)
	base.MaxLineSize = p.Int("network", "max_line_size", base.MaxLineSize)
	return base
}
