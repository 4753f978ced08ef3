package imageproc

import "frc-targeting/internal/parameters"

// ConfigFromParameters overlays the [network] section of p onto base.
func ConfigFromParameters(base Config, p *parameters.Parameters) Config {
	base.RobotAddr = p.String("network", "robot_addr", base.RobotAddr)
	base.RetryDelay = p.Duration("network", "retry_delay", base.RetryDelay)
	base.ReconnectDelay = p.Duration("network", "reconnect_delay", base.ReconnectDelay)
	return base
}
