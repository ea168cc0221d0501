package build

// DeploymentType selects which hooks and log outputs a binary is compiled
// with. It is fixed at compile time by the "dev" build tag.
type DeploymentType byte

const (
	// Development routes unit test loggers straight to the terminal at
	// LogLevel.
	Development DeploymentType = iota

	// Production hands every subsystem logger to the shared backend.
	Production
)

// String returns the name reported in the version line.
func (b DeploymentType) String() string {
	switch b {
	case Development:
		return "dev"
	case Production:
		return "prod"
	default:
		return "unknown"
	}
}
