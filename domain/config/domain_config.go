package config

// DomainConfig holds the configurable rules of a diagram
type DomainConfig struct {
	// Diagram constraints
	MaxNodes int
	MaxEdges int

	// Node constraints
	MaxLabelLength   int
	MaxContentLength int
	MaxTagsPerNode   int

	// Placement of new nodes: a random offset in [0, PlacementJitter) is
	// added to both axes so stacked additions stay distinguishable.
	PlacementJitter float64

	// Validation settings
	AllowSelfConnections bool
	AllowDuplicateEdges  bool
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MaxNodes: 10000,
		MaxEdges: 50000,

		MaxLabelLength:   500,
		MaxContentLength: 500000,
		MaxTagsPerNode:   20,

		PlacementJitter: 50,

		AllowSelfConnections: true,
		AllowDuplicateEdges:  true,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// Shared deployments keep payloads small enough for a single storage item
	config.MaxNodes = 2000
	config.MaxEdges = 10000
	config.MaxContentLength = 100000

	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}
