package config

import (
	"fmt"

	"github.com/CryZe/lasr-compiler/application/schema"
)

// Schema kinds accepted by GenerateSchema.
const (
	SchemaProject  = "project"
	SchemaScenario = "scenario"
)

// GenerateSchema returns the JSON schema of a project file or a scenario,
// keyed the way the YAML files are.
func GenerateSchema(kind string) ([]byte, error) {
	switch kind {
	case SchemaProject:
		return schema.Generate(&Project{}, schema.WithFieldNameTag("yaml"))
	case SchemaScenario:
		return schema.Generate(&Scenario{}, schema.WithFieldNameTag("yaml"))
	default:
		return nil, fmt.Errorf("unknown schema %q (want %s or %s)", kind, SchemaProject, SchemaScenario)
	}
}
