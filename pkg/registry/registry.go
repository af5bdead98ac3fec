// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	err = json.Unmarshal(data, &reg)
	return &reg, err
}

// FindByTaskType returns the activity serving the given task type, or nil.
func (r *ActivityRegistry) FindByTaskType(taskType string) *Activity {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i]
		}
	}
	return nil
}

// ValidateInput checks a job payload against the activity's input schema.
// Activities without a schema accept anything.
func (a *Activity) ValidateInput(payload map[string]interface{}) error {
	return a.validate(a.InputSchema, payload)
}

// ValidateOutput checks a completed payload against the activity's output schema.
func (a *Activity) ValidateOutput(payload map[string]interface{}) error {
	return a.validate(a.OutputSchema, payload)
}

func (a *Activity) validate(schema, payload map[string]interface{}) error {
	if len(schema) == 0 {
		return nil
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(payload),
	)
	if err != nil {
		return fmt.Errorf("schema validation for %s: %w", a.TaskType, err)
	}

	if !result.Valid() {
		errs := result.Errors()
		if len(errs) > 0 {
			return fmt.Errorf("payload for %s invalid: %s", a.TaskType, errs[0].String())
		}
		return fmt.Errorf("payload for %s invalid", a.TaskType)
	}
	return nil
}
