// pkg/registry/registry_test.go
package registry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestRegistry(t *testing.T) *ActivityRegistry {
	t.Helper()
	reg, err := LoadRegistry(filepath.Join("..", "..", "configs", "activity-registry.json"))
	require.NoError(t, err)
	return reg
}

func TestLoadRegistryListsAllWorkers(t *testing.T) {
	reg := loadTestRegistry(t)

	taskTypes := make([]string, 0, len(reg.Activities))
	for _, a := range reg.Activities {
		taskTypes = append(taskTypes, a.TaskType)
	}

	assert.ElementsMatch(t, []string{
		"validate-application",
		"score-application",
		"create-application-record",
		"query-applications",
		"search-applications",
		"delete-application",
		"calculate-suggested-range",
		"commit-decision",
		"send-decision-notification",
	}, taskTypes)
}

func TestFindByTaskType(t *testing.T) {
	reg := loadTestRegistry(t)

	activity := reg.FindByTaskType("commit-decision")
	require.NotNil(t, activity)
	assert.Equal(t, "decision", activity.Category)
	assert.Contains(t, activity.ErrorCodes, "DECISION_CONFLICT")

	assert.Nil(t, reg.FindByTaskType("no-such-task"))
}

func TestValidateInputAcceptsWellFormedPayload(t *testing.T) {
	reg := loadTestRegistry(t)
	activity := reg.FindByTaskType("commit-decision")
	require.NotNil(t, activity)

	err := activity.ValidateInput(map[string]interface{}{
		"applicationId": "app-001",
		"actor":         map[string]interface{}{"userId": "user-7"},
		"decision":      "APPROVED",
	})
	assert.NoError(t, err)
}

func TestValidateInputRejectsMissingFields(t *testing.T) {
	reg := loadTestRegistry(t)
	activity := reg.FindByTaskType("commit-decision")
	require.NotNil(t, activity)

	err := activity.ValidateInput(map[string]interface{}{
		"applicationId": "app-001",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit-decision")
}

func TestValidateInputRejectsUnknownDecisionValue(t *testing.T) {
	reg := loadTestRegistry(t)
	activity := reg.FindByTaskType("commit-decision")
	require.NotNil(t, activity)

	err := activity.ValidateInput(map[string]interface{}{
		"applicationId": "app-001",
		"actor":         map[string]interface{}{"userId": "user-7"},
		"decision":      "DEFERRED",
	})
	assert.Error(t, err)
}

func TestValidateWithoutSchemaAcceptsAnything(t *testing.T) {
	activity := &Activity{TaskType: "free-form"}
	assert.NoError(t, activity.ValidateInput(map[string]interface{}{"anything": true}))
}
