package filterform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestPerRouteSettingsValidateNil accepts a nil record as use_base.
func TestPerRouteSettingsValidateNil(t *testing.T) {
	var settings *PerRouteSettings
	assert.NoError(t, settings.Validate(PerRouteNotSupported))
	assert.True(t, settings.IsUseBase())
}

// TestPerRouteSettingsValidateMatrix exercises behavior/payload combinations
// against each class.
func TestPerRouteSettingsValidateMatrix(t *testing.T) {
	config := map[string]any{"statPrefix": "rl"}

	cases := []struct {
		name     string
		class    PerRouteBehavior
		settings PerRouteSettings
		wantErr  bool
	}{
		{"use_base always legal", PerRouteNotSupported,
			PerRouteSettings{Behavior: BehaviorUseBase}, false},
		{"disable on not_supported", PerRouteNotSupported,
			PerRouteSettings{Behavior: BehaviorDisable}, true},
		{"disable on disable_only", PerRouteDisableOnly,
			PerRouteSettings{Behavior: BehaviorDisable}, false},
		{"override on disable_only", PerRouteDisableOnly,
			PerRouteSettings{Behavior: BehaviorOverride, Config: config}, true},
		{"full_config override with config", PerRouteFullConfig,
			PerRouteSettings{Behavior: BehaviorOverride, Config: config}, false},
		{"full_config override without payload", PerRouteFullConfig,
			PerRouteSettings{Behavior: BehaviorOverride}, true},
		{"reference_only override with name", PerRouteReferenceOnly,
			PerRouteSettings{Behavior: BehaviorOverride, RequirementName: "auth"}, false},
		{"reference_only override without name", PerRouteReferenceOnly,
			PerRouteSettings{Behavior: BehaviorOverride}, true},
		{"both payloads", PerRouteFullConfig,
			PerRouteSettings{Behavior: BehaviorOverride, Config: config, RequirementName: "auth"}, true},
		{"payload under disable", PerRouteFullConfig,
			PerRouteSettings{Behavior: BehaviorDisable, Config: config}, true},
		{"payload under use_base", PerRouteFullConfig,
			PerRouteSettings{Behavior: BehaviorUseBase, RequirementName: "auth"}, true},
		{"unknown behavior", PerRouteFullConfig,
			PerRouteSettings{Behavior: OverrideBehavior("remove")}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.settings.Validate(tc.class)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestBehaviorValidity covers the closed value sets.
func TestBehaviorValidity(t *testing.T) {
	assert.True(t, PerRouteFullConfig.Valid())
	assert.False(t, PerRouteBehavior("partial").Valid())
	assert.True(t, BehaviorOverride.Valid())
	assert.False(t, OverrideBehavior("").Valid())
}
