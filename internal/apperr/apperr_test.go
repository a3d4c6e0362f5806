package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassification(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		client   bool
		config   bool
		upstream bool
	}{
		{"client", ClientInput("analysis_text", "Analysis text is required"), true, false, false},
		{"wrapped client", fmt.Errorf("render: %w", ClientInput("page", "bad page")), true, false, false},
		{"config", Configuration("dataset", errors.New("missing column latitude")), false, true, false},
		{"upstream", Upstream("generate", errors.New("connection refused")), false, false, true},
		{"plain", errors.New("boom"), false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.client, IsClientInput(tt.err))
			assert.Equal(t, tt.config, IsConfiguration(tt.err))
			assert.Equal(t, tt.upstream, IsUpstream(tt.err))
		})
	}
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "Analysis text is required", ClientInput("analysis_text", "Analysis text is required").Error())
	assert.Equal(t, "configuration api-key: not set", Configuration("api-key", errors.New("not set")).Error())

	cause := errors.New("eof")
	err := Upstream("stream", cause)
	assert.Equal(t, "upstream stream: eof", err.Error())
	assert.ErrorIs(t, err, cause)
}
