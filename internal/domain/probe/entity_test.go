package probe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"argus/pkg/errors"
)

func TestRequestValidate(t *testing.T) {
	valid := Request{EventID: "e1", Chain: "ethereum"}
	assert.NoError(t, valid.Validate(1000))

	missingEvent := Request{Chain: "ethereum"}
	assert.True(t, errors.Is(missingEvent.Validate(1000), errors.ErrInvalidRequest))

	missingChain := Request{EventID: "e1"}
	assert.True(t, errors.Is(missingChain.Validate(1000), errors.ErrInvalidRequest))

	oversized := Request{EventID: "e1", Chain: "ethereum", Config: Config{SampleSize: 2000}}
	assert.True(t, errors.Is(oversized.Validate(1000), errors.ErrInvalidRequest))

	start := time.Now()
	end := start.Add(-time.Hour)
	inverted := Request{EventID: "e1", Chain: "ethereum", StartTime: &start, EndTime: &end}
	assert.True(t, errors.Is(inverted.Validate(1000), errors.ErrInvalidRequest))
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusCreated.Terminal())
	assert.False(t, StatusRunning.Terminal())
	assert.True(t, StatusSucceeded.Terminal())
	assert.True(t, StatusFailed.Terminal())
}
