package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_VerboseControlsDebug(t *testing.T) {
	var quiet bytes.Buffer
	quietLog := New(&quiet, false)
	quietLog.Debug().Msg("hidden")
	assert.Empty(t, quiet.String())

	var loud bytes.Buffer
	loudLog := New(&loud, true)
	loudLog.Debug().Msg("shown")
	assert.Contains(t, loud.String(), "shown")
	assert.Contains(t, loud.String(), "app="+AppName)
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	log := Component(New(&buf, false), "port")
	log.Info().Int("port", 40000).Msg("reserved")

	out := buf.String()
	assert.Contains(t, out, "component=port")
	assert.Contains(t, out, "port=40000")
}
