package terminal

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relayproj/relay/backend/convo"
)

func TestRenderResponses(t *testing.T) {
	responses := []*convo.Response{
		convo.NewResponse("claude: analysis complete"),
		convo.NewResponse("Error in step 2: provider down").WithMetadata("error", "true"),
		convo.NewResponse("codex: recovered"),
	}

	var out bytes.Buffer
	RenderResponses(&out, responses)

	rendered := out.String()
	assert.Contains(t, rendered, "[1]")
	assert.Contains(t, rendered, "claude: analysis complete")
	assert.Contains(t, rendered, "[2]")
	assert.Contains(t, rendered, "Error in step 2: provider down")
	assert.Contains(t, rendered, "[3]")
	assert.Contains(t, rendered, "codex: recovered")
}

func TestRenderResponse(t *testing.T) {
	var out bytes.Buffer
	RenderResponse(&out, convo.NewResponse("just the content"))

	assert.Equal(t, "just the content\n", out.String())
}
