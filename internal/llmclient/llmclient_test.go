package llmclient

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/require"
)

func TestToGenaiContents_DropsSystemMessage(t *testing.T) {
	messages := []*schema.Message{
		{Role: schema.System, Content: "you are a helpful assistant"},
		{Role: schema.User, Content: "hello"},
	}

	out := toGenaiContents(messages)

	require.Len(t, out, 1)
	require.Equal(t, "hello", out[0].Parts[0].Text)
}

func TestSystemInstructionOf_FindsSystemMessage(t *testing.T) {
	messages := []*schema.Message{
		{Role: schema.System, Content: "be terse"},
		{Role: schema.User, Content: "hi"},
	}

	sys := systemInstructionOf(messages)

	require.NotNil(t, sys)
	require.Equal(t, "be terse", sys.Parts[0].Text)
}

func TestSystemInstructionOf_NilWhenAbsent(t *testing.T) {
	messages := []*schema.Message{{Role: schema.User, Content: "hi"}}

	require.Nil(t, systemInstructionOf(messages))
}

func TestToGenaiContents_MapsAssistantRoleToModel(t *testing.T) {
	messages := []*schema.Message{{Role: schema.Assistant, Content: "ack"}}

	out := toGenaiContents(messages)

	require.Len(t, out, 1)
	require.Equal(t, "model", out[0].Role)
}
