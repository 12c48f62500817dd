package actions_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/leadflow/pkg/actions"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackClient(t *testing.T) {
	prompt := actions.Prompt{User: "hi"}

	t.Run("primary succeeds", func(t *testing.T) {
		primary := &stubLLM{text: "from primary"}
		secondary := &stubLLM{text: "from secondary"}
		c := actions.NewFallbackClient(nil, primary, secondary)

		text, err := c.Complete(context.Background(), prompt)
		require.NoError(t, err)
		assert.Equal(t, "from primary", text)
		assert.Empty(t, secondary.prompts)
	})

	t.Run("falls back on failure", func(t *testing.T) {
		primary := &stubLLM{err: errors.New("quota exceeded")}
		secondary := &stubLLM{text: "from secondary"}
		c := actions.NewFallbackClient(nil, primary, nil, secondary)
		assert.Equal(t, 2, c.Len())

		text, err := c.Complete(context.Background(), prompt)
		require.NoError(t, err)
		assert.Equal(t, "from secondary", text)
		assert.Len(t, primary.prompts, 1)
	})

	t.Run("all fail", func(t *testing.T) {
		e1, e2 := errors.New("one"), errors.New("two")
		c := actions.NewFallbackClient(nil, &stubLLM{err: e1}, &stubLLM{err: e2})

		_, err := c.Complete(context.Background(), prompt)
		assert.ErrorIs(t, err, e1)
		assert.ErrorIs(t, err, e2)
	})

	t.Run("empty chain", func(t *testing.T) {
		_, err := actions.NewFallbackClient(nil).Complete(context.Background(), prompt)
		assert.ErrorIs(t, err, actions.ErrNoProvider)
	})
}

type fakeCompletions struct {
	got  openai.ChatCompletionNewParams
	resp *openai.ChatCompletion
	err  error
}

func (f *fakeCompletions) New(_ context.Context, body openai.ChatCompletionNewParams, _ ...option.RequestOption) (*openai.ChatCompletion, error) {
	f.got = body
	return f.resp, f.err
}

func TestOpenAIClient_Complete(t *testing.T) {
	fake := &fakeCompletions{resp: &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Content: "  Plano regional.  "},
		}},
	}}
	c := actions.NewOpenAIClientWith(fake, "")

	text, err := c.Complete(context.Background(), actions.Prompt{System: "sys", User: "user", Temperature: 0.5})
	require.NoError(t, err)
	assert.Equal(t, "Plano regional.", text)
	assert.Equal(t, openai.ChatModel(actions.DefaultOpenAIModel), fake.got.Model)
	assert.Len(t, fake.got.Messages, 2)
}

func TestOpenAIClient_Errors(t *testing.T) {
	t.Run("transport", func(t *testing.T) {
		c := actions.NewOpenAIClientWith(&fakeCompletions{err: errors.New("503")}, "m")
		_, err := c.Complete(context.Background(), actions.Prompt{User: "u"})
		assert.ErrorContains(t, err, "503")
	})

	t.Run("no choices", func(t *testing.T) {
		c := actions.NewOpenAIClientWith(&fakeCompletions{resp: &openai.ChatCompletion{}}, "m")
		_, err := c.Complete(context.Background(), actions.Prompt{User: "u"})
		assert.Error(t, err)
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := actions.NewOpenAIClient("", "", "")
		assert.Error(t, err)
	})
}

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	_, err := actions.NewGeminiClient(context.Background(), " ", "")
	assert.Error(t, err)
}
