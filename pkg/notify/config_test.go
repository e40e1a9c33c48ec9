package notify

import (
	"encoding/json"
	"testing"

	"github.com/cfoust/dipwatch/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpecUnmarshal(t *testing.T) {
	var spec Spec
	err := json.Unmarshal([]byte(`{
		"type": "composite",
		"sinks": [
			{"type": "console"},
			{"type": "webhook", "url": "https://hooks.example.com/abc", "intervalMs": 1000},
			{"type": "feed"}
		]
	}`), &spec)
	require.NoError(t, err)

	composite, ok := spec.Config.(CompositeConfig)
	require.True(t, ok)
	require.Len(t, composite.Sinks, 3)
	assert.Equal(t, ConsoleConfig{}, composite.Sinks[0].Config)
	assert.Equal(t, WebhookConfig{URL: "https://hooks.example.com/abc", IntervalMs: 1000}, composite.Sinks[1].Config)
	assert.Equal(t, SinkTypeFeed, composite.Sinks[2].Config.Type())

	assert.Error(t, json.Unmarshal([]byte(`{"type": "carrier-pigeon"}`), &spec))
	assert.Error(t, json.Unmarshal([]byte(`{}`), &spec))
}

func TestBuild(t *testing.T) {
	topic := utils.NewTopic[Event]()

	sink, err := Build(CompositeConfig{Sinks: []Spec{
		{Config: ConsoleConfig{}},
		{Config: WebhookConfig{URL: "https://hooks.example.com/abc"}},
		{Config: FeedConfig{}},
	}}, topic)
	require.NoError(t, err)
	composite, ok := sink.(*Composite)
	require.True(t, ok)
	assert.Len(t, composite.Sinks(), 3)

	_, err = Build(WebhookConfig{URL: "ftp://example.com"}, nil)
	assert.Error(t, err)

	_, err = Build(FeedConfig{}, nil)
	assert.Error(t, err)

	_, err = Build(CompositeConfig{Sinks: []Spec{{Config: FeedConfig{}}}}, nil)
	assert.Error(t, err)

	_, err = Build(nil, nil)
	assert.Error(t, err)
}
