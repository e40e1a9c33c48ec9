package notify

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/cfoust/dipwatch/pkg/utils"
)

type SinkType uint8

const (
	SinkTypeConsole SinkType = iota
	SinkTypeWebhook
	SinkTypeFeed
	SinkTypeComposite
)

type SinkConfig interface {
	Type() SinkType
}

type ConsoleConfig struct{}

func (ConsoleConfig) Type() SinkType { return SinkTypeConsole }

type WebhookConfig struct {
	URL string `json:"url"`
	// Request timeout in milliseconds
	TimeoutMs int `json:"timeoutMs"`
	// Minimum spacing between posts in milliseconds
	IntervalMs int `json:"intervalMs"`
}

func (WebhookConfig) Type() SinkType { return SinkTypeWebhook }

type FeedConfig struct{}

func (FeedConfig) Type() SinkType { return SinkTypeFeed }

type CompositeConfig struct {
	Sinks []Spec `json:"sinks"`
}

func (CompositeConfig) Type() SinkType { return SinkTypeComposite }

// Spec picks a sink by its "type" field.
type Spec struct {
	Config SinkConfig
}

func (s *Spec) UnmarshalJSON(data []byte) error {
	var obj map[string]*json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}

	raw, ok := obj["type"]
	if !ok || raw == nil {
		return fmt.Errorf("sink type missing")
	}

	var type_ string
	err := json.Unmarshal(*raw, &type_)
	if err != nil {
		return err
	}

	switch type_ {
	case "console":
		s.Config = ConsoleConfig{}
	case "webhook":
		var webhook WebhookConfig
		if err := json.Unmarshal(data, &webhook); err != nil {
			return err
		}
		s.Config = webhook
	case "feed":
		s.Config = FeedConfig{}
	case "composite":
		var composite CompositeConfig
		if err := json.Unmarshal(data, &composite); err != nil {
			return err
		}
		s.Config = composite
	default:
		return fmt.Errorf("invalid sink type: %s", type_)
	}

	return nil
}

// Build constructs the configured sink. Feed sinks publish to topic, so
// it must be provided when one is configured.
func Build(config SinkConfig, topic *utils.Topic[Event]) (Sink, error) {
	switch config := config.(type) {
	case ConsoleConfig:
		return NewConsole(), nil
	case WebhookConfig:
		parsed, err := url.Parse(config.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid webhook url: %w", err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return nil, fmt.Errorf("webhook url must be http or https: %s", config.URL)
		}
		timeout := 10 * time.Second
		if config.TimeoutMs > 0 {
			timeout = time.Duration(config.TimeoutMs) * time.Millisecond
		}
		interval := time.Duration(config.IntervalMs) * time.Millisecond
		return NewWebhook(config.URL, timeout, interval), nil
	case FeedConfig:
		if topic == nil {
			return nil, fmt.Errorf("feed sink requires the api to be enabled")
		}
		return NewFeed(topic), nil
	case CompositeConfig:
		sinks := make([]Sink, 0, len(config.Sinks))
		for i, spec := range config.Sinks {
			sink, err := Build(spec.Config, topic)
			if err != nil {
				return nil, fmt.Errorf("sink %d: %w", i, err)
			}
			sinks = append(sinks, sink)
		}
		return NewComposite(sinks...), nil
	case nil:
		return nil, fmt.Errorf("no sink configured")
	}

	return nil, fmt.Errorf("unsupported sink: %T", config)
}
