package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cfoust/dipwatch/pkg/codec"
	"github.com/cfoust/dipwatch/pkg/history"
	"github.com/cfoust/dipwatch/pkg/notify"
)

// Duration is a time.Duration written as "2m" or "30s".
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var value interface{}
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}

	switch value := value.(type) {
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
	case float64:
		// Bare numbers are milliseconds
		*d = Duration(time.Duration(value) * time.Millisecond)
	default:
		return fmt.Errorf("invalid duration: %s", string(data))
	}

	return nil
}

type SourceConfig struct {
	BaseURL string            `json:"baseURL"`
	Timeout Duration          `json:"timeout"`
	Cookies map[string]string `json:"cookies"`
	// Relative paths are resolved against the home directory.
	CookiesFile string `json:"cookiesFile"`
}

type CodecConfig struct {
	Format        string `json:"format"`
	OmitMissing   bool   `json:"omitMissing"`
	ISOTimestamps bool   `json:"isoTimestamps"`
	PreserveZone  bool   `json:"preserveZone"`
}

func (c CodecConfig) Build() (*codec.Codec, error) {
	format, err := codec.ParseFormat(c.Format)
	if err != nil {
		return nil, err
	}

	return codec.New(format, codec.Options{
		OmitMissing:   c.OmitMissing,
		ISOTimestamps: c.ISOTimestamps,
		PreserveZone:  c.PreserveZone,
	})
}

type NotificationConfig struct {
	// Personal enables diffs only meaningful to the logged-in player.
	Personal bool `json:"personal"`
}

type APIConfig struct {
	Enabled bool   `json:"enabled"`
	Address string `json:"address"`
}

type Config struct {
	PollInterval  Duration           `json:"pollInterval"`
	Games         []int              `json:"games"`
	Source        SourceConfig       `json:"source"`
	History       history.Backend    `json:"history"`
	Codec         CodecConfig        `json:"codec"`
	Sink          notify.Spec        `json:"sink"`
	Notifications NotificationConfig `json:"notifications"`
	API           APIConfig          `json:"api"`
}
