package tenmactl

import (
	"encoding/json"
	"strconv"
	"time"

	"go.yaml.in/yaml/v4"
)

// Duration accepts Go durations ("500ms", "1m30s") and plain integers as seconds.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return nil
	}

	var str string
	err := json.Unmarshal(data, &str)
	if err != nil {
		var seconds int64
		if json.Unmarshal(data, &seconds) != nil {
			return err
		}

		d.Duration = time.Duration(seconds) * time.Second
		return nil
	}

	return d.parse(str)
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var str string
	err := value.Decode(&str)
	if err != nil {
		return err
	}

	return d.parse(str)
}

func (d *Duration) parse(str string) error {
	if str == "" {
		return nil
	}

	if seconds, err := strconv.ParseInt(str, 10, 64); err == nil {
		d.Duration = time.Duration(seconds) * time.Second
		return nil
	}

	var err error
	d.Duration, err = time.ParseDuration(str)
	return err
}
