package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// Config is the optional JSON configuration. Command-line flags override
// every field.
type Config struct {
	Debug          bool     `json:"debug,omitempty" jsonschema:"title=Debug,description=Enable debug logging"`
	NoColor        bool     `json:"noColor,omitempty" jsonschema:"title=No Color,description=Disable colored output"`
	LogFile        string   `json:"logFile,omitempty" jsonschema:"title=Log File,description=Write logs to this file instead of stderr"`
	Corpus         []string `json:"corpus,omitempty" jsonschema:"title=Corpus,description=Corpus files run by the test command when none are given"`
	Parallel       int      `json:"parallel,omitempty" jsonschema:"title=Parallel,description=Concurrent lifts in the test command,minimum=0"`
	Timeout        Duration `json:"timeout,omitempty" jsonschema:"title=Timeout,description=Wall-clock budget of a test run such as 30s,type=string"`
	KeepTerminator bool     `json:"keepTerminator,omitempty" jsonschema:"title=Keep Terminator,description=Compare without trimming the trailing LLIL_UNDEF"`
}

// Duration is a time.Duration written as a Go duration string.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// LoadConfig reads path, or $PPCIL_CONFIG when path is empty. No file
// means the zero Config.
func LoadConfig(path string) (Config, error) {
	var c Config
	if path == "" {
		path = os.Getenv("PPCIL_CONFIG")
	}
	if path == "" {
		return c, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return c, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return c, fmt.Errorf("parse config %s: %w", path, err)
	}
	if c.Parallel < 0 {
		return c, errors.New("config: parallel must not be negative")
	}
	return c, nil
}
