package config

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/melih/lighthouse-relay/internal/core/domain"
)

// Config holds every input of a relay run. Values come from flags, their
// environment fallbacks, and an optional YAML file, in that precedence.
type Config struct {
	DockerImage string `yaml:"docker_image"`
	BashCommand string `yaml:"bash_command"`
	BuildRepo   string `yaml:"build_repo"`
	Remove      bool   `yaml:"rm"`
	StatusAddr  string `yaml:"status_addr"`
	AWS         AWS    `yaml:"aws"`
}

type AWS struct {
	Region           string `yaml:"region"`
	AccessKeyID      string `yaml:"access_key_id"`
	SecretAccessKey  string `yaml:"secret_access_key"`
	CloudWatchGroup  string `yaml:"cloudwatch_group"`
	CloudWatchStream string `yaml:"cloudwatch_stream"`
}

var (
	// python buffers stdout when it is not a TTY, so `python -c` output would
	// only show up when the container exits.
	unbufferedPython = regexp.MustCompile(`(^|[\s;&|(])python[0-9.]*\s+-c\s`)

	logGroupName  = regexp.MustCompile(`^[\.\-_/#A-Za-z0-9]{1,512}$`)
	logStreamName = regexp.MustCompile(`^[^:*]{1,512}$`)
)

// LoadFile reads a YAML config file. Unknown keys are rejected.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.UserInputError(fmt.Sprintf("invalid value for --config: %v", err), err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, domain.UserInputError(fmt.Sprintf("invalid value for --config: %s: %v", path, err), err)
	}
	return &cfg, nil
}

// FillFrom copies values from file into every field that is still unset.
func (c *Config) FillFrom(file *Config) {
	fill(&c.DockerImage, file.DockerImage)
	fill(&c.BashCommand, file.BashCommand)
	fill(&c.BuildRepo, file.BuildRepo)
	fill(&c.StatusAddr, file.StatusAddr)
	fill(&c.AWS.Region, file.AWS.Region)
	fill(&c.AWS.AccessKeyID, file.AWS.AccessKeyID)
	fill(&c.AWS.SecretAccessKey, file.AWS.SecretAccessKey)
	fill(&c.AWS.CloudWatchGroup, file.AWS.CloudWatchGroup)
	fill(&c.AWS.CloudWatchStream, file.AWS.CloudWatchStream)
	c.Remove = c.Remove || file.Remove
}

func fill(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

// Validate checks the inputs that can be checked locally. The first problem
// found is returned as a UserInputError naming the flag.
func (c *Config) Validate() error {
	required := []struct {
		flag  string
		value string
	}{
		{"--docker-image", c.DockerImage},
		{"--bash-command", c.BashCommand},
		{"--aws-region", c.AWS.Region},
		{"--aws-access-key-id", c.AWS.AccessKeyID},
		{"--aws-secret-access-key", c.AWS.SecretAccessKey},
		{"--aws-cloudwatch-group", c.AWS.CloudWatchGroup},
		{"--aws-cloudwatch-stream", c.AWS.CloudWatchStream},
	}
	for _, r := range required {
		if r.value == "" {
			return invalid(r.flag, "missing required value")
		}
	}

	if unbufferedPython.MatchString(c.BashCommand) {
		return invalid("--bash-command", "use `-u` flag with python to unbuffer stdout")
	}
	if !slices.Contains(Regions, c.AWS.Region) {
		return invalid("--aws-region", fmt.Sprintf("%q is not a supported region", c.AWS.Region))
	}
	if !logGroupName.MatchString(c.AWS.CloudWatchGroup) {
		return invalid("--aws-cloudwatch-group", "must be 1-512 characters of letters, digits, '_', '-', '/', '.', '#'")
	}
	if !logStreamName.MatchString(c.AWS.CloudWatchStream) {
		return invalid("--aws-cloudwatch-stream", "must be 1-512 characters without ':' or '*'")
	}
	return nil
}

func invalid(flag, reason string) error {
	return domain.UserInputError(fmt.Sprintf("invalid value for %s: %s", flag, reason), nil)
}

// Command wraps the bash command so it runs through the image's shell.
func (c *Config) Command() []string {
	return []string{"/bin/sh", "-c", c.BashCommand}
}

func (c *Config) Target() domain.LogSinkTarget {
	return domain.LogSinkTarget{
		Group:  c.AWS.CloudWatchGroup,
		Stream: c.AWS.CloudWatchStream,
	}
}
