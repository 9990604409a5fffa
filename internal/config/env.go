package config

// Environment variables consulted for flags that were not given.
const (
	EnvDockerImage      = "RELAY_DOCKER_IMAGE"
	EnvBashCommand      = "RELAY_BASH_COMMAND"
	EnvBuildRepo        = "RELAY_BUILD_REPO"
	EnvStatusAddr       = "RELAY_STATUS_ADDR"
	EnvConfig           = "RELAY_CONFIG"
	EnvRegion           = "AWS_REGION"
	EnvAccessKeyID      = "AWS_ACCESS_KEY_ID"
	EnvSecretAccessKey  = "AWS_SECRET_ACCESS_KEY"
	EnvCloudWatchGroup  = "RELAY_CLOUDWATCH_GROUP"
	EnvCloudWatchStream = "RELAY_CLOUDWATCH_STREAM"
)

// FillFromEnv copies environment values into every field that is still unset.
func (c *Config) FillFromEnv(getenv func(string) string) {
	fill(&c.DockerImage, getenv(EnvDockerImage))
	fill(&c.BashCommand, getenv(EnvBashCommand))
	fill(&c.BuildRepo, getenv(EnvBuildRepo))
	fill(&c.StatusAddr, getenv(EnvStatusAddr))
	fill(&c.AWS.Region, getenv(EnvRegion))
	fill(&c.AWS.AccessKeyID, getenv(EnvAccessKeyID))
	fill(&c.AWS.SecretAccessKey, getenv(EnvSecretAccessKey))
	fill(&c.AWS.CloudWatchGroup, getenv(EnvCloudWatchGroup))
	fill(&c.AWS.CloudWatchStream, getenv(EnvCloudWatchStream))
}
