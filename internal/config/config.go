package config

import "time"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	AWS      AWSConfig      `mapstructure:"aws"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Chat     ChatConfig     `mapstructure:"chat"`
	Leads    LeadsConfig    `mapstructure:"leads"`
	Projects ProjectsConfig `mapstructure:"projects"`
	Images   ImagesConfig   `mapstructure:"images"`
	Notify   NotifyConfig   `mapstructure:"notify"`
}

type ServerConfig struct {
	Addr           string `mapstructure:"addr"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type AWSConfig struct {
	Region string `mapstructure:"region"`
}

// OpenAIConfig configures the completion oracle. When APIKey is empty the key
// is read from SSM under ParamPrefix.
type OpenAIConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	APIKey          string        `mapstructure:"api_key"`
	ParamPrefix     string        `mapstructure:"param_prefix"`
	ChatModel       string        `mapstructure:"chat_model"`
	VisionModel     string        `mapstructure:"vision_model"`
	VisionMaxTokens int           `mapstructure:"vision_max_tokens"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type ChatConfig struct {
	Temperature   float64 `mapstructure:"temperature"`
	MaxMessageLen int     `mapstructure:"max_message_length"`
}

type LeadsConfig struct {
	Backend  string `mapstructure:"backend"`
	BoltPath string `mapstructure:"bolt_path"`
	Table    string `mapstructure:"table"`
}

type ProjectsConfig struct {
	DatabaseURL    string `mapstructure:"database_url"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
}

type ImagesConfig struct {
	Backend       string `mapstructure:"backend"`
	LocalDir      string `mapstructure:"local_dir"`
	PublicBaseURL string `mapstructure:"public_base_url"`
	Bucket        string `mapstructure:"bucket"`
}

type NotifyConfig struct {
	TopicARN string `mapstructure:"topic_arn"`
}

const (
	BackendBolt     = "bolt"
	BackendDynamoDB = "dynamodb"
	BackendLocal    = "local"
	BackendS3       = "s3"
)

// NeedsAWS reports whether any configured backend talks to AWS.
func (c *Config) NeedsAWS() bool {
	return c.Leads.Backend == BackendDynamoDB ||
		c.Images.Backend == BackendS3 ||
		c.Notify.TopicARN != "" ||
		c.OpenAI.APIKey == ""
}
