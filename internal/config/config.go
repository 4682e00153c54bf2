// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Log           LogConfig           `mapstructure:"log"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Upload        UploadConfig        `mapstructure:"upload"`
	Retry         RetryConfig         `mapstructure:"retry"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置。
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig 存储创作者身份令牌相关的配置。
// ProvisionKey 是签发创作者令牌时要求的共享密钥，由部署方下发给创作者工具。
type JWTConfig struct {
	Secret                 string `mapstructure:"secret"`
	AccessTokenExpireHours int    `mapstructure:"access_token_expire_hours"`
	ProvisionKey           string `mapstructure:"provision_key"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// KafkaConfig 存储处理任务队列相关的配置。
// FunctionPrefix 是外部异步处理函数的标识前缀，随任务一起下发。
type KafkaConfig struct {
	Brokers        string `mapstructure:"brokers"`
	JobsTopic      string `mapstructure:"jobs_topic"`
	ResultsTopic   string `mapstructure:"results_topic"`
	ConsumerGroup  string `mapstructure:"consumer_group"`
	FunctionPrefix string `mapstructure:"function_prefix"`
}

// MinIOConfig 存储对象存储的配置。
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
	PublicBaseURL   string `mapstructure:"public_base_url"`
}

// ElasticsearchConfig 存储相册检索索引相关的配置。
type ElasticsearchConfig struct {
	Addresses string `mapstructure:"addresses"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	IndexName string `mapstructure:"index_name"`
}

// UploadPolicyConfig 允许在配置中覆盖某条命名上传策略的默认值。
type UploadPolicyConfig struct {
	AllowedMIMETypes []string `mapstructure:"allowed_mime_types"`
	MaxSizeBytes     int64    `mapstructure:"max_size_bytes"`
}

// UploadConfig 存储上传策略相关的配置。
type UploadConfig struct {
	FanVideo UploadPolicyConfig `mapstructure:"fan_video"`
	General  UploadPolicyConfig `mapstructure:"general"`
}

// RetryConfig 存储数据访问重试的配置。
type RetryConfig struct {
	Attempts    int `mapstructure:"attempts"`
	BaseDelayMs int `mapstructure:"base_delay_ms"`
}

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
func Init(configPath string) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("读取配置文件失败: %w", err))
	}

	if err := viper.Unmarshal(&Conf); err != nil {
		panic(fmt.Errorf("无法将配置解析到结构体中: %w", err))
	}
}
