package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// FileName 配置文件名，位于可执行文件同目录
const FileName = "config.toml"

// AppConfig 应用配置
type AppConfig struct {
	Server    ServerConfig    `toml:"server"`
	Data      DataConfig      `toml:"data"`
	Reconcile ReconcileConfig `toml:"reconcile"`
	Log       LogConfig       `toml:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port        int   `toml:"port"`
	DevMode     bool  `toml:"dev_mode"`
	OpenBrowser bool  `toml:"open_browser"`
	MaxUploadMB int64 `toml:"max_upload_mb"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir        string `toml:"data_dir"`
	RetentionHours int    `toml:"retention_hours"` // 上传与结果文件保留时长
}

// ReconcileConfig 核对配置
type ReconcileConfig struct {
	Labels string `toml:"labels"` // en / zh
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // auto / console / json
	Output string `toml:"output"` // stderr / stdout / 文件路径
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	Found         bool
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:        9080,
			DevMode:     false,
			OpenBrowser: true,
			MaxUploadMB: 200,
		},
		Data: DataConfig{
			DataDir:        "data",
			RetentionHours: 24,
		},
		Reconcile: ReconcileConfig{
			Labels: "en",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
			Output: "stderr",
		},
	}
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// DefaultPath 默认配置文件路径
func DefaultPath() string {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}
	return filepath.Join(exeDir, FileName)
}

// LoadConfigWithInfo 从 path 加载配置并返回元信息；path 为空时使用默认位置。
// 文件不存在时返回默认配置。
func LoadConfigWithInfo(path string) (*AppConfig, LoadConfigInfo, error) {
	if path == "" {
		path = DefaultPath()
	}
	info := LoadConfigInfo{Path: path}
	config := DefaultConfig()

	// .env 只补充未设置的环境变量
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		info.Found = true
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, err
		}
	case os.IsNotExist(err):
		// 配置文件不存在，使用默认配置
	default:
		return nil, info, err
	}

	applyEnv(config, &info)
	return config, info, nil
}

// applyEnv 环境变量覆盖
func applyEnv(config *AppConfig, info *LoadConfigInfo) {
	if v := os.Getenv("EXCEL_HANDLE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			config.Server.Port = port
			info.PortSpecified = true
		}
	}
	if v := os.Getenv("EXCEL_HANDLE_DATA_DIR"); v != "" {
		config.Data.DataDir = v
	}
	if v := os.Getenv("EXCEL_HANDLE_LABELS"); v != "" {
		config.Reconcile.Labels = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		config.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		config.Log.Format = v
	}
}

// SaveConfig 保存配置到 path
func SaveConfig(config *AppConfig, path string) error {
	if path == "" {
		path = DefaultPath()
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Subdirectories under the data directory.
const (
	UploadsDir = "uploads"
	OutputsDir = "outputs"
)

// ResolveDataDir 数据目录的绝对位置；相对路径以可执行文件目录为基准
func ResolveDataDir(config *AppConfig) string {
	if filepath.IsAbs(config.Data.DataDir) {
		return config.Data.DataDir
	}
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	return filepath.Join(exeDir, config.Data.DataDir)
}

// EnsureDataDir 确保数据目录及子目录存在
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := ResolveDataDir(config)

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	for _, subdir := range []string{UploadsDir, OutputsDir} {
		path := filepath.Join(dataDir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", err
		}
	}

	return dataDir, nil
}

// GetDataPath 获取数据文件路径
func GetDataPath(config *AppConfig, subdir, filename string) string {
	return filepath.Join(ResolveDataDir(config), subdir, filename)
}
