package cmd

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"iostest.dev/pkg/iostest/internal/domain"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "iostest"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	crateFlagName       = "crate"
	buildDirFlagName    = "build-dir"
	excludeFlagName     = "exclude"
	preludeFlagName     = "prelude"
	verboseFlagName     = "verbose"
	logFileFlagName     = "log-file"
	targetFlagName      = "target"
	profileFlagName     = "profile"
	parallelFlagName    = "parallel"
	templateFlagName    = "template"
	destinationFlagName = "destination"
	debounceFlagName    = "debounce"

	crateConfigKey    = "crate"
	buildDirConfigKey = "build_dir"
	excludeConfigKey  = "scan.exclude"
	preludeConfigKey  = "harness.prelude"
	buildTargetsKey   = "build.targets"
	buildProfileKey   = "build.profile"
	buildParallelKey  = "build.parallel"
	templateDirKey    = "xcode.template_dir"
	destinationsKey   = "xcode.destinations"
	execTimeoutKey    = "exec.timeout"
	watchDebounceKey  = "watch.debounce"

	defaultCrate         = "."
	defaultBuildDir      = domain.HarnessPackageName
	defaultBuildProfile  = domain.ProfileDebug
	defaultBuildParallel = 1
	defaultExecTimeout   = 10 * time.Minute

	envPrefix = "IOSTEST"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".iostest.log"
	defaultLogLevel      = int(slog.LevelInfo)
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var globalLogger *slog.Logger

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(crateConfigKey, defaultCrate)
	viper.SetDefault(buildDirConfigKey, defaultBuildDir)
	viper.SetDefault(excludeConfigKey, []string{})
	viper.SetDefault(preludeConfigKey, "")
	viper.SetDefault(buildTargetsKey, targetStrings())
	viper.SetDefault(buildProfileKey, defaultBuildProfile)
	viper.SetDefault(buildParallelKey, defaultBuildParallel)
	viper.SetDefault(templateDirKey, "")
	viper.SetDefault(destinationsKey, []string{domain.DefaultDestination})
	viper.SetDefault(execTimeoutKey, int64(defaultExecTimeout.Seconds()))
	viper.SetDefault(watchDebounceKey, domain.DefaultDebounce.String())

	// Logging defaults (used by config/env and as fallbacks for flags).
	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return
		}

		return
	}
}

func targetStrings() []string {
	targets := make([]string, 0, len(domain.DefaultTargets))
	for _, target := range domain.DefaultTargets {
		targets = append(targets, string(target))
	}

	return targets
}

// execTimeout is the per-subprocess deadline, configured in seconds.
func execTimeout() time.Duration {
	seconds := viper.GetInt64(execTimeoutKey)
	if seconds <= 0 {
		return defaultExecTimeout
	}

	return time.Duration(seconds) * time.Second
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger configures the global slog logger.
//
// By default it logs at Info; if verbose is true it logs at Debug.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}
