// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/kadirpekel/hector-studio/pkg/config"
	"github.com/kadirpekel/hector-studio/pkg/logger"
)

const (
	// LogFileEnvVar is the environment variable name for log file path
	LogFileEnvVar = "LOG_FILE"
	// LogLevelEnvVar is the environment variable name for log level
	LogLevelEnvVar = "LOG_LEVEL"
	// LogFormatEnvVar is the environment variable name for log format
	LogFormatEnvVar = "LOG_FORMAT"
)

// logSettings resolves the logger settings.
// Priority: CLI flags > env vars > config file section (defaults applied)
func logSettings(cliLevel, cliFile, cliFormat string, cfg config.LoggerConfig) config.LoggerConfig {
	cfg.SetDefaults()
	pick := func(flag, env, fallback string) string {
		if flag != "" {
			return flag
		}
		if v := os.Getenv(env); v != "" {
			return v
		}
		return fallback
	}
	return config.LoggerConfig{
		Level:  pick(cliLevel, LogLevelEnvVar, cfg.Level),
		File:   pick(cliFile, LogFileEnvVar, cfg.File),
		Format: pick(cliFormat, LogFormatEnvVar, cfg.Format),
	}
}

// initLoggerFromCLI initializes the logger before any config file is read.
func initLoggerFromCLI(cliLevel, cliFile, cliFormat string) (func(), error) {
	return initLogger(logSettings(cliLevel, cliFile, cliFormat, config.LoggerConfig{}))
}

// initLoggerFromConfig re-initializes the logger once the studio config is
// loaded. Flags and env vars still win over the file.
func initLoggerFromConfig(cli *CLI, cfg *config.Config) (func(), error) {
	return initLogger(logSettings(cli.LogLevel, cli.LogFile, cli.LogFormat, cfg.Logger))
}

func initLogger(s config.LoggerConfig) (func(), error) {
	level, err := logger.ParseLevel(s.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var (
		output  io.Writer = stderr
		cleanup func()
	)
	if s.File != "" {
		file, cleanupFn, err := logger.OpenLogFile(s.File)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		output = file
		cleanup = cleanupFn
	}

	logger.Init(level, output, s.Format)
	return cleanup, nil
}
