// Copyright (C) 2026 The qrlcd Authors. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package directory

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// UserConfigPathEnv if set, will load the user config from that path.
	UserConfigPathEnv = "QRLCD_USER_CONFIG_PATH"
	// LogCachePathEnv if set, is the directory rotated log files go to.
	LogCachePathEnv = "QRLCD_LOG_PATH"

	// DefaultWorkbook is the team workbook parsed when no name is given.
	DefaultWorkbook = "qr_code"
	// ParsedFile is where the parsed hex tables are written.
	ParsedFile = "qr_code_parsed.txt"
	// ManifestFile lists the artifacts of a generate run.
	ManifestFile = "manifest.yaml"
)

func GetUserConfigPath() (string, error) {
	if path, ok := os.LookupEnv(UserConfigPathEnv); ok {
		return path, nil
	}

	homedir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homedir, ".config", "qrlcd", "config.yaml"), nil
}

func GetLogCachePath() (string, error) {
	path, ok := os.LookupEnv(LogCachePathEnv)
	if ok {
		return ensureDirectory(path, nil)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return ensureDirectory(filepath.Join(home, ".cache", "qrlcd", "logs"), nil)
}

func ensureDirectory(dir string, err error) (string, error) {
	if err != nil {
		return dir, err
	}
	return dir, os.MkdirAll(dir, 0755)
}

// VersionDir is the folder the artifacts of one QR version go to.
func VersionDir(out, folder string, version int) string {
	return filepath.Join(out, folder, fmt.Sprintf("qr-v%d", version))
}

// VersionFile names an artifact inside VersionDir, for example qr-v3.png.
func VersionFile(dir string, version int, ext string) string {
	return filepath.Join(dir, fmt.Sprintf("qr-v%d.%s", version, strings.TrimPrefix(ext, ".")))
}

// EnsureVersionDir creates the folder and reports whether it already existed.
func EnsureVersionDir(dir string) (bool, error) {
	if stat, err := os.Stat(dir); err == nil {
		if !stat.IsDir() {
			return false, fmt.Errorf("'%s' exists and is not a directory", dir)
		}
		return true, nil
	}
	_, err := ensureDirectory(dir, nil)
	return false, err
}

// WorkbookPath turns a workbook name given without extension into a path.
func WorkbookPath(name string) string {
	if name == "" {
		name = DefaultWorkbook
	}
	if strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return name
	}
	return name + ".xlsx"
}

func GetUserConfig() (*viper.Viper, error) {
	path, err := GetUserConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get user config path: %w", err)
	}

	cfg := viper.New()
	cfg.SetConfigType("yaml")
	cfg.SetConfigFile(path)
	if _, err := os.Stat(path); err == nil {
		if err := cfg.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read user config: %w", err)
		}
	}
	return cfg, nil
}

func WriteConfig(cfg *viper.Viper) error {
	file := cfg.ConfigFileUsed()
	dir := filepath.Dir(file)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	tmpFile := filepath.Join(filepath.Dir(file), ".config.tmp.yaml")
	if err := cfg.WriteConfigAs(tmpFile); err != nil {
		return err
	}
	defer os.Remove(tmpFile)

	return os.Rename(tmpFile, file)
}
