// Copyright (C) 2026 The qrlcd Authors. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.bug.st/serial"

	"github.com/yeti-display/qrlcd/cmd/qrlcd/directory"
)

const (
	PortCfgKey = "port"
	BaudCfgKey = "baud"
)

func PortCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "port",
		Short:        "Print the configured serial port",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			port := ConfiguredPort()
			if port == "" {
				return fmt.Errorf("no port configured, pick one with 'qrlcd port set'")
			}
			fmt.Fprintln(cmd.OutOrStdout(), port)
			return nil
		},
	}
	set := SetPortCmd()
	set.Use = "set"
	cmd.AddCommand(set)
	return cmd
}

func SetPortCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "set-port",
		Short:        "Select the serial port the display board is connected to",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := cmd.Flags().GetBool("all")
			if err != nil {
				return err
			}

			cfg, err := directory.GetUserConfig()
			if err != nil {
				return err
			}

			port, err := GetPort(cfg, all)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Using port '%s'\n", port)
			return nil
		},
	}

	cmd.Flags().Bool("all", false, "if set, will show all available ports")
	return cmd
}

// GetPort lets the user pick a port and stores it in cfg.
func GetPort(cfg *viper.Viper, all bool) (string, error) {
	port, err := pickPort(all)
	if err != nil {
		return "", err
	}
	cfg.Set(PortCfgKey, port)
	if err := directory.WriteConfig(cfg); err != nil {
		return "", err
	}
	return port, nil
}

func PortExists(port string) (bool, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return false, err
	}
	for _, p := range ports {
		if p == port {
			return true, nil
		}
	}
	return false, nil
}

func ConfiguredPort() string {
	cfg, err := directory.GetUserConfig()
	if err != nil {
		return ""
	}
	return cfg.GetString(PortCfgKey)
}

func ConfiguredBaud() int {
	cfg, err := directory.GetUserConfig()
	if err != nil || !cfg.IsSet(BaudCfgKey) {
		return defaultBaud
	}
	return cfg.GetInt(BaudCfgKey)
}

// CheckPort returns port if it exists and otherwise asks the user to pick
// one.
func CheckPort(port string) (string, error) {
	if port != "" {
		exists, err := PortExists(port)
		if err != nil {
			return "", err
		}
		if exists {
			return port, nil
		}
		fmt.Printf("The port '%s' was not found.\n", port)
	}

	cfg, err := directory.GetUserConfig()
	if err != nil {
		return "", err
	}

	return GetPort(cfg, false)
}

func pickPort(all bool) (string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return "", err
	}
	if !all {
		ports = filterPorts(ports)
	}
	if len(ports) == 0 {
		return "", fmt.Errorf("no serial ports detected. Is the USB to UART adapter of the display board connected?")
	}

	prompt := promptui.Select{
		Label:     "Choose what serial port you want to use",
		Items:     ports,
		Templates: &promptui.SelectTemplates{},
	}

	i, _, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("you didn't select anything")
	}

	return ports[i], nil
}

func filterPorts(ports []string) []string {
	switch runtime.GOOS {
	case "darwin":
		return darwinFilterPaths(ports)
	case "linux":
		return linuxFilterPaths(ports)
	default:
		return ports
	}
}

func darwinFilterPaths(paths []string) []string {
	existing := map[string]struct{}{}
	for _, p := range paths {
		existing[p] = struct{}{}
	}
	var res []string
	for _, path := range paths {
		if strings.HasPrefix(path, "/dev/cu") && !strings.Contains(path, "Bluetooth") {
			res = append(res, path)
		} else if strings.HasPrefix(path, "/dev/tty") && !strings.Contains(path, "Bluetooth") {
			candidate := "/dev/cu" + strings.TrimPrefix(path, "/dev/tty")
			if _, exists := existing[candidate]; !exists {
				res = append(res, path)
			}
		}
	}
	return res
}

func linuxFilterPaths(paths []string) []string {
	res := []string(nil)
	for _, path := range paths {
		if strings.Contains(path, "tty") {
			if strings.Contains(path, "USB") || strings.Contains(path, "ACM") {
				res = append(res, path)
			}
		}
	}
	return res
}
