package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vizwizards/lifeviz/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set configuration values.

Usage:
  lifeviz config                       # Show all config
  lifeviz config data-dir              # Get specific value
  lifeviz config data-dir ~/who-data   # Set value
  lifeviz config default-year 2019

Keys:
  data-dir         Directory relative dataset locations resolve against
  addr             Listen address for 'lifeviz serve'
  allowed-origins  Comma-separated CORS origins (empty allows all)
  default-year     Year used when a render names none (0 = latest)
  width, height    Chart size in pixels
  timeout          HTTP fetch timeout (e.g. 30s)
  rps              HTTP fetch requests per second

Datasets and name variants are edited in .lifeviz/config.yml directly.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

// configKey reads and writes one scalar config setting.
type configKey struct {
	get func(*config.Config) string
	set func(*config.Config, string) error
}

var configKeys = map[string]configKey{
	"data-dir": {
		get: func(c *config.Config) string { return c.DataDir },
		set: func(c *config.Config, v string) error { c.DataDir = config.ExpandTilde(v); return nil },
	},
	"addr": {
		get: func(c *config.Config) string { return c.Server.Addr },
		set: func(c *config.Config, v string) error { c.Server.Addr = v; return nil },
	},
	"allowed-origins": {
		get: func(c *config.Config) string { return strings.Join(c.Server.AllowedOrigins, ",") },
		set: func(c *config.Config, v string) error { c.Server.AllowedOrigins = splitList(v); return nil },
	},
	"default-year": {
		get: func(c *config.Config) string { return strconv.Itoa(c.Chart.DefaultYear) },
		set: func(c *config.Config, v string) error {
			y, err := strconv.Atoi(v)
			if err != nil || y < 0 {
				return fmt.Errorf("default-year must be a year or 0, got %q", v)
			}
			c.Chart.DefaultYear = y
			return nil
		},
	},
	"width": {
		get: func(c *config.Config) string { return num(c.Chart.Frame.Width) },
		set: func(c *config.Config, v string) error { return setFloat(&c.Chart.Frame.Width, "width", v) },
	},
	"height": {
		get: func(c *config.Config) string { return num(c.Chart.Frame.Height) },
		set: func(c *config.Config, v string) error { return setFloat(&c.Chart.Frame.Height, "height", v) },
	},
	"timeout": {
		get: func(c *config.Config) string { return c.Fetch.Timeout.String() },
		set: func(c *config.Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("timeout: %v", err)
			}
			c.Fetch.Timeout = d
			return nil
		},
	},
	"rps": {
		get: func(c *config.Config) string { return num(c.Fetch.RequestsPerSecond) },
		set: func(c *config.Config, v string) error { return setFloat(&c.Fetch.RequestsPerSecond, "rps", v) },
	},
}

func setFloat(dst *float64, key, v string) error {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s must be a number, got %q", key, v)
	}
	*dst = f
	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	root := mustFindProject()
	cfg := mustLoadConfig(root)

	// No args: show all config
	if len(args) == 0 {
		all := configValues(cfg)
		if humanOutput {
			keys := make([]string, 0, len(all))
			for k := range all {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("%-16s %s\n", k+":", all[k])
			}
			for _, s := range cfg.Datasets {
				fmt.Printf("dataset %-8s %s\n", s.Name, s.Location)
			}
		} else {
			outputJSON(struct {
				Values   map[string]string `json:"values"`
				Datasets any               `json:"datasets"`
			}{all, cfg.Datasets})
		}
		return nil
	}

	key := normalizeKey(args[0])
	k, ok := configKeys[key]
	if !ok {
		exitWithError(ExitError, "unknown configuration key: %s", args[0])
	}

	// One arg: get specific value
	if len(args) == 1 {
		if humanOutput {
			fmt.Println(k.get(cfg))
		} else {
			outputJSON(map[string]string{key: k.get(cfg)})
		}
		return nil
	}

	// Two args: set value
	value := args[1]
	if err := setConfigValue(root, cfg, key, value); err != nil {
		exitWithError(exitCodeFor(err), "%v", err)
	}

	if humanOutput {
		fmt.Printf("Updated %s to %s\n", key, value)
	} else {
		outputJSON(UpdateResponse{
			Status: "updated",
			Key:    key,
			Value:  value,
		})
	}
	return nil
}

// configValues returns every scalar setting keyed by its CLI name.
func configValues(cfg *config.Config) map[string]string {
	out := make(map[string]string, len(configKeys))
	for name, k := range configKeys {
		out[name] = k.get(cfg)
	}
	return out
}

// setConfigValue applies, validates and saves one setting.
func setConfigValue(root string, cfg *config.Config, key, value string) error {
	k, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	if err := k.set(cfg, value); err != nil {
		return fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return cfg.Save(root)
}

// normalizeKey converts key formats (data-dir, data_dir, DATA-DIR) to consistent format
func normalizeKey(key string) string {
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, "_", "-")
	return key
}
