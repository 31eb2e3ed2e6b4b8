package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/chauffeur/internal/param"
	"github.com/leapstack-labs/chauffeur/pkg/core"
)

// DefaultStatePath is the default run-history database location.
const DefaultStatePath = ".chauffeur/state.db"

// findConfigFile finds the config file to use.
// Priority: explicit path > input.yaml > chauffeur.yaml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"input.yaml", "input.yml", "chauffeur.yaml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load loads configuration from file, environment variables, and
// flags. Precedence (highest to lowest): flags > env vars > config
// file > defaults.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults. The driver runs dry unless the document or flags
	// say otherwise.
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"state_path":         DefaultStatePath,
		"verbose":            false,
		"driver.type":        "exec",
		"driver.dryrun":      true,
		"driver.workers":     1,
		"driver.intfmtlong":  param.DefaultIntFmtLong,
		"driver.fltfmtlong":  param.DefaultFltFmtLong,
		"driver.intfmtshort": param.DefaultIntFmtShort,
		"driver.fltfmtshort": param.DefaultFltFmtShort,
		"driver.batchscript": "submit_batch.sh",
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file.
	cfgFile = findConfigFile(cfgFile)
	if cfgFile == "" {
		return nil, &ValidationError{Msg: "no configuration file found (looked for input.yaml)"}
	}
	if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
	}

	// 3. Environment variables (CHAUFFEUR_ prefix).
	// Transform: CHAUFFEUR_STATE_PATH -> state_path
	if err := k.Load(env.Provider("CHAUFFEUR_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "CHAUFFEUR_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags (highest priority).
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			switch f.Name {
			case "state":
				return "state_path", posflag.FlagVal(flags, f)
			case "workers":
				return "driver.workers", posflag.FlagVal(flags, f)
			case "dry-run":
				return "driver.dryrun", posflag.FlagVal(flags, f)
			case "verbose":
				return "verbose", posflag.FlagVal(flags, f)
			}
			return "", nil
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	cfg := &Config{Path: cfgFile}
	cfg.StatePath = k.String("state_path")
	cfg.Verbose = k.Bool("verbose")

	raw := k.Raw()

	if err := decodeDriver(k, raw, cfg); err != nil {
		return nil, err
	}
	if err := decodeUserDef(raw, cfg); err != nil {
		return nil, err
	}
	if err := decodeRunGroups(raw, cfg); err != nil {
		return nil, err
	}
	if err := decodeFiles(raw, cfg); err != nil {
		return nil, err
	}

	// The driver's templatefile/paramfile pair forms an implicit
	// file definition ahead of the declared list.
	if cfg.Driver.TemplateFile != "" && cfg.Driver.ParamFile != "" {
		cfg.Files = append([]FileConfig{{
			Input:  cfg.Driver.TemplateFile,
			Output: cfg.Driver.ParamFile,
		}}, cfg.Files...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// driverKeys are the accepted keys of the driver section.
var driverKeys = map[string]bool{
	"executable": true, "rundir": true, "templatefile": true,
	"paramfile": true, "templatedir": true, "type": true,
	"dryrun": true, "workers": true,
	"precommand": true, "execcommand": true, "postcommand": true,
	"intfmtlong": true, "fltfmtlong": true, "intfmtshort": true, "fltfmtshort": true,
	"batchcommand": true, "batchscript": true,
}

func decodeDriver(k *koanf.Koanf, raw map[string]interface{}, cfg *Config) error {
	if section, ok := raw["driver"].(map[string]interface{}); ok {
		for key := range section {
			if !driverKeys[strings.ToLower(key)] {
				accepted := make([]string, 0, len(driverKeys))
				for k := range driverKeys {
					accepted = append(accepted, k)
				}
				sort.Strings(accepted)
				return validationErrorf("driver", "key %q not accepted; options are: %s", key, strings.Join(accepted, ", "))
			}
		}
	}

	if err := k.UnmarshalWithConf("driver", &cfg.Driver, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg.Driver,
			WeaklyTypedInput: true,
		},
	}); err != nil {
		return fmt.Errorf("unable to decode driver section: %w", err)
	}
	return nil
}

func decodeUserDef(raw map[string]interface{}, cfg *Config) error {
	cfg.UserDef = make(map[string]core.Value)
	section, ok := raw["userdef"].(map[string]interface{})
	if !ok {
		return nil
	}
	for key, v := range section {
		val, err := core.ValueOf(v)
		if err != nil {
			return validationErrorf("userdef", "key %q: %v", key, err)
		}
		cfg.UserDef[strings.ToLower(key)] = val
	}
	return nil
}

// decodeRunGroups extracts every top-level key containing "run" as a
// run group declaration.
func decodeRunGroups(raw map[string]interface{}, cfg *Config) error {
	cfg.Runs = make(map[string]RunGroup)

	for key, v := range raw {
		lower := strings.ToLower(key)
		if !strings.Contains(lower, "run") || reservedKeys[lower] {
			continue
		}

		section, ok := v.(map[string]interface{})
		if !ok {
			return validationErrorf(key, "run group must be a mapping")
		}

		group, err := decodeRunGroup(key, section)
		if err != nil {
			return err
		}
		cfg.Runs[lower] = group
	}

	return nil
}

// reservedKeys are top-level keys that are never run groups.
var reservedKeys = map[string]bool{
	"driver": true, "userdef": true, "files": true,
	"state_path": true, "verbose": true, "dry-run": true,
}

func decodeRunGroup(name string, section map[string]interface{}) (RunGroup, error) {
	group := RunGroup{Variables: make(map[string][]core.Value)}

	vars, ok := section["variables"].(map[string]interface{})
	if !ok || len(vars) == 0 {
		return group, validationErrorf(name, "run group declares no variables")
	}

	for varName, raw := range vars {
		candidates, err := decodeValueList(raw)
		if err != nil {
			return group, validationErrorf(name, "variable %q: %v", varName, err)
		}
		group.Variables[varName] = candidates
	}

	if rawOrder, present := section["variableorder"]; present {
		list, ok := rawOrder.([]interface{})
		if !ok {
			return group, validationErrorf(name, "variableorder must be a sequence")
		}
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return group, validationErrorf(name, "variableorder entries must be names")
			}
			group.Order = append(group.Order, s)
		}
	} else {
		// No explicit order: sorted names, for deterministic expansion.
		for varName := range group.Variables {
			group.Order = append(group.Order, varName)
		}
		sort.Strings(group.Order)
	}

	if params, present := section["parameters"]; present {
		m, ok := params.(map[string]interface{})
		if !ok {
			return group, validationErrorf(name, "parameters must be a mapping")
		}
		group.Parameters = make(map[string]core.Value, len(m))
		for key, v := range m {
			val, err := core.ValueOf(v)
			if err != nil {
				return group, validationErrorf(name, "parameter %q: %v", key, err)
			}
			group.Parameters[key] = val
		}
	}

	return group, nil
}

func decodeFiles(raw map[string]interface{}, cfg *Config) error {
	section, present := raw["files"]
	if !present {
		return nil
	}

	list, ok := section.([]interface{})
	if !ok {
		return validationErrorf("files", "files must be a sequence")
	}

	for i, item := range list {
		entry, ok := item.(map[string]interface{})
		if !ok {
			return validationErrorf("files", "entry %d must be a mapping", i)
		}

		fc := FileConfig{}
		if s, ok := entry["input"].(string); ok {
			fc.Input = s
		}
		if s, ok := entry["output"].(string); ok {
			fc.Output = s
		}
		if s, ok := entry["type"].(string); ok {
			fc.Type = s
		}
		if params, ok := entry["parameters"].(map[string]interface{}); ok {
			fc.Parameters = make(map[string]core.Value, len(params))
			for key, v := range params {
				val, err := core.ValueOf(v)
				if err != nil {
					return validationErrorf("files", "entry %d parameter %q: %v", i, key, err)
				}
				fc.Parameters[key] = val
			}
		}
		cfg.Files = append(cfg.Files, fc)
	}

	return nil
}

// decodeValueList coerces a candidate declaration into an ordered
// value sequence. A bare scalar becomes a one-element sequence.
func decodeValueList(raw interface{}) ([]core.Value, error) {
	if list, ok := raw.([]interface{}); ok {
		if len(list) == 0 {
			return nil, fmt.Errorf("empty candidate sequence")
		}
		values := make([]core.Value, len(list))
		for i, item := range list {
			v, err := core.ValueOf(item)
			if err != nil {
				return nil, fmt.Errorf("candidate %d: %w", i, err)
			}
			values[i] = v
		}
		return values, nil
	}

	v, err := core.ValueOf(raw)
	if err != nil {
		return nil, err
	}
	return []core.Value{v}, nil
}
