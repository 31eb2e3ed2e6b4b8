package config

// Validate checks structural invariants of the decoded document.
// Violations are ValidationErrors; the first one aborts loading.
func (c *Config) Validate() error {
	switch c.Driver.Type {
	case "exec", "setup":
	default:
		return validationErrorf("driver", "type must be exec or setup, got %q", c.Driver.Type)
	}

	if c.Driver.Workers < 1 {
		return validationErrorf("driver", "workers must be at least 1, got %d", c.Driver.Workers)
	}

	if c.Driver.RunDir == "" {
		return validationErrorf("driver", "rundir is required")
	}

	if len(c.Runs) == 0 {
		return &ValidationError{Msg: "no run sections declared"}
	}

	for name, group := range c.Runs {
		if err := validateGroup(name, group); err != nil {
			return err
		}
	}

	for i, f := range c.Files {
		if f.Input == "" {
			return validationErrorf("files", "entry %d is missing an input path", i)
		}
		if f.Output == "" {
			return validationErrorf("files", "entry %d is missing an output path", i)
		}
		if f.Type == "batch" && c.Driver.BatchCommand == "" {
			return validationErrorf("driver", "batchcommand is required when a file is tagged batch")
		}
	}

	return nil
}

// validateGroup confirms the variable order names exactly the
// declared variable set.
func validateGroup(name string, group RunGroup) error {
	if len(group.Order) != len(group.Variables) {
		return validationErrorf(name, "provided variable order and parsed variables are not the same")
	}

	seen := make(map[string]bool, len(group.Order))
	for _, v := range group.Order {
		if _, ok := group.Variables[v]; !ok {
			return validationErrorf(name, "variable order names unknown variable %q", v)
		}
		if seen[v] {
			return validationErrorf(name, "variable %q appears twice in variable order", v)
		}
		seen[v] = true
	}

	return nil
}
