// Package config handles configuration loading and merging for playv.
//
// # Configuration Precedence
//
// Configuration values are resolved in the following order (highest to lowest priority):
//
//  1. CLI flags (--root, --debug, --no-color, --match)
//  2. Environment variables (LABSROOT, LABS_DEV_ROOT, LABS_PUBLIC_ROOT, PLAYV_DEBUG, NO_COLOR),
//     including those loaded from a .env file in the working directory
//  3. YAML config file (--config, else .playv.yaml in the working directory, else
//     <user config dir>/playv/config.yaml)
//  4. Hardcoded defaults
//
// A .env file never overrides a variable that is already set in the environment.
//
// # Environment Variables
//
//   - LABSROOT: directory holding the lab folders
//   - LABS_DEV_ROOT, LABS_PUBLIC_ROOT: source and destination of a design resync
//   - PLAYV_DEBUG: set to any true value to enable debug logging
//   - NO_COLOR: set to any non-empty value to disable colors
package config
