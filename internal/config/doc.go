// Package config provides configuration loading and validation for the voice
// fraud detection service. It handles YAML-based configuration with struct
// validation and defaulting for optional analysis parameters.
package config
