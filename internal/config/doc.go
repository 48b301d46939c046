// Package config loads and validates svcconsole configuration.
//
// Configuration is assembled from layers, higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  4. Command Line Flags      │  ← Highest priority
//	├─────────────────────────────┤
//	│  3. Environment Variables   │  ← SVCCONSOLE_SECTION_SETTING
//	├─────────────────────────────┤
//	│  2. Config File             │  ← svcconsole.toml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// Each layer is a generic map; the merged map is decoded into Config with
// unknown keys rejected, then checked by Validate.
package config
